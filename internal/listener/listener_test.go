package listener

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-sync/internal/roster"
)

type fakeRunner struct {
	diffCalls []SyncRequest
	allCalls  []int
	diffErr   error
}

func (f *fakeRunner) RunDiff(_ context.Context, sport string, year, leagueID int) (*roster.DiffResult, error) {
	f.diffCalls = append(f.diffCalls, SyncRequest{Sport: sport, Season: year, LeagueID: leagueID})
	if f.diffErr != nil {
		return nil, f.diffErr
	}
	return &roster.DiffResult{Sport: sport, Season: year, LeagueID: leagueID}, nil
}

func (f *fakeRunner) RunAllPriorityDiffs(_ context.Context, year int) []roster.DiffResult {
	f.allCalls = append(f.allCalls, year)
	return []roster.DiffResult{{Sport: "NBA", Season: year}}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseSyncRequestEmptyPayload(t *testing.T) {
	req := parseSyncRequest("", 2025, discard())
	assert.Equal(t, SyncRequest{Season: 2025}, req)
}

func TestParseSyncRequestTargeted(t *testing.T) {
	req := parseSyncRequest(`{"sport":"FOOTBALL","season":2024,"league_id":8}`, 2025, discard())
	assert.Equal(t, SyncRequest{Sport: "FOOTBALL", Season: 2024, LeagueID: 8}, req)
}

func TestParseSyncRequestDefaultsSeason(t *testing.T) {
	req := parseSyncRequest(`{"sport":"NBA"}`, 2025, discard())
	assert.Equal(t, 2025, req.Season)
}

func TestParseSyncRequestMalformedFallsBack(t *testing.T) {
	req := parseSyncRequest(`{not json`, 2025, discard())
	assert.Equal(t, SyncRequest{Season: 2025}, req)
}

func TestRunSyncTargetedSport(t *testing.T) {
	runner := &fakeRunner{}
	results := runSync(context.Background(), runner, SyncRequest{Sport: "NBA", Season: 2025}, discard())

	require.Len(t, results, 1)
	assert.Equal(t, "NBA", results[0].Sport)
	assert.Empty(t, runner.allCalls)
}

func TestRunSyncEmptySportRunsPriorityPass(t *testing.T) {
	runner := &fakeRunner{}
	results := runSync(context.Background(), runner, SyncRequest{Season: 2025}, discard())

	require.Len(t, results, 1)
	assert.Equal(t, []int{2025}, runner.allCalls)
	assert.Empty(t, runner.diffCalls)
}

func TestRunSyncDiffFailureReturnsNoResults(t *testing.T) {
	runner := &fakeRunner{diffErr: errors.New("no source")}
	results := runSync(context.Background(), runner, SyncRequest{Sport: "MLB", Season: 2025}, discard())
	assert.Nil(t, results)
}
