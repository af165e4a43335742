package roster

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/scoracle-sync/internal/provider"
)

// fakeStore is an in-memory Store that mutates real state, so idempotence
// tests exercise the same read-back path production uses.
type fakeStore struct {
	players map[int]PersistedEntry
	teams   map[int]bool

	seasonFound bool
	seasonID    int
	resolveErr  error
	rosterErr   error

	upsertPlayerErr map[int]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		players:     make(map[int]PersistedEntry),
		teams:       make(map[int]bool),
		seasonFound: true,
		seasonID:    2025,
	}
}

func (s *fakeStore) ResolveSeason(_ context.Context, _ string, _, _ int) (int, bool, error) {
	if s.resolveErr != nil {
		return 0, false, s.resolveErr
	}
	return s.seasonID, s.seasonFound, nil
}

func (s *fakeStore) PersistedRoster(_ context.Context, _ string, _ int) ([]PersistedEntry, error) {
	if s.rosterErr != nil {
		return nil, s.rosterErr
	}
	ids := make([]int, 0, len(s.players))
	for id := range s.players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	entries := make([]PersistedEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, s.players[id])
	}
	return entries, nil
}

func (s *fakeStore) PersistedTeamIDs(_ context.Context, _ string) (map[int]bool, error) {
	out := make(map[int]bool, len(s.teams))
	for id := range s.teams {
		out[id] = true
	}
	return out, nil
}

func (s *fakeStore) UpsertPlayer(_ context.Context, _ string, p provider.Player) error {
	if err := s.upsertPlayerErr[p.ID]; err != nil {
		return err
	}
	s.players[p.ID] = PersistedEntry{ID: p.ID, TeamID: p.TeamID, Active: true}
	return nil
}

func (s *fakeStore) UpsertTeam(_ context.Context, _ string, t provider.Team) error {
	s.teams[t.ID] = true
	return nil
}

func (s *fakeStore) UpdatePlayerTeam(_ context.Context, _ string, playerID, teamID int) error {
	entry, ok := s.players[playerID]
	if !ok {
		return fmt.Errorf("player %d not found", playerID)
	}
	entry.TeamID = &teamID
	s.players[playerID] = entry
	return nil
}

// fakeSource serves a fixed snapshot.
type fakeSource struct {
	teams     []provider.Team
	players   []provider.Player
	teamsErr  error
	warnErrs  []error
	streamErr error
}

func (s *fakeSource) LiveTeams(_ context.Context, _ Season) ([]provider.Team, error) {
	return s.teams, s.teamsErr
}

func (s *fakeSource) LiveRoster(_ context.Context, _ Season, _ []provider.Team, emit func(provider.Player) error, warn func(error)) error {
	for _, w := range s.warnErrs {
		warn(w)
	}
	for _, p := range s.players {
		if err := emit(p); err != nil {
			return err
		}
	}
	return s.streamErr
}

func intPtr(v int) *int { return &v }

func player(id int, teamID *int) provider.Player {
	return provider.Player{ID: id, Name: fmt.Sprintf("Player %d", id), TeamID: teamID}
}

func newTestEngine(store Store, source Source, targets ...Target) *Engine {
	return NewEngine(store, map[string]Source{"NBA": source, "FOOTBALL": source}, targets, nil)
}

func TestRunDiffClassifiesNewPlayersAndTeams(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{
		teams:   []provider.Team{{ID: 1, Name: "Hawks"}, {ID: 2, Name: "Celtics"}},
		players: []provider.Player{player(7, intPtr(1)), player(8, intPtr(2))},
	}
	engine := newTestEngine(store, source)

	result, err := engine.RunDiff(context.Background(), "NBA", 2025, 0)
	require.NoError(t, err)
	require.Empty(t, result.Errors)

	assert.Equal(t, []int{1, 2}, result.NewTeamIDs)
	assert.Equal(t, []int{7, 8}, result.NewPlayerIDs)
	assert.Empty(t, result.Transfers)
	assert.Empty(t, result.DepartedIDs)
	assert.False(t, result.CompletedAt.IsZero())

	// The minimal rows landed.
	require.Contains(t, store.players, 7)
	assert.Equal(t, 1, *store.players[7].TeamID)
	assert.True(t, store.teams[1])
}

func TestRunDiffIsIdempotent(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{
		teams:   []provider.Team{{ID: 1, Name: "Hawks"}},
		players: []provider.Player{player(7, intPtr(1))},
	}
	engine := newTestEngine(store, source)

	first, err := engine.RunDiff(context.Background(), "NBA", 2025, 0)
	require.NoError(t, err)
	require.False(t, first.Empty())

	// No provider change between runs: the second diff observes nothing.
	second, err := engine.RunDiff(context.Background(), "NBA", 2025, 0)
	require.NoError(t, err)
	assert.True(t, second.Empty(), "second run should be empty, got %s", second.Summary())
}

func TestRunDiffDetectsTransfer(t *testing.T) {
	store := newFakeStore()
	store.players[7] = PersistedEntry{ID: 7, TeamID: intPtr(1), Active: true}
	store.teams[1], store.teams[2] = true, true

	source := &fakeSource{
		teams:   []provider.Team{{ID: 1}, {ID: 2}},
		players: []provider.Player{player(7, intPtr(2))},
	}
	engine := newTestEngine(store, source)

	result, err := engine.RunDiff(context.Background(), "NBA", 2025, 0)
	require.NoError(t, err)

	require.Len(t, result.Transfers, 1)
	tr := result.Transfers[0]
	assert.Equal(t, 7, tr.PlayerID)
	require.NotNil(t, tr.FromTeamID)
	assert.Equal(t, 1, *tr.FromTeamID)
	assert.Equal(t, 2, tr.ToTeamID)

	// Persisted state moved to the new team.
	assert.Equal(t, 2, *store.players[7].TeamID)
	assert.Empty(t, result.NewPlayerIDs)
}

func TestRunDiffTransferFromNoTeam(t *testing.T) {
	store := newFakeStore()
	store.players[7] = PersistedEntry{ID: 7, TeamID: nil, Active: true}
	store.teams[2] = true

	source := &fakeSource{
		teams:   []provider.Team{{ID: 2}},
		players: []provider.Player{player(7, intPtr(2))},
	}
	engine := newTestEngine(store, source)

	result, err := engine.RunDiff(context.Background(), "NBA", 2025, 0)
	require.NoError(t, err)
	require.Len(t, result.Transfers, 1)
	assert.Nil(t, result.Transfers[0].FromTeamID)
	assert.Equal(t, 2, result.Transfers[0].ToTeamID)
}

func TestRunDiffIgnoresMissingLiveTeamInfo(t *testing.T) {
	store := newFakeStore()
	store.players[7] = PersistedEntry{ID: 7, TeamID: intPtr(1), Active: true}
	store.teams[1] = true

	// Provider lists the player but omits team data: not a transfer.
	source := &fakeSource{
		teams:   []provider.Team{{ID: 1}},
		players: []provider.Player{player(7, nil)},
	}
	engine := newTestEngine(store, source)

	result, err := engine.RunDiff(context.Background(), "NBA", 2025, 0)
	require.NoError(t, err)
	assert.Empty(t, result.Transfers)
	assert.Equal(t, 1, *store.players[7].TeamID)
}

func TestRunDiffRecordsDeparturesWithoutDeactivating(t *testing.T) {
	store := newFakeStore()
	store.players[7] = PersistedEntry{ID: 7, TeamID: intPtr(1), Active: true}
	store.players[8] = PersistedEntry{ID: 8, TeamID: intPtr(1), Active: false}
	store.teams[1] = true

	source := &fakeSource{teams: []provider.Team{{ID: 1}}}
	engine := newTestEngine(store, source)

	result, err := engine.RunDiff(context.Background(), "NBA", 2025, 0)
	require.NoError(t, err)

	// Only the active player is reported; the inactive row is old news.
	assert.Equal(t, []int{7}, result.DepartedIDs)

	// Recorded only: the row is still active in the store.
	assert.True(t, store.players[7].Active)
}

func TestRunDiffSkipsRecordsWithoutProviderID(t *testing.T) {
	store := newFakeStore()
	source := &fakeSource{
		teams:   []provider.Team{{ID: 1}},
		players: []provider.Player{player(0, intPtr(1)), player(7, intPtr(1))},
	}
	engine := newTestEngine(store, source)

	result, err := engine.RunDiff(context.Background(), "NBA", 2025, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, []int{7}, result.NewPlayerIDs)
}

func TestRunDiffIsolatesWriteFailures(t *testing.T) {
	store := newFakeStore()
	store.upsertPlayerErr = map[int]error{7: errors.New("connection reset")}
	source := &fakeSource{
		teams:   []provider.Team{{ID: 1}},
		players: []provider.Player{player(7, intPtr(1)), player(8, intPtr(1))},
	}
	engine := newTestEngine(store, source)

	result, err := engine.RunDiff(context.Background(), "NBA", 2025, 0)
	require.NoError(t, err)

	// Player 7's failure is recorded and player 8 is still classified.
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "player 7")
	assert.Equal(t, []int{8}, result.NewPlayerIDs)
	assert.Contains(t, store.players, 8)
}

func TestRunDiffUnresolvedSeasonIsNotAnError(t *testing.T) {
	store := newFakeStore()
	store.seasonFound = false
	engine := newTestEngine(store, &fakeSource{})

	result, err := engine.RunDiff(context.Background(), "NBA", 2031, 0)
	require.NoError(t, err)
	assert.True(t, result.Empty())
	assert.Empty(t, result.Errors)
}

func TestRunDiffSeasonResolutionFailurePropagates(t *testing.T) {
	store := newFakeStore()
	store.resolveErr = errors.New("database down")
	engine := newTestEngine(store, &fakeSource{})

	_, err := engine.RunDiff(context.Background(), "NBA", 2025, 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "resolve season")
}

func TestRunDiffUnknownSportFails(t *testing.T) {
	engine := newTestEngine(newFakeStore(), &fakeSource{})
	_, err := engine.RunDiff(context.Background(), "CRICKET", 2025, 0)
	require.Error(t, err)
}

func TestRunDiffIncompleteStreamSkipsDepartures(t *testing.T) {
	store := newFakeStore()
	store.players[7] = PersistedEntry{ID: 7, TeamID: intPtr(1), Active: true}
	store.teams[1] = true

	source := &fakeSource{
		teams:     []provider.Team{{ID: 1}},
		streamErr: errors.New("rate limit exhausted"),
	}
	engine := newTestEngine(store, source)

	result, err := engine.RunDiff(context.Background(), "NBA", 2025, 0)
	require.NoError(t, err)

	// A truncated stream must not fabricate departures.
	assert.Empty(t, result.DepartedIDs)
	require.NotEmpty(t, result.Errors)
}

func TestRunDiffRecordsPartialSquadFailures(t *testing.T) {
	store := newFakeStore()
	store.teams[1] = true
	source := &fakeSource{
		teams:    []provider.Team{{ID: 1}},
		players:  []provider.Player{player(7, intPtr(1))},
		warnErrs: []error{errors.New("squad 42 unavailable")},
	}
	engine := newTestEngine(store, source)

	result, err := engine.RunDiff(context.Background(), "FOOTBALL", 2025, 8)
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "squad 42")
	// The rest of the roster was still processed.
	assert.Equal(t, []int{7}, result.NewPlayerIDs)
}

func TestRunAllPriorityDiffsIsolatesFailures(t *testing.T) {
	okStore := newFakeStore()
	source := &fakeSource{
		teams:   []provider.Team{{ID: 1}},
		players: []provider.Player{player(7, intPtr(1))},
	}

	// The NBA target works; the FOOTBALL target's season resolution blows
	// up at the infrastructure level.
	store := &routingStore{ok: okStore, failSport: "FOOTBALL"}
	engine := NewEngine(store,
		map[string]Source{"NBA": source, "FOOTBALL": source},
		[]Target{{Sport: "FOOTBALL", LeagueID: 8}, {Sport: "NBA"}},
		nil)

	results := engine.RunAllPriorityDiffs(context.Background(), 2025)
	require.Len(t, results, 2)

	assert.NotEmpty(t, results[0].Errors)
	assert.Equal(t, "FOOTBALL", results[0].Sport)

	// The sibling run after the failure still completed.
	assert.Equal(t, "NBA", results[1].Sport)
	assert.Empty(t, results[1].Errors)
	assert.Equal(t, []int{7}, results[1].NewPlayerIDs)
}

// routingStore fails season resolution for one sport and delegates the rest.
type routingStore struct {
	ok        *fakeStore
	failSport string
}

func (s *routingStore) ResolveSeason(ctx context.Context, sport string, year, leagueID int) (int, bool, error) {
	if sport == s.failSport {
		return 0, false, errors.New("provider_seasons unreachable")
	}
	return s.ok.ResolveSeason(ctx, sport, year, leagueID)
}

func (s *routingStore) PersistedRoster(ctx context.Context, sport string, leagueID int) ([]PersistedEntry, error) {
	return s.ok.PersistedRoster(ctx, sport, leagueID)
}

func (s *routingStore) PersistedTeamIDs(ctx context.Context, sport string) (map[int]bool, error) {
	return s.ok.PersistedTeamIDs(ctx, sport)
}

func (s *routingStore) UpsertPlayer(ctx context.Context, sport string, p provider.Player) error {
	return s.ok.UpsertPlayer(ctx, sport, p)
}

func (s *routingStore) UpsertTeam(ctx context.Context, sport string, t provider.Team) error {
	return s.ok.UpsertTeam(ctx, sport, t)
}

func (s *routingStore) UpdatePlayerTeam(ctx context.Context, sport string, playerID, teamID int) error {
	return s.ok.UpdatePlayerTeam(ctx, sport, playerID, teamID)
}
