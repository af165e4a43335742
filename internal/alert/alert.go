// Package alert records roster reconciliation outcomes for downstream
// consumers. Every transfer, new player, and departure a diff run observes
// becomes a row in roster_changes; consumers (digest jobs, notification
// pipelines) read from there.
package alert

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albapepper/scoracle-sync/internal/roster"
)

// Change types written to roster_changes.
const (
	ChangeNewPlayer = "new_player"
	ChangeTransfer  = "transfer"
	ChangeDeparted  = "departed"
)

// Execer is the write surface the recorder needs; *pgxpool.Pool satisfies it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Recorder persists diff outcomes. Recording is best-effort: a failed insert
// is logged and counted but never fails the run that produced the change.
type Recorder struct {
	db     Execer
	logger *slog.Logger
}

// NewRecorder creates a recorder over a pool.
func NewRecorder(db Execer, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{db: db, logger: logger}
}

// Record writes one row per observed change and logs a digest. It returns
// the number of rows written.
func (r *Recorder) Record(ctx context.Context, result roster.DiffResult) int {
	written := 0

	for _, id := range result.NewPlayerIDs {
		if r.insert(ctx, result, id, ChangeNewPlayer, nil, nil) {
			written++
		}
	}
	for _, tr := range result.Transfers {
		to := tr.ToTeamID
		if r.insert(ctx, result, tr.PlayerID, ChangeTransfer, tr.FromTeamID, &to) {
			written++
		}
	}
	for _, id := range result.DepartedIDs {
		if r.insert(ctx, result, id, ChangeDeparted, nil, nil) {
			written++
		}
	}

	if written > 0 || !result.Empty() {
		r.logger.Info("Roster changes recorded",
			"sport", result.Sport, "season", result.Season, "league_id", result.LeagueID,
			"written", written, "summary", result.Summary())
	}
	return written
}

// RecordAll records a batch of results, one digest line per non-empty run.
func (r *Recorder) RecordAll(ctx context.Context, results []roster.DiffResult) int {
	total := 0
	for _, res := range results {
		total += r.Record(ctx, res)
	}
	return total
}

func (r *Recorder) insert(ctx context.Context, result roster.DiffResult, playerID int, changeType string, fromTeam, toTeam *int) bool {
	_, err := r.db.Exec(ctx, "insert_roster_change",
		result.Sport, result.Season, result.LeagueID,
		playerID, changeType, fromTeam, toTeam,
	)
	if err != nil {
		r.logger.Warn("record roster change failed",
			"sport", result.Sport, "player_id", playerID, "type", changeType, "error", err)
		return false
	}
	return true
}
