package roster

import (
	"fmt"
	"time"
)

// Transfer records a player moving between teams, as observed by comparing
// the live provider snapshot against persisted state.
type Transfer struct {
	PlayerID   int
	FromTeamID *int // nil when the player previously had no team on record
	ToTeamID   int
}

// DiffResult is the outcome of one reconciliation run. It is mutated by the
// run that created it and returned to the caller once complete; it is never
// written to after return.
type DiffResult struct {
	Sport    string
	Season   int
	LeagueID int

	NewPlayerIDs []int
	Transfers    []Transfer
	DepartedIDs  []int
	NewTeamIDs   []int

	// Skipped counts live records dropped for lacking a provider id.
	Skipped int

	StartedAt   time.Time
	CompletedAt time.Time

	Errors []string
}

// Empty reports whether the run observed no roster changes at all.
func (r *DiffResult) Empty() bool {
	return len(r.NewPlayerIDs) == 0 && len(r.Transfers) == 0 &&
		len(r.DepartedIDs) == 0 && len(r.NewTeamIDs) == 0
}

// Add merges another DiffResult into this one: change lists are
// concatenated, counters summed, no error message dropped. Associative and
// commutative up to ordering, so per-league results can be tallied in any
// grouping.
func (r *DiffResult) Add(other DiffResult) {
	r.NewPlayerIDs = append(r.NewPlayerIDs, other.NewPlayerIDs...)
	r.Transfers = append(r.Transfers, other.Transfers...)
	r.DepartedIDs = append(r.DepartedIDs, other.DepartedIDs...)
	r.NewTeamIDs = append(r.NewTeamIDs, other.NewTeamIDs...)
	r.Skipped += other.Skipped
	r.Errors = append(r.Errors, other.Errors...)
}

// AddError records an error message.
func (r *DiffResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddErrorf records a formatted error message.
func (r *DiffResult) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the run.
func (r *DiffResult) Summary() string {
	return fmt.Sprintf(
		"new_players=%d transferred=%d departed=%d new_teams=%d skipped=%d errors=%d",
		len(r.NewPlayerIDs), len(r.Transfers), len(r.DepartedIDs),
		len(r.NewTeamIDs), r.Skipped, len(r.Errors),
	)
}
