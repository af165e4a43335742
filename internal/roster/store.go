package roster

import (
	"context"

	"github.com/albapepper/scoracle-sync/internal/provider"
)

// PersistedEntry is one player row as the diff engine sees persisted state:
// identity, current team, and whether the row is still marked active.
type PersistedEntry struct {
	ID     int
	TeamID *int
	Active bool
}

// Store is the persistence surface the diff engine needs. The production
// implementation is PGStore; tests substitute an in-memory fake. All writes
// are idempotent upserts keyed by (id, sport), so replaying a diff with no
// provider change is a storage-level no-op.
type Store interface {
	// ResolveSeason maps (sport, year, league) to the provider's season
	// identifier. found=false is a data condition ("nothing to reconcile
	// yet"), not an error; a returned error is an infrastructure failure.
	ResolveSeason(ctx context.Context, sport string, year, leagueID int) (providerSeasonID int, found bool, err error)

	// PersistedRoster reads the stored player -> team assignments scoped to
	// the sport, and to the league when leagueID is non-zero.
	PersistedRoster(ctx context.Context, sport string, leagueID int) ([]PersistedEntry, error)

	// PersistedTeamIDs reads the set of stored team ids for the sport.
	PersistedTeamIDs(ctx context.Context, sport string) (map[int]bool, error)

	// UpsertPlayer writes a minimal player profile row; full enrichment is
	// deferred to the next stat seed.
	UpsertPlayer(ctx context.Context, sport string, p provider.Player) error

	// UpsertTeam writes a minimal team profile row.
	UpsertTeam(ctx context.Context, sport string, t provider.Team) error

	// UpdatePlayerTeam moves a player to a new team.
	UpdatePlayerTeam(ctx context.Context, sport string, playerID, teamID int) error
}
