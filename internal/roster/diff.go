// Package roster reconciles live provider rosters against persisted state.
//
// A diff run fetches the current provider snapshot, compares it with the
// stored player -> team assignments, classifies every entity as new,
// transferred, or departed, and issues idempotent writes for the first two.
// Departures are recorded but never auto-deactivated: a provider omitting a
// player (injury list, data lag) must not be treated as a roster exit.
package roster

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/albapepper/scoracle-sync/internal/provider"
)

// Target identifies one sport/league the reconciliation covers. LeagueID is
// zero for sports without league scoping (NBA, NFL).
type Target struct {
	Sport    string
	LeagueID int
}

// Engine orchestrates diff runs. All collaborators are injected; the engine
// holds no hidden process-wide state.
type Engine struct {
	store   Store
	sources map[string]Source
	targets []Target
	logger  *slog.Logger
}

// NewEngine creates a diff engine over the given store and per-sport
// sources. targets is the priority list RunAllPriorityDiffs walks.
func NewEngine(store Store, sources map[string]Source, targets []Target, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, sources: sources, targets: targets, logger: logger}
}

// RunDiff reconciles one sport/season/league.
//
// The returned error is reserved for infrastructure failures: an unknown
// sport or a failing season resolution query. Everything downstream —
// fetch failures, per-entity write failures — is accumulated in the
// result's error list and the run keeps going.
func (e *Engine) RunDiff(ctx context.Context, sport string, year, leagueID int) (*DiffResult, error) {
	result := &DiffResult{Sport: sport, Season: year, LeagueID: leagueID, StartedAt: time.Now()}
	defer func() { result.CompletedAt = time.Now() }()

	source, ok := e.sources[sport]
	if !ok {
		return nil, fmt.Errorf("no provider source configured for sport %s", sport)
	}

	// Phase 1: resolve season context. Absence means there is nothing to
	// reconcile yet, not a failure.
	providerSeasonID, found, err := e.store.ResolveSeason(ctx, sport, year, leagueID)
	if err != nil {
		return nil, fmt.Errorf("resolve season %s/%d: %w", sport, year, err)
	}
	if !found {
		e.logger.Info("No season to reconcile", "sport", sport, "year", year, "league_id", leagueID)
		return result, nil
	}
	season := Season{Sport: sport, Year: year, LeagueID: leagueID, ProviderSeasonID: providerSeasonID}

	e.logger.Info("Diff run starting",
		"sport", sport, "year", year, "league_id", leagueID, "provider_season_id", providerSeasonID)

	// Phase 2: live snapshot.
	liveTeams, err := source.LiveTeams(ctx, season)
	if err != nil {
		result.AddErrorf("fetch live teams: %v", err)
		e.logger.Error("Live team fetch failed, aborting run", "sport", sport, "error", err)
		return result, nil
	}

	liveOrder := make([]int, 0, 512)
	live := make(map[int]provider.Player, 512)
	rosterComplete := true

	err = source.LiveRoster(ctx, season, liveTeams,
		func(p provider.Player) error {
			if p.ID == 0 {
				result.Skipped++
				return nil
			}
			if _, seen := live[p.ID]; !seen {
				liveOrder = append(liveOrder, p.ID)
			}
			live[p.ID] = p
			return nil
		},
		func(warnErr error) {
			// A single squad failing leaves the rest of the roster usable.
			result.AddErrorf("partial roster fetch: %v", warnErr)
		})
	if err != nil {
		result.AddErrorf("fetch live roster: %v", err)
		rosterComplete = false
	}

	// Phase 3: persisted snapshot.
	persistedEntries, err := e.store.PersistedRoster(ctx, sport, leagueID)
	if err != nil {
		result.AddErrorf("read persisted roster: %v", err)
		e.logger.Error("Persisted roster read failed, aborting run", "sport", sport, "error", err)
		return result, nil
	}
	persisted := make(map[int]PersistedEntry, len(persistedEntries))
	for _, entry := range persistedEntries {
		persisted[entry.ID] = entry
	}

	persistedTeams, err := e.store.PersistedTeamIDs(ctx, sport)
	if err != nil {
		result.AddErrorf("read persisted teams: %v", err)
		persistedTeams = nil
	}

	// Phase 4: classify and act. Writes are idempotent upserts, so a rerun
	// with no provider change is a storage no-op.
	e.diffTeams(ctx, result, liveTeams, persistedTeams)
	e.diffPlayers(ctx, result, liveOrder, live, persisted)
	if rosterComplete {
		e.recordDepartures(result, live, persisted)
	}

	e.logger.Info("Diff run complete",
		"sport", sport, "year", year, "league_id", leagueID,
		"duration", time.Since(result.StartedAt).Round(time.Millisecond),
		"summary", result.Summary())
	return result, nil
}

// diffTeams inserts minimal rows for teams the provider reports that the
// store has never seen. persistedTeams may be nil when the read failed; in
// that case no team is classified rather than re-inserting all of them.
func (e *Engine) diffTeams(ctx context.Context, result *DiffResult, liveTeams []provider.Team, persistedTeams map[int]bool) {
	if persistedTeams == nil {
		return
	}
	for _, team := range liveTeams {
		if team.ID == 0 {
			result.Skipped++
			continue
		}
		if persistedTeams[team.ID] {
			continue
		}
		if err := e.store.UpsertTeam(ctx, result.Sport, team); err != nil {
			result.AddErrorf("upsert team %d: %v", team.ID, err)
			continue
		}
		result.NewTeamIDs = append(result.NewTeamIDs, team.ID)
	}
}

// diffPlayers walks the live roster in provider order and applies the
// new/transferred classification. A write failure is recorded and the walk
// continues with the next player.
func (e *Engine) diffPlayers(ctx context.Context, result *DiffResult, liveOrder []int, live map[int]provider.Player, persisted map[int]PersistedEntry) {
	for _, id := range liveOrder {
		p := live[id]
		liveTeam := p.TeamID

		entry, known := persisted[id]
		if !known {
			if err := e.store.UpsertPlayer(ctx, result.Sport, p); err != nil {
				result.AddErrorf("upsert player %d: %v", id, err)
				continue
			}
			result.NewPlayerIDs = append(result.NewPlayerIDs, id)
			continue
		}

		// A live record without team info says nothing about a move; only a
		// concrete different team is a transfer.
		if liveTeam == nil {
			continue
		}
		if entry.TeamID != nil && *entry.TeamID == *liveTeam {
			continue
		}

		if err := e.store.UpdatePlayerTeam(ctx, result.Sport, id, *liveTeam); err != nil {
			result.AddErrorf("update player %d team: %v", id, err)
			continue
		}
		result.Transfers = append(result.Transfers, Transfer{
			PlayerID:   id,
			FromTeamID: entry.TeamID,
			ToTeamID:   *liveTeam,
		})
	}
}

// recordDepartures flags active players the provider no longer lists. They
// are recorded only — never deactivated — and only when the live roster
// stream completed, since a truncated stream would fabricate departures.
func (e *Engine) recordDepartures(result *DiffResult, live map[int]provider.Player, persisted map[int]PersistedEntry) {
	for id, entry := range persisted {
		if !entry.Active {
			continue
		}
		if _, stillListed := live[id]; stillListed {
			continue
		}
		result.DepartedIDs = append(result.DepartedIDs, id)
	}
}

// RunAllPriorityDiffs reconciles every configured target for the given
// year. One target failing — even at season resolution — is recorded in its
// own result and does not stop the remaining targets.
func (e *Engine) RunAllPriorityDiffs(ctx context.Context, year int) []DiffResult {
	results := make([]DiffResult, 0, len(e.targets))
	for _, target := range e.targets {
		if ctx.Err() != nil {
			break
		}
		r, err := e.RunDiff(ctx, target.Sport, year, target.LeagueID)
		if err != nil {
			failed := DiffResult{Sport: target.Sport, Season: year, LeagueID: target.LeagueID,
				StartedAt: time.Now(), CompletedAt: time.Now()}
			failed.AddErrorf("run diff: %v", err)
			e.logger.Error("Diff run failed", "sport", target.Sport, "league_id", target.LeagueID, "error", err)
			results = append(results, failed)
			continue
		}
		results = append(results, *r)
	}
	return results
}
