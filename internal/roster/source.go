package roster

import (
	"context"

	"github.com/albapepper/scoracle-sync/internal/provider"
)

// Season is the resolved context a diff run operates in. ProviderSeasonID is
// the provider's identifier for the season: the year itself for BDL sports,
// a SportMonks season id for football.
type Season struct {
	Sport            string
	Year             int
	LeagueID         int
	ProviderSeasonID int
}

// Source produces the live provider snapshot for one sport.
//
// LiveRoster streams players in provider page order. Recoverable per-team
// fetch failures are reported through warn and do not stop the stream; a
// returned error means the stream as a whole failed and its output is
// incomplete.
type Source interface {
	LiveTeams(ctx context.Context, season Season) ([]provider.Team, error)
	LiveRoster(ctx context.Context, season Season, teams []provider.Team, emit func(provider.Player) error, warn func(error)) error
}

// bulkAPI is the surface of providers with a bulk player endpoint; both BDL
// handlers satisfy it.
type bulkAPI interface {
	GetTeams(ctx context.Context) ([]provider.Team, error)
	GetPlayers(ctx context.Context, fn func(provider.Player) error) error
}

// BulkSource adapts a bulk-endpoint provider (BDL NBA/NFL). The whole
// roster comes from one cursor-paginated listing; the season context only
// matters for stat fetches, not roster membership.
type BulkSource struct {
	api bulkAPI
}

// NewBulkSource wraps a BDL-style handler as a roster source.
func NewBulkSource(api bulkAPI) *BulkSource {
	return &BulkSource{api: api}
}

func (s *BulkSource) LiveTeams(ctx context.Context, _ Season) ([]provider.Team, error) {
	return s.api.GetTeams(ctx)
}

func (s *BulkSource) LiveRoster(ctx context.Context, _ Season, _ []provider.Team, emit func(provider.Player) error, _ func(error)) error {
	return s.api.GetPlayers(ctx, emit)
}

// squadAPI is the surface of providers that only expose rosters per team;
// the SportMonks football handler satisfies it.
type squadAPI interface {
	GetTeams(ctx context.Context, seasonID int) ([]provider.Team, error)
	GetSquad(ctx context.Context, seasonID, teamID int) ([]provider.Player, error)
}

// SquadSource adapts a squad-iteration provider (SportMonks football): the
// roster is assembled by fetching each team's squad over the finite team
// list. One team's squad failing is reported through warn and the remaining
// teams still contribute.
type SquadSource struct {
	api squadAPI
}

// NewSquadSource wraps a SportMonks-style handler as a roster source.
func NewSquadSource(api squadAPI) *SquadSource {
	return &SquadSource{api: api}
}

func (s *SquadSource) LiveTeams(ctx context.Context, season Season) ([]provider.Team, error) {
	return s.api.GetTeams(ctx, season.ProviderSeasonID)
}

func (s *SquadSource) LiveRoster(ctx context.Context, season Season, teams []provider.Team, emit func(provider.Player) error, warn func(error)) error {
	for _, team := range teams {
		players, err := s.api.GetSquad(ctx, season.ProviderSeasonID, team.ID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			warn(err)
			continue
		}
		for _, p := range players {
			if err := emit(p); err != nil {
				return err
			}
		}
	}
	return nil
}
