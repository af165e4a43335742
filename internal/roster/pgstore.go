package roster

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/scoracle-sync/internal/provider"
)

const sportFootball = "FOOTBALL"

// PGStore is the Postgres-backed Store. Reads go through prepared
// statements registered by the db package; writes are inline ON CONFLICT
// upserts keyed by (id, sport).
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a store over an existing connection pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// ResolveSeason resolves the provider season identifier. BDL sports key
// their seasons by calendar year, so the year resolves to itself; football
// needs the SportMonks season id from provider_seasons.
func (s *PGStore) ResolveSeason(ctx context.Context, sport string, year, leagueID int) (int, bool, error) {
	if sport != sportFootball {
		return year, true, nil
	}

	var providerSeasonID *int
	err := s.pool.QueryRow(ctx, "resolve_provider_season", leagueID, year).Scan(&providerSeasonID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("resolve provider season: %w", err)
	}
	if providerSeasonID == nil {
		return 0, false, nil
	}
	return *providerSeasonID, true, nil
}

// PersistedRoster reads stored player -> team assignments. League scoping
// goes through player_stats, the only table that carries league membership.
func (s *PGStore) PersistedRoster(ctx context.Context, sport string, leagueID int) ([]PersistedEntry, error) {
	var rows pgx.Rows
	var err error
	if leagueID == 0 {
		rows, err = s.pool.Query(ctx, "persisted_roster", sport)
	} else {
		rows, err = s.pool.Query(ctx, "persisted_roster_league", sport, leagueID)
	}
	if err != nil {
		return nil, fmt.Errorf("query persisted roster: %w", err)
	}
	defer rows.Close()

	var entries []PersistedEntry
	for rows.Next() {
		var e PersistedEntry
		if err := rows.Scan(&e.ID, &e.TeamID, &e.Active); err != nil {
			return nil, fmt.Errorf("scan persisted roster: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PersistedTeamIDs reads the set of stored team ids for a sport.
func (s *PGStore) PersistedTeamIDs(ctx context.Context, sport string) (map[int]bool, error) {
	rows, err := s.pool.Query(ctx, "persisted_team_ids", sport)
	if err != nil {
		return nil, fmt.Errorf("query persisted teams: %w", err)
	}
	defer rows.Close()

	ids := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan persisted team id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// UpsertPlayer writes a minimal player profile. COALESCE keeps previously
// enriched columns when the snapshot only carries partial data.
func (s *PGStore) UpsertPlayer(ctx context.Context, sport string, p provider.Player) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO players (id, sport, name, first_name, last_name, position, team_id, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,true)
		ON CONFLICT (id, sport) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), players.name),
			first_name = COALESCE(EXCLUDED.first_name, players.first_name),
			last_name = COALESCE(EXCLUDED.last_name, players.last_name),
			position = COALESCE(EXCLUDED.position, players.position),
			team_id = COALESCE(EXCLUDED.team_id, players.team_id),
			updated_at = NOW()`,
		p.ID, sport, p.Name, nilEmpty(p.FirstName), nilEmpty(p.LastName),
		nilEmpty(p.Position), p.TeamID,
	)
	return err
}

// UpsertTeam writes a minimal team profile.
func (s *PGStore) UpsertTeam(ctx context.Context, sport string, t provider.Team) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO teams (id, sport, name, short_code, city, country, conference, division)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id, sport) DO UPDATE SET
			name = EXCLUDED.name,
			short_code = COALESCE(EXCLUDED.short_code, teams.short_code),
			city = COALESCE(EXCLUDED.city, teams.city),
			country = COALESCE(EXCLUDED.country, teams.country),
			conference = COALESCE(EXCLUDED.conference, teams.conference),
			division = COALESCE(EXCLUDED.division, teams.division),
			updated_at = NOW()`,
		t.ID, sport, t.Name, nilEmpty(t.ShortCode), nilEmpty(t.City),
		nilEmpty(t.Country), nilEmpty(t.Conference), nilEmpty(t.Division),
	)
	return err
}

// UpdatePlayerTeam moves a player to a new team.
func (s *PGStore) UpdatePlayerTeam(ctx context.Context, sport string, playerID, teamID int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE players SET team_id = $3, updated_at = NOW() WHERE id = $1 AND sport = $2`,
		playerID, sport, teamID,
	)
	return err
}

// nilEmpty maps empty strings to SQL NULL so COALESCE keeps existing values.
func nilEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
