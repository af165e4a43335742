// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/scoracle-sync/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the ingestion and
// reconciliation layers use. Prepared statements eliminate parse overhead
// across the many small queries a seed or diff run issues.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Provider season resolution
		"resolve_provider_season": "SELECT resolve_provider_season_id($1, $2)",

		// League lookup
		"league_lookup": "SELECT sportmonks_id, name FROM leagues WHERE id = $1",

		// Reconciliation: persisted roster reads
		"persisted_roster": "SELECT id, team_id, is_active FROM players WHERE sport = $1",
		"persisted_roster_league": "SELECT DISTINCT p.id, p.team_id, p.is_active FROM players p " +
			"JOIN player_stats ps ON ps.player_id = p.id AND ps.sport = p.sport " +
			"WHERE p.sport = $1 AND ps.league_id = $2",
		"persisted_team_ids": "SELECT id FROM teams WHERE sport = $1",

		// Reconciliation: change feed for downstream consumers
		"insert_roster_change": "INSERT INTO roster_changes " +
			"(sport, season, league_id, player_id, change_type, from_team_id, to_team_id) " +
			"VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT DO NOTHING",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
