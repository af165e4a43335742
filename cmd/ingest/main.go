// Command ingest is the scoracle-sync ingestion and reconciliation CLI.
//
// Usage:
//
//	scoracle-sync seed nba --season 2025
//	scoracle-sync seed nfl --season 2025
//	scoracle-sync seed football --season 2025 --league 8
//	scoracle-sync diff nba --season 2025
//	scoracle-sync diff football --season 2025 --league 8
//	scoracle-sync diff all --season 2025
//	scoracle-sync listen
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/scoracle-sync/internal/alert"
	"github.com/albapepper/scoracle-sync/internal/config"
	"github.com/albapepper/scoracle-sync/internal/db"
	"github.com/albapepper/scoracle-sync/internal/listener"
	"github.com/albapepper/scoracle-sync/internal/provider/bdl"
	"github.com/albapepper/scoracle-sync/internal/provider/rest"
	"github.com/albapepper/scoracle-sync/internal/provider/sportmonks"
	"github.com/albapepper/scoracle-sync/internal/roster"
	"github.com/albapepper/scoracle-sync/internal/seed"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "scoracle-sync",
		Short: "Scoracle ingestion and roster reconciliation CLI",
	}

	root.AddCommand(seedCmd())
	root.AddCommand(diffCmd())
	root.AddCommand(listenCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// seed command
// --------------------------------------------------------------------------

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed full-season data from external providers",
	}
	cmd.AddCommand(seedNBACmd())
	cmd.AddCommand(seedNFLCmd())
	cmd.AddCommand(seedFootballCmd())
	return cmd
}

func seedNBACmd() *cobra.Command {
	var season int
	cmd := &cobra.Command{
		Use:   "nba",
		Short: "Seed NBA data from BallDontLie",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if cfg.BDLAPIKey == "" {
					return fmt.Errorf("BALLDONTLIE_API_KEY is required")
				}
				handler := bdl.NewNBAHandler(cfg.BDLAPIKey, bdlTuning(cfg), logger)
				start := time.Now()
				result := seed.SeedNBA(ctx, pool.Pool, handler, season, logger)
				logger.Info("NBA seed finished", "duration", time.Since(start).Round(time.Second), "summary", result.Summary())
				logErrors(result.Errors)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&season, "season", config.SportRegistry["NBA"].CurrentSeason, "Season year")
	return cmd
}

func seedNFLCmd() *cobra.Command {
	var season int
	cmd := &cobra.Command{
		Use:   "nfl",
		Short: "Seed NFL data from BallDontLie",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if cfg.BDLAPIKey == "" {
					return fmt.Errorf("BALLDONTLIE_API_KEY is required")
				}
				handler := bdl.NewNFLHandler(cfg.BDLAPIKey, bdlTuning(cfg), logger)
				start := time.Now()
				result := seed.SeedNFL(ctx, pool.Pool, handler, season, logger)
				logger.Info("NFL seed finished", "duration", time.Since(start).Round(time.Second), "summary", result.Summary())
				logErrors(result.Errors)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&season, "season", config.SportRegistry["NFL"].CurrentSeason, "Season year")
	return cmd
}

func seedFootballCmd() *cobra.Command {
	var season, leagueID int
	cmd := &cobra.Command{
		Use:   "football",
		Short: "Seed Football data from SportMonks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if cfg.SportMonksAPIToken == "" {
					return fmt.Errorf("SPORTMONKS_API_TOKEN is required")
				}
				handler := sportmonks.NewFootballHandler(cfg.SportMonksAPIToken, smTuning(cfg), logger)

				// Resolve SportMonks season ID
				smSeasonID, err := seed.ResolveProviderSeasonID(ctx, pool.Pool, leagueID, season)
				if err != nil {
					return fmt.Errorf("resolve season: %w", err)
				}
				logger.Info("Resolved provider season", "league_id", leagueID, "season", season, "sm_season_id", smSeasonID)

				start := time.Now()
				result := seed.SeedFootballSeason(ctx, pool.Pool, handler, smSeasonID, leagueID, season, leagueID, logger)
				logger.Info("Football seed finished",
					"league_id", leagueID, "duration", time.Since(start).Round(time.Second),
					"summary", result.Summary())
				logErrors(result.Errors)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&season, "season", config.SportRegistry["FOOTBALL"].CurrentSeason, "Season year")
	cmd.Flags().IntVar(&leagueID, "league", 8, "League ID (8=PL, 82=BL, 301=L1, 384=SA, 564=LL)")
	return cmd
}

// --------------------------------------------------------------------------
// diff command
// --------------------------------------------------------------------------

func diffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Reconcile live provider rosters against stored state",
	}
	cmd.AddCommand(diffSportCmd("nba", "NBA", false))
	cmd.AddCommand(diffSportCmd("nfl", "NFL", false))
	cmd.AddCommand(diffSportCmd("football", "FOOTBALL", true))
	cmd.AddCommand(diffAllCmd())
	return cmd
}

func diffSportCmd(use, sport string, leagueScoped bool) *cobra.Command {
	var season, leagueID int
	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Run a %s roster diff", sport),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				engine, err := buildEngine(cfg, pool)
				if err != nil {
					return err
				}
				result, err := engine.RunDiff(ctx, sport, season, leagueID)
				if err != nil {
					return err
				}
				alert.NewRecorder(pool.Pool, logger).Record(ctx, *result)
				logErrors(result.Errors)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&season, "season", config.SportRegistry[sport].CurrentSeason, "Season year")
	if leagueScoped {
		cmd.Flags().IntVar(&leagueID, "league", 8, "League ID (8=PL, 82=BL, 301=L1, 384=SA, 564=LL)")
	}
	return cmd
}

func diffAllCmd() *cobra.Command {
	var season int
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Run roster diffs for every priority target",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				engine, err := buildEngine(cfg, pool)
				if err != nil {
					return err
				}
				start := time.Now()
				results := engine.RunAllPriorityDiffs(ctx, season)
				written := alert.NewRecorder(pool.Pool, logger).RecordAll(ctx, results)
				logger.Info("Priority diff pass finished",
					"targets", len(results), "changes_recorded", written,
					"duration", time.Since(start).Round(time.Second))
				for _, r := range results {
					logErrors(r.Errors)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&season, "season", config.SportRegistry["NBA"].CurrentSeason, "Season year")
	return cmd
}

// --------------------------------------------------------------------------
// listen command
// --------------------------------------------------------------------------

func listenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Listen for pg_notify sync requests and run diffs on demand",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				engine, err := buildEngine(cfg, pool)
				if err != nil {
					return err
				}
				recorder := alert.NewRecorder(pool.Pool, logger)
				onResults := func(ctx context.Context, results []roster.DiffResult) {
					recorder.RecordAll(ctx, results)
				}
				defaultSeason := config.SportRegistry["NBA"].CurrentSeason
				listener.Start(ctx, cfg.DatabaseURL, cfg.ListenChannel, engine, defaultSeason, onResults, logger)
				return nil
			})
		},
	}
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// buildEngine wires provider sources and the Postgres store into a diff
// engine. Sports without a configured API key are left out; running a diff
// for them fails with a clear error instead of a nil handler panic.
func buildEngine(cfg *config.Config, pool *db.Pool) (*roster.Engine, error) {
	sources := make(map[string]roster.Source)
	var targets []roster.Target

	if cfg.BDLAPIKey != "" {
		sources["NBA"] = roster.NewBulkSource(bdl.NewNBAHandler(cfg.BDLAPIKey, bdlTuning(cfg), logger))
		sources["NFL"] = roster.NewBulkSource(bdl.NewNFLHandler(cfg.BDLAPIKey, bdlTuning(cfg), logger))
		targets = append(targets, roster.Target{Sport: "NBA"}, roster.Target{Sport: "NFL"})
	}
	if cfg.SportMonksAPIToken != "" {
		sources["FOOTBALL"] = roster.NewSquadSource(sportmonks.NewFootballHandler(cfg.SportMonksAPIToken, smTuning(cfg), logger))
		for _, leagueID := range config.PriorityFootballLeagues {
			targets = append(targets, roster.Target{Sport: "FOOTBALL", LeagueID: leagueID})
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no provider API keys configured (BALLDONTLIE_API_KEY, SPORTMONKS_API_TOKEN)")
	}

	return roster.NewEngine(roster.NewPGStore(pool.Pool), sources, targets, logger), nil
}

func bdlTuning(cfg *config.Config) rest.Tuning {
	return rest.Tuning{
		RequestsPerMinute: cfg.BDLRequestsPerMinute,
		Timeout:           cfg.ProviderTimeout,
		MaxAttempts:       cfg.ProviderMaxAttempts,
		BackoffBase:       cfg.ProviderBackoffBase,
	}
}

func smTuning(cfg *config.Config) rest.Tuning {
	return rest.Tuning{
		RequestsPerMinute: cfg.SportMonksRequestsPerMinute,
		Timeout:           cfg.ProviderTimeout,
		MaxAttempts:       cfg.ProviderMaxAttempts,
		BackoffBase:       cfg.ProviderBackoffBase,
	}
}

func logErrors(errs []string) {
	for _, e := range errs {
		logger.Error("run error", "error", e)
	}
}

// withPool handles config loading, DB connection, and context cancellation.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
