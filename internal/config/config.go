// Package config provides centralized configuration loaded from environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Sport registry
// --------------------------------------------------------------------------

type SportConfig struct {
	ID            string
	Name          string
	CurrentSeason int
}

var SportRegistry = map[string]SportConfig{
	"NBA":      {ID: "NBA", Name: "National Basketball Association", CurrentSeason: 2025},
	"NFL":      {ID: "NFL", Name: "National Football League", CurrentSeason: 2025},
	"FOOTBALL": {ID: "FOOTBALL", Name: "Football (Soccer)", CurrentSeason: 2025},
}

// PriorityFootballLeagues lists the internal league IDs reconciled by
// default, in run order: Premier League, Bundesliga, Ligue 1, Serie A,
// La Liga.
var PriorityFootballLeagues = []int{8, 82, 301, 384, 564}

// --------------------------------------------------------------------------
// Table names — single source of truth, matches schema.sql
// --------------------------------------------------------------------------

const (
	PlayersTable     = "players"
	PlayerStatsTable = "player_stats"
	TeamsTable       = "teams"
	TeamStatsTable   = "team_stats"
	LeaguesTable     = "leagues"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	Environment string // development, staging, production
	Debug       bool

	// External API keys
	BDLAPIKey          string
	SportMonksAPIToken string

	// Provider pacing and retry behavior
	BDLRequestsPerMinute        int
	SportMonksRequestsPerMinute int
	ProviderTimeout             time.Duration
	ProviderMaxAttempts         int
	ProviderBackoffBase         time.Duration

	// Listener
	ListenChannel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("NEON_DATABASE_URL_V2", envOr("DATABASE_URL", envOr("NEON_DATABASE_URL", "")))
	if dbURL == "" {
		return nil, fmt.Errorf("NEON_DATABASE_URL_V2, DATABASE_URL, or NEON_DATABASE_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		BDLAPIKey:          envOr("BALLDONTLIE_API_KEY", ""),
		SportMonksAPIToken: envOr("SPORTMONKS_API_TOKEN", ""),

		BDLRequestsPerMinute:        envInt("BDL_REQUESTS_PER_MINUTE", 600),
		SportMonksRequestsPerMinute: envInt("SPORTMONKS_REQUESTS_PER_MINUTE", 3000),
		ProviderTimeout:             time.Duration(envInt("PROVIDER_TIMEOUT_SECONDS", 30)) * time.Second,
		ProviderMaxAttempts:         envInt("PROVIDER_MAX_ATTEMPTS", 3),
		ProviderBackoffBase:         time.Duration(envInt("PROVIDER_BACKOFF_BASE_MS", 1000)) * time.Millisecond,

		ListenChannel: envOr("ROSTER_SYNC_CHANNEL", "roster_sync_requested"),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
