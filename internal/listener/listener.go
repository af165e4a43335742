// Package listener provides a Postgres LISTEN/NOTIFY consumer for on-demand
// roster reconciliation. It holds a dedicated pgx connection (not from the
// pool) listening on the roster sync channel.
//
// When upstream tooling wants an immediate reconciliation — trade deadline,
// transfer window close — it calls pg_notify with a sync request payload and
// this consumer runs the diff without waiting for the next scheduled pass.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/scoracle-sync/internal/roster"
)

const (
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// SyncRequest is the JSON payload from pg_notify on the sync channel. An
// empty payload or empty sport requests the full priority run.
type SyncRequest struct {
	Sport    string `json:"sport"`
	Season   int    `json:"season"`
	LeagueID int    `json:"league_id"`
}

// Runner is the reconciliation surface the listener drives; *roster.Engine
// satisfies it.
type Runner interface {
	RunDiff(ctx context.Context, sport string, year, leagueID int) (*roster.DiffResult, error)
	RunAllPriorityDiffs(ctx context.Context, year int) []roster.DiffResult
}

// Start opens a dedicated connection and listens on the sync channel. It
// reconnects automatically on connection loss. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL, channel string, engine Runner, defaultSeason int, onResults func(context.Context, []roster.DiffResult), logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, channel, engine, defaultSeason, onResults, logger)
		if ctx.Err() != nil {
			logger.Info("Roster sync listener stopped (context cancelled)")
			return
		}

		logger.Error("Roster sync listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL, channel string, engine Runner, defaultSeason int, onResults func(context.Context, []roster.DiffResult), logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+channel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", channel, err)
	}
	logger.Info("Roster sync listener connected", "channel", channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		req := parseSyncRequest(notification.Payload, defaultSeason, logger)

		logger.Info("Roster sync requested",
			"sport", req.Sport, "season", req.Season, "league_id", req.LeagueID)

		// Run synchronously: reconciliation is the listener's only job and
		// overlapping diff runs against the same rows would race.
		results := runSync(ctx, engine, req, logger)
		if onResults != nil {
			onResults(ctx, results)
		}
	}
}

// parseSyncRequest decodes a payload, tolerating empty and malformed input;
// anything unparseable downgrades to a full priority run.
func parseSyncRequest(payload string, defaultSeason int, logger *slog.Logger) SyncRequest {
	req := SyncRequest{Season: defaultSeason}
	if payload == "" {
		return req
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		logger.Warn("Failed to parse sync request, running full pass",
			"payload", payload, "error", err)
		return SyncRequest{Season: defaultSeason}
	}
	if req.Season == 0 {
		req.Season = defaultSeason
	}
	return req
}

func runSync(ctx context.Context, engine Runner, req SyncRequest, logger *slog.Logger) []roster.DiffResult {
	if req.Sport == "" {
		return engine.RunAllPriorityDiffs(ctx, req.Season)
	}

	result, err := engine.RunDiff(ctx, req.Sport, req.Season, req.LeagueID)
	if err != nil {
		logger.Error("Triggered diff run failed",
			"sport", req.Sport, "season", req.Season, "league_id", req.LeagueID, "error", err)
		return nil
	}
	return []roster.DiffResult{*result}
}
