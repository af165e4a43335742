// Package rest provides the resilient HTTP layer shared by all provider
// integrations: request pacing, bounded timeouts, retry with backoff, and
// transient/permanent error classification.
//
// Provider packages (bdl, sportmonks) build on Client and own their response
// envelopes and pagination; rest owns everything below that.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultBackoffBase = time.Second

	// A 429 without a parseable Retry-After header waits this long.
	defaultRetryAfter = 60 * time.Second
	// Retry-After waits are capped so a pathological header cannot stall a
	// run for minutes.
	maxRetryAfter = 30 * time.Second
)

// Config configures a resilient provider client.
type Config struct {
	BaseURL           string
	RequestsPerMinute int
	Timeout           time.Duration // per-request; default 30s
	MaxAttempts       int           // total attempts including the first; default 3
	BackoffBase       time.Duration // unit for 2^attempt backoff; default 1s

	// Authorize mutates each outgoing request, e.g. to set an auth header.
	Authorize func(*http.Request)

	Logger *slog.Logger
}

// Tuning bundles the pacing and retry knobs callers pass down to a provider
// client. Zero values fall back to the client defaults.
type Tuning struct {
	RequestsPerMinute int
	Timeout           time.Duration
	MaxAttempts       int
	BackoffBase       time.Duration
}

// Client executes GET requests against one provider with pacing, retries,
// and error classification. All failures it returns are *Error values.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	pacer       *Pacer
	maxAttempts int
	backoffBase time.Duration
	authorize   func(*http.Request)
	logger      *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client with its own pacer sized from cfg.
func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = defaultBackoffBase
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     cfg.BaseURL,
		pacer:       NewPacer(cfg.RequestsPerMinute),
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		authorize:   cfg.Authorize,
		logger:      logger,
		sleep:       sleepCtx,
	}
}

// Get performs a paced GET request and returns the raw JSON body.
//
// Transient failures (5xx, network errors, 429) are retried up to
// MaxAttempts total attempts; permanent failures (other 4xx, malformed
// bodies) are returned immediately. The pacer is acquired before every
// attempt, retries included, so retry traffic is still rate limited.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	var lastErr *Error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.pacer.Acquire(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		body, reqErr := c.do(ctx, path, params)
		if reqErr == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.As(reqErr, &lastErr) {
			return nil, reqErr
		}
		if lastErr.Kind == Permanent || attempt == c.maxAttempts {
			return nil, lastErr
		}

		wait := c.backoffFor(lastErr, attempt)
		c.logger.Warn("provider request failed, retrying",
			"path", path, "attempt", attempt, "status", lastErr.Status, "wait", wait)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// backoffFor picks the wait before the next attempt: the provider's
// Retry-After (capped) for rate limiting, exponential backoff otherwise.
func (c *Client) backoffFor(e *Error, attempt int) time.Duration {
	if e.Status == http.StatusTooManyRequests {
		retryAfter := e.RetryAfter
		if retryAfter <= 0 {
			retryAfter = defaultRetryAfter
		}
		if retryAfter > maxRetryAfter {
			retryAfter = maxRetryAfter
		}
		return retryAfter
	}
	return c.backoffBase * (1 << attempt)
}

// do performs a single attempt and classifies its outcome.
func (c *Client) do(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, permanentf(0, "create request %s: %v", path, err)
	}
	if c.authorize != nil {
		c.authorize(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transientf(0, 0, "http request %s: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transientf(resp.StatusCode, 0, "read response body %s: %v", path, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, transientf(resp.StatusCode, parseRetryAfter(resp.Header.Get("Retry-After")),
			"rate limited on %s", path)
	case resp.StatusCode >= 500:
		return nil, transientf(resp.StatusCode, 0, "%s returned %d: %s", path, resp.StatusCode, truncate(body, 200))
	case resp.StatusCode >= 400:
		return nil, permanentf(resp.StatusCode, "%s returned %d: %s", path, resp.StatusCode, truncate(body, 200))
	}

	// A 2xx with a body that is not JSON will not improve on retry.
	if !json.Valid(body) {
		return nil, permanentf(resp.StatusCode, "%s returned invalid JSON: %s", path, truncate(body, 200))
	}

	return body, nil
}

// parseRetryAfter handles the delta-seconds form of Retry-After. The HTTP
// date form is rare on the APIs we use and falls back to the default wait.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
