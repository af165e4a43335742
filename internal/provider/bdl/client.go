// Package bdl integrates the BallDontLie API, which serves NBA and NFL data
// from the same envelope shape: cursor-based pagination plus Authorization
// header auth. The NBA and NFL handlers share one Client per API key so all
// traffic runs through a single pacer.
package bdl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/albapepper/scoracle-sync/internal/provider/rest"
)

const (
	// BDL paid plans allow 600 requests/minute.
	defaultRequestsPerMinute = 600

	// Safety bound on cursor pagination. A provider bug that returns a
	// non-advancing cursor would otherwise loop forever.
	maxPages = 500
)

// Client is the shared HTTP client for all BDL endpoints.
type Client struct {
	rest   *rest.Client
	logger *slog.Logger
}

// NewClient creates a BDL client with pacing and retries.
func NewClient(baseURL, apiKey string, tune rest.Tuning, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if tune.RequestsPerMinute <= 0 {
		tune.RequestsPerMinute = defaultRequestsPerMinute
	}
	return &Client{
		rest: rest.NewClient(rest.Config{
			BaseURL:           baseURL,
			RequestsPerMinute: tune.RequestsPerMinute,
			Timeout:           tune.Timeout,
			MaxAttempts:       tune.MaxAttempts,
			BackoffBase:       tune.BackoffBase,
			Authorize: func(req *http.Request) {
				req.Header.Set("Authorization", apiKey)
			},
			Logger: logger,
		}),
		logger: logger,
	}
}

// page is the common BDL response wrapper.
type page struct {
	Data json.RawMessage `json:"data"`
	Meta struct {
		NextCursor *int `json:"next_cursor"`
	} `json:"meta"`
}

// get performs one GET and decodes the BDL envelope.
func (c *Client) get(ctx context.Context, path string, params url.Values) (*page, error) {
	body, err := c.rest.Get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &rest.Error{Kind: rest.Permanent, Message: fmt.Sprintf("decode %s envelope: %v", path, err)}
	}
	return &p, nil
}

// forEachPage follows meta.next_cursor from page to page, invoking fn with
// each page's data array. Restartable: omitting the cursor param starts from
// page one. Fails permanently if the walk exceeds the page bound.
func (c *Client) forEachPage(ctx context.Context, path string, params url.Values, fn func(data json.RawMessage) error) error {
	merged := url.Values{}
	for k, vs := range params {
		merged[k] = vs
	}

	for pages := 1; ; pages++ {
		if pages > maxPages {
			return &rest.Error{Kind: rest.Permanent,
				Message: fmt.Sprintf("%s pagination exceeded %d pages, cursor may not be advancing", path, maxPages)}
		}

		resp, err := c.get(ctx, path, merged)
		if err != nil {
			return err
		}
		if err := fn(resp.Data); err != nil {
			return err
		}

		if resp.Meta.NextCursor == nil {
			return nil
		}
		merged.Set("cursor", fmt.Sprint(*resp.Meta.NextCursor))
	}
}
