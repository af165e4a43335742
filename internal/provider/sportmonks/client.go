// Package sportmonks integrates the SportMonks Football API: token auth via
// query parameter, page-number pagination with a has_more flag, and
// include-based nested relationships.
package sportmonks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/albapepper/scoracle-sync/internal/provider/rest"
)

const (
	baseURL = "https://api.sportmonks.com/v3/football"

	// SportMonks standard plans allow 300 requests/minute per entity.
	defaultRequestsPerMinute = 300

	// Safety bound on page pagination; a has_more flag stuck true would
	// otherwise loop forever.
	maxPages = 500
)

// Client is the HTTP client for SportMonks Football endpoints.
type Client struct {
	rest     *rest.Client
	apiToken string
	logger   *slog.Logger
}

// NewClient creates a SportMonks client with pacing and retries.
func NewClient(apiToken string, tune rest.Tuning, logger *slog.Logger) *Client {
	return newClient(baseURL, apiToken, tune, logger)
}

func newClient(base, apiToken string, tune rest.Tuning, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if tune.RequestsPerMinute <= 0 {
		tune.RequestsPerMinute = defaultRequestsPerMinute
	}
	return &Client{
		rest: rest.NewClient(rest.Config{
			BaseURL:           base,
			RequestsPerMinute: tune.RequestsPerMinute,
			Timeout:           tune.Timeout,
			MaxAttempts:       tune.MaxAttempts,
			BackoffBase:       tune.BackoffBase,
			Logger:            logger,
		}),
		apiToken: apiToken,
		logger:   logger,
	}
}

// envelope is the common SportMonks response wrapper.
type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		HasMore bool `json:"has_more"`
	} `json:"pagination"`
}

// get performs one GET with the api_token injected and decodes the envelope.
func (c *Client) get(ctx context.Context, path string, params url.Values) (*envelope, error) {
	merged := url.Values{}
	for k, vs := range params {
		merged[k] = vs
	}
	merged.Set("api_token", c.apiToken)

	body, err := c.rest.Get(ctx, path, merged)
	if err != nil {
		return nil, err
	}

	var e envelope
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, &rest.Error{Kind: rest.Permanent, Message: fmt.Sprintf("decode %s envelope: %v", path, err)}
	}
	return &e, nil
}

// getPaginated fetches every page from a paginated endpoint, in page order.
// Fails permanently if the walk exceeds the page bound.
func (c *Client) getPaginated(ctx context.Context, path string, params url.Values, perPage int) ([]json.RawMessage, error) {
	merged := url.Values{}
	for k, vs := range params {
		merged[k] = vs
	}
	merged.Set("per_page", strconv.Itoa(perPage))

	var allData []json.RawMessage
	for page := 1; ; page++ {
		if page > maxPages {
			return nil, &rest.Error{Kind: rest.Permanent,
				Message: fmt.Sprintf("%s pagination exceeded %d pages, has_more may be stuck", path, maxPages)}
		}

		merged.Set("page", strconv.Itoa(page))
		resp, err := c.get(ctx, path, merged)
		if err != nil {
			return nil, err
		}

		// Data can be an array or a single object.
		var items []json.RawMessage
		if err := json.Unmarshal(resp.Data, &items); err != nil {
			allData = append(allData, resp.Data)
			break
		}
		allData = append(allData, items...)

		if resp.Pagination == nil || !resp.Pagination.HasMore {
			break
		}
	}

	return allData, nil
}
