// Package readwise is a rate-limited client for the Readwise export API. It
// deliberately decodes the payload into loose records rather than typed
// structs: the export format drifts, and the validation pipeline owns the
// decision of what to do with unexpected shapes.
package readwise

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/chrisbillows/readwise-local-plus/internal/domain"
)

const (
	defaultBaseURL = "https://readwise.io/api/v2"

	// The export endpoint allows 20 requests per minute.
	exportRequestsPerMinute = 20
	defaultBurst            = 1

	defaultTimeout = 30 * time.Second
)

// Client is a rate-limited Readwise API client.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit overrides the request rate limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// New creates a Readwise client authenticating with the given API token.
func New(token string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		baseURL: defaultBaseURL,
		token:   token,
		limiter: rate.NewLimiter(rate.Limit(exportRequestsPerMinute)/60, defaultBurst),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// exportPage is the envelope of one GET /export/ response.
type exportPage struct {
	Count          int             `json:"count"`
	NextPageCursor *string         `json:"nextPageCursor"`
	Results        []domain.Record `json:"results"`
}

// Export fetches all books (with nested highlights and tags) updated after
// the given time, following pagination cursors until exhausted. A nil
// updatedAfter fetches the full library.
//
// Export satisfies the sync pipeline's fetch contract.
func (c *Client) Export(ctx context.Context, updatedAfter *time.Time) ([]domain.Record, error) {
	var books []domain.Record
	var cursor *string

	for page := 1; ; page++ {
		query := url.Values{}
		if updatedAfter != nil {
			query.Set("updatedAfter", updatedAfter.UTC().Format(time.RFC3339))
		}
		if cursor != nil {
			query.Set("pageCursor", *cursor)
		}

		body, err := c.doRequest(ctx, "/export/", query)
		if err != nil {
			return nil, fmt.Errorf("export page %d: %w", page, err)
		}

		var result exportPage
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("decode export page %d: %w", page, err)
		}

		c.logger.Debug("export page fetched",
			"page", page,
			"books", len(result.Results),
			"has_next", result.NextPageCursor != nil,
		)

		books = append(books, result.Results...)
		if result.NextPageCursor == nil || *result.NextPageCursor == "" {
			return books, nil
		}
		cursor = result.NextPageCursor
	}
}

// doRequest executes one rate-limited GET against the API.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, ErrServer
	default:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}
