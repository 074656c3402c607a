// Gamedeck - Local Game Library and Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/gamedeck

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/gamedeck/internal/metrics"
)

// maxErrorBodySize limits how much of an error response is read into memory.
const maxErrorBodySize = 64 * 1024

var (
	// ErrNoAPIKey is returned when no RAWG API key has been configured.
	ErrNoAPIKey = errors.New("catalog: RAWG API key not configured")

	// ErrRateLimited is returned when RAWG keeps answering 429 after all retries.
	ErrRateLimited = errors.New("catalog: rate limited by RAWG")
)

// Fetcher performs a full search-then-details lookup.
type Fetcher interface {
	Fetch(ctx context.Context, term string) (Metadata, error)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL           string
	Timeout           time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	RequestsPerSecond float64 // 0 disables client-side throttling
}

// Client talks to the RAWG games API.
type Client struct {
	baseURL    string
	keys       KeyProvider
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
}

var _ Fetcher = (*Client)(nil)

// NewClient creates a RAWG client. keys is consulted on every call so a key
// set at runtime takes effect immediately.
func NewClient(cfg ClientConfig, keys KeyProvider) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		keys:       keys,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		maxRetries: cfg.MaxRetries,
		retryDelay: retryDelay,
	}
}

type searchResponse struct {
	Count   int        `json:"count"`
	Results []Metadata `json:"results"`
}

// Fetch searches for term and merges the top hit's details into it. No
// search results yields an empty Metadata and a nil error.
func (c *Client) Fetch(ctx context.Context, term string) (Metadata, error) {
	hit, err := c.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	if hit.Empty() {
		return Metadata{}, nil
	}

	id := hit.ID()
	if id == "" {
		return hit, nil
	}
	details, err := c.Details(ctx, id)
	if err != nil {
		return nil, err
	}
	return hit.Merge(details), nil
}

// Search returns the first search result for term, or an empty Metadata.
func (c *Client) Search(ctx context.Context, term string) (Metadata, error) {
	key := c.keys.Key()
	if key == "" {
		return nil, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("search", term)
	params.Set("key", key)
	params.Set("page_size", "1")

	var resp searchResponse
	if err := c.getJSON(ctx, "search", c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}
	if len(resp.Results) == 0 || resp.Results[0] == nil {
		return Metadata{}, nil
	}
	return resp.Results[0], nil
}

// Details fetches the full record for a RAWG game id.
func (c *Client) Details(ctx context.Context, id string) (Metadata, error) {
	key := c.keys.Key()
	if key == "" {
		return nil, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("key", key)

	var details Metadata
	endpoint := c.baseURL + "/" + url.PathEscape(id) + "?" + params.Encode()
	if err := c.getJSON(ctx, "details", endpoint, &details); err != nil {
		return nil, fmt.Errorf("details %s: %w", id, err)
	}
	return details, nil
}

// statusError carries a non-2xx response. Retry-After is honored for 429.
type statusError struct {
	status     int
	body       string
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("RAWG returned status %d: %s", e.status, e.body)
}

func (e *statusError) retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

// getJSON performs a GET with throttling and retries, decoding the body into v.
func (c *Client) getJSON(ctx context.Context, call, reqURL string, v any) error {
	err := retry.Do(
		func() error {
			return c.getOnce(ctx, call, reqURL, v)
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)+1),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retryAfterDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(uint, error) { metrics.CatalogRetries.Inc() }),
	)
	var se *statusError
	if errors.As(err, &se) && se.status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	return err
}

// retryAfterDelay uses the server's Retry-After when present, otherwise
// exponential backoff.
func retryAfterDelay(n uint, err error, config *retry.Config) time.Duration {
	var se *statusError
	if errors.As(err, &se) && se.retryAfter > 0 {
		return se.retryAfter
	}
	return retry.BackOffDelay(n, err, config)
}

func (c *Client) getOnce(ctx context.Context, call, reqURL string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return retry.Unrecoverable(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Gamedeck/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.RecordCatalogRequest(call, time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			return retry.Unrecoverable(ctx.Err())
		}
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		se := &statusError{
			status:     resp.StatusCode,
			body:       string(readBodyForError(resp.Body)),
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
		if !se.retryable() {
			return retry.Unrecoverable(se)
		}
		return se
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return retry.Unrecoverable(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
