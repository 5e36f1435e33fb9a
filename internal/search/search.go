// Package search queries a Serper-compatible web search API and returns the
// organic results.
package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// DefaultEndpoint is the Serper search endpoint.
	DefaultEndpoint = "https://google.serper.dev/search"

	// DefaultTimeout bounds a single search call.
	DefaultTimeout = 15 * time.Second
)

var (
	// ErrEmptyQuery is returned when Search is called without a keyword.
	ErrEmptyQuery = errors.New("keyword is required")

	// ErrNoAPIKey is returned when no API key is configured.
	ErrNoAPIKey = errors.New("search API key is not configured")
)

// Result is one organic search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// APIError reports a non-2xx answer from the search API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("search API returned %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Config holds search client settings.
type Config struct {
	APIKey            string
	Endpoint          string
	Timeout           time.Duration
	RequestsPerSecond float64
	Logger            zerolog.Logger
}

// Client calls the search API. It is safe for concurrent use.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
	logger   zerolog.Logger
}

// New creates a Client. A zero RequestsPerSecond leaves calls unthrottled.
func New(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(limit, 1),
		logger:   cfg.Logger,
	}
}

type query struct {
	Q string `json:"q"`
}

type response struct {
	Organic []Result `json:"organic"`
}

// Search runs query and returns the organic results in ranking order. An
// answer without organic results yields an empty, non-nil slice.
func (c *Client) Search(ctx context.Context, keyword string) ([]Result, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyQuery
	}
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(query{Q: keyword})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", keyword, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded response
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := decoded.Organic
	if results == nil {
		results = []Result{}
	}
	c.logger.Debug().
		Str("keyword", keyword).
		Int("results", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("search done")
	return results, nil
}
