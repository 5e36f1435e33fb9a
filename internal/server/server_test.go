package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramkansal/contactcrawl/internal/crawler"
	"github.com/ramkansal/contactcrawl/internal/search"
	"github.com/ramkansal/contactcrawl/pkg/plugin"
)

// siteFetcher serves a small three-page site.
type siteFetcher struct{}

var site = map[string]string{
	"https://uni.test/": `<html><head><title>Home</title></head><body>
		<p>Admissions: apply@uni.test</p><a href="/staff">Staff</a><a href="/news">News</a></body></html>`,
	"https://uni.test/staff": `<html><body><p>jane.roe@uni.test</p>
		<script type="application/ld+json">{"@type":"Person","jobTitle":"Dean"}</script></body></html>`,
	"https://uni.test/news": `<html><body><p>press@uni.test</p></body></html>`,
}

func (siteFetcher) Name() string { return "site" }
func (siteFetcher) Close() error { return nil }

func (siteFetcher) Fetch(target string) (*plugin.PageData, error) {
	html, ok := site[target]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return &plugin.PageData{URL: target, StatusCode: http.StatusOK, RawHTML: html}, nil
}

// stubSearcher answers every keyword with one canned hit; "outage" fails.
type stubSearcher struct{}

func (stubSearcher) Search(_ context.Context, keyword string) ([]search.Result, error) {
	if keyword == "outage" {
		return nil, &search.APIError{StatusCode: http.StatusInternalServerError, Body: "down"}
	}
	return []search.Result{{Title: "About " + keyword, Link: "https://uni.test/", Snippet: "Welcome."}}, nil
}

func newTestServer(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	return newTestServerWith(t, cfg, stubSearcher{})
}

func newTestServerWith(t *testing.T, cfg Config, searcher Searcher) http.Handler {
	t.Helper()
	c := crawler.New(&crawler.CrawlConfig{}, siteFetcher{}, zerolog.Nop())
	if cfg.MaxPagesLimit == 0 {
		cfg.MaxPagesLimit = crawler.DefaultMaxPagesLimit
	}
	return New(cfg, c, searcher, zerolog.Nop()).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestCrawl_Success(t *testing.T) {
	h := newTestServer(t, Config{})

	rec, body := do(t, h, http.MethodPost, "/api/crawl", `{"url":"https://uni.test/","max_pages":5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["id"])
	assert.EqualValues(t, 3, body["count"])
	assert.EqualValues(t, 3, body["pages_scanned"])

	results := body["results"].([]interface{})
	require.Len(t, results, 3)
	staff := results[1].(map[string]interface{})
	assert.Equal(t, "https://uni.test/staff", staff["source_page"])
	assert.Equal(t, "jane.roe@uni.test", staff["email"])
	assert.Equal(t, "Jane", staff["first_name"])
	assert.Equal(t, "Roe", staff["last_name"])
	assert.Equal(t, "Dean", staff["designations"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestCrawl_DefaultsToOnePage(t *testing.T) {
	h := newTestServer(t, Config{})

	rec, body := do(t, h, http.MethodPost, "/api/crawl", `{"url":"https://uni.test/"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["pages_scanned"])
	assert.EqualValues(t, 1, body["count"])
}

func TestCrawl_ClampsMaxPages(t *testing.T) {
	h := newTestServer(t, Config{MaxPagesLimit: 2})

	rec, body := do(t, h, http.MethodPost, "/api/crawl", `{"url":"https://uni.test/","max_pages":500}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["pages_scanned"])
}

func TestCrawl_MaxPagesAsString(t *testing.T) {
	h := newTestServer(t, Config{})

	rec, body := do(t, h, http.MethodPost, "/api/crawl", `{"url":"https://uni.test/","max_pages":"2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["pages_scanned"])

	rec, body = do(t, h, http.MethodPost, "/api/crawl", `{"url":"https://uni.test/","max_pages":2.0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["pages_scanned"])

	rec, body = do(t, h, http.MethodPost, "/api/crawl", `{"url":"https://uni.test/","max_pages":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["pages_scanned"])

	rec, body = do(t, h, http.MethodPost, "/api/crawl", `{"url":"https://uni.test/","max_pages":"many"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "max_pages")
}

func TestCrawl_BadRequests(t *testing.T) {
	h := newTestServer(t, Config{})

	tests := map[string]string{
		"missing url":  `{"max_pages":3}`,
		"empty body":   ``,
		"invalid json": `{"url":`,
		"relative url": `{"url":"/staff"}`,
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			rec, body := do(t, h, http.MethodPost, "/api/crawl", payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestCrawl_MethodNotAllowed(t *testing.T) {
	h := newTestServer(t, Config{})

	rec, _ := do(t, h, http.MethodGet, "/api/crawl", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCrawl_ConcurrentRequestsAreIsolated(t *testing.T) {
	h := newTestServer(t, Config{})

	var wg sync.WaitGroup
	counts := make([]float64, 6)
	for i := range counts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pages := 1 + i%3
			req := httptest.NewRequest(http.MethodPost, "/api/crawl",
				strings.NewReader(fmt.Sprintf(`{"url":"https://uni.test/","max_pages":%d}`, pages)))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			var body map[string]interface{}
			if json.Unmarshal(rec.Body.Bytes(), &body) == nil {
				counts[i], _ = body["pages_scanned"].(float64)
			}
		}(i)
	}
	wg.Wait()

	for i, got := range counts {
		assert.EqualValues(t, 1+i%3, got, "request %d", i)
	}
}

func TestScrape(t *testing.T) {
	h := newTestServer(t, Config{})

	rec, body := do(t, h, http.MethodPost, "/api/scrape", `{"url":"https://uni.test/","keyword":"admissions"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://uni.test/", body["source_url"])
	assert.Equal(t, "Home", body["title"])

	kw := body["keyword"].(map[string]interface{})
	assert.Equal(t, "admissions", kw["term"])
}

func TestScrape_Errors(t *testing.T) {
	h := newTestServer(t, Config{})

	rec, _ := do(t, h, http.MethodPost, "/api/scrape", `{"keyword":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/api/scrape", `{"url":"https://uni.test/nowhere"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSearch(t *testing.T) {
	h := newTestServer(t, Config{})

	rec, body := do(t, h, http.MethodPost, "/api/search", `{"keyword":"admissions"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	results := body["results"].([]interface{})
	require.Len(t, results, 1)
	hit := results[0].(map[string]interface{})
	assert.Equal(t, "About admissions", hit["title"])
	assert.Equal(t, "https://uni.test/", hit["link"])
	assert.Equal(t, "Welcome.", hit["snippet"])
}

func TestSearch_Errors(t *testing.T) {
	h := newTestServer(t, Config{})

	rec, _ := do(t, h, http.MethodPost, "/api/search", `{"keyword":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := do(t, h, http.MethodPost, "/api/search", `{"keyword":"outage"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotEmpty(t, body["error"])

	rec, _ = do(t, newTestServerWith(t, Config{}, nil), http.MethodPost, "/api/search", `{"keyword":"admissions"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, Config{})

	rec, body := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, Config{RequestsPerSecond: 0.001, Burst: 1})

	rec, _ := do(t, h, http.MethodPost, "/api/crawl", `{"url":"https://uni.test/"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := do(t, h, http.MethodPost, "/api/crawl", `{"url":"https://uni.test/"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, body["error"])

	// health checks are not throttled
	rec, _ = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
