// Package server exposes crawls, page scrapes and keyword searches over a
// small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/time/rate"

	"github.com/ramkansal/contactcrawl/internal/crawler"
	"github.com/ramkansal/contactcrawl/internal/search"
	"github.com/ramkansal/contactcrawl/pkg/plugin"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Crawler is the work the API delegates to.
type Crawler interface {
	CrawlContext(ctx context.Context, req crawler.CrawlRequest) (*plugin.CrawlResult, error)
	Scrape(target, keyword string) (*plugin.PageMetadata, error)
}

// Searcher runs keyword searches against a web search API.
type Searcher interface {
	Search(ctx context.Context, keyword string) ([]search.Result, error)
}

// Config holds server settings.
type Config struct {
	Addr              string
	RequestsPerSecond float64
	Burst             int
	MaxPagesLimit     int
	ReadTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// Server serves the crawl API. Results are returned to the requesting
// client only; nothing is kept between requests.
type Server struct {
	cfg     Config
	crawler Crawler
	search  Searcher
	logger  zerolog.Logger
	limiter *rate.Limiter
	mux     *http.ServeMux
}

// New creates a Server backed by c. A nil searcher disables /api/search
// with 503.
func New(cfg Config, c Crawler, searcher Searcher, logger zerolog.Logger) *Server {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	s := &Server{
		cfg:     cfg,
		crawler: c,
		search:  searcher,
		logger:  logger,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/crawl", s.limit(s.handleCrawl))
	s.mux.HandleFunc("POST /api/scrape", s.limit(s.handleScrape))
	s.mux.HandleFunc("POST /api/search", s.limit(s.handleSearch))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the API handler wrapped with request logging.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(h)
	h = hlog.RemoteAddrHandler("ip")(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	h = hlog.NewHandler(s.logger)(h)
	return h
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info().Msg("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// limit rejects requests beyond the token bucket with 429.
func (s *Server) limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
			return
		}
		next(w, r)
	}
}

// ---------- handlers ----------

type crawlRequest struct {
	URL      string    `json:"url"`
	MaxPages pageCount `json:"max_pages"`
}

// pageCount is max_pages as sent by clients: a JSON number or a numeric
// string such as "5". Fractions are truncated; null counts as absent.
type pageCount struct {
	n   int
	set bool
}

func (p *pageCount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		n, err := strconv.Atoi(strings.TrimSpace(unquoted))
		if err != nil {
			return fmt.Errorf("max_pages: %q is not an integer", unquoted)
		}
		*p = pageCount{n: n, set: true}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("max_pages: %s is not a number", raw)
	}
	*p = pageCount{n: int(f), set: true}
	return nil
}

type crawlResponse struct {
	Success      bool                   `json:"success"`
	ID           string                 `json:"id"`
	Count        int                    `json:"count"`
	PagesScanned int                    `json:"pages_scanned"`
	Results      []plugin.ContactRecord `json:"results"`
}

type scrapeRequest struct {
	URL     string `json:"url"`
	Keyword string `json:"keyword"`
}

type searchRequest struct {
	Keyword string `json:"keyword"`
}

type searchResponse struct {
	Results []search.Result `json:"results"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if !decode(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "URL is required"})
		return
	}

	maxPages := 1
	if req.MaxPages.set {
		maxPages = req.MaxPages.n
	}
	maxPages = crawler.ClampMaxPages(maxPages, s.cfg.MaxPagesLimit)

	result, err := s.crawler.CrawlContext(r.Context(), crawler.CrawlRequest{StartURL: req.URL, MaxPages: maxPages})
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, crawler.ErrEmptyStartURL), errors.Is(err, crawler.ErrInvalidStartURL):
			status = http.StatusBadRequest
		case errors.Is(err, context.Canceled):
			hlog.FromRequest(r).Info().Str("target", req.URL).Msg("client went away, crawl abandoned")
			return
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	records := result.Records
	if records == nil {
		records = []plugin.ContactRecord{}
	}
	writeJSON(w, http.StatusOK, crawlResponse{
		Success:      true,
		ID:           result.ID,
		Count:        len(records),
		PagesScanned: result.PagesScanned,
		Results:      records,
	})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if !decode(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "URL required"})
		return
	}

	meta, err := s.crawler.Scrape(req.URL, req.Keyword)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, crawler.ErrEmptyStartURL) || errors.Is(err, crawler.ErrInvalidStartURL) {
			status = http.StatusBadRequest
		}
		hlog.FromRequest(r).Warn().Err(err).Str("target", req.URL).Msg("scrape failed")
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Keyword) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "keyword is required"})
		return
	}
	if s.search == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: search.ErrNoAPIKey.Error()})
		return
	}

	results, err := s.search.Search(r.Context(), req.Keyword)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, search.ErrEmptyQuery):
			status = http.StatusBadRequest
		case errors.Is(err, search.ErrNoAPIKey):
			status = http.StatusServiceUnavailable
		case errors.Is(err, context.Canceled):
			return
		}
		hlog.FromRequest(r).Warn().Err(err).Str("keyword", req.Keyword).Msg("search failed")
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------- helpers ----------

// decode reads a JSON body into v. An empty body leaves v zero. On failure
// it writes a 400 and returns false.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		return true
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
