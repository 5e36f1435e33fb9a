package crawler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ramkansal/contactcrawl/internal/extractor"
	"github.com/ramkansal/contactcrawl/pkg/plugin"
)

var (
	// ErrEmptyStartURL is returned when a crawl is requested without a URL.
	ErrEmptyStartURL = errors.New("start URL is required")

	// ErrInvalidStartURL is returned when the start URL is not an absolute
	// http(s) URL.
	ErrInvalidStartURL = errors.New("start URL must be an absolute http(s) URL")
)

// Crawler runs breadth-first, same-domain crawls that collect contact
// records. A Crawler only holds configuration and collaborators; every call
// to Crawl gets its own visited set, frontier and results, so one Crawler can
// serve concurrent crawls.
type Crawler struct {
	config *CrawlConfig
	fetch  plugin.Fetcher
	logger zerolog.Logger

	// sleep and jitter are replaced in tests.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(n time.Duration) time.Duration
}

// New creates a Crawler that retrieves pages through fetch.
func New(config *CrawlConfig, fetch plugin.Fetcher, logger zerolog.Logger) *Crawler {
	if config == nil {
		config = DefaultConfig()
	}
	return &Crawler{
		config: config,
		fetch:  fetch,
		logger: logger,
		sleep:  sleepContext,
		jitter: rand.N[time.Duration],
	}
}

// Crawl runs one crawl and blocks until it completes. The only errors are
// usage errors about the start URL; page-level failures are skipped.
func (c *Crawler) Crawl(req CrawlRequest) (*plugin.CrawlResult, error) {
	return c.CrawlWithEvents(context.Background(), req, nil)
}

// CrawlContext is Crawl with cancellation. See CrawlWithEvents.
func (c *Crawler) CrawlContext(ctx context.Context, req CrawlRequest) (*plugin.CrawlResult, error) {
	return c.CrawlWithEvents(ctx, req, nil)
}

// CrawlWithEvents is Crawl with cancellation and progress reporting.
//
// Cancellation is checked between pages and during the politeness pause; a
// cancelled crawl returns the partial result together with ctx.Err(). Events
// are sent without blocking (dropped when the channel is full) and events is
// closed when the crawl returns. A nil channel disables reporting.
func (c *Crawler) CrawlWithEvents(ctx context.Context, req CrawlRequest, events chan<- plugin.CrawlEvent) (*plugin.CrawlResult, error) {
	if events != nil {
		defer close(events)
	}

	scope, err := c.validateStart(req.StartURL)
	if err != nil {
		return nil, err
	}

	s := newSession(c, req, scope, events)
	err = s.run(ctx)
	return s.result(), err
}

// validateStart checks the start URL and derives the crawl's host scope.
func (c *Crawler) validateStart(startURL string) (extractor.HostMatcher, error) {
	if startURL == "" {
		return extractor.HostMatcher{}, ErrEmptyStartURL
	}

	parsed, err := url.Parse(startURL)
	if err != nil {
		return extractor.HostMatcher{}, fmt.Errorf("%w: %v", ErrInvalidStartURL, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return extractor.HostMatcher{}, fmt.Errorf("%w: %q", ErrInvalidStartURL, startURL)
	}

	return extractor.NewHostMatcher(startURL, c.config.NormalizeWWW)
}

// delay picks the politeness pause in [DelayMin, DelayMax).
func (c *Crawler) delay() time.Duration {
	low, high := c.config.DelayMin, c.config.DelayMax
	if low < 0 {
		low = 0
	}
	if high <= low {
		return low
	}
	return low + c.jitter(high-low)
}

// session is the state of a single crawl invocation.
type session struct {
	crawler *Crawler
	req     CrawlRequest
	scope   extractor.HostMatcher
	events  chan<- plugin.CrawlEvent
	logger  zerolog.Logger

	id        string
	startTime time.Time

	// URL frontier
	visited  map[string]bool
	order    []string
	failed   []string
	frontier []string

	records []plugin.ContactRecord
	stats   plugin.CrawlStats
}

func newSession(c *Crawler, req CrawlRequest, scope extractor.HostMatcher, events chan<- plugin.CrawlEvent) *session {
	id := uuid.NewString()
	return &session{
		crawler:   c,
		req:       req,
		scope:     scope,
		events:    events,
		logger:    c.logger.With().Str("crawl_id", id).Str("host", scope.Host()).Logger(),
		id:        id,
		startTime: time.Now(),
		visited:   make(map[string]bool),
	}
}

// run performs the breadth-first traversal. The page budget bounds visited
// URLs, so a page that fails to fetch uses up budget without counting as
// scanned.
func (s *session) run(ctx context.Context) error {
	s.logger.Info().Str("start_url", s.req.StartURL).Int("max_pages", s.req.MaxPages).Msg("crawl started")
	s.emit(plugin.CrawlEvent{
		Type:    plugin.EventCrawlStarted,
		URL:     s.req.StartURL,
		Message: fmt.Sprintf("Starting crawl of %s", s.req.StartURL),
	})

	s.enqueue(s.req.StartURL)

	var err error
	for len(s.frontier) > 0 && len(s.order) < s.req.MaxPages {
		if err = ctx.Err(); err != nil {
			break
		}

		target := s.dequeue()
		if s.visited[target] {
			continue
		}
		s.visited[target] = true
		s.order = append(s.order, target)

		if s.processURL(target) {
			if err = s.pause(ctx); err != nil {
				break
			}
		}
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("crawl cancelled")
	}

	s.stats.Elapsed = time.Since(s.startTime)
	s.logger.Info().
		Int("pages_scanned", s.stats.PagesScanned).
		Int("pages_failed", s.stats.PagesFailed).
		Int("records", len(s.records)).
		Dur("elapsed", s.stats.Elapsed).
		Msg("crawl finished")
	s.emit(plugin.CrawlEvent{
		Type:    plugin.EventCrawlFinished,
		Stats:   s.snapshot(),
		Message: fmt.Sprintf("Crawl complete. %d pages, %d contacts.", s.stats.PagesScanned, len(s.records)),
	})
	return err
}

// processURL fetches and analyzes one page. It reports whether the page was
// scanned successfully.
func (s *session) processURL(target string) bool {
	s.emit(plugin.CrawlEvent{Type: plugin.EventPageStarted, URL: target})

	page, err := s.crawler.fetch.Fetch(target)
	if err == nil {
		var result *plugin.PageResult
		result, err = extractor.Analyze(page, target, s.scope)
		if err == nil {
			s.collect(result)
			return true
		}
	}

	s.stats.PagesFailed++
	s.failed = append(s.failed, target)
	s.logger.Warn().Err(err).Str("url", target).Msg("skipping page")
	s.emit(plugin.CrawlEvent{
		Type:    plugin.EventPageError,
		URL:     target,
		Error:   err,
		Message: fmt.Sprintf("Error fetching %s: %v", target, err),
	})
	return false
}

// collect turns a scanned page into records and grows the frontier.
func (s *session) collect(result *plugin.PageResult) {
	records := extractor.Records(result)
	s.records = append(s.records, records...)

	for _, link := range result.Links {
		if !s.visited[link] {
			s.enqueue(link)
		}
	}

	s.stats.PagesScanned++
	s.stats.Records = len(s.records)

	s.logger.Debug().
		Str("url", result.URL).
		Int("emails", len(result.Emails)).
		Int("links", len(result.Links)).
		Msg("page scanned")
	s.emit(plugin.CrawlEvent{
		Type:    plugin.EventPageDone,
		URL:     result.URL,
		Page:    result,
		Records: records,
		Stats:   s.snapshot(),
	})
}

func (s *session) pause(ctx context.Context) error {
	if d := s.crawler.delay(); d > 0 {
		return s.crawler.sleep(ctx, d)
	}
	return nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueue appends a URL to the frontier. Duplicates already waiting in the
// frontier are tolerated; they are dropped when dequeued.
func (s *session) enqueue(target string) {
	s.frontier = append(s.frontier, target)
	s.stats.PagesQueued++
	s.emit(plugin.CrawlEvent{Type: plugin.EventPageQueued, URL: target})
}

// dequeue pops the front of the frontier.
func (s *session) dequeue() string {
	target := s.frontier[0]
	s.frontier = s.frontier[1:]
	return target
}

// emit sends an event to the event channel (non-blocking).
func (s *session) emit(event plugin.CrawlEvent) {
	if s.events == nil {
		return
	}
	select {
	case s.events <- event:
	default:
		// Drop event if the consumer is too slow; the crawl never blocks on it
	}
}

func (s *session) snapshot() *plugin.CrawlStats {
	stats := s.stats
	stats.Elapsed = time.Since(s.startTime)
	return &stats
}

func (s *session) result() *plugin.CrawlResult {
	finished := time.Now()
	return &plugin.CrawlResult{
		ID:           s.id,
		StartURL:     s.req.StartURL,
		MaxPages:     s.req.MaxPages,
		PagesScanned: s.stats.PagesScanned,
		PagesFailed:  s.stats.PagesFailed,
		Visited:      s.order,
		Failed:       s.failed,
		Records:      s.records,
		StartedAt:    s.startTime,
		FinishedAt:   finished,
		Duration:     finished.Sub(s.startTime),
	}
}

// Scrape fetches a single page and reports its metadata, with keyword
// context when keyword is set. Unlike Crawl, a fetch failure is returned.
func (c *Crawler) Scrape(target, keyword string) (*plugin.PageMetadata, error) {
	if _, err := c.validateStart(target); err != nil {
		return nil, err
	}

	page, err := c.fetch.Fetch(target)
	if err != nil {
		return nil, err
	}

	meta, err := extractor.Describe(page, keyword)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", target, err)
	}
	c.logger.Debug().Str("url", target).Str("keyword", keyword).Msg("page scraped")
	return meta, nil
}
