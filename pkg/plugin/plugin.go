// Package plugin defines the public types and interfaces of contactcrawl.
// External tools can import this package to write custom fetchers or
// output writers without forking the project.
package plugin

import (
	"net/http"
	"time"
)

// ---------- Core Data Types ----------

// PageData represents a fetched web page.
type PageData struct {
	URL           string        `json:"url"`
	FinalURL      string        `json:"final_url"`
	StatusCode    int           `json:"status_code"`
	Headers       http.Header   `json:"-"`
	RawHTML       string        `json:"-"`
	ContentType   string        `json:"content_type"`
	FetchedAt     time.Time     `json:"fetched_at"`
	FetchDuration time.Duration `json:"fetch_duration"`
	FetcherUsed   string        `json:"fetcher_used"`
	Error         string        `json:"error,omitempty"`
	ResponseSize  int           `json:"response_size"`
}

// PageResult holds everything extracted from a single fetched page.
// Designations are page-level: they apply to every email on the page.
type PageResult struct {
	URL          string   `json:"url"`
	Emails       []string `json:"emails"`
	Designations []string `json:"designations"`
	Links        []string `json:"links"`
}

// ContactRecord is one (page, email) pair found during a crawl.
type ContactRecord struct {
	SourcePage   string `json:"source_page"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Designations string `json:"designations"`
}

// CrawlResult is the request-scoped output of one crawl invocation.
type CrawlResult struct {
	ID           string          `json:"id"`
	StartURL     string          `json:"start_url"`
	MaxPages     int             `json:"max_pages"`
	PagesScanned int             `json:"pages_scanned"`
	PagesFailed  int             `json:"pages_failed"`
	Visited      []string        `json:"visited"`
	Failed       []string        `json:"failed,omitempty"`
	Records      []ContactRecord `json:"results"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
	Duration     time.Duration   `json:"duration"`
}

// PageMetadata is the single-page scrape output: document metadata plus
// optional keyword context.
type PageMetadata struct {
	SourceURL   string              `json:"source_url"`
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Canonical   string              `json:"canonical,omitempty"`
	Language    string              `json:"language,omitempty"`
	OGTags      map[string]string   `json:"og_tags"`
	Headings    map[string][]string `json:"headings"`
	Images      []string            `json:"images"`
	Keyword     *KeywordContext     `json:"keyword,omitempty"`
}

// KeywordContext lists the sentences of a page that mention a term.
type KeywordContext struct {
	Term    string   `json:"term"`
	Count   int      `json:"count"`
	Context []string `json:"context"`
}

// ---------- Event Types ----------

// CrawlEvent represents a real-time event emitted by the crawler.
type CrawlEvent struct {
	Type    EventType
	URL     string
	Page    *PageResult
	Records []ContactRecord
	Error   error
	Stats   *CrawlStats
	Message string
}

// EventType identifies the kind of event.
type EventType int

const (
	EventPageQueued EventType = iota
	EventPageStarted
	EventPageDone
	EventPageError
	EventCrawlStarted
	EventCrawlFinished
)

// CrawlStats holds running crawl statistics.
type CrawlStats struct {
	PagesQueued  int           `json:"pages_queued"`
	PagesScanned int           `json:"pages_scanned"`
	PagesFailed  int           `json:"pages_failed"`
	Records      int           `json:"records"`
	Elapsed      time.Duration `json:"elapsed"`
}

// ---------- Plugin Interfaces ----------

// Fetcher defines how pages are retrieved.
type Fetcher interface {
	// Name returns a human-readable identifier for this fetcher.
	Name() string

	// Fetch retrieves the page at the given URL. Transport failures and
	// non-2xx responses are both reported as errors.
	Fetch(url string) (*PageData, error)

	// Close releases any resources held by the fetcher.
	Close() error
}

// OutputWriter defines how crawl results are persisted.
type OutputWriter interface {
	// Name returns a human-readable identifier for this writer.
	Name() string

	// WritePage records a single page's extraction (called incrementally).
	WritePage(page *PageResult, records []ContactRecord) error

	// Finalize writes the final result and closes resources.
	Finalize(result *CrawlResult) error
}
