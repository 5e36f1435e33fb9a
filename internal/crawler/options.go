package crawler

import "time"

const (
	// DefaultMaxPagesLimit is the upper bound callers clamp max_pages to.
	DefaultMaxPagesLimit = 50

	// DefaultDelayMin and DefaultDelayMax bound the politeness pause taken
	// after every successfully scanned page.
	DefaultDelayMin = 800 * time.Millisecond
	DefaultDelayMax = 1500 * time.Millisecond
)

// CrawlConfig holds the crawler's fixed settings. Per-invocation values live
// in CrawlRequest.
type CrawlConfig struct {
	// Politeness
	DelayMin time.Duration
	DelayMax time.Duration

	// NormalizeWWW treats "www.example.com" and "example.com" as one domain.
	// Off by default: hosts must match exactly.
	NormalizeWWW bool
}

// DefaultConfig returns the default crawler configuration.
func DefaultConfig() *CrawlConfig {
	return &CrawlConfig{
		DelayMin: DefaultDelayMin,
		DelayMax: DefaultDelayMax,
	}
}

// CrawlRequest describes one crawl invocation.
type CrawlRequest struct {
	StartURL string
	MaxPages int
}

// ClampMaxPages bounds n to [0, limit]. A non-positive limit falls back to
// DefaultMaxPagesLimit.
func ClampMaxPages(n, limit int) int {
	if limit <= 0 {
		limit = DefaultMaxPagesLimit
	}
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}
	return n
}
