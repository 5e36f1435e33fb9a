package fetcher

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/proxy"
	"github.com/rs/zerolog"

	"github.com/ramkansal/contactcrawl/pkg/plugin"
)

// HTTPFetcher uses Colly for plain HTTP page fetching. It is safe for
// concurrent use: every Fetch runs on its own clone of the base collector,
// and no cookies are kept between fetches.
type HTTPFetcher struct {
	collector *colly.Collector
	headers   map[string]string
	logger    zerolog.Logger
}

// HTTPFetcherConfig holds configuration for the HTTP fetcher.
type HTTPFetcherConfig struct {
	UserAgent       string
	Timeout         time.Duration
	MaxResponseSize int
	RespectRobots   bool
	Proxies         []string
	CustomHeaders   []string
	Logger          zerolog.Logger
}

// NewHTTPFetcher creates a new Colly-based HTTP fetcher.
func NewHTTPFetcher(cfg HTTPFetcherConfig) (*HTTPFetcher, error) {
	c := colly.NewCollector(
		colly.Async(false),
		// Crawl-level dedup is the caller's job; the collector must not
		// remember URLs across fetches or across concurrent crawls.
		colly.AllowURLRevisit(),
	)

	c.UserAgent = DefaultUserAgent
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}

	c.IgnoreRobotsTxt = !cfg.RespectRobots
	// Status codes are classified in Fetch, not by colly.
	c.ParseHTTPErrorResponse = true

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c.SetRequestTimeout(timeout)

	if cfg.MaxResponseSize > 0 {
		c.MaxBodySize = cfg.MaxResponseSize
	}

	// Clones share the base collector's HTTP client, so a jar there would
	// carry cookies from one crawl into the next. Fetches stay stateless.
	c.DisableCookies()

	if len(cfg.Proxies) > 0 {
		switcher, err := proxy.RoundRobinProxySwitcher(cfg.Proxies...)
		if err != nil {
			return nil, fmt.Errorf("configure proxies: %w", err)
		}
		c.SetProxyFunc(switcher)
	}

	return &HTTPFetcher{
		collector: c,
		headers:   parseHeaders(cfg.CustomHeaders),
		logger:    cfg.Logger,
	}, nil
}

func (f *HTTPFetcher) Name() string { return "http" }

// Fetch retrieves targetURL. Transport errors and non-2xx statuses are
// returned as errors alongside the partially filled page.
func (f *HTTPFetcher) Fetch(targetURL string) (*plugin.PageData, error) {
	start := time.Now()

	page := &plugin.PageData{
		URL:         targetURL,
		FinalURL:    targetURL,
		FetcherUsed: "http",
		FetchedAt:   start,
	}

	// Clone the collector for this individual fetch so callbacks stay local.
	// Clones share the transport and proxy switcher.
	c := f.collector.Clone()

	var fetchErr error

	if len(f.headers) > 0 {
		c.OnRequest(func(r *colly.Request) {
			for key, value := range f.headers {
				r.Headers.Set(key, value)
			}
		})
	}

	c.OnResponse(func(r *colly.Response) {
		page.StatusCode = r.StatusCode
		page.RawHTML = string(r.Body)
		page.ResponseSize = len(r.Body)
		page.FinalURL = r.Request.URL.String()
		page.ContentType = r.Headers.Get("Content-Type")

		page.Headers = make(http.Header)
		for key, values := range *r.Headers {
			for _, v := range values {
				page.Headers.Add(key, v)
			}
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
		if r != nil {
			page.StatusCode = r.StatusCode
			if r.Request != nil {
				page.FinalURL = r.Request.URL.String()
			}
		}
	})

	f.logger.Debug().Str("url", targetURL).Msg("fetching")

	err := c.Visit(targetURL)
	c.Wait()
	page.FetchDuration = time.Since(start)

	if err == nil {
		err = fetchErr
	}
	if err != nil {
		page.Error = err.Error()
		return page, fmt.Errorf("fetch %s: %w", targetURL, err)
	}

	if page.StatusCode < 200 || page.StatusCode > 299 {
		statusErr := &StatusError{URL: targetURL, StatusCode: page.StatusCode}
		page.Error = statusErr.Error()
		page.RawHTML = ""
		return page, statusErr
	}

	return page, nil
}

func (f *HTTPFetcher) Close() error {
	return nil
}

// parseHeaders turns "Key: Value" strings into a header map, skipping
// malformed entries.
func parseHeaders(raw []string) map[string]string {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(parts[1])
	}
	return headers
}
