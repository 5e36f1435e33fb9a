package fetcher

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"

	"github.com/ramkansal/contactcrawl/pkg/plugin"
)

// BrowserFetcher uses Rod (headless Chrome) for sites that only render their
// contact pages with JavaScript. It is selected explicitly and never used as
// a fallback for failed HTTP fetches.
type BrowserFetcher struct {
	browser     *rod.Browser
	timeout     time.Duration
	settleDelay time.Duration
	userAgent   string
	logger      zerolog.Logger
}

// BrowserFetcherConfig holds configuration for the browser fetcher.
type BrowserFetcherConfig struct {
	Timeout     time.Duration
	SettleDelay time.Duration
	UserAgent   string
	Logger      zerolog.Logger
}

// NewBrowserFetcher launches a headless browser and connects to it.
func NewBrowserFetcher(cfg BrowserFetcherConfig) (*BrowserFetcher, error) {
	u, err := launcher.New().
		Headless(true).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	settle := cfg.SettleDelay
	if settle <= 0 {
		settle = time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &BrowserFetcher{
		browser:     browser,
		timeout:     timeout,
		settleDelay: settle,
		userAgent:   userAgent,
		logger:      cfg.Logger,
	}, nil
}

func (f *BrowserFetcher) Name() string { return "browser" }

// Fetch navigates to targetURL and returns the rendered DOM. A navigation
// error or a non-2xx document response fails the fetch.
func (f *BrowserFetcher) Fetch(targetURL string) (*plugin.PageData, error) {
	start := time.Now()

	page := &plugin.PageData{
		URL:         targetURL,
		FinalURL:    targetURL,
		FetcherUsed: "browser",
		FetchedAt:   start,
		ContentType: "text/html",
	}

	rodPage, err := f.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return f.fail(page, start, err)
	}
	defer rodPage.Close()

	rodPage = rodPage.Timeout(f.timeout)

	if err := rodPage.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
		return f.fail(page, start, err)
	}

	// Capture the document response status while navigating.
	var response proto.NetworkResponseReceived
	waitResponse := rodPage.WaitEvent(&response)

	if err := rodPage.Navigate(targetURL); err != nil {
		return f.fail(page, start, err)
	}
	waitResponse()

	if err := rodPage.WaitStable(f.settleDelay); err != nil {
		f.logger.Debug().Err(err).Str("url", targetURL).Msg("page did not fully settle")
	}

	if info, err := rodPage.Info(); err == nil {
		page.FinalURL = info.URL
	}

	if response.Response != nil {
		page.StatusCode = response.Response.Status
	}
	if page.StatusCode != 0 && (page.StatusCode < 200 || page.StatusCode > 299) {
		statusErr := &StatusError{URL: targetURL, StatusCode: page.StatusCode}
		page.Error = statusErr.Error()
		page.FetchDuration = time.Since(start)
		return page, statusErr
	}

	html, err := rodPage.HTML()
	if err != nil {
		return f.fail(page, start, err)
	}
	page.RawHTML = html
	page.ResponseSize = len(html)
	page.FetchDuration = time.Since(start)
	return page, nil
}

func (f *BrowserFetcher) fail(page *plugin.PageData, start time.Time, err error) (*plugin.PageData, error) {
	page.Error = err.Error()
	page.FetchDuration = time.Since(start)
	return page, fmt.Errorf("fetch %s: %w", page.URL, err)
}

func (f *BrowserFetcher) Close() error {
	if f.browser != nil {
		return f.browser.Close()
	}
	return nil
}
