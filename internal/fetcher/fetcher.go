// Package fetcher provides the page retrieval backends: a Colly HTTP fetcher
// and a Rod headless-browser fetcher for JavaScript-rendered sites.
package fetcher

import (
	"fmt"
	"net/http"
	"time"
)

const (
	// DefaultUserAgent identifies the crawler on every request.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"

	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 15 * time.Second
)

// Mode selects the fetch backend.
type Mode string

const (
	ModeHTTP    Mode = "http"
	ModeBrowser Mode = "browser"
)

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeHTTP, "":
		return ModeHTTP, nil
	case ModeBrowser:
		return ModeBrowser, nil
	default:
		return "", fmt.Errorf("unknown fetch mode %q (want http or browser)", s)
	}
}
