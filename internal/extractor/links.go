package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HostMatcher decides whether a URL belongs to the crawl's domain. Hosts are
// compared as exact strings (port included) unless NormalizeWWW is set, in
// which case a leading "www." and letter case are ignored.
type HostMatcher struct {
	host         string
	normalizeWWW bool
}

// NewHostMatcher builds a matcher scoped to the host of rawURL.
func NewHostMatcher(rawURL string, normalizeWWW bool) (HostMatcher, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return HostMatcher{}, fmt.Errorf("parse %q: %w", rawURL, err)
	}
	if parsed.Host == "" {
		return HostMatcher{}, fmt.Errorf("%q has no host", rawURL)
	}

	m := HostMatcher{normalizeWWW: normalizeWWW}
	m.host = m.canonical(parsed.Host)
	return m, nil
}

// Host returns the host the matcher is scoped to.
func (m HostMatcher) Host() string { return m.host }

// Match reports whether host is in scope.
func (m HostMatcher) Match(host string) bool {
	return host != "" && m.canonical(host) == m.host
}

// MatchURL reports whether rawURL parses and its host is in scope.
func (m HostMatcher) MatchURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return m.Match(parsed.Host)
}

func (m HostMatcher) canonical(host string) string {
	if !m.normalizeWWW {
		return host
	}
	host = strings.ToLower(host)
	return strings.TrimPrefix(host, "www.")
}

// ExtractLinks returns the same-domain http(s) links of the page, resolved
// against pageURL with fragments removed, deduplicated per page.
func ExtractLinks(doc *goquery.Document, pageURL string, scope HostMatcher) []string {
	baseURL, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		resolved := resolveURL(baseURL, href)
		if resolved == nil || !scope.Match(resolved.Host) {
			return
		}

		link := resolved.String()
		if seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	})

	return links
}

// resolveURL resolves raw against base and drops the fragment. Anything that
// does not end up as an http(s) URL is rejected.
func resolveURL(base *url.URL, raw string) *url.URL {
	ref, err := url.Parse(raw)
	if err != nil {
		return nil
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved
}
