// Package extractor turns fetched HTML into contact data: emails, page-level
// designations from JSON-LD, same-domain links and page metadata.
package extractor

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"

	"github.com/ramkansal/contactcrawl/pkg/plugin"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrEmptyPage is returned by Analyze when the page carries no HTML.
var ErrEmptyPage = errors.New("page has no content")

// Parse builds a traversable document from an HTML body.
func Parse(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// Analyze parses a fetched page once and runs every crawl extraction
// against the resulting document. source is the URL the page was requested
// as; it names the result and is the base for relative links, whatever URL
// the fetcher reports. Links are restricted to scope.
func Analyze(page *plugin.PageData, source string, scope HostMatcher) (*plugin.PageResult, error) {
	if page == nil || page.RawHTML == "" {
		return nil, ErrEmptyPage
	}

	doc, err := Parse(page.RawHTML)
	if err != nil {
		return nil, err
	}

	return &plugin.PageResult{
		URL:          source,
		Emails:       ExtractEmails(doc),
		Designations: ExtractDesignations(doc),
		Links:        ExtractLinks(doc, source, scope),
	}, nil
}

// Records expands a page result into one contact record per email. Every
// record carries the page's full designation list.
func Records(page *plugin.PageResult) []plugin.ContactRecord {
	if page == nil || len(page.Emails) == 0 {
		return nil
	}

	designations := strings.Join(page.Designations, ", ")
	records := make([]plugin.ContactRecord, 0, len(page.Emails))
	for _, email := range page.Emails {
		first, last := DeriveName(email)
		records = append(records, plugin.ContactRecord{
			SourcePage:   page.URL,
			Email:        email,
			FirstName:    first,
			LastName:     last,
			Designations: designations,
		})
	}
	return records
}

// Describe builds the single-page metadata report, adding keyword context
// from the visible text when keyword is non-empty.
func Describe(page *plugin.PageData, keyword string) (*plugin.PageMetadata, error) {
	if page == nil || page.RawHTML == "" {
		return nil, ErrEmptyPage
	}

	doc, err := Parse(page.RawHTML)
	if err != nil {
		return nil, err
	}

	meta := ExtractMetadata(doc, page.URL)
	meta.Keyword = FindKeywordContext(VisibleText(doc), keyword)
	return meta, nil
}
