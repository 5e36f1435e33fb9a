package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ramkansal/contactcrawl/pkg/plugin"
)

// maxKeywordContext caps the sentences returned with a keyword match.
const maxKeywordContext = 5

// hiddenElements never contribute visible text.
var hiddenElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// VisibleText joins the trimmed text nodes of the document with single
// spaces, skipping script and style content.
func VisibleText(doc *goquery.Document) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hiddenElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

// FindKeywordContext returns the sentences of text mentioning keyword,
// matched case-insensitively. Count covers every sentence; Context holds at
// most the first five. An empty keyword returns nil.
func FindKeywordContext(text, keyword string) *plugin.KeywordContext {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}

	pattern := regexp.MustCompile(`(?i)[^.]*?` + regexp.QuoteMeta(keyword) + `[^.]*\.`)
	matches := pattern.FindAllString(text, -1)

	result := &plugin.KeywordContext{
		Term:    keyword,
		Count:   len(matches),
		Context: []string{},
	}
	for i, sentence := range matches {
		if i == maxKeywordContext {
			break
		}
		result.Context = append(result.Context, strings.TrimSpace(sentence))
	}
	return result
}
