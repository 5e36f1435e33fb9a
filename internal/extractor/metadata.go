package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ramkansal/contactcrawl/pkg/plugin"
)

// metadataHeadings are the heading levels reported by ExtractMetadata.
var metadataHeadings = []string{"h1", "h2", "h3"}

// ExtractMetadata collects page metadata: title, description, canonical URL,
// language, Open Graph tags, h1-h3 headings and image sources.
func ExtractMetadata(doc *goquery.Document, sourceURL string) *plugin.PageMetadata {
	meta := &plugin.PageMetadata{
		SourceURL: sourceURL,
		OGTags:    make(map[string]string),
		Headings:  make(map[string][]string, len(metadataHeadings)),
		Images:    []string{},
	}

	meta.Title = strings.TrimSpace(doc.Find("title").First().Text())

	if content, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		meta.Description = strings.TrimSpace(content)
	}

	if href, ok := doc.Find(`link[rel~="canonical"]`).First().Attr("href"); ok {
		meta.Canonical = strings.TrimSpace(href)
	}

	if lang, ok := doc.Find("html").Attr("lang"); ok {
		meta.Language = strings.TrimSpace(lang)
	}

	// Open Graph
	doc.Find("meta[property]").Each(func(_ int, s *goquery.Selection) {
		property, _ := s.Attr("property")
		content, _ := s.Attr("content")
		content = strings.TrimSpace(content)
		if !strings.HasPrefix(property, "og:") || content == "" {
			return
		}
		meta.OGTags[property] = content
	})

	for _, level := range metadataHeadings {
		headings := []string{}
		doc.Find(level).Each(func(_ int, s *goquery.Selection) {
			text := collapseSpace(s.Text())
			if text != "" {
				headings = append(headings, text)
			}
		})
		meta.Headings[level] = headings
	}

	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src = strings.TrimSpace(src); src != "" {
			meta.Images = append(meta.Images, src)
		}
	})

	return meta
}

// collapseSpace trims s and folds internal whitespace runs to one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
