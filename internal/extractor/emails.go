package extractor

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// FindEmails returns every address in text, deduplicated, in order of
// first appearance.
func FindEmails(text string) []string {
	var emails []string
	seen := make(map[string]bool)
	for _, match := range emailPattern.FindAllString(text, -1) {
		if seen[match] {
			continue
		}
		seen[match] = true
		emails = append(emails, match)
	}
	return emails
}

// ExtractEmails collects addresses from the document text and from every
// attribute value of every element, so mailto: hrefs and data-* attributes
// are covered. The result is deduplicated per page; text matches come first,
// then attribute matches in document order.
func ExtractEmails(doc *goquery.Document) []string {
	var emails []string
	seen := make(map[string]bool)

	add := func(found []string) {
		for _, email := range found {
			if seen[email] {
				continue
			}
			seen[email] = true
			emails = append(emails, email)
		}
	}

	add(FindEmails(doc.Text()))

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, node := range s.Nodes {
			for _, attr := range node.Attr {
				add(FindEmails(attr.Val))
			}
		}
	})

	return emails
}
