package extractor

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// designationKeys are the JSON-LD keys whose string values read as a job title.
var designationKeys = map[string]bool{
	"jobTitle":    true,
	"role":        true,
	"position":    true,
	"title":       true,
	"designation": true,
}

// ExtractDesignations scans every JSON-LD block on the page and returns the
// distinct designation strings, sorted. Malformed blocks contribute nothing.
func ExtractDesignations(doc *goquery.Document) []string {
	set := make(map[string]bool)
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		for _, d := range DesignationsFromJSONLD(s.Text()) {
			if d != "" {
				set[d] = true
			}
		}
	})

	if len(set) == 0 {
		return nil
	}
	designations := make([]string, 0, len(set))
	for d := range set {
		designations = append(designations, d)
	}
	sort.Strings(designations)
	return designations
}

// DesignationsFromJSONLD decodes one structured-data block and walks it for
// designation keys. A top-level object is treated as a one-element list.
// Invalid JSON yields nil.
func DesignationsFromJSONLD(raw string) []string {
	var data interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil
	}

	var entries []interface{}
	switch v := data.(type) {
	case map[string]interface{}:
		entries = []interface{}{v}
	case []interface{}:
		entries = v
	default:
		return nil
	}

	var out []string
	for _, entry := range entries {
		out = walkDesignations(entry, out)
	}
	return out
}

// walkDesignations collects designation values from node. Only objects are
// inspected; arrays are descended into element by element.
func walkDesignations(node interface{}, out []string) []string {
	obj, ok := node.(map[string]interface{})
	if !ok {
		return out
	}

	for key, value := range obj {
		if designationKeys[key] {
			if s, ok := value.(string); ok {
				out = append(out, strings.TrimSpace(s))
				continue
			}
		}
		switch v := value.(type) {
		case map[string]interface{}:
			out = walkDesignations(v, out)
		case []interface{}:
			for _, item := range v {
				out = walkDesignations(item, out)
			}
		}
	}
	return out
}
