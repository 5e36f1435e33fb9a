// Package output persists crawl results to files.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ramkansal/contactcrawl/pkg/plugin"
)

// Stdout is the path that selects standard output instead of a file.
const Stdout = "-"

// New returns the writer for format ("text" or "json"). An empty format is
// inferred from the file extension of path.
func New(format, path string) (plugin.OutputWriter, error) {
	if format == "" {
		format = "text"
		if strings.EqualFold(filepath.Ext(path), ".json") {
			format = "json"
		}
	}

	switch strings.ToLower(format) {
	case "text", "txt":
		return NewTextWriter(path), nil
	case "json":
		return NewJSONWriter(path), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text or json)", format)
	}
}

// save writes data to path, or to standard output when path is Stdout.
func save(path string, data []byte) error {
	if path == Stdout || path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// WriteResult replays a finished crawl into w, one WritePage call per
// scanned page in visit order, then finalizes it.
func WriteResult(w plugin.OutputWriter, result *plugin.CrawlResult) error {
	failed := make(map[string]bool, len(result.Failed))
	for _, u := range result.Failed {
		failed[u] = true
	}

	byPage := make(map[string][]plugin.ContactRecord)
	for _, r := range result.Records {
		byPage[r.SourcePage] = append(byPage[r.SourcePage], r)
	}

	for _, u := range result.Visited {
		if failed[u] {
			continue
		}
		if err := w.WritePage(&plugin.PageResult{URL: u}, byPage[u]); err != nil {
			return fmt.Errorf("%s writer: %w", w.Name(), err)
		}
	}
	if err := w.Finalize(result); err != nil {
		return fmt.Errorf("%s writer: %w", w.Name(), err)
	}
	return nil
}
