package output

import (
	"fmt"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/ramkansal/contactcrawl/pkg/plugin"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONWriter saves the finished crawl result as an indented JSON document.
// Records are taken from the result, so WritePage only counts pages.
type JSONWriter struct {
	path  string
	pages int
	mu    sync.Mutex
}

// NewJSONWriter creates a JSON output writer for path.
func NewJSONWriter(path string) *JSONWriter {
	return &JSONWriter{path: path}
}

func (w *JSONWriter) Name() string { return "json" }

func (w *JSONWriter) WritePage(page *plugin.PageResult, records []plugin.ContactRecord) error {
	w.mu.Lock()
	w.pages++
	w.mu.Unlock()
	return nil
}

func (w *JSONWriter) Finalize(result *plugin.CrawlResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := *result
	if out.Records == nil {
		out.Records = []plugin.ContactRecord{}
	}

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode crawl result: %w", err)
	}
	return save(w.path, data)
}
