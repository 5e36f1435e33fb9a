package output

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ramkansal/contactcrawl/pkg/plugin"
)

// TextWriter writes crawl results to a plain text file,
// mirroring the terminal output (without ANSI color codes).
type TextWriter struct {
	path  string
	lines []string
	mu    sync.Mutex
}

// NewTextWriter creates a new plain-text output writer.
func NewTextWriter(path string) *TextWriter {
	return &TextWriter{path: path}
}

func (w *TextWriter) Name() string { return "text" }

func (w *TextWriter) WritePage(page *plugin.PageResult, records []plugin.ContactRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	line := "  [page] " + page.URL
	if len(records) > 0 {
		line += fmt.Sprintf(" [emails:%d]", len(records))
	}
	w.lines = append(w.lines, line)
	for _, r := range records {
		w.lines = append(w.lines, "      +-- "+RecordLine(r))
	}
	return nil
}

func (w *TextWriter) Finalize(result *plugin.CrawlResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var b strings.Builder

	// Banner
	b.WriteString("\n  CONTACTCRAWL\n")
	b.WriteString("  Breadth-first email and contact crawler\n")
	b.WriteString("  " + strings.Repeat("-", 58) + "\n\n")

	// Target info
	b.WriteString(fmt.Sprintf("  Target:   %s\n", result.StartURL))
	b.WriteString(fmt.Sprintf("  Crawl ID: %s\n", result.ID))
	b.WriteString(fmt.Sprintf("  Started:  %s\n\n", result.StartedAt.Format(time.RFC1123)))

	// Page results
	for _, line := range w.lines {
		b.WriteString(line + "\n")
	}

	// Summary
	b.WriteString("\n  " + strings.Repeat("-", 50) + "\n")
	b.WriteString("  Crawl complete\n")
	b.WriteString(fmt.Sprintf("    Pages:    %d scanned, %d failed\n", result.PagesScanned, result.PagesFailed))
	b.WriteString(fmt.Sprintf("    Contacts: %d found in %s\n", len(result.Records), FormatDuration(result.Duration)))
	b.WriteString("\n")

	return save(w.path, []byte(b.String()))
}

// ---------- helpers ----------

// RecordLine renders a contact record on one line: the email, the derived
// name in parentheses and the page designations.
func RecordLine(r plugin.ContactRecord) string {
	line := r.Email
	if name := strings.TrimSpace(r.FirstName + " " + r.LastName); name != "" {
		line += " (" + name + ")"
	}
	if r.Designations != "" {
		line += " " + r.Designations
	}
	return line
}

// FormatDuration renders d compactly: milliseconds, seconds or minutes.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", m, s)
}
