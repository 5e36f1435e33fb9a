package output

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramkansal/contactcrawl/pkg/plugin"
)

func sampleResult() *plugin.CrawlResult {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &plugin.CrawlResult{
		ID:           "crawl-1",
		StartURL:     "https://uni.test/",
		MaxPages:     5,
		PagesScanned: 2,
		PagesFailed:  1,
		Visited:      []string{"https://uni.test/", "https://uni.test/gone", "https://uni.test/staff"},
		Failed:       []string{"https://uni.test/gone"},
		Records: []plugin.ContactRecord{
			{SourcePage: "https://uni.test/staff", Email: "jane.roe@uni.test", FirstName: "Jane", LastName: "Roe", Designations: "Dean, Professor"},
			{SourcePage: "https://uni.test/staff", Email: "info@uni.test", FirstName: "Info", Designations: "Dean, Professor"},
		},
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Duration:   1500 * time.Millisecond,
	}
}

func TestTextWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	w := NewTextWriter(path)
	result := sampleResult()

	require.NoError(t, w.WritePage(&plugin.PageResult{URL: "https://uni.test/"}, nil))
	require.NoError(t, w.WritePage(&plugin.PageResult{URL: "https://uni.test/staff"}, result.Records))
	require.NoError(t, w.Finalize(result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Equal(t, "text", w.Name())
	assert.Contains(t, text, "Target:   https://uni.test/")
	assert.Contains(t, text, "Crawl ID: crawl-1")
	assert.Contains(t, text, "  [page] https://uni.test/staff [emails:2]")
	assert.Contains(t, text, "      +-- jane.roe@uni.test (Jane Roe) Dean, Professor")
	assert.Contains(t, text, "      +-- info@uni.test (Info) Dean, Professor")
	assert.Contains(t, text, "Pages:    2 scanned, 1 failed")
	assert.Contains(t, text, "Contacts: 2 found in 1.5s")
	assert.NotContains(t, text, "\033[")
}

func TestJSONWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w := NewJSONWriter(path)
	result := sampleResult()

	require.NoError(t, w.WritePage(&plugin.PageResult{URL: "https://uni.test/staff"}, result.Records))
	require.NoError(t, w.Finalize(result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "crawl-1", decoded["id"])
	assert.EqualValues(t, 2, decoded["pages_scanned"])

	rows, ok := decoded["results"].([]interface{})
	require.True(t, ok)
	require.Len(t, rows, 2)
	first := rows[0].(map[string]interface{})
	assert.Equal(t, "https://uni.test/staff", first["source_page"])
	assert.Equal(t, "jane.roe@uni.test", first["email"])
	assert.Equal(t, "Jane", first["first_name"])
	assert.Equal(t, "Roe", first["last_name"])
	assert.Equal(t, "Dean, Professor", first["designations"])
}

func TestJSONWriter_EmptyResultsIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	result := sampleResult()
	result.Records = nil

	require.NoError(t, NewJSONWriter(path).Finalize(result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"results": []`)
	assert.Nil(t, result.Records)
}

func TestNew(t *testing.T) {
	tests := []struct {
		format, path, want string
		wantErr            bool
	}{
		{"", "contacts.txt", "text", false},
		{"", "contacts.JSON", "json", false},
		{"json", "contacts.txt", "json", false},
		{"TEXT", "contacts", "text", false},
		{"csv", "contacts.csv", "", true},
	}
	for _, tt := range tests {
		w, err := New(tt.format, tt.path)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, w.Name())
	}
}

func TestRecordLine(t *testing.T) {
	assert.Equal(t, "a@b.co", RecordLine(plugin.ContactRecord{Email: "a@b.co"}))
	assert.Equal(t, "a.b@c.io (A B)", RecordLine(plugin.ContactRecord{Email: "a.b@c.io", FirstName: "A", LastName: "B"}))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "2.5s", FormatDuration(2500*time.Millisecond))
	assert.Equal(t, "2m5s", FormatDuration(125*time.Second))
}

func TestWriteResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	require.NoError(t, WriteResult(NewTextWriter(path), sampleResult()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "  [page] https://uni.test/\n")
	assert.Contains(t, text, "  [page] https://uni.test/staff [emails:2]")
	assert.NotContains(t, text, "uni.test/gone")
}
