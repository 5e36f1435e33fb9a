package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTarget(t *testing.T) {
	tests := map[string]string{
		"example.edu":          "https://example.edu",
		" http://example.edu ": "http://example.edu",
		"https://example.edu/": "https://example.edu/",
		"":                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeTarget(in), in)
	}
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "contactcrawl v"+version+"\n", out.String())
}

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><head><title>Lab</title></head><body>
			<p>Contact lab.head@lab.test about admissions.</p><a href="/people">People</a><a href="/gone">Old</a></body></html>`)
	})
	mux.HandleFunc("/people", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>ada_lovelace@lab.test</p>
			<script type="application/ld+json">[{"jobTitle":"Professor"},{"role":"Chair"}]</script></body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contactcrawl.yaml")
	body := "crawl:\n  delay_min: 0s\n  delay_max: 0s\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestCrawlCommand_JSONOutput(t *testing.T) {
	srv := newSite(t)
	outPath := filepath.Join(t.TempDir(), "contacts.json")

	root := newRootCmd()
	root.SetArgs([]string{
		"--config", writeTestConfig(t), "--no-color",
		"crawl", srv.URL + "/", "--max-pages", "5", "--no-progress", "-o", outPath,
	})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var result struct {
		PagesScanned int      `json:"pages_scanned"`
		PagesFailed  int      `json:"pages_failed"`
		Failed       []string `json:"failed"`
		Results      []struct {
			SourcePage   string `json:"source_page"`
			Email        string `json:"email"`
			FirstName    string `json:"first_name"`
			LastName     string `json:"last_name"`
			Designations string `json:"designations"`
		} `json:"results"`
	}
	require.NoError(t, jsoniter.Unmarshal(data, &result))

	assert.Equal(t, 2, result.PagesScanned)
	assert.Equal(t, 1, result.PagesFailed)
	assert.Equal(t, []string{srv.URL + "/gone"}, result.Failed)
	require.Len(t, result.Results, 2)
	assert.Equal(t, "lab.head@lab.test", result.Results[0].Email)
	assert.Equal(t, "Lab", result.Results[0].FirstName)
	assert.Equal(t, "Head", result.Results[0].LastName)
	assert.Equal(t, srv.URL+"/people", result.Results[1].SourcePage)
	assert.Equal(t, "Ada", result.Results[1].FirstName)
	assert.Equal(t, "Lovelace", result.Results[1].LastName)
	assert.Equal(t, "Chair, Professor", result.Results[1].Designations)
}

func TestScrapeCommand(t *testing.T) {
	srv := newSite(t)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", writeTestConfig(t), "scrape", srv.URL + "/", "--keyword", "admissions"})
	require.NoError(t, root.Execute())

	var meta map[string]interface{}
	require.NoError(t, jsoniter.Unmarshal(out.Bytes(), &meta))
	assert.Equal(t, "Lab", meta["title"])
	kw := meta["keyword"].(map[string]interface{})
	assert.EqualValues(t, 1, kw["count"])
}

func TestSearchCommand(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "from-env" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, `{"organic":[{"title":"Lab","link":"https://lab.test/","snippet":"Research lab."}]}`)
	}))
	t.Cleanup(api.Close)
	t.Setenv("CONTACTCRAWL_SEARCH_API_KEY", "from-env")

	path := filepath.Join(t.TempDir(), "contactcrawl.yaml")
	body := "logging:\n  level: error\nsearch:\n  endpoint: " + api.URL + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "search", "research", "lab"})
	require.NoError(t, root.Execute())

	var got struct {
		Results []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"results"`
	}
	require.NoError(t, jsoniter.Unmarshal(out.Bytes(), &got))
	require.Len(t, got.Results, 1)
	assert.Equal(t, "Lab", got.Results[0].Title)
	assert.Equal(t, "https://lab.test/", got.Results[0].Link)
	assert.Equal(t, "Research lab.", got.Results[0].Snippet)
}

func TestSearchCommand_NoAPIKey(t *testing.T) {
	t.Setenv("CONTACTCRAWL_SEARCH_API_KEY", "")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", writeTestConfig(t), "search", "lab"})
	assert.Error(t, root.Execute())
}

func TestCrawlCommand_RequiresURL(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", writeTestConfig(t), "crawl"})
	assert.Error(t, root.Execute())
}
