package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConsoleAndFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.NoColor = true
	cfg.File = filepath.Join(dir, "contactcrawl.log")
	cfg.ErrorFile = filepath.Join(dir, "contactcrawl_error.log")

	var console bytes.Buffer
	logger := New(cfg, &console)

	logger.Debug().Str("url", "https://site.test/").Msg("page scanned")
	logger.Error().Msg("fetch failed")
	require.NoError(t, logger.Close())

	assert.Contains(t, console.String(), "page scanned")
	assert.Contains(t, console.String(), "url=https://site.test/")

	all, err := os.ReadFile(cfg.File)
	require.NoError(t, err)
	assert.Contains(t, string(all), `"message":"page scanned"`)
	assert.Contains(t, string(all), `"message":"fetch failed"`)

	errs, err := os.ReadFile(cfg.ErrorFile)
	require.NoError(t, err)
	assert.NotContains(t, string(errs), "page scanned")
	assert.Contains(t, string(errs), "fetch failed")
}

func TestNew_LevelFiltering(t *testing.T) {
	var console bytes.Buffer
	cfg := DefaultConfig()
	cfg.Level = "warn"
	cfg.JSON = true

	logger := New(cfg, &console)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), `"level":"warn"`)
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var console bytes.Buffer
	cfg := DefaultConfig()
	cfg.Level = "chatty"
	cfg.JSON = true

	logger := New(cfg, &console)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	require.NoError(t, logger.Close())
}

func TestFilteredWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &FilteredWriter{Writer: &buf, MinLevel: zerolog.ErrorLevel}

	n, err := w.WriteLevel(zerolog.InfoLevel, []byte("info\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = w.WriteLevel(zerolog.ErrorLevel, []byte("error\n"))
	require.NoError(t, err)

	_, err = w.Write([]byte("plain\n"))
	require.NoError(t, err)

	assert.Equal(t, "error\n", buf.String())
}
