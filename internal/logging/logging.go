// Package logging builds the zerolog loggers used across contactcrawl:
// a console writer on stderr plus optional rotating log files.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls log level, console rendering and file rotation.
type Config struct {
	Level     string // trace, debug, info, warn, error
	JSON      bool   // raw JSON on the console instead of ConsoleWriter
	NoColor   bool
	File      string // all levels, rotated; empty disables
	ErrorFile string // error and above, rotated; empty disables

	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DefaultConfig returns console-only logging at info level.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}

// Logger is a configured logger together with the files it writes to.
type Logger struct {
	zerolog.Logger
	files []*lumberjack.Logger
}

// Close flushes and closes any log files.
func (l *Logger) Close() error {
	var first error
	for _, f := range l.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// New builds a logger writing to console and to the configured files. An
// unknown level falls back to info.
func New(cfg Config, console io.Writer) *Logger {
	if console == nil {
		console = os.Stderr
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	out := &Logger{}
	writers := []io.Writer{consoleWriter(cfg, console)}

	if cfg.File != "" {
		f := rotating(cfg, cfg.File)
		out.files = append(out.files, f)
		writers = append(writers, f)
	}
	if cfg.ErrorFile != "" {
		f := rotating(cfg, cfg.ErrorFile)
		out.files = append(out.files, f)
		writers = append(writers, &FilteredWriter{Writer: f, MinLevel: zerolog.ErrorLevel})
	}

	out.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
	return out
}

func consoleWriter(cfg Config, w io.Writer) io.Writer {
	if cfg.JSON {
		return w
	}
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.NoColor,
	}
}

func rotating(cfg Config, path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}

// FilteredWriter only passes through events at MinLevel or above.
type FilteredWriter struct {
	Writer   io.Writer
	MinLevel zerolog.Level
}

// Write implements io.Writer. Events without a level are dropped.
func (w *FilteredWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

// WriteLevel implements zerolog.LevelWriter.
func (w *FilteredWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= w.MinLevel && level != zerolog.NoLevel {
		return w.Writer.Write(p)
	}
	return len(p), nil
}
