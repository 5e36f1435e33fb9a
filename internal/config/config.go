// Package config loads contactcrawl settings from a YAML file, environment
// variables prefixed CONTACTCRAWL_ and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/ramkansal/contactcrawl/internal/crawler"
	"github.com/ramkansal/contactcrawl/internal/fetcher"
	"github.com/ramkansal/contactcrawl/internal/logging"
	"github.com/ramkansal/contactcrawl/internal/search"
	"github.com/ramkansal/contactcrawl/pkg/plugin"
)

// EnvPrefix prefixes every environment override, e.g.
// CONTACTCRAWL_FETCH_TIMEOUT=30s.
const EnvPrefix = "CONTACTCRAWL"

// Config is the application configuration.
type Config struct {
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Logging LoggingConfig `mapstructure:"logging"`
	Server  ServerConfig  `mapstructure:"server"`
	Search  SearchConfig  `mapstructure:"search"`
}

// CrawlConfig holds traversal settings.
type CrawlConfig struct {
	MaxPagesLimit int           `mapstructure:"max_pages_limit"`
	DelayMin      time.Duration `mapstructure:"delay_min"`
	DelayMax      time.Duration `mapstructure:"delay_max"`
	NormalizeWWW  bool          `mapstructure:"normalize_www"`
}

// FetchConfig holds page retrieval settings.
type FetchConfig struct {
	Mode          string        `mapstructure:"mode"`
	Timeout       time.Duration `mapstructure:"timeout"`
	UserAgent     string        `mapstructure:"user_agent"`
	MaxBodySize   int           `mapstructure:"max_body_size"`
	RespectRobots bool          `mapstructure:"respect_robots"`
	Proxies       []string      `mapstructure:"proxies"`
	Headers       []string      `mapstructure:"headers"`
	SettleDelay   time.Duration `mapstructure:"settle_delay"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	Dir      string         `mapstructure:"dir"`
	JSON     bool           `mapstructure:"json"`
	NoColor  bool           `mapstructure:"no_color"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig holds log file rotation settings.
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// SearchConfig holds keyword search API settings. The key is usually
// supplied as CONTACTCRAWL_SEARCH_API_KEY.
type SearchConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	Endpoint          string        `mapstructure:"endpoint"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// Load reads configuration from configPath, or from the first
// contactcrawl.yaml found in the search paths when configPath is empty.
// A missing default file is not an error; a missing explicit file is.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("contactcrawl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".contactcrawl"))
		}
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawl.max_pages_limit", crawler.DefaultMaxPagesLimit)
	v.SetDefault("crawl.delay_min", crawler.DefaultDelayMin)
	v.SetDefault("crawl.delay_max", crawler.DefaultDelayMax)
	v.SetDefault("crawl.normalize_www", false)

	v.SetDefault("fetch.mode", string(fetcher.ModeHTTP))
	v.SetDefault("fetch.timeout", fetcher.DefaultTimeout)
	v.SetDefault("fetch.user_agent", fetcher.DefaultUserAgent)
	v.SetDefault("fetch.max_body_size", 10*1024*1024)
	v.SetDefault("fetch.respect_robots", false)
	v.SetDefault("fetch.proxies", []string{})
	v.SetDefault("fetch.headers", []string{})
	v.SetDefault("fetch.settle_delay", time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.dir", "")
	v.SetDefault("logging.json", false)
	v.SetDefault("logging.no_color", false)
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.requests_per_second", 2.0)
	v.SetDefault("server.burst", 5)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("search.api_key", "")
	v.SetDefault("search.endpoint", search.DefaultEndpoint)
	v.SetDefault("search.timeout", search.DefaultTimeout)
	v.SetDefault("search.requests_per_second", 1.0)
}

// Validate rejects settings the crawler cannot run with.
func (c *Config) Validate() error {
	if c.Crawl.MaxPagesLimit <= 0 {
		return fmt.Errorf("crawl.max_pages_limit must be positive, got %d", c.Crawl.MaxPagesLimit)
	}
	if c.Crawl.DelayMin < 0 || c.Crawl.DelayMax < c.Crawl.DelayMin {
		return fmt.Errorf("crawl delay range [%s, %s) is invalid", c.Crawl.DelayMin, c.Crawl.DelayMax)
	}
	if _, err := fetcher.ParseMode(c.Fetch.Mode); err != nil {
		return fmt.Errorf("fetch.mode: %w", err)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %s", c.Fetch.Timeout)
	}
	if c.Server.RequestsPerSecond <= 0 || c.Server.Burst <= 0 {
		return errors.New("server.requests_per_second and server.burst must be positive")
	}
	if c.Search.Timeout <= 0 || c.Search.RequestsPerSecond < 0 {
		return errors.New("search.timeout must be positive and search.requests_per_second non-negative")
	}
	return nil
}

// CrawlerConfig converts the crawl section for crawler.New.
func (c *Config) CrawlerConfig() *crawler.CrawlConfig {
	return &crawler.CrawlConfig{
		DelayMin:     c.Crawl.DelayMin,
		DelayMax:     c.Crawl.DelayMax,
		NormalizeWWW: c.Crawl.NormalizeWWW,
	}
}

// NewFetcher builds the fetcher selected by fetch.mode.
func (c *Config) NewFetcher(logger zerolog.Logger) (plugin.Fetcher, error) {
	mode, err := fetcher.ParseMode(c.Fetch.Mode)
	if err != nil {
		return nil, err
	}
	if mode == fetcher.ModeBrowser {
		return fetcher.NewBrowserFetcher(c.BrowserFetcherConfig(logger))
	}
	return fetcher.NewHTTPFetcher(c.HTTPFetcherConfig(logger))
}

// HTTPFetcherConfig converts the fetch section for fetcher.NewHTTPFetcher.
func (c *Config) HTTPFetcherConfig(logger zerolog.Logger) fetcher.HTTPFetcherConfig {
	return fetcher.HTTPFetcherConfig{
		UserAgent:       c.Fetch.UserAgent,
		Timeout:         c.Fetch.Timeout,
		MaxResponseSize: c.Fetch.MaxBodySize,
		RespectRobots:   c.Fetch.RespectRobots,
		Proxies:         c.Fetch.Proxies,
		CustomHeaders:   c.Fetch.Headers,
		Logger:          logger,
	}
}

// BrowserFetcherConfig converts the fetch section for
// fetcher.NewBrowserFetcher.
func (c *Config) BrowserFetcherConfig(logger zerolog.Logger) fetcher.BrowserFetcherConfig {
	return fetcher.BrowserFetcherConfig{
		Timeout:     c.Fetch.Timeout,
		SettleDelay: c.Fetch.SettleDelay,
		UserAgent:   c.Fetch.UserAgent,
		Logger:      logger,
	}
}

// NewSearchClient builds the keyword search client. A missing API key is
// reported when a search is attempted, not here.
func (c *Config) NewSearchClient(logger zerolog.Logger) *search.Client {
	return search.New(search.Config{
		APIKey:            c.Search.APIKey,
		Endpoint:          c.Search.Endpoint,
		Timeout:           c.Search.Timeout,
		RequestsPerSecond: c.Search.RequestsPerSecond,
		Logger:            logger,
	})
}

// LoggingConfig converts the logging section for logging.New. Files are
// only written when logging.dir is set.
func (c *Config) LoggingConfig() logging.Config {
	out := logging.Config{
		Level:      c.Logging.Level,
		JSON:       c.Logging.JSON,
		NoColor:    c.Logging.NoColor,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
	if c.Logging.Dir != "" {
		out.File = filepath.Join(c.Logging.Dir, "contactcrawl.log")
		out.ErrorFile = filepath.Join(c.Logging.Dir, "contactcrawl_error.log")
	}
	return out
}
