package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramkansal/contactcrawl/internal/config"
	"github.com/ramkansal/contactcrawl/internal/logging"
)

var version = "1.0.0"

// app carries state shared by every subcommand.
type app struct {
	configFile string
	logLevel   string
	noColor    bool

	cfg    *config.Config
	logger *logging.Logger
}

func main() {
	enableANSI()

	if err := newRootCmd().Execute(); err != nil {
		fatal("%v", err)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "contactcrawl",
		Short: "Breadth-first email and contact crawler",
		Long: `contactcrawl walks a website breadth-first, staying on the start URL's
host, and collects email addresses with a derived name and the page's
JSON-LD job titles.

Examples:
  contactcrawl crawl https://example.edu --max-pages 20
  contactcrawl crawl example.edu -o contacts.json
  contactcrawl scrape https://example.edu/about --keyword admissions
  contactcrawl search "graduate admissions"
  contactcrawl serve`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				return a.logger.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "path to configuration file (default ./contactcrawl.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newCrawlCmd(a),
		newScrapeCmd(a),
		newSearchCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

// init loads configuration and builds the logger. Flags override the file.
func (a *app) init() error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.noColor {
		cfg.Logging.NoColor = true
		colorEnabled = false
	}

	a.cfg = cfg
	a.logger = logging.New(cfg.LoggingConfig(), os.Stderr)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// no config or logger needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "contactcrawl v%s\n", version)
		},
	}
}

// normalizeTarget prefixes https:// when the URL has no scheme.
func normalizeTarget(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "https://" + raw
	}
	return raw
}
