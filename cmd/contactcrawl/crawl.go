package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramkansal/contactcrawl/internal/crawler"
	"github.com/ramkansal/contactcrawl/internal/output"
	"github.com/ramkansal/contactcrawl/pkg/plugin"
)

type crawlOptions struct {
	maxPages     int
	outputPath   string
	format       string
	mode         string
	noProgress   bool
	normalizeWWW bool
}

func newCrawlCmd(a *app) *cobra.Command {
	opts := &crawlOptions{}

	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Crawl a site breadth-first and collect contacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("mode") {
				a.cfg.Fetch.Mode = opts.mode
			}
			if cmd.Flags().Changed("normalize-www") {
				a.cfg.Crawl.NormalizeWWW = opts.normalizeWWW
			}
			return a.runCrawl(cmd.Context(), normalizeTarget(args[0]), opts)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.maxPages, "max-pages", "m", 10, "maximum number of pages to scan (clamped to crawl.max_pages_limit)")
	f.StringVarP(&opts.outputPath, "output", "o", "", `save results to file ("-" for stdout)`)
	f.StringVarP(&opts.format, "format", "f", "", "output format: text, json (default: from file extension)")
	f.StringVar(&opts.mode, "mode", "http", "fetcher: http, browser")
	f.BoolVar(&opts.noProgress, "no-progress", false, "hide the progress bar")
	f.BoolVar(&opts.normalizeWWW, "normalize-www", false, `treat "www.host" and "host" as the same site`)
	return cmd
}

func (a *app) runCrawl(parent context.Context, target string, opts *crawlOptions) error {
	logger := a.logger.Logger

	fetch, err := a.cfg.NewFetcher(logger)
	if err != nil {
		return fmt.Errorf("initialize fetcher: %w", err)
	}
	defer fetch.Close()

	var writer plugin.OutputWriter
	if opts.outputPath != "" {
		if writer, err = output.New(opts.format, opts.outputPath); err != nil {
			return err
		}
	}
	// Keep stdout clean when results are streamed there.
	interactive := opts.outputPath != output.Stdout

	c := crawler.New(a.cfg.CrawlerConfig(), fetch, logger)
	req := crawler.CrawlRequest{
		StartURL: target,
		MaxPages: crawler.ClampMaxPages(opts.maxPages, a.cfg.Crawl.MaxPagesLimit),
	}

	ctx, stop := signalContext(parent)
	defer stop()

	if interactive {
		printBanner()
		fmt.Printf("\n  %s %s\n", clr("cyan", "Target:"), target)
		fmt.Printf("  %s %d  %s %s\n\n",
			clr("dim", "Max pages:"), req.MaxPages,
			clr("dim", "Fetcher:"), fetch.Name(),
		)
	}

	events := make(chan plugin.CrawlEvent, 256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		trackProgress(events, req.MaxPages, interactive && !opts.noProgress)
	}()

	result, err := c.CrawlWithEvents(ctx, req, events)
	<-done
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if interactive {
		if err := output.WriteResult(&consoleWriter{outputPath: opts.outputPath}, result); err != nil {
			return err
		}
	}
	if writer != nil {
		if err := output.WriteResult(writer, result); err != nil {
			return err
		}
	}
	return nil
}

// trackProgress drains crawl events, advancing a progress bar per scanned
// page when show is set.
func trackProgress(events <-chan plugin.CrawlEvent, total int, show bool) {
	if !show {
		for range events {
		}
		return
	}

	bar := newProgressBar(total)
	for event := range events {
		switch event.Type {
		case plugin.EventPageDone:
			_ = bar.Add(1)
		case plugin.EventPageStarted:
			bar.Describe(event.URL)
		}
	}
	_ = bar.Finish()
}

// consoleWriter prints a finished crawl to the terminal.
type consoleWriter struct {
	outputPath string
}

func (w *consoleWriter) Name() string { return "console" }

func (w *consoleWriter) WritePage(page *plugin.PageResult, records []plugin.ContactRecord) error {
	printPage(page, records)
	return nil
}

func (w *consoleWriter) Finalize(result *plugin.CrawlResult) error {
	printSummary(result, w.outputPath)
	return nil
}
