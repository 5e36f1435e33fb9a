package main

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/ramkansal/contactcrawl/internal/crawler"
)

func newScrapeCmd(a *app) *cobra.Command {
	var keyword string

	cmd := &cobra.Command{
		Use:   "scrape <url>",
		Short: "Print one page's metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := a.logger.Logger

			fetch, err := a.cfg.NewFetcher(logger)
			if err != nil {
				return fmt.Errorf("initialize fetcher: %w", err)
			}
			defer fetch.Close()

			c := crawler.New(a.cfg.CrawlerConfig(), fetch, logger)
			meta, err := c.Scrape(normalizeTarget(args[0]), keyword)
			if err != nil {
				return err
			}

			data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(meta, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&keyword, "keyword", "k", "", "report sentences mentioning this term")
	return cmd
}
