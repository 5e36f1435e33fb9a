package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramkansal/contactcrawl/internal/crawler"
	"github.com/ramkansal/contactcrawl/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON crawl API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			logger := a.logger.Logger

			fetch, err := a.cfg.NewFetcher(logger)
			if err != nil {
				return fmt.Errorf("initialize fetcher: %w", err)
			}
			defer fetch.Close()

			c := crawler.New(a.cfg.CrawlerConfig(), fetch, logger)
			srv := server.New(server.Config{
				Addr:              a.cfg.Server.Addr,
				RequestsPerSecond: a.cfg.Server.RequestsPerSecond,
				Burst:             a.cfg.Server.Burst,
				MaxPagesLimit:     a.cfg.Crawl.MaxPagesLimit,
				ReadTimeout:       a.cfg.Server.ReadTimeout,
				ShutdownTimeout:   a.cfg.Server.ShutdownTimeout,
			}, c, a.cfg.NewSearchClient(logger), logger)

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":5000", "listen address")
	return cmd
}
