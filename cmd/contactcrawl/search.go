package main

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

func newSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <keyword>...",
		Short: "Print web search results for a keyword as JSON",
		Long: `search sends the keyword to the configured search API and prints the
organic results (title, link, snippet). The API key is read from
search.api_key or CONTACTCRAWL_SEARCH_API_KEY.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := a.cfg.NewSearchClient(a.logger.Logger)

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			results, err := client.Search(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(map[string]interface{}{"results": results}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	return cmd
}
