package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newCrawlCmd() *cobra.Command {
	var docsOnly bool
	var numCases int

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawls case listings and each case's documents",
		Long: `Fetches every configured source listing, persists new cases and appeal
references, then crawls each case's document directory with a bounded worker
pool. With --docs-only the listing crawl is skipped and only cases not yet
present in the docs table are processed.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.CrawlStage().Run(cmd.Context(), docsOnly, numCases); err != nil &&
				!errors.Is(err, context.Canceled) {
				return fmt.Errorf("crawl stage: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&docsOnly, "docs-only", false, "skip the listing crawl and only crawl documents for new cases")
	cmd.Flags().IntVar(&numCases, "num-cases", 0, "limit cases taken per source (0 = all)")
	return cmd
}
