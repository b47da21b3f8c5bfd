package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newPipelineCmd() *cobra.Command {
	var numCases int

	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Runs crawl, download and extract in order",

		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if err := a.CrawlStage().Run(ctx, false, numCases); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return fmt.Errorf("crawl stage: %w", err)
			}
			if err := a.DownloadStage().Run(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return fmt.Errorf("download stage: %w", err)
			}
			if err := a.ExtractStage().Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("extract stage: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&numCases, "num-cases", 0, "limit cases taken per source (0 = all)")
	return cmd
}
