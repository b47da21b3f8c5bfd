package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download",
		Short: "Downloads document binaries to local storage",
		Long: `Fetches the binary of every document that has a resolved link and no
successful download yet. Failures are recorded per document and retried on
the next run.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.DownloadStage().Run(cmd.Context()); err != nil &&
				!errors.Is(err, context.Canceled) {
				return fmt.Errorf("download stage: %w", err)
			}
			return nil
		},
	}
}
