package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Extracts plain text from downloaded documents",
		Long: `Scrapes text from HTML documents and OCRs rendered PDF documents,
storing the result in the content table. A document whose content is already
stored is never extracted twice.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.ExtractStage().Run(cmd.Context()); err != nil &&
				!errors.Is(err, context.Canceled) {
				return fmt.Errorf("extract stage: %w", err)
			}
			return nil
		},
	}
}
