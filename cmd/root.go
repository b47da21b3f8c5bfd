// Package cmd defines and implements the CLI commands for the caselaw
// executable. Each pipeline stage is its own subcommand and each stage is
// safe to re-run: the store's dedup rules make every stage idempotent.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexel-search/caselaw-pipeline/internal/app"
	"github.com/lexel-search/caselaw-pipeline/pkg/config"
)

type appKeyType string

const appKey appKeyType = "app"

// newApp is a variable so tests can substitute a mock factory.
var newApp = app.New

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caselaw",
		Short: "Ingests case-law metadata and documents into a local corpus.",
		Long: `caselaw crawls configured legal-database sources, persists case and
document metadata in an embedded store, downloads document artifacts, and
extracts plain text from them for downstream indexing. Every stage is
idempotent and safe to re-run as the sources grow.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.InitConfig(); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			a, err := newApp()
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, ok := cmd.Context().Value(appKey).(*app.App); ok && a != nil {
				a.Close()
			}
		},
	}

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newPipelineCmd())
	return cmd
}

func resolveApp(ctx context.Context) (*app.App, error) {
	a, ok := ctx.Value(appKey).(*app.App)
	if !ok || a == nil {
		return nil, errors.New("application services not initialized")
	}
	return a, nil
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
