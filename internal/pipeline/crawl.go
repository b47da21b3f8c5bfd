package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lexel-search/caselaw-pipeline/internal/caselaw"
	"github.com/lexel-search/caselaw-pipeline/internal/config"
	"github.com/lexel-search/caselaw-pipeline/internal/store"
)

// CaseSource aggregates cases and appeal references from the configured
// listings.
type CaseSource interface {
	CrawlCases(ctx context.Context, sources []config.Source, numCases int) ([]caselaw.Case, []caselaw.AppealRef, error)
}

// CrawlStage runs the case listing crawl, persists cases and appeals, then
// drives the document crawl over all cases.
type CrawlStage struct {
	cases   CaseSource
	orch    *Orchestrator
	store   *store.Store
	sources []config.Source
	logger  *zap.Logger
}

// NewCrawlStage constructs the stage.
func NewCrawlStage(cases CaseSource, orch *Orchestrator, st *store.Store, sources []config.Source, logger *zap.Logger) *CrawlStage {
	return &CrawlStage{cases: cases, orch: orch, store: st, sources: sources, logger: logger}
}

// Run executes the stage. With docsOnly, the listing crawl is skipped and
// documents are crawled only for cases newer than anything already present in
// the docs table (resume semantics). numCases > 0 limits cases per source.
func (s *CrawlStage) Run(ctx context.Context, docsOnly bool, numCases int) error {
	var cases []caselaw.Case

	if docsOnly {
		all, err := s.store.GetAllCases(ctx)
		if err != nil {
			return fmt.Errorf("load cases: %w", err)
		}
		maxID, err := s.store.MaxCaseIDInDocs(ctx)
		if err != nil {
			return fmt.Errorf("resume point: %w", err)
		}
		for _, c := range all {
			if c.ID > maxID {
				cases = append(cases, c)
			}
		}
		s.logger.Info("resuming document crawl",
			zap.Int64("after_case_id", maxID),
			zap.Int("cases", len(cases)))
	} else {
		crawled, appeals, err := s.cases.CrawlCases(ctx, s.sources, numCases)
		if err != nil {
			return fmt.Errorf("crawl case listings: %w", err)
		}
		if err := s.store.WriteCases(ctx, crawled); err != nil {
			return fmt.Errorf("persist cases: %w", err)
		}
		// Re-read so every case carries its store-assigned id.
		cases, err = s.store.GetAllCases(ctx)
		if err != nil {
			return fmt.Errorf("reload cases: %w", err)
		}
		if err := s.store.WriteAppeals(ctx, appeals); err != nil {
			return fmt.Errorf("persist appeals: %w", err)
		}
		s.logger.Info("cases persisted", zap.Int("cases", len(cases)), zap.Int("appeals", len(appeals)))
	}

	return s.orch.Run(ctx, cases)
}
