package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lexel-search/caselaw-pipeline/internal/caselaw"
	"github.com/lexel-search/caselaw-pipeline/internal/docs"
	"github.com/lexel-search/caselaw-pipeline/internal/store"
)

// DownloadStage fetches the binary of every document that has a link and no
// recorded successful download. A failed download marks only that document;
// siblings and other cases proceed.
type DownloadStage struct {
	store      *store.Store
	downloader *docs.Downloader
	logger     *zap.Logger
}

// NewDownloadStage constructs the stage.
func NewDownloadStage(st *store.Store, downloader *docs.Downloader, logger *zap.Logger) *DownloadStage {
	return &DownloadStage{store: st, downloader: downloader, logger: logger}
}

// Run walks all cases and downloads their pending documents. Documents
// without a link are never attempted and keep their unset state.
func (s *DownloadStage) Run(ctx context.Context) error {
	cases, err := s.store.GetAllCases(ctx)
	if err != nil {
		return fmt.Errorf("load cases: %w", err)
	}

	var attempted, failed int
	for _, cs := range cases {
		if err := ctx.Err(); err != nil {
			return err
		}
		pending, err := s.store.GetDocsForCase(ctx, cs.ID, true, true)
		if err != nil {
			return fmt.Errorf("load docs for %s: %w", cs.Name, err)
		}
		for _, doc := range pending {
			state := s.downloader.Download(ctx, cs, doc)
			if err := s.store.SetDownloadState(ctx, doc.ID, state); err != nil {
				return fmt.Errorf("record download state for doc %d: %w", doc.ID, err)
			}
			attempted++
			if state != caselaw.DownloadOK {
				failed++
			}
		}
	}

	s.logger.Info("download stage complete", zap.Int("attempted", attempted), zap.Int("failed", failed))
	return nil
}
