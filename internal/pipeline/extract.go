package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lexel-search/caselaw-pipeline/internal/docs"
	"github.com/lexel-search/caselaw-pipeline/internal/metrics"
	"github.com/lexel-search/caselaw-pipeline/internal/store"
)

// KeywordExtractor derives keywords from extracted text. The default
// pipeline carries no extractor; the hook exists for the NLP collaborator.
type KeywordExtractor interface {
	Keywords(text string) (string, bool)
}

// ExtractStage turns downloaded artifacts into stored plain text. Only
// documents with a successful download and no content yet are considered; a
// second run over the same corpus writes nothing.
type ExtractStage struct {
	store     *store.Store
	extractor *docs.Extractor
	root      string
	docNames  []string
	keywords  KeywordExtractor
	logger    *zap.Logger
}

// NewExtractStage constructs the stage. docNames restricts extraction to
// documents with those names; empty means all. keywords may be nil.
func NewExtractStage(st *store.Store, extractor *docs.Extractor, root string, docNames []string, keywords KeywordExtractor, logger *zap.Logger) *ExtractStage {
	return &ExtractStage{
		store:     st,
		extractor: extractor,
		root:      root,
		docNames:  docNames,
		keywords:  keywords,
		logger:    logger,
	}
}

// Run extracts text for every eligible document. Render and OCR failures are
// contained per document.
func (s *ExtractStage) Run(ctx context.Context) error {
	eligible, err := s.store.GetDocsForExtraction(ctx, s.docNames)
	if err != nil {
		return fmt.Errorf("load docs for extraction: %w", err)
	}

	var extracted int
	for _, doc := range eligible {
		if err := ctx.Err(); err != nil {
			return err
		}
		if doc.Format == nil {
			continue
		}
		cs, err := s.store.GetCase(ctx, doc.CaseID)
		if err != nil {
			return fmt.Errorf("load case %d: %w", doc.CaseID, err)
		}
		if cs == nil {
			s.logger.Warn("doc without case", zap.Int64("doc_id", doc.ID))
			continue
		}

		path := docs.DocPath(s.root, cs.Name, doc.ID, *doc.Format)
		text, err := s.extractor.ExtractFile(ctx, path, *doc.Format)
		if err != nil {
			metrics.ExtractionsFailed.Inc()
			s.logger.Warn("extraction failed",
				zap.Int64("doc_id", doc.ID),
				zap.String("case", cs.Name),
				zap.Error(err))
			continue
		}
		if text == "" {
			continue
		}

		if err := s.store.WriteContent(ctx, doc.ID, text); err != nil {
			return fmt.Errorf("persist content for doc %d: %w", doc.ID, err)
		}
		metrics.ExtractionsOK.Inc()
		extracted++

		if s.keywords != nil {
			if kw, ok := s.keywords.Keywords(text); ok {
				if err := s.store.UpdateKeywords(ctx, doc.ID, kw); err != nil {
					s.logger.Warn("store keywords failed", zap.Int64("doc_id", doc.ID), zap.Error(err))
				}
			}
		}
	}

	s.logger.Info("extract stage complete",
		zap.Int("eligible", len(eligible)),
		zap.Int("extracted", extracted))
	return nil
}
