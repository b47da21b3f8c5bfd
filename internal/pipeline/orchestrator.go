// Package pipeline drives the ingestion stages: the batched concurrent
// case/document crawl, the document download pass, and the text extraction
// pass. Each stage is independently invocable and idempotent.
package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/lexel-search/caselaw-pipeline/internal/caselaw"
)

// DocCrawler crawls a single case's documents.
type DocCrawler interface {
	CrawlCaseDocs(ctx context.Context, cs caselaw.Case, formats []string) ([]caselaw.Document, error)
}

// CaseDocStore is the store surface the orchestrator persists through.
type CaseDocStore interface {
	WriteDocs(ctx context.Context, cs caselaw.Case, docs []caselaw.Document) error
	UpdateCaseParties(ctx context.Context, caseID int64, party1, party2 *string) error
	UpdateCaseSubject(ctx context.Context, caseID int64, subject *string) error
}

// Orchestrator splits cases into fixed-size batches and crawls each batch's
// documents with a bounded worker pool. A batch fully drains before the next
// one starts; within a batch, each case's result is persisted as its task
// completes.
type Orchestrator struct {
	crawler   DocCrawler
	store     CaseDocStore
	formats   []string
	batchSize int
	workers   int
	logger    *zap.Logger
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(crawler DocCrawler, store CaseDocStore, formats []string, batchSize, workers int, logger *zap.Logger) *Orchestrator {
	if batchSize <= 0 {
		batchSize = 50
	}
	if workers <= 0 {
		workers = 10
	}
	return &Orchestrator{
		crawler:   crawler,
		store:     store,
		formats:   formats,
		batchSize: batchSize,
		workers:   workers,
		logger:    logger,
	}
}

// Run processes all cases. A single task's failure is logged and treated as
// "no documents" for that case; it never cancels sibling tasks or aborts the
// batch. Run stops early only when the context is done.
func (o *Orchestrator) Run(ctx context.Context, cases []caselaw.Case) error {
	for start := 0; start < len(cases); start += o.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + o.batchSize
		if end > len(cases) {
			end = len(cases)
		}
		o.runBatch(ctx, cases[start:end])
		o.logger.Info("batch complete",
			zap.Int("done", end),
			zap.Int("total", len(cases)))
	}
	return nil
}

func (o *Orchestrator) runBatch(ctx context.Context, batch []caselaw.Case) {
	sem := make(chan struct{}, o.workers)
	var wg sync.WaitGroup
	for _, cs := range batch {
		wg.Add(1)
		sem <- struct{}{}
		go func(cs caselaw.Case) {
			defer wg.Done()
			defer func() { <-sem }()
			o.crawlOne(ctx, cs)
		}(cs)
	}
	// Hard barrier: the next batch must not start until this pool drains.
	wg.Wait()
}

func (o *Orchestrator) crawlOne(ctx context.Context, cs caselaw.Case) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("doc crawl panicked", zap.String("case", cs.Name), zap.Any("panic", r))
		}
	}()

	docs, err := o.crawler.CrawlCaseDocs(ctx, cs, o.formats)
	if err != nil {
		o.logger.Warn("doc crawl failed", zap.String("case", cs.Name), zap.Error(err))
		return
	}
	if len(docs) == 0 {
		return
	}

	// The first document's metadata is authoritative for the case.
	first := docs[0]
	if err := o.store.UpdateCaseParties(ctx, cs.ID, first.Party1, first.Party2); err != nil {
		o.logger.Warn("update case parties failed", zap.String("case", cs.Name), zap.Error(err))
	}
	if err := o.store.UpdateCaseSubject(ctx, cs.ID, first.Subject); err != nil {
		o.logger.Warn("update case subject failed", zap.String("case", cs.Name), zap.Error(err))
	}
	for i := range docs {
		docs[i].Party1, docs[i].Party2, docs[i].Subject = nil, nil, nil
	}

	if err := o.store.WriteDocs(ctx, cs, docs); err != nil {
		o.logger.Warn("persist docs failed", zap.String("case", cs.Name), zap.Error(err))
	}
}
