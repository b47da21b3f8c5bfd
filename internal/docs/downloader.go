package docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/lexel-search/caselaw-pipeline/internal/caselaw"
	"github.com/lexel-search/caselaw-pipeline/internal/fetch"
	"github.com/lexel-search/caselaw-pipeline/internal/metrics"
)

// Downloader fetches document binaries to local storage.
type Downloader struct {
	fetcher fetch.Fetcher
	root    string
	logger  *zap.Logger
}

// NewDownloader constructs a Downloader rooted at dir.
func NewDownloader(fetcher fetch.Fetcher, root string, logger *zap.Logger) *Downloader {
	return &Downloader{fetcher: fetcher, root: root, logger: logger}
}

// Download fetches one document's binary and writes it under the case
// folder as <doc id>.<format>. The returned state is OK or Failed; documents
// without a link must not be passed here.
func (d *Downloader) Download(ctx context.Context, cs caselaw.Case, doc caselaw.Document) caselaw.DownloadState {
	if doc.Link == nil || doc.Format == nil {
		d.logger.Warn("download requested for doc without link",
			zap.Int64("doc_id", doc.ID), zap.String("case", cs.Name))
		return caselaw.DownloadFailed
	}

	target := DocPath(d.root, cs.Name, doc.ID, *doc.Format)
	if err := d.fetchToFile(ctx, *doc.Link, target); err != nil {
		d.logger.Warn("document download failed",
			zap.Int64("doc_id", doc.ID),
			zap.String("case", cs.Name),
			zap.String("url", *doc.Link),
			zap.Error(err))
		metrics.DownloadsFailed.Inc()
		return caselaw.DownloadFailed
	}
	metrics.DownloadsOK.Inc()
	return caselaw.DownloadOK
}

func (d *Downloader) fetchToFile(ctx context.Context, url, target string) error {
	page, err := d.fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("create case dir: %w", err)
	}
	if err := os.WriteFile(target, page.Body, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}
