// Package crawler implements the case and document crawlers. The case
// crawler walks the configured source listings; the document crawler resolves
// one case's directory page. Both are adapter-agnostic: markup knowledge
// lives behind the protocol registry.
package crawler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lexel-search/caselaw-pipeline/internal/caselaw"
	"github.com/lexel-search/caselaw-pipeline/internal/config"
	"github.com/lexel-search/caselaw-pipeline/internal/fetch"
	"github.com/lexel-search/caselaw-pipeline/internal/metrics"
	"github.com/lexel-search/caselaw-pipeline/internal/protocol"
)

// CaseCrawler aggregates cases and appeal references from every configured
// source. Source count is small and listing pages are single large fetches,
// so this runs sequentially.
type CaseCrawler struct {
	fetcher  fetch.Fetcher
	registry *protocol.Registry
	logger   *zap.Logger
}

// NewCaseCrawler constructs a CaseCrawler.
func NewCaseCrawler(fetcher fetch.Fetcher, registry *protocol.Registry, logger *zap.Logger) *CaseCrawler {
	return &CaseCrawler{fetcher: fetcher, registry: registry, logger: logger}
}

// CrawlCases fetches each source's listing page and parses it with the
// matching adapter. Every case is stamped with its source's protocol
// identifier. numCases > 0 limits how many cases are taken per source.
// A source whose listing cannot be fetched is logged and skipped; an unknown
// protocol identifier is a configuration error and aborts.
func (c *CaseCrawler) CrawlCases(ctx context.Context, sources []config.Source, numCases int) ([]caselaw.Case, []caselaw.AppealRef, error) {
	var allCases []caselaw.Case
	var allAppeals []caselaw.AppealRef

	for _, src := range sources {
		adapter, err := c.registry.Lookup(src.Protocol)
		if err != nil {
			return nil, nil, fmt.Errorf("source %s: %w", src.URL, err)
		}

		page, err := c.fetcher.FetchPage(ctx, src.URL)
		if err != nil {
			c.logger.Error("listing fetch failed, skipping source",
				zap.String("url", src.URL), zap.Error(err))
			continue
		}

		cases, appeals := adapter.CrawlCases(page)
		if numCases > 0 && len(cases) > numCases {
			cases = cases[:numCases]
		}
		for i := range cases {
			cases[i].Protocol = src.Protocol
		}

		c.logger.Info("source crawled",
			zap.String("url", src.URL),
			zap.Int("cases", len(cases)),
			zap.Int("appeals", len(appeals)))
		metrics.CasesCrawled.Add(float64(len(cases)))

		allCases = append(allCases, cases...)
		allAppeals = append(allAppeals, appeals...)
	}
	return allCases, allAppeals, nil
}

// DocCrawler resolves the documents of a single case.
type DocCrawler struct {
	fetcher  fetch.Fetcher
	registry *protocol.Registry
	logger   *zap.Logger
}

// NewDocCrawler constructs a DocCrawler.
func NewDocCrawler(fetcher fetch.Fetcher, registry *protocol.Registry, logger *zap.Logger) *DocCrawler {
	return &DocCrawler{fetcher: fetcher, registry: registry, logger: logger}
}

// CrawlCaseDocs fetches a case's own page, locates its document-directory
// link, and delegates the directory page to the adapter. Ineligible cases
// (year 1997 or older, or no year suffix at all) yield no documents; that is
// a scope boundary, not an error.
func (d *DocCrawler) CrawlCaseDocs(ctx context.Context, cs caselaw.Case, formats []string) ([]caselaw.Document, error) {
	year, ok := CaseYear(cs.Name)
	if !ok {
		d.logger.Debug("case name has no year suffix", zap.String("case", cs.Name))
		return nil, nil
	}
	if !Eligible(year) {
		return nil, nil
	}

	adapter, err := d.registry.Lookup(cs.Protocol)
	if err != nil {
		return nil, fmt.Errorf("case %s: %w", cs.Name, err)
	}

	casePage, err := d.fetcher.FetchPage(ctx, cs.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch case page %s: %w", cs.URL, err)
	}

	docsURL, ok := adapter.DocsURL(casePage)
	if !ok {
		d.logger.Debug("case page has no directory link", zap.String("case", cs.Name))
		return nil, nil
	}

	directory, err := d.fetcher.FetchPage(ctx, docsURL)
	if err != nil {
		return nil, fmt.Errorf("fetch directory page %s: %w", docsURL, err)
	}

	docs, err := adapter.CrawlDocs(ctx, directory, formats)
	if err != nil {
		return nil, fmt.Errorf("parse directory page %s: %w", docsURL, err)
	}
	metrics.DocsDiscovered.Add(float64(len(docs)))
	return docs, nil
}
