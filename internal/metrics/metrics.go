// Package metrics exposes Prometheus counters for the ingestion pipeline and
// an optional HTTP listener serving /metrics and /healthz.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CasesCrawled tracks cases parsed from listing pages.
	CasesCrawled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caselaw_cases_crawled_total",
		Help: "The total number of cases parsed from source listing pages.",
	})
	// DocsDiscovered tracks document records parsed from directory pages.
	DocsDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caselaw_docs_discovered_total",
		Help: "The total number of document records parsed from case directory pages.",
	})
	// FetchErrors tracks failed page fetches.
	FetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caselaw_fetch_errors_total",
		Help: "The total number of failed HTTP fetches.",
	})
	// DownloadsOK tracks successful document downloads.
	DownloadsOK = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caselaw_downloads_ok_total",
		Help: "The total number of documents downloaded successfully.",
	})
	// DownloadsFailed tracks failed document downloads.
	DownloadsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caselaw_downloads_failed_total",
		Help: "The total number of document downloads that failed.",
	})
	// ExtractionsOK tracks documents whose text was extracted and stored.
	ExtractionsOK = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caselaw_extractions_ok_total",
		Help: "The total number of documents with text extracted and persisted.",
	})
	// ExtractionsFailed tracks render or OCR failures.
	ExtractionsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caselaw_extractions_failed_total",
		Help: "The total number of documents whose render or text extraction failed.",
	})
)
