// Package protocol defines the per-source parsing contract and the registry
// that maps a persisted protocol identifier to its Adapter implementation.
// Adapters are pure parsers over already-fetched pages; the only I/O they may
// perform is the secondary fetch needed to resolve an indirect document link,
// done through the injected Fetcher.
package protocol

import (
	"context"
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/lexel-search/caselaw-pipeline/internal/caselaw"
)

// Adapter parses one source's markup. Adding a source means implementing this
// interface and registering it under the identifier stored in configuration;
// the crawlers and the orchestrator are adapter-agnostic.
type Adapter interface {
	// CrawlCases parses a listing page into case records and appeal
	// references. Malformed rows are dropped, missing cells yield nil fields.
	CrawlCases(page *goquery.Document) ([]caselaw.Case, []caselaw.AppealRef)

	// DocsURL locates the document-directory link on a case's own page.
	// ok is false when the page carries no directory link.
	DocsURL(casePage *goquery.Document) (url string, ok bool)

	// CrawlDocs parses a case's directory page into document records,
	// resolving each document's best available link by iterating the caller's
	// format preference against the adapter's known hosting sources.
	// A nil slice with a nil error means the page holds no document table.
	CrawlDocs(ctx context.Context, directory *goquery.Document, formats []string) ([]caselaw.Document, error)
}

// Registry resolves protocol identifiers to adapters. It is populated once at
// startup and read-only afterwards; no reflection, no ambient state.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register binds an adapter to a protocol identifier. Registering the same
// identifier twice replaces the previous adapter.
func (r *Registry) Register(name string, a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[name] = a
}

// Lookup returns the adapter for a protocol identifier.
func (r *Registry) Lookup(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("unknown protocol %q", name)
	}
	return a, nil
}
