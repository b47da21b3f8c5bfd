// Package caselaw defines the core records shared across the ingestion
// pipeline: cases, documents, appeals and the per-document download state.
package caselaw

// DownloadState is the tri-state download outcome of a document.
// Unset means no attempt was recorded yet; it is distinct from Failed.
type DownloadState int

// Download states, persisted as NULL / 0 / 1 in the docs table.
const (
	DownloadUnset DownloadState = iota
	DownloadOK
	DownloadFailed
)

// String implements fmt.Stringer for log output.
func (s DownloadState) String() string {
	switch s {
	case DownloadOK:
		return "ok"
	case DownloadFailed:
		return "failed"
	default:
		return "unset"
	}
}

// Case is one court case discovered on a source listing page.
// Name is the global business key; Protocol records which adapter parsed the
// case so the same adapter can be re-selected for its documents later.
// Subject and the parties are filled in once documents are crawled: the first
// document's metadata is authoritative for the case.
type Case struct {
	ID       int64
	Name     string
	Desc     string
	URL      string
	Protocol string
	Court    string
	Subject  *string
	Party1   *string
	Party2   *string
}

// Document is one document attached to a case. Link is nil when no eligible
// (format, source) combination produced a working URL; such documents are
// never downloaded. ContentID is set exactly once, after a successful text
// extraction. Embedding is written by the external embedding collaborator and
// never read by the pipeline.
type Document struct {
	ID            int64
	CaseID        int64
	Name          *string
	ECLI          *string
	Date          *string
	Link          *string
	Source        *string
	Format        *string
	ContentID     *int64
	DownloadState DownloadState
	Embedding     []byte
	Keywords      *string

	// Crawl-time metadata applied to the owning case, not persisted per doc.
	Party1  *string
	Party2  *string
	Subject *string
}

// AppealRef is an unresolved appeal notation parsed from a listing row.
// Both sides are human-readable case names, resolved to ids at write time.
type AppealRef struct {
	OrigName   string
	AppealName string
}

// Appeal links an original case to its appeal case, both by id.
type Appeal struct {
	ID           int64
	OrigCaseID   int64
	AppealCaseID int64
}

// StringPtr returns a pointer to s, or nil if s is empty. Listing markup
// frequently yields empty cells; they are stored as NULL.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
