package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lexel-search/caselaw-pipeline/internal/caselaw"
)

const docColumns = `id, case_id, name, ecli, date, link, source, format, content_id, download_error, embedding, keywords`

// WriteDocs inserts a case's documents in batches, keyed on (case_id, name)
// so re-crawls never duplicate. The owning case is resolved by its unique
// name immediately before the write; the lookup and insert hold the store
// mutex together.
func (s *Store) WriteDocs(ctx context.Context, cs caselaw.Case, docs []caselaw.Document) error {
	if len(docs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var caseID int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM cases WHERE name = ?`, cs.Name).Scan(&caseID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("case %q not persisted", cs.Name)
	}
	if err != nil {
		return fmt.Errorf("resolve case id for %q: %w", cs.Name, err)
	}

	rows := make([][]any, len(docs))
	for i, d := range docs {
		rows[i] = []any{caseID, d.Name, d.ECLI, d.Date, d.Link, d.Source, d.Format,
			d.ContentID, downloadStateValue(d.DownloadState), d.Embedding, d.Keywords}
	}
	return s.batchInsertCheck(ctx, batchSpec{
		table: "docs",
		cols: []string{"case_id", "name", "ecli", "date", "link", "source", "format",
			"content_id", "download_error", "embedding", "keywords"},
		keyCols: []string{"case_id", "name"},
		rows:    rows,
	}, defaultChunkSize)
}

// GetDocsForCase returns a case's documents. onlyWithLink drops documents
// with no resolved link; retryableOnly drops documents whose download already
// succeeded (unset and failed remain eligible).
func (s *Store) GetDocsForCase(ctx context.Context, caseID int64, onlyWithLink, retryableOnly bool) ([]caselaw.Document, error) {
	query := `SELECT ` + docColumns + ` FROM docs WHERE case_id = ?`
	if onlyWithLink {
		query += ` AND link IS NOT NULL`
	}
	if retryableOnly {
		query += ` AND (download_error IS NULL OR download_error != 0)`
	}
	return s.queryDocs(ctx, query, caseID)
}

// GetDocsForExtraction returns documents eligible for text extraction:
// a successful download, no content yet, and (optionally) one of the given
// document names.
func (s *Store) GetDocsForExtraction(ctx context.Context, names []string) ([]caselaw.Document, error) {
	query := `SELECT ` + docColumns + ` FROM docs
		WHERE link IS NOT NULL AND download_error = 0 AND content_id IS NULL`
	var args []any
	if len(names) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
		query += ` AND name IN (` + marks + `)`
		for _, n := range names {
			args = append(args, n)
		}
	}
	return s.queryDocs(ctx, query, args...)
}

// MaxCaseIDInDocs returns the highest case_id present in docs, or -1 when
// the table is empty. Used by docs-only runs to resume after already-crawled
// cases.
func (s *Store) MaxCaseIDInDocs(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(case_id) FROM docs`).Scan(&max); err != nil {
		return 0, fmt.Errorf("query max case_id: %w", err)
	}
	if !max.Valid {
		return -1, nil
	}
	return max.Int64, nil
}

// SetDownloadState records a document's download outcome.
func (s *Store) SetDownloadState(ctx context.Context, docID int64, state caselaw.DownloadState) error {
	if err := s.execContext(ctx, `UPDATE docs SET download_error = ? WHERE id = ?`,
		downloadStateValue(state), docID); err != nil {
		return fmt.Errorf("set download state: %w", err)
	}
	return nil
}

// UpdateKeywords stores derived keywords for a document.
func (s *Store) UpdateKeywords(ctx context.Context, docID int64, keywords string) error {
	if err := s.execContext(ctx, `UPDATE docs SET keywords = ? WHERE id = ?`, keywords, docID); err != nil {
		return fmt.Errorf("update keywords: %w", err)
	}
	return nil
}

// UpdateEmbedding stores the opaque embedding blob produced by the external
// training subsystem. The pipeline never reads it back.
func (s *Store) UpdateEmbedding(ctx context.Context, docID int64, embedding []byte) error {
	if err := s.execContext(ctx, `UPDATE docs SET embedding = ? WHERE id = ?`, embedding, docID); err != nil {
		return fmt.Errorf("update embedding: %w", err)
	}
	return nil
}

func (s *Store) queryDocs(ctx context.Context, query string, args ...any) ([]caselaw.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query docs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []caselaw.Document
	for rows.Next() {
		var d caselaw.Document
		var downloadErr sql.NullInt64
		if err := rows.Scan(&d.ID, &d.CaseID, &d.Name, &d.ECLI, &d.Date, &d.Link,
			&d.Source, &d.Format, &d.ContentID, &downloadErr, &d.Embedding, &d.Keywords); err != nil {
			return nil, fmt.Errorf("scan doc: %w", err)
		}
		d.DownloadState = downloadStateFromValue(downloadErr)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate docs: %w", err)
	}
	return docs, nil
}

// downloadStateValue maps the tri-state to its column encoding:
// unset -> NULL, ok -> 0, failed -> 1.
func downloadStateValue(state caselaw.DownloadState) any {
	switch state {
	case caselaw.DownloadOK:
		return int64(0)
	case caselaw.DownloadFailed:
		return int64(1)
	default:
		return nil
	}
}

func downloadStateFromValue(v sql.NullInt64) caselaw.DownloadState {
	switch {
	case !v.Valid:
		return caselaw.DownloadUnset
	case v.Int64 == 0:
		return caselaw.DownloadOK
	default:
		return caselaw.DownloadFailed
	}
}
