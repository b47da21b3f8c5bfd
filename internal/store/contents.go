package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WriteContent stores extracted text for a document and sets its content_id,
// exactly once. A document that already has content assigned is left
// untouched; the check and the two writes hold the store mutex so no second
// caller can slip in between.
func (s *Store) WriteContent(ctx context.Context, docID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var contentID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT content_id FROM docs WHERE id = ?`, docID).Scan(&contentID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("doc %d not found", docID)
	}
	if err != nil {
		return fmt.Errorf("check content_id: %w", err)
	}
	if contentID.Valid {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO doc_contents (content, doc_id) VALUES (?, ?)`, []byte(text), docID)
	if err != nil {
		return fmt.Errorf("insert content: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("content row id: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE docs SET content_id = ? WHERE id = ?`, id, docID); err != nil {
		return fmt.Errorf("set content_id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit content: %w", err)
	}
	return nil
}

// GetContent returns a document's extracted text. ok is false when no
// content has been stored for the document.
func (s *Store) GetContent(ctx context.Context, docID int64) (string, bool, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT c.content FROM doc_contents c
		JOIN docs d ON d.content_id = c.id
		WHERE d.id = ?`, docID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query content: %w", err)
	}
	return string(content), true, nil
}
