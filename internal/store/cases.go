package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lexel-search/caselaw-pipeline/internal/caselaw"
)

const caseColumns = `id, name, "desc", url, protocol, court, subject, party1, party2`

// WriteCases inserts cases in batches, skipping any whose name is already
// present. Existing rows are never modified.
func (s *Store) WriteCases(ctx context.Context, cases []caselaw.Case) error {
	if len(cases) == 0 {
		return nil
	}
	rows := make([][]any, len(cases))
	for i, c := range cases {
		rows[i] = []any{c.Name, c.Desc, c.URL, c.Protocol, c.Court, c.Subject, c.Party1, c.Party2}
	}
	return s.batchInsertCheck(ctx, batchSpec{
		table:   "cases",
		cols:    []string{"name", `"desc"`, "url", "protocol", "court", "subject", "party1", "party2"},
		keyCols: []string{"name"},
		rows:    rows,
	}, defaultChunkSize)
}

// GetAllCases returns every case, ordered by id.
func (s *Store) GetAllCases(ctx context.Context) ([]caselaw.Case, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+caseColumns+` FROM cases ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cases []caselaw.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return cases, nil
}

// GetCaseByName returns the case with the given name, or nil when absent.
func (s *Store) GetCaseByName(ctx context.Context, name string) (*caselaw.Case, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE name = ?`, name)
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCase returns the case with the given id, or nil when absent.
func (s *Store) GetCase(ctx context.Context, id int64) (*caselaw.Case, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = ?`, id)
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCaseParties sets a case's parties. Nil values leave the stored
// column untouched.
func (s *Store) UpdateCaseParties(ctx context.Context, caseID int64, party1, party2 *string) error {
	if party1 != nil {
		if err := s.execContext(ctx, `UPDATE cases SET party1 = ? WHERE id = ?`, *party1, caseID); err != nil {
			return fmt.Errorf("update party1: %w", err)
		}
	}
	if party2 != nil {
		if err := s.execContext(ctx, `UPDATE cases SET party2 = ? WHERE id = ?`, *party2, caseID); err != nil {
			return fmt.Errorf("update party2: %w", err)
		}
	}
	return nil
}

// UpdateCaseSubject sets a case's subject text. A nil subject is a no-op.
func (s *Store) UpdateCaseSubject(ctx context.Context, caseID int64, subject *string) error {
	if subject == nil {
		return nil
	}
	if err := s.execContext(ctx, `UPDATE cases SET subject = ? WHERE id = ?`, *subject, caseID); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(r rowScanner) (caselaw.Case, error) {
	var c caselaw.Case
	err := r.Scan(&c.ID, &c.Name, &c.Desc, &c.URL, &c.Protocol, &c.Court,
		&c.Subject, &c.Party1, &c.Party2)
	if errors.Is(err, sql.ErrNoRows) {
		return caselaw.Case{}, err
	}
	if err != nil {
		return caselaw.Case{}, fmt.Errorf("scan case: %w", err)
	}
	return c, nil
}
