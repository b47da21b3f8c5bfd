package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// batchSpec describes one idempotent batch insertion: the target table, the
// full column list, the subset of columns forming the dedup key, and the rows
// (aligned with cols).
type batchSpec struct {
	table   string
	cols    []string
	keyCols []string
	rows    [][]any
}

// batchInsertCheck is the central insertion algorithm. Rows are processed in
// fixed-size chunks; for each chunk the store is queried for rows whose key
// attributes already exist, those are filtered out (along with intra-chunk
// duplicates), and the remainder is inserted in one multi-row statement
// inside a transaction. Re-running the same input is a no-op.
func (s *Store) batchInsertCheck(ctx context.Context, spec batchSpec, chunkSize int) error {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	keyIdx, err := columnIndexes(spec.cols, spec.keyCols)
	if err != nil {
		return err
	}

	for start := 0; start < len(spec.rows); start += chunkSize {
		end := start + chunkSize
		if end > len(spec.rows) {
			end = len(spec.rows)
		}
		if err := s.insertChunk(ctx, spec, spec.rows[start:end], keyIdx); err != nil {
			return fmt.Errorf("insert chunk into %s: %w", spec.table, err)
		}
	}
	return nil
}

func (s *Store) insertChunk(ctx context.Context, spec batchSpec, chunk [][]any, keyIdx []int) error {
	existing, err := s.existingKeys(ctx, spec, chunk, keyIdx)
	if err != nil {
		return err
	}

	seen := existing
	var fresh [][]any
	for _, row := range chunk {
		key := rowKey(row, keyIdx)
		if seen[key] {
			continue
		}
		seen[key] = true
		fresh = append(fresh, row)
	}
	if len(fresh) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(spec.cols)), ",") + ")"
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(spec.table)
	sb.WriteString("(")
	sb.WriteString(strings.Join(spec.cols, ","))
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(fresh)*len(spec.cols))
	for i, row := range fresh {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(placeholder)
		args = append(args, row...)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("multi-row insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// existingKeys queries the table for rows whose key attributes match any row
// in the chunk and returns their canonical key tuples. The per-column match is
// a superset filter; exact tuple comparison happens against the canonical key
// strings. NULL key values need their own predicate: `col IN (NULL)` matches
// nothing in SQLite, which would make rows with a NULL key invisible here and
// re-inserted on every run.
func (s *Store) existingKeys(ctx context.Context, spec batchSpec, chunk [][]any, keyIdx []int) (map[string]bool, error) {
	var conds []string
	var args []any
	for i, col := range spec.keyCols {
		var marks []string
		hasNull := false
		for _, row := range chunk {
			v := row[keyIdx[i]]
			if isNullKey(v) {
				hasNull = true
				continue
			}
			marks = append(marks, "?")
			args = append(args, v)
		}
		switch {
		case hasNull && len(marks) > 0:
			conds = append(conds, "("+col+" IN ("+strings.Join(marks, ",")+") OR "+col+" IS NULL)")
		case hasNull:
			conds = append(conds, col+" IS NULL")
		default:
			conds = append(conds, col+" IN ("+strings.Join(marks, ",")+")")
		}
	}

	query := "SELECT " + strings.Join(spec.keyCols, ",") + " FROM " + spec.table +
		" WHERE " + strings.Join(conds, " AND ")

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query existing keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	existing := make(map[string]bool)
	scan := make([]any, len(spec.keyCols))
	for i := range scan {
		scan[i] = new(any)
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("scan existing keys: %w", err)
		}
		parts := make([]string, len(scan))
		for i, v := range scan {
			parts[i] = keyString(*(v.(*any)))
		}
		existing[strings.Join(parts, "\x1f")] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate existing keys: %w", err)
	}
	return existing, nil
}

func rowKey(row []any, keyIdx []int) string {
	parts := make([]string, len(keyIdx))
	for i, idx := range keyIdx {
		parts[i] = keyString(row[idx])
	}
	return strings.Join(parts, "\x1f")
}

// isNullKey reports whether a key value will be stored as SQL NULL.
func isNullKey(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case *string:
		return t == nil
	case *int64:
		return t == nil
	case sql.NullString:
		return !t.Valid
	}
	return false
}

// keyString maps a key value to the same canonical form whether it came from
// a Go record or a database scan.
func keyString(v any) string {
	switch t := v.(type) {
	case nil:
		return "\x00"
	case *string:
		if t == nil {
			return "\x00"
		}
		return *t
	case *int64:
		if t == nil {
			return "\x00"
		}
		return strconv.FormatInt(*t, 10)
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case sql.NullString:
		if !t.Valid {
			return "\x00"
		}
		return t.String
	default:
		return fmt.Sprint(t)
	}
}

func columnIndexes(cols, keyCols []string) ([]int, error) {
	idx := make([]int, len(keyCols))
	for i, key := range keyCols {
		found := -1
		for j, col := range cols {
			if col == key {
				found = j
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("key column %q not in column list", key)
		}
		idx[i] = found
	}
	return idx, nil
}
