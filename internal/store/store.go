// Package store persists cases, documents, appeals and extracted content in
// an embedded SQLite database. All access runs over a single connection
// (pool capped at one) so concurrent callers are linearized; compound
// read-modify-write operations additionally hold the store mutex so their
// check and write cannot interleave.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // sqlite driver
	"go.uber.org/zap"
)

// Default chunk size for batched insertion.
const defaultChunkSize = 100

// Store is the single serialized access point to the corpus database.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// Open opens (or creates) the database file and initializes the schema.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create db dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// One connection: every statement from every goroutine queues here.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cases(
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		"desc" TEXT NOT NULL,
		url TEXT NOT NULL,
		protocol TEXT NOT NULL,
		court TEXT,
		subject TEXT,
		party1 TEXT,
		party2 TEXT,
		CHECK (court IN ('COJ', 'GC'))
	);

	CREATE TABLE IF NOT EXISTS docs(
		id INTEGER PRIMARY KEY,
		case_id INTEGER NOT NULL,
		name TEXT,
		ecli TEXT,
		date TEXT,
		link TEXT,
		source TEXT,
		format TEXT,
		content_id INTEGER,
		download_error INTEGER,
		embedding BLOB,
		keywords TEXT,
		UNIQUE(case_id, name),
		FOREIGN KEY (case_id) REFERENCES cases(id),
		FOREIGN KEY (content_id) REFERENCES doc_contents(id)
	);

	CREATE TABLE IF NOT EXISTS doc_contents(
		id INTEGER PRIMARY KEY,
		content BLOB NOT NULL,
		doc_id INTEGER NOT NULL UNIQUE,
		FOREIGN KEY (doc_id) REFERENCES docs(id)
	);

	CREATE TABLE IF NOT EXISTS appeals(
		id INTEGER PRIMARY KEY,
		orig_case_id INTEGER NOT NULL,
		appeal_case_id INTEGER NOT NULL,
		UNIQUE(orig_case_id, appeal_case_id),
		FOREIGN KEY (orig_case_id) REFERENCES cases(id),
		FOREIGN KEY (appeal_case_id) REFERENCES cases(id)
	);

	CREATE INDEX IF NOT EXISTS idx_docs_case ON docs(case_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// execContext runs a single mutation statement.
func (s *Store) execContext(ctx context.Context, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}
