// Package search maintains the local full-text index over built crates.
package search

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/huhu/rustdoc-relay/internal/crates"
)

const batchSize = 500

// Indexer abstracts crate indexing so the build command does not depend
// on a specific search backend.
type Indexer interface {
	IndexCrate(ctx context.Context, crate crates.Crate) error
	Close() error
}

// SQLiteIndexer writes crates into the FTS-backed sqlite index in
// batched transactions.
type SQLiteIndexer struct {
	mu         sync.Mutex
	db         *sql.DB
	insertStmt *sql.Stmt
	tx         *sql.Tx
	txStmt     *sql.Stmt
	count      int
}

func NewSQLiteIndexer(path string) (*SQLiteIndexer, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	stmt, err := db.Prepare(`INSERT OR REPLACE INTO crates (name, description, version, downloads) VALUES (?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}

	return &SQLiteIndexer{
		db:         db,
		insertStmt: stmt,
	}, nil
}

func (s *SQLiteIndexer) IndexCrate(ctx context.Context, crate crates.Crate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		s.tx = tx
		s.txStmt = tx.Stmt(s.insertStmt)
	}

	_, err := s.txStmt.ExecContext(ctx, crate.Name, crate.Description, crate.Version, crate.Downloads)
	if err != nil {
		return fmt.Errorf("index crate %s: %w", crate.Name, err)
	}

	s.count++
	if s.count >= batchSize {
		if err := s.flush(); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndexer) flush() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	s.txStmt = nil
	s.count = 0
	if err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func (s *SQLiteIndexer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flush(); err != nil {
		return err
	}
	_ = s.insertStmt.Close()
	return s.db.Close()
}
