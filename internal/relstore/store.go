// Package relstore is the relational mirror of the indexing engine's
// rune state: a sqlite database optimized for address- and
// transaction-keyed lookups, which FastStore's ordered-KV layout can't
// serve directly. RelStore is the source of truth for those query
// shapes; FastStore remains the source of truth for rune accounting
// itself.
package relstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

//go:embed pragma.sql
var pragmaSQL string

// Store is the RelStore handle.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates, if needed) the sqlite database at path.
func Open(path string) (*Store, error) {
	// The DSN carries pragma.sql's settings so that every pooled
	// connection gets them, not only the one applyPragmas runs on.
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("relstore: open: %w", err)
	}
	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	for _, stmt := range splitStatements(schemaSQL) {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("relstore: apply schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	for _, stmt := range splitStatements(pragmaSQL) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("relstore: apply pragma %q: %w", stmt, err)
		}
	}
	return nil
}

func splitStatements(s string) []string {
	var out []string
	for _, stmt := range strings.Split(s, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// BeginTx starts a transaction used to group a block's worth of
// RelStore writes, committed alongside (but not atomically with)
// FastStore's batch. A crash between the two commits leaves FastStore
// one block ahead of RelStore; nothing reconciles the two stores on
// restart.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// RecomputeHoldersAndTransactions recomputes and persists the
// holders/transactions counters for the given rune ids.
func (s *Store) RecomputeHoldersAndTransactions(ctx context.Context, ids []string) error {
	return RecomputeHoldersAndTransactions(ctx, s.db, ids)
}
