/*
Package sqlite provides a SQLite-backed implementation of generic.Backend.

PURPOSE:
  Stores the same line-oriented tables as the flat-file backend, but inside a
  single SQLite database. Lines are kept verbatim, so the table formats, the
  codecs and every record-level rule are identical whichever backend is used.

KEY TABLES:
  tables:  Names of tables that have been created (for Exists)
  records: (tbl, seq, line) - one row per line, ordered by seq

REPLACE:
  ReplaceLines() deletes and re-inserts a table's rows inside one database
  transaction: readers see the old or the new content, never a mix.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety within the process. The connection pool
  is limited to one connection so ":memory:" databases are shared by all
  callers.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for file databases.

USAGE:
  backend, err := sqlite.New("./data/hotel.db")
  if err != nil {
      log.Fatal(err)
  }
  defer backend.Close()

  rooms := generic.NewTable(backend, hotel.RoomSchema, log)

SEE ALSO:
  - generic/store.go: Backend interface
  - generic/store/dir.go: Flat-file implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/hotel-engine/generic"
)

var _ generic.Backend = (*Store)(nil)

// Store implements generic.Backend using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_journal_mode=WAL"
	if dbPath == ":memory:" {
		dsn = dbPath
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tables (
		name TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS records (
		tbl  TEXT NOT NULL,
		seq  INTEGER NOT NULL,
		line TEXT NOT NULL,
		PRIMARY KEY (tbl, seq)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Exists reports whether the table has been created.
func (s *Store) Exists(ctx context.Context, table string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tables WHERE name = ?", table,
	).Scan(&count)
	if err != nil {
		return false, generic.IOError("exists", table, err)
	}
	return count > 0, nil
}

// Lines yields the table's lines in order. Rows are read fully before the
// first yield so the single connection is free while the caller iterates.
func (s *Store) Lines(ctx context.Context, table string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		lines, err := s.load(ctx, table)
		if err != nil {
			yield("", err)
			return
		}
		for _, line := range lines {
			if !yield(line, nil) {
				return
			}
		}
	}
}

func (s *Store) load(ctx context.Context, table string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT line FROM records WHERE tbl = ? ORDER BY seq ASC", table)
	if err != nil {
		return nil, generic.IOError("read", table, err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, generic.IOError("read", table, err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, generic.IOError("read", table, err)
	}
	return lines, nil
}

// AppendLine adds a line after the current last one.
func (s *Store) AppendLine(ctx context.Context, table, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return generic.IOError("append", table, err)
	}
	defer sqlTx.Rollback()

	if err := s.ensureTable(ctx, sqlTx, table); err != nil {
		return err
	}

	var next int64
	err = sqlTx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM records WHERE tbl = ?", table,
	).Scan(&next)
	if err != nil {
		return generic.IOError("append", table, err)
	}

	if _, err := sqlTx.ExecContext(ctx,
		"INSERT INTO records (tbl, seq, line) VALUES (?, ?, ?)", table, next, line,
	); err != nil {
		return generic.IOError("append", table, err)
	}

	if err := sqlTx.Commit(); err != nil {
		return generic.IOError("append", table, err)
	}
	return nil
}

// ReplaceLines swaps the table content inside one transaction.
func (s *Store) ReplaceLines(ctx context.Context, table string, lines []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return generic.IOError("replace", table, err)
	}
	defer sqlTx.Rollback()

	if err := s.ensureTable(ctx, sqlTx, table); err != nil {
		return err
	}

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM records WHERE tbl = ?", table); err != nil {
		return generic.IOError("replace", table, err)
	}

	stmt, err := sqlTx.PrepareContext(ctx, "INSERT INTO records (tbl, seq, line) VALUES (?, ?, ?)")
	if err != nil {
		return generic.IOError("replace", table, err)
	}
	defer stmt.Close()

	for i, line := range lines {
		if _, err := stmt.ExecContext(ctx, table, i+1, line); err != nil {
			return generic.IOError("replace", table, err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return generic.IOError("replace", table, err)
	}
	return nil
}

func (s *Store) ensureTable(ctx context.Context, sqlTx *sql.Tx, table string) error {
	if _, err := sqlTx.ExecContext(ctx,
		"INSERT OR IGNORE INTO tables (name) VALUES (?)", table,
	); err != nil {
		return generic.IOError("create", table, err)
	}
	return nil
}
