/*
store.go - Persistence interface for line-oriented tables

PURPOSE:
  Defines the interface between the record layer (Table) and the place the
  lines actually live. A backend knows nothing about fields or record types:
  it stores named tables as ordered lists of text lines.

KEY INTERFACES:
  Backend: Exists, Lines (lazy read), AppendLine, ReplaceLines

REPLACE CONTRACT:
  ReplaceLines() is the only multi-line mutation. A reader that starts after
  it returns sees either the complete old content or the complete new content,
  never a mix:
  - Dir backend:    write temp file in the same directory, fsync, rename
  - SQLite backend: delete + insert inside one database transaction
  - Memory backend: swap the slice under a lock

MISSING TABLES:
  A table that was never written reads as empty. AppendLine and ReplaceLines
  create it. Backends never raise "not found".

IMPLEMENTATIONS:
  - generic/store/dir.go:    flat files, one per table (production)
  - generic/store/memory.go: in-memory (tests)
  - store/sqlite/sqlite.go:  SQLite

SEE ALSO:
  - table.go: Typed records on top of Backend
*/
package generic

import (
	"context"
	"iter"
)

// =============================================================================
// BACKEND - Interface for table persistence
// =============================================================================

// Backend stores named tables of newline-free text lines.
type Backend interface {
	// Exists reports whether the table has ever been created.
	Exists(ctx context.Context, table string) (bool, error)

	// Lines yields every line of the table in order. Each call re-opens the
	// table; no cursor state survives between calls. A missing table yields
	// nothing. A read failure is yielded as the final error.
	Lines(ctx context.Context, table string) iter.Seq2[string, error]

	// AppendLine writes one line at the end of the table, creating it if needed.
	AppendLine(ctx context.Context, table, line string) error

	// ReplaceLines atomically replaces the whole table content.
	ReplaceLines(ctx context.Context, table string, lines []string) error
}
