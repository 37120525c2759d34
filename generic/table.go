/*
Package generic provides the domain-agnostic record store.

PURPOSE:
  Treats a flat, colon-delimited text table as a typed collection of records.
  Whether the table holds rooms, bookings or accounts, the same machinery
  splits lines into fields, decodes them, scans with predicates, and performs
  full read-transform-replace rewrites.

KEY CONCEPTS IN THIS FILE (table.go):
  - Schema: Field count, greedy field, and the codec for one record type
  - Table:  Scan / Append / Rewrite / Upsert over a Backend
  - Greedy field: The one field allowed to contain the delimiter; surplus
    delimiters on a line are folded into it

DESIGN PRINCIPLES:
  1. Restartable reads: Every Scan re-opens the table, nothing is cached
  2. Whole-table writes: Updates are full rewrites, replaced atomically
  3. Log-and-skip: Lines that do not decode are logged and skipped on read,
     and carried through verbatim on rewrite so no data is lost
  4. Bounded tables: A rewrite holds the whole table in memory

USAGE:
  rooms := generic.NewTable(backend, roomSchema, log)
  for room, err := range rooms.Scan(ctx, func(r Room) bool { return r.Type == "Suite" }) {
      ...
  }

SEE ALSO:
  - store.go: Backend interface
  - time.go: Date utilities used by domain predicates
*/
package generic

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"go.uber.org/zap"
)

// Delimiter separates fields within a line.
const Delimiter = ":"

// =============================================================================
// SCHEMA - Layout and codec for one record type
// =============================================================================

// Schema describes how records of type T are laid out in a table.
type Schema[T any] struct {
	// Name is the table name passed to the Backend.
	Name string

	// Fields is the exact number of fields per line.
	Fields int

	// Greedy is the index of the field that absorbs surplus delimiters.
	// Use Fields-1 for "trailing field runs to end of line".
	Greedy int

	Decode func(fields []string) (T, error)
	Encode func(rec T) []string
}

// Split breaks a line into exactly s.Fields fields.
func (s Schema[T]) Split(line string) ([]string, error) {
	line = strings.TrimRight(line, "\r")
	parts := strings.Split(line, Delimiter)
	if len(parts) < s.Fields {
		return nil, Malformed("want %d fields, got %d", s.Fields, len(parts))
	}
	if len(parts) == s.Fields {
		return parts, nil
	}

	tail := s.Fields - s.Greedy - 1
	fields := make([]string, 0, s.Fields)
	fields = append(fields, parts[:s.Greedy]...)
	fields = append(fields, strings.Join(parts[s.Greedy:len(parts)-tail], Delimiter))
	fields = append(fields, parts[len(parts)-tail:]...)
	return fields, nil
}

// Join serializes a record into one line.
func (s Schema[T]) Join(rec T) (string, error) {
	fields := s.Encode(rec)
	if len(fields) != s.Fields {
		return "", fmt.Errorf("%s: encoder produced %d fields, want %d", s.Name, len(fields), s.Fields)
	}
	for i, f := range fields {
		if strings.ContainsAny(f, "\r\n") {
			return "", fmt.Errorf("%s field %d: %w (newline)", s.Name, i, ErrInvalidField)
		}
		if i != s.Greedy && strings.Contains(f, Delimiter) {
			return "", fmt.Errorf("%s field %d: %w (%q)", s.Name, i, ErrInvalidField, Delimiter)
		}
	}
	return strings.Join(fields, Delimiter), nil
}

// Parse splits and decodes one line.
func (s Schema[T]) Parse(line string) (T, error) {
	fields, err := s.Split(line)
	if err != nil {
		var zero T
		return zero, err
	}
	return s.Decode(fields)
}

// =============================================================================
// TABLE - Typed records over a Backend
// =============================================================================

// Table is a typed view of one backend table.
type Table[T any] struct {
	backend Backend
	schema  Schema[T]
	log     *zap.Logger
}

// NewTable binds a schema to a backend. A nil logger discards output.
func NewTable[T any](backend Backend, schema Schema[T], log *zap.Logger) *Table[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Table[T]{
		backend: backend,
		schema:  schema,
		log:     log.With(zap.String("table", schema.Name)),
	}
}

// Name returns the backend table name.
func (t *Table[T]) Name() string { return t.schema.Name }

// Exists reports whether the table has been created.
func (t *Table[T]) Exists(ctx context.Context) (bool, error) {
	return t.backend.Exists(ctx, t.schema.Name)
}

// Scan lazily yields records matching pred (nil matches all). Malformed
// lines are logged and skipped. A storage failure ends the sequence with
// a non-nil error.
func (t *Table[T]) Scan(ctx context.Context, pred func(T) bool) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		lineNo := 0
		for line, err := range t.backend.Lines(ctx, t.schema.Name) {
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			lineNo++
			if strings.TrimSpace(line) == "" {
				continue
			}
			rec, err := t.schema.Parse(line)
			if err != nil {
				t.skip(lineNo, err)
				continue
			}
			if pred != nil && !pred(rec) {
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// All collects every record matching pred.
func (t *Table[T]) All(ctx context.Context, pred func(T) bool) ([]T, error) {
	var out []T
	for rec, err := range t.Scan(ctx, pred) {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Find returns the first record matching pred.
func (t *Table[T]) Find(ctx context.Context, pred func(T) bool) (T, bool, error) {
	for rec, err := range t.Scan(ctx, pred) {
		if err != nil {
			var zero T
			return zero, false, err
		}
		return rec, true, nil
	}
	var zero T
	return zero, false, nil
}

// Any reports whether at least one record matches pred.
func (t *Table[T]) Any(ctx context.Context, pred func(T) bool) (bool, error) {
	_, found, err := t.Find(ctx, pred)
	return found, err
}

// Count returns the number of records matching pred.
func (t *Table[T]) Count(ctx context.Context, pred func(T) bool) (int, error) {
	n := 0
	for _, err := range t.Scan(ctx, pred) {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

// Append writes one record at the end of the table.
func (t *Table[T]) Append(ctx context.Context, rec T) error {
	line, err := t.schema.Join(rec)
	if err != nil {
		return err
	}
	return t.backend.AppendLine(ctx, t.schema.Name, line)
}

// Rewrite reads every record, applies transform, and atomically replaces the
// table. transform returns the (possibly modified) record and whether to keep
// it. Relative order is preserved. Lines that do not decode are kept verbatim.
// The retained records are returned.
func (t *Table[T]) Rewrite(ctx context.Context, transform func(T) (T, bool)) ([]T, error) {
	return t.rewrite(ctx, transform, nil)
}

// Upsert replaces the first record matching key with rec, or appends rec if
// none matches. Later duplicates of the key are dropped. Returns true when rec
// was appended.
func (t *Table[T]) Upsert(ctx context.Context, key func(T) bool, rec T) (bool, error) {
	found := false
	_, err := t.rewrite(ctx, func(existing T) (T, bool) {
		if !key(existing) {
			return existing, true
		}
		if found {
			return existing, false
		}
		found = true
		return rec, true
	}, func() []T {
		if found {
			return nil
		}
		return []T{rec}
	})
	if err != nil {
		return false, err
	}
	return !found, nil
}

// Replace discards the current content and writes recs.
func (t *Table[T]) Replace(ctx context.Context, recs []T) error {
	lines := make([]string, 0, len(recs))
	for _, rec := range recs {
		line, err := t.schema.Join(rec)
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}
	return t.backend.ReplaceLines(ctx, t.schema.Name, lines)
}

func (t *Table[T]) rewrite(ctx context.Context, transform func(T) (T, bool), tail func() []T) ([]T, error) {
	// Read everything first: the replace must not start while the old
	// content is still being consumed.
	var raw []string
	for line, err := range t.backend.Lines(ctx, t.schema.Name) {
		if err != nil {
			return nil, err
		}
		raw = append(raw, line)
	}

	lines := make([]string, 0, len(raw))
	var kept []T
	for i, line := range raw {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := t.schema.Parse(line)
		if err != nil {
			t.skip(i+1, err)
			lines = append(lines, line)
			continue
		}
		out, keep := transform(rec)
		if !keep {
			continue
		}
		encoded, err := t.schema.Join(out)
		if err != nil {
			return nil, err
		}
		lines = append(lines, encoded)
		kept = append(kept, out)
	}

	if tail != nil {
		for _, rec := range tail() {
			encoded, err := t.schema.Join(rec)
			if err != nil {
				return nil, err
			}
			lines = append(lines, encoded)
			kept = append(kept, rec)
		}
	}

	if err := t.backend.ReplaceLines(ctx, t.schema.Name, lines); err != nil {
		return nil, err
	}
	return kept, nil
}

func (t *Table[T]) skip(line int, err error) {
	t.log.Warn("skipping malformed record",
		zap.Int("line", line),
		zap.Error(&RecordError{Table: t.schema.Name, Line: line, Err: err}))
}
