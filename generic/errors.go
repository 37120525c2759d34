/*
errors.go - Centralized error types for the record store

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. IO errors - Table cannot be read, appended or replaced
  2. Record errors - A line does not decode, or a field cannot be encoded
  3. Date errors - A date is not in canonical form

USAGE:
  Domain packages can check generic errors:

    if errors.Is(err, generic.ErrIO) {
        // storage is unavailable, nothing was changed
    }

SEE ALSO:
  - table.go: Uses these errors
  - store/: Backends wrap filesystem and database failures with ErrIO
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrIO is returned when a table cannot be opened, read or written.
	ErrIO = errors.New("table io failure")

	// ErrMalformedRecord is returned when a line does not yield the expected
	// fields or a field does not parse.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrInvalidField is returned when a value cannot be stored without
	// corrupting the line format (embedded newline or delimiter).
	ErrInvalidField = errors.New("field contains a reserved character")

	// ErrInvalidDate is returned when a date is not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RecordError locates a decode failure inside a table.
type RecordError struct {
	Table string
	Line  int // 1-based
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.Table, e.Line, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Malformed wraps a decode problem so it matches ErrMalformedRecord.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedRecord, fmt.Sprintf(format, args...))
}

// IOError wraps a backend failure so it matches ErrIO.
func IOError(op, table string, err error) error {
	return fmt.Errorf("%s %s: %w: %v", op, table, ErrIO, err)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsIO returns true if the error comes from the storage layer.
func IsIO(err error) bool {
	return errors.Is(err, ErrIO)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidField) ||
		errors.Is(err, ErrInvalidDate)
}
