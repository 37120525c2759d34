package store

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/warp/hotel-engine/generic"
)

// =============================================================================
// DIR STORE - One flat file per table
// =============================================================================

// Dir keeps each table in <Root>/<table>.txt, one record per line.
//
// Replacement writes a temporary file next to the target, syncs it and
// renames it over the original, so an interrupted rewrite leaves either the
// old file or the new one. There is no cross-process locking.
type Dir struct {
	Root string
	Ext  string
}

// NewDir creates the data directory if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, generic.IOError("mkdir", root, err)
	}
	return &Dir{Root: root, Ext: ".txt"}, nil
}

// Path returns the file backing a table.
func (d *Dir) Path(table string) string {
	return filepath.Join(d.Root, table+d.Ext)
}

func (d *Dir) Exists(_ context.Context, table string) (bool, error) {
	_, err := os.Stat(d.Path(table))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, generic.IOError("stat", table, err)
}

func (d *Dir) Lines(ctx context.Context, table string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		f, err := os.Open(d.Path(table))
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		if err != nil {
			yield("", generic.IOError("open", table, err))
			return
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !yield(scanner.Text(), nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", generic.IOError("read", table, err))
		}
	}
}

// AppendLine writes line at the end of the table. A hand-edited file whose
// last line lacks a terminator gets one first, so the new record never
// merges into it.
func (d *Dir) AppendLine(_ context.Context, table, line string) error {
	f, err := os.OpenFile(d.Path(table), os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return generic.IOError("append", table, err)
	}
	lead, err := needsTerminator(f)
	if err != nil {
		f.Close()
		return generic.IOError("append", table, err)
	}
	if _, err := f.WriteString(lead + line + "\n"); err != nil {
		f.Close()
		return generic.IOError("append", table, err)
	}
	if err := f.Close(); err != nil {
		return generic.IOError("append", table, err)
	}
	return nil
}

func needsTerminator(f *os.File) (string, error) {
	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if info.Size() == 0 {
		return "", nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return "", err
	}
	if last[0] == '\n' {
		return "", nil
	}
	return "\n", nil
}

func (d *Dir) ReplaceLines(_ context.Context, table string, lines []string) error {
	tmp, err := os.CreateTemp(d.Root, "."+table+"-*.tmp")
	if err != nil {
		return generic.IOError("replace", table, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			cleanup()
			return generic.IOError("replace", table, err)
		}
	}
	if err := w.Flush(); err != nil {
		cleanup()
		return generic.IOError("replace", table, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return generic.IOError("replace", table, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return generic.IOError("replace", table, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return generic.IOError("replace", table, err)
	}
	if err := os.Rename(tmpName, d.Path(table)); err != nil {
		os.Remove(tmpName)
		return generic.IOError("replace", table, err)
	}
	return nil
}
