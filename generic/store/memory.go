// Package store provides Backend implementations.
package store

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/warp/hotel-engine/generic"
)

var errSimulated = errors.New("simulated write failure")

var (
	_ generic.Backend = (*Memory)(nil)
	_ generic.Backend = (*Dir)(nil)
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	tables map[string][]string

	// FailWrites makes every write to the named tables fail with ErrIO.
	// Tests use it to simulate a disk failure between two rewrites.
	FailWrites map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		tables:     make(map[string][]string),
		FailWrites: make(map[string]bool),
	}
}

// Seed replaces a table with raw lines, bypassing encoding.
func (m *Memory) Seed(table string, lines ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = append([]string{}, lines...)
}

// Raw returns a copy of the raw lines of a table.
func (m *Memory) Raw(table string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.tables[table]...)
}

func (m *Memory) Exists(_ context.Context, table string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tables[table]
	return ok, nil
}

// Lines yields a snapshot taken when iteration starts.
func (m *Memory) Lines(_ context.Context, table string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		m.mu.RLock()
		snapshot := append([]string{}, m.tables[table]...)
		m.mu.RUnlock()

		for _, line := range snapshot {
			if !yield(line, nil) {
				return
			}
		}
	}
}

func (m *Memory) AppendLine(_ context.Context, table, line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites[table] {
		return generic.IOError("append", table, errSimulated)
	}
	m.tables[table] = append(m.tables[table], line)
	return nil
}

func (m *Memory) ReplaceLines(_ context.Context, table string, lines []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites[table] {
		return generic.IOError("replace", table, errSimulated)
	}
	m.tables[table] = append([]string{}, lines...)
	return nil
}
