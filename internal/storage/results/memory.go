// internal/storage/results/memory.go
package results

import (
	"context"
	"fmt"
	"sync"

	"github.com/newthinker/smaprob/internal/core"
	"github.com/newthinker/smaprob/internal/scanner"
)

// MemoryStore is an in-memory run store.
type MemoryStore struct {
	runs    []Run
	maxSize int
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store with max capacity.
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize < 1 {
		maxSize = 100
	}
	return &MemoryStore{
		runs:    make([]Run, 0, maxSize),
		maxSize: maxSize,
	}
}

// SaveRun adds a run to the store.
func (m *MemoryStore) SaveRun(ctx context.Context, run *Run) error {
	prepare(run)

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.runs {
		if r.ID == run.ID {
			return core.WrapError(core.ErrStorageFailed, fmt.Errorf("run %s already exists", run.ID))
		}
	}
	m.runs = append(m.runs, clone(*run))

	// Trim if over capacity (remove oldest)
	if len(m.runs) > m.maxSize {
		m.runs = m.runs[len(m.runs)-m.maxSize:]
	}

	return nil
}

// GetRun retrieves a run by ID.
func (m *MemoryStore) GetRun(ctx context.Context, id string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.runs {
		if m.runs[i].ID == id {
			run := clone(m.runs[i])
			return &run, nil
		}
	}
	return nil, core.WrapError(core.ErrRunNotFound, fmt.Errorf("run %s", id))
}

// ListRuns returns the newest runs first.
func (m *MemoryStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Run, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, clone(m.runs[i]))
	}
	return result, nil
}

func clone(r Run) Run {
	r.Rows = append([]scanner.Row(nil), r.Rows...)
	r.Selected = append([]string(nil), r.Selected...)
	return r
}
