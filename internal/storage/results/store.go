// internal/storage/results/store.go
package results

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/newthinker/smaprob/internal/scanner"
)

// Run is one persisted universe scan
type Run struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Window    int           `json:"window"`
	Threshold float64       `json:"threshold"`
	Rows      []scanner.Row `json:"rows"`
	Selected  []string      `json:"selected"`
}

// Store defines the interface for scan run storage
type Store interface {
	// SaveRun persists a run, assigning ID and CreatedAt when empty.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun retrieves a run by ID; core.ErrRunNotFound when absent.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.NewString()
}

func prepare(run *Run) {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
}
