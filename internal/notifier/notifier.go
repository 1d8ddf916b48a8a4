package notifier

import (
	"context"

	"github.com/newthinker/smaprob/internal/report"
)

// Notifier announces the outcome of a scan
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Notify delivers the scan summary
	Notify(ctx context.Context, rep report.ScanReport) error
}
