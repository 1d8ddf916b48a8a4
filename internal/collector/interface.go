package collector

import (
	"context"
	"time"

	"github.com/newthinker/smaprob/internal/core"
)

// Config holds collector configuration
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Dir      string
	Adjusted bool
	Extra    map[string]any
}

// Collector defines the interface for daily price providers.
// FetchHistory returns bars for [start, end]; a symbol that is unknown or has
// no bars in range fails with core.ErrDataUnavailable.
type Collector interface {
	Name() string
	Init(cfg Config) error
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.OHLCV, error)
}
