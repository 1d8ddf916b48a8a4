// internal/storage/archive/storage.go
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/newthinker/smaprob/internal/core"
)

// Storage defines the interface for report archive backends
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// Config selects and configures a backend. An empty Type disables archiving.
type Config struct {
	Type string // "", "localfs" or "s3"
	Path string
	S3   S3Config
}

// New creates the backend named by cfg.Type; it returns nil for an empty type
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "localfs":
		if cfg.Path == "" {
			return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("storage.archive.path is required for localfs"))
		}
		return NewLocalFS(cfg.Path)
	case "s3":
		if cfg.S3.Bucket == "" {
			return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("storage.archive.s3.bucket is required for s3"))
		}
		return NewS3(cfg.S3)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown archive type %q", cfg.Type))
	}
}

// ScanPath returns scans/<YYYY-MM-DD>/<run-id>.json
func ScanPath(day time.Time, runID string) string {
	return path.Join("scans", day.Format(core.DateLayout), runID+".json")
}

// BacktestPath returns backtests/<SYMBOL>/<YYYY-MM-DD>.csv
func BacktestPath(symbol string, day time.Time) string {
	symbol = strings.NewReplacer("/", "_", "\\", "_").Replace(strings.ToUpper(symbol))
	return path.Join("backtests", symbol, day.Format(core.DateLayout)+".csv")
}
