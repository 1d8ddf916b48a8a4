// internal/storage/archive/archiver.go
package archive

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/smaprob/internal/backtest"
	"github.com/newthinker/smaprob/internal/core"
	"github.com/newthinker/smaprob/internal/report"
)

// Archiver writes scan reports and backtest trade logs to a Storage
type Archiver struct {
	store  Storage
	logger *zap.Logger
}

// NewArchiver creates an archiver over store
func NewArchiver(store Storage, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{store: store, logger: logger}
}

// SaveScan stores the pretty JSON report and returns its path
func (a *Archiver) SaveScan(ctx context.Context, r report.ScanReport) (string, error) {
	data, err := r.JSON()
	if err != nil {
		return "", err
	}
	p := ScanPath(r.CreatedAt, r.RunID)
	if err := a.store.Write(ctx, p, data); err != nil {
		return "", err
	}
	a.logger.Info("scan archived", zap.String("path", p), zap.Int("rows", len(r.Rows)))
	return p, nil
}

// SaveBacktest stores the trade log CSV for a single-symbol run and returns its path
func (a *Archiver) SaveBacktest(ctx context.Context, r *backtest.Result, day time.Time) (string, error) {
	data, err := report.TradesCSV(r)
	if err != nil {
		return "", err
	}
	p := BacktestPath(r.Symbol, day)
	if err := a.store.Write(ctx, p, data); err != nil {
		return "", err
	}
	a.logger.Info("backtest archived", zap.String("path", p), zap.Int("trades", len(r.Trades)))
	return p, nil
}

// Scans lists archived scan reports for one day
func (a *Archiver) Scans(ctx context.Context, day time.Time) ([]string, error) {
	return a.store.List(ctx, "scans/"+day.Format(core.DateLayout))
}
