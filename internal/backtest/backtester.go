package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newthinker/smaprob/internal/core"
	"github.com/newthinker/smaprob/internal/indicator"
	"go.uber.org/zap"
)

// OHLCVProvider defines the interface for fetching historical daily bars
type OHLCVProvider interface {
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.OHLCV, error)
}

// Backtester runs the crossover backtest against provider data
type Backtester struct {
	provider OHLCVProvider
	window   int
	logger   *zap.Logger
}

// New creates a new Backtester with the given OHLCV provider and moving
// average window.
func New(provider OHLCVProvider, window int, logger *zap.Logger) *Backtester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backtester{
		provider: provider,
		window:   window,
		logger:   logger,
	}
}

// Window returns the moving average window in bars
func (b *Backtester) Window() int {
	return b.window
}

// LookbackPadding is the number of calendar days fetched ahead of the
// requested start so the first requested bar already has a full window.
// Two calendar days per bar covers weekends and market holidays.
func LookbackPadding(window int) int {
	return 2 * window
}

// ValidateRange checks backtest parameters before any data is fetched.
func ValidateRange(window int, start, end time.Time) error {
	if window < 1 {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("moving average window must be positive, got %d", window))
	}
	if start.IsZero() || end.IsZero() {
		return core.WrapError(core.ErrInvalidParameter, errors.New("start and end dates are required"))
	}
	if !end.After(start) {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("end date %s must be after start date %s", end.Format(core.DateLayout), start.Format(core.DateLayout)))
	}
	return nil
}

// Run executes a backtest for the symbol over [start, end]
func (b *Backtester) Run(ctx context.Context, symbol string, start, end time.Time) (*Result, error) {
	if err := ValidateRange(b.window, start, end); err != nil {
		return nil, err
	}

	fetchStart := start.AddDate(0, 0, -LookbackPadding(b.window))
	bars, err := b.provider.FetchHistory(ctx, symbol, fetchStart, end)
	if err != nil {
		if !errors.Is(err, core.ErrDataUnavailable) {
			err = core.WrapError(core.ErrDataUnavailable, err)
		}
		return nil, fmt.Errorf("fetching %s: %w", symbol, err)
	}

	series := core.ToPriceSeries(bars)
	ma := indicator.MovingAverage(series, b.window)

	// Evaluate only the requested range; the padding only feeds the average.
	evalSeries, offset := series.From(start)
	if len(evalSeries) == 0 {
		return nil, fmt.Errorf("fetching %s: %w", symbol,
			core.WrapError(core.ErrDataUnavailable, errors.New("no bars in requested range")))
	}
	evalMA := ma[offset:]

	if !evalMA[0].Defined {
		b.logger.Debug("moving average undefined at range start",
			zap.String("symbol", symbol),
			zap.Int("window", b.window),
			zap.Int("history_bars", offset),
		)
	}

	result, err := Evaluate(symbol, evalSeries, evalMA)
	if err != nil {
		return nil, err
	}
	result.Window = b.window
	result.Start = start
	result.End = end

	b.logger.Debug("backtest complete",
		zap.String("symbol", symbol),
		zap.Int("bars", len(evalSeries)),
		zap.Int("trades", len(result.Trades)),
		zap.Int("completed", result.CompletedTrades),
		zap.Float64("total_profit", result.TotalProfit),
	)

	return &result, nil
}
