// Package scanner runs the crossover backtest across a universe of symbols
// and selects those whose win probability clears a threshold.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/newthinker/smaprob/internal/backtest"
	"github.com/newthinker/smaprob/internal/core"
	"github.com/newthinker/smaprob/internal/trace"
)

const defaultSymbolTimeout = 30 * time.Second

// Runner evaluates one symbol over a date range
type Runner interface {
	Run(ctx context.Context, symbol string, start, end time.Time) (*backtest.Result, error)
}

// Recorder receives per-symbol and per-scan measurements
type Recorder interface {
	RecordSymbol(status string, duration time.Duration, probability float64)
	RecordScan(duration time.Duration, universe, selected int)
}

// Config holds scanner configuration
type Config struct {
	// Concurrency is the number of symbols evaluated at once; 1 is sequential.
	Concurrency int
	// SymbolTimeout bounds one symbol's fetch and backtest; 0 uses 30s.
	SymbolTimeout time.Duration
}

// Scanner evaluates every symbol of a universe independently
type Scanner struct {
	runner   Runner
	cfg      Config
	logger   *zap.Logger
	recorder Recorder
}

// New creates a new scanner
func New(runner Runner, cfg Config, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.SymbolTimeout <= 0 {
		cfg.SymbolTimeout = defaultSymbolTimeout
	}
	return &Scanner{
		runner: runner,
		cfg:    cfg,
		logger: logger,
	}
}

// SetRecorder attaches a metrics recorder
func (s *Scanner) SetRecorder(r Recorder) {
	s.recorder = r
}

// Scan returns one row per symbol in input order. A failing symbol never
// aborts the scan; it is reported with probability 0 and status failed.
func (s *Scanner) Scan(ctx context.Context, symbols []string, start, end time.Time) []Row {
	return ToRows(s.Outcomes(ctx, symbols, start, end))
}

// Outcomes evaluates every symbol and returns the raw outcomes in input order.
// Symbols not started before ctx is canceled get the context error.
func (s *Scanner) Outcomes(ctx context.Context, symbols []string, start, end time.Time) []Outcome {
	ctx, span := trace.StartSpan(ctx, "scanner.Scan")
	defer span.End()
	span.SetAttributes(
		attribute.Int("symbols", len(symbols)),
		attribute.Int("concurrency", s.cfg.Concurrency),
	)

	began := time.Now()
	s.logger.Info("starting scan",
		zap.Int("symbols", len(symbols)),
		zap.Int("concurrency", s.cfg.Concurrency),
		zap.String("start", start.Format(core.DateLayout)),
		zap.String("end", end.Format(core.DateLayout)),
	)

	outcomes := make([]Outcome, len(symbols))
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := s.cfg.Concurrency
	if workers > len(symbols) {
		workers = len(symbols)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = s.evaluate(ctx, symbols[i], start, end)
			}
		}()
	}

	next := 0
schedule:
	for ; next < len(symbols); next++ {
		select {
		case <-ctx.Done():
			break schedule
		case jobs <- next:
		}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < len(symbols); i++ {
		outcomes[i] = Outcome{Symbol: symbols[i], Err: fmt.Errorf("scan canceled: %w", ctx.Err())}
		s.record(outcomes[i], 0)
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	s.logger.Info("scan complete",
		zap.Int("symbols", len(symbols)),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(began)),
	)
	span.SetAttributes(attribute.Int("failed", failed))
	return outcomes
}

// evaluate runs one symbol under its own timeout and converts panics to errors
func (s *Scanner) evaluate(ctx context.Context, symbol string, start, end time.Time) Outcome {
	ctx, span := trace.StartSpan(ctx, "scanner.symbol")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	began := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.SymbolTimeout)
	defer cancel()

	type result struct {
		res *backtest.Result
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic evaluating %s: %v", symbol, r)}
			}
		}()
		res, err := s.runner.Run(ctx, symbol, start, end)
		done <- result{res: res, err: err}
	}()

	var out Outcome
	select {
	case r := <-done:
		out = Outcome{Symbol: symbol, Result: r.res, Err: r.err}
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = core.WrapError(core.ErrCollectorTimeout,
				fmt.Errorf("%s exceeded %s", symbol, s.cfg.SymbolTimeout))
		}
		out = Outcome{Symbol: symbol, Err: err}
	}

	if out.Err != nil {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, out.Err.Error())
		fields := append([]zap.Field{zap.String("symbol", symbol), zap.Error(out.Err)}, trace.LogFields(ctx)...)
		s.logger.Warn("symbol failed", fields...)
	}
	s.record(out, time.Since(began))
	return out
}

func (s *Scanner) record(o Outcome, elapsed time.Duration) {
	if s.recorder == nil {
		return
	}
	row := ToRow(o)
	s.recorder.RecordSymbol(string(row.Status), elapsed, row.WinProbability)
}

// RecordRun reports a finished scan to the recorder, if any
func (s *Scanner) RecordRun(elapsed time.Duration, universe, selected int) {
	if s.recorder != nil {
		s.recorder.RecordScan(elapsed, universe, selected)
	}
}
