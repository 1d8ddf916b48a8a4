package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/smaprob/internal/config"
	"github.com/newthinker/smaprob/internal/core"
	"github.com/newthinker/smaprob/internal/report"
	"github.com/newthinker/smaprob/internal/scanner"
	"github.com/newthinker/smaprob/internal/storage/results"
	"github.com/newthinker/smaprob/internal/trace"
	"github.com/newthinker/smaprob/internal/universe"
)

var (
	scanUniverse    string
	scanThreshold   float64
	scanPastDays    int
	scanWindow      int
	scanConcurrency int
	scanJSON        bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a universe and select symbols above a probability threshold",
	Long: `Run the crossover backtest for every symbol of a universe CSV, print each
symbol's win probability and the distribution of probabilities, then list the
symbols whose probability is at or above the threshold.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanUniverse, "universe", "sp500.csv", "Universe CSV with a Symbol column")
	scanCmd.Flags().Float64Var(&scanThreshold, "threshold", 60, "Minimum win probability in percent")
	scanCmd.Flags().IntVar(&scanPastDays, "past-days", 180, "Calendar days to evaluate, ending yesterday")
	scanCmd.Flags().IntVar(&scanWindow, "window", 10, "Moving average window in trading days")
	scanCmd.Flags().IntVar(&scanConcurrency, "concurrency", 1, "Symbols evaluated in parallel")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print the scan report as JSON")

	rootCmd.AddCommand(scanCmd)
}

func applyScanFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("universe") {
		cfg.Universe.Path = scanUniverse
	}
	if flags.Changed("threshold") {
		cfg.ProbabilityThreshold = scanThreshold
	}
	if flags.Changed("past-days") {
		cfg.PastDays = scanPastDays
	}
	if flags.Changed("window") {
		cfg.MovingAverageWindow = scanWindow
	}
	if flags.Changed("concurrency") {
		cfg.Scan.Concurrency = scanConcurrency
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyScanFlags(cmd, cfg)

	e, err := newEnv(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer e.close()

	symbols, err := universe.Load(cfg.Universe.Path)
	if err != nil {
		return fmt.Errorf("loading universe: %w", err)
	}

	ctx, span := trace.StartSpan(cmd.Context(), "smaprob.scan")
	defer span.End()

	start, end := period(time.Now(), cfg.PastDays)
	began := time.Now()

	sc := scanner.New(e.backtester, scanner.Config{
		Concurrency:   cfg.Scan.Concurrency,
		SymbolTimeout: cfg.Scan.SymbolTimeout,
	}, e.log)
	sc.SetRecorder(e.metrics)

	rows := sc.Scan(ctx, symbols, start, end)
	selected := scanner.Select(rows, cfg.ProbabilityThreshold)
	sc.RecordRun(time.Since(began), len(symbols), len(selected))

	run := &results.Run{
		Start:     start,
		End:       end,
		Window:    cfg.MovingAverageWindow,
		Threshold: cfg.ProbabilityThreshold,
		Rows:      rows,
		Selected:  selected,
	}
	if err := e.results.SaveRun(ctx, run); err != nil {
		e.log.Warn("saving scan run", zap.Error(err))
	}

	rep := report.ScanReport{
		RunID:        run.ID,
		CreatedAt:    run.CreatedAt,
		Start:        start.Format(core.DateLayout),
		End:          end.Format(core.DateLayout),
		Window:       cfg.MovingAverageWindow,
		Threshold:    cfg.ProbabilityThreshold,
		Rows:         rows,
		Distribution: scanner.Distribution(rows),
		Selected:     selected,
	}
	if e.archiver != nil {
		if _, err := e.archiver.SaveScan(ctx, rep); err != nil {
			e.log.Warn("archiving scan", zap.Error(err))
		}
	}

	if err := writeScanReport(cmd, rep); err != nil {
		return err
	}

	if ctx.Err() == nil {
		for name, err := range e.notifiers.NotifyAll(ctx, rep) {
			e.log.Warn("notification failed", zap.String("notifier", name), zap.Error(err))
		}
	}

	e.log.Info("scan finished",
		zap.String("run_id", run.ID),
		zap.Int("symbols", len(symbols)),
		zap.Int("selected", len(selected)),
		zap.Duration("elapsed", time.Since(began)),
	)

	// Partial results are still printed when interrupted.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scan interrupted: %w", err)
	}
	return nil
}

func writeScanReport(cmd *cobra.Command, rep report.ScanReport) error {
	out := cmd.OutOrStdout()
	if scanJSON {
		data, err := rep.JSON()
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	if err := report.WriteScan(out, rep.Rows); err != nil {
		return err
	}
	fmt.Fprintln(out)
	if err := report.WriteDistribution(out, rep.Distribution); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return report.WriteSelected(out, rep.Selected)
}
