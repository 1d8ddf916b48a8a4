package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/smaprob/internal/backtest"
	"github.com/newthinker/smaprob/internal/config"
	"github.com/newthinker/smaprob/internal/core"
	"github.com/newthinker/smaprob/internal/report"
)

var (
	backtestSymbol   string
	backtestPastDays int
	backtestWindow   int
	backtestStats    bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest the crossover rule on one symbol",
	Long: `Fetch daily closes for one symbol, run the moving-average crossover rule
over the last past_days days and print the trade log, total profit and the
probability that a completed trade was profitable.`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "SPY", "Symbol to backtest")
	backtestCmd.Flags().IntVar(&backtestPastDays, "past-days", 180, "Calendar days to evaluate, ending yesterday")
	backtestCmd.Flags().IntVar(&backtestWindow, "window", 10, "Moving average window in trading days")
	backtestCmd.Flags().BoolVar(&backtestStats, "stats", false, "Also print drawdown and average profit")

	rootCmd.AddCommand(backtestCmd)
}

func applyBacktestFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("symbol") {
		cfg.Symbol = backtestSymbol
	}
	if flags.Changed("past-days") {
		cfg.PastDays = backtestPastDays
	}
	if flags.Changed("window") {
		cfg.MovingAverageWindow = backtestWindow
	}
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyBacktestFlags(cmd, cfg)

	ctx := cmd.Context()
	e, err := newEnv(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.close()

	start, end := period(time.Now(), cfg.PastDays)
	began := time.Now()

	res, err := e.backtester.Run(ctx, cfg.Symbol, start, end)
	if err != nil {
		e.metrics.RecordBacktest("failed", time.Since(began))
		e.log.Error("backtest failed", zap.String("symbol", cfg.Symbol), zap.Error(err))
		return fmt.Errorf("backtesting %s: %w", cfg.Symbol, err)
	}
	status := "ok"
	if _, ok := res.WinProbability(); !ok {
		status = "no_trades"
	}
	e.metrics.RecordBacktest(status, time.Since(began))

	out := cmd.OutOrStdout()
	if err := report.WriteBacktest(out, res); err != nil {
		return err
	}
	if backtestStats {
		fmt.Fprintln(out)
		if err := report.WriteStats(out, backtest.CalculateStats(*res)); err != nil {
			return err
		}
	}

	if e.archiver != nil {
		if _, err := e.archiver.SaveBacktest(ctx, res, end); err != nil {
			e.log.Warn("archiving backtest", zap.String("symbol", cfg.Symbol), zap.Error(err))
		}
	}

	e.log.Info("backtest complete",
		zap.String("symbol", cfg.Symbol),
		zap.String("start", start.Format(core.DateLayout)),
		zap.String("end", end.Format(core.DateLayout)),
		zap.Int("completed_trades", res.CompletedTrades),
	)
	return nil
}
