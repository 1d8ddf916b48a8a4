package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	scansTotal       prometheus.Counter
	scanDuration     prometheus.Histogram
	symbolsScanned   *prometheus.CounterVec
	symbolDuration   prometheus.Histogram
	winProbability   prometheus.Histogram
	backtestsTotal   *prometheus.CounterVec
	backtestDuration prometheus.Histogram
	universeSymbols  prometheus.Gauge
	selectedSymbols  prometheus.Gauge
	lastRun          prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
// Runtime collectors are left out so the output can be dropped into a
// node_exporter textfile directory.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		Registry: reg,

		scansTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "smaprob_scans_total",
				Help: "Total number of universe scans completed",
			},
		),
		scanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "smaprob_scan_duration_seconds",
				Help:    "Universe scan duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		symbolsScanned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smaprob_symbols_scanned_total",
				Help: "Total number of symbols scanned by outcome status",
			},
			[]string{"status"},
		),
		symbolDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "smaprob_symbol_duration_seconds",
				Help:    "Per-symbol fetch and backtest duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		winProbability: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "smaprob_win_probability_percent",
				Help:    "Distribution of per-symbol win probabilities",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		backtestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smaprob_backtests_total",
				Help: "Total number of single-symbol backtests",
			},
			[]string{"status"},
		),
		backtestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "smaprob_backtest_duration_seconds",
				Help:    "Single-symbol backtest duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		universeSymbols: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "smaprob_universe_symbols",
				Help: "Number of symbols in the last scanned universe",
			},
		),
		selectedSymbols: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "smaprob_selected_symbols",
				Help: "Number of symbols at or above the threshold in the last scan",
			},
		),
		lastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "smaprob_last_run_timestamp_seconds",
				Help: "Unix time of the last completed run",
			},
		),
	}

	reg.MustRegister(r.scansTotal)
	reg.MustRegister(r.scanDuration)
	reg.MustRegister(r.symbolsScanned)
	reg.MustRegister(r.symbolDuration)
	reg.MustRegister(r.winProbability)
	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.universeSymbols)
	reg.MustRegister(r.selectedSymbols)
	reg.MustRegister(r.lastRun)

	return r
}

// RecordSymbol records one scanned symbol. The probability is observed only
// for symbols with status "ok".
func (r *Registry) RecordSymbol(status string, duration time.Duration, probability float64) {
	r.symbolsScanned.WithLabelValues(status).Inc()
	r.symbolDuration.Observe(duration.Seconds())
	if status == "ok" {
		r.winProbability.Observe(probability)
	}
}

// RecordScan records a scan completion.
func (r *Registry) RecordScan(duration time.Duration, universe, selected int) {
	r.scansTotal.Inc()
	r.scanDuration.Observe(duration.Seconds())
	r.universeSymbols.Set(float64(universe))
	r.selectedSymbols.Set(float64(selected))
	r.lastRun.SetToCurrentTime()
}

// RecordBacktest records a backtest completion.
func (r *Registry) RecordBacktest(status string, duration time.Duration) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration.Seconds())
	r.lastRun.SetToCurrentTime()
}

// WriteTextfile writes all metrics in text exposition format to path.
// The file is replaced atomically.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Registry)
}
