// Package csvfile serves daily bars from local CSV files, one file per symbol.
package csvfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/newthinker/smaprob/internal/collector"
	"github.com/newthinker/smaprob/internal/core"
)

// row is one line of <dir>/<SYMBOL>.csv
type row struct {
	Date   string  `csv:"Date"`
	Open   float64 `csv:"Open"`
	High   float64 `csv:"High"`
	Low    float64 `csv:"Low"`
	Close  float64 `csv:"Close"`
	Volume int64   `csv:"Volume"`
}

// CSVFile implements collector.Collector over a directory of CSV files
type CSVFile struct {
	dir string
}

// New creates a new CSV file collector
func New() *CSVFile {
	return &CSVFile{}
}

func (c *CSVFile) Name() string {
	return "csv"
}

func (c *CSVFile) Init(cfg collector.Config) error {
	if cfg.Dir == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("provider csv requires a data directory"))
	}
	c.dir = cfg.Dir
	return nil
}

// Path returns the file a symbol is read from
func (c *CSVFile) Path(symbol string) string {
	return filepath.Join(c.dir, strings.ToUpper(symbol)+".csv")
}

// FetchHistory reads the symbol's file and returns bars within [start, end]
func (c *CSVFile) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.OHLCV, error) {
	if strings.ContainsAny(symbol, `/\`) || symbol == "" {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("invalid symbol: %q", symbol))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(c.Path(symbol))
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, err)
	}
	defer f.Close()

	var rows []*row
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("parsing %s: %w", f.Name(), err))
	}

	from, to := core.CalendarDay(start), core.CalendarDay(end)
	bars := make([]core.OHLCV, 0, len(rows))
	for _, r := range rows {
		day, err := time.Parse(core.DateLayout, strings.TrimSpace(r.Date))
		if err != nil {
			return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("parsing date %q: %w", r.Date, err))
		}
		if day.Before(from) || day.After(to) {
			continue
		}
		bars = append(bars, core.OHLCV{
			Symbol:   symbol,
			Interval: "1d",
			Open:     r.Open,
			High:     r.High,
			Low:      r.Low,
			Close:    r.Close,
			Volume:   r.Volume,
			Time:     day,
		})
	}

	if len(bars) == 0 {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("no bars for %s in range", symbol))
	}
	return bars, nil
}
