package core

import (
	"fmt"
	"sort"
	"time"
)

// OHLCV represents a candlestick/bar as returned by a price provider
type OHLCV struct {
	Symbol   string
	Interval string // "1d"
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	Time     time.Time
}

// Action represents a trade action
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Label returns the display form used in trade logs ("Buy", "Sell").
func (a Action) Label() string {
	switch a {
	case ActionBuy:
		return "Buy"
	case ActionSell:
		return "Sell"
	default:
		return string(a)
	}
}

// PricePoint is a single daily close
type PricePoint struct {
	Time  time.Time
	Close float64
}

// PriceSeries is an ordered sequence of closes for one symbol.
// Dates are strictly increasing.
type PriceSeries []PricePoint

// Closes returns the closing prices in series order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, p := range s {
		closes[i] = p.Close
	}
	return closes
}

// Validate checks that dates are strictly increasing and closes are positive.
func (s PriceSeries) Validate() error {
	for i, p := range s {
		if p.Close <= 0 {
			return fmt.Errorf("non-positive close %f at %s", p.Close, p.Time.Format(DateLayout))
		}
		if i > 0 && !p.Time.After(s[i-1].Time) {
			return fmt.Errorf("dates not strictly increasing at index %d (%s)", i, p.Time.Format(DateLayout))
		}
	}
	return nil
}

// From returns the suffix of the series starting at the first point on or
// after the calendar day of t, and the index it starts at. Days are compared
// as calendar dates, whatever the locations of t and the points.
func (s PriceSeries) From(t time.Time) (PriceSeries, int) {
	day := CalendarDay(t)
	idx := sort.Search(len(s), func(i int) bool {
		return !CalendarDay(s[i].Time).Before(day)
	})
	return s[idx:], idx
}

// ToPriceSeries projects provider bars onto a PriceSeries. Bars are sorted by
// time; bars with non-positive closes and repeated calendar days are dropped
// (the later bar for a day wins).
func ToPriceSeries(bars []OHLCV) PriceSeries {
	sorted := make([]OHLCV, 0, len(bars))
	for _, b := range bars {
		if b.Close > 0 {
			sorted = append(sorted, b)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	series := make(PriceSeries, 0, len(sorted))
	for _, b := range sorted {
		p := PricePoint{Time: b.Time, Close: b.Close}
		if n := len(series); n > 0 && TruncateDay(series[n-1].Time).Equal(TruncateDay(b.Time)) {
			series[n-1] = p
			continue
		}
		series = append(series, p)
	}
	return series
}

// AveragePoint is one entry of a moving average aligned to a PriceSeries.
// Defined is false while there is not yet a full window of history.
type AveragePoint struct {
	Time    time.Time
	Average float64
	Defined bool
}

// MovingAverageSeries is aligned 1:1 with the PriceSeries it was built from
type MovingAverageSeries []AveragePoint

// DateLayout is the calendar-date format used across the CLI, reports and storage keys
const DateLayout = "2006-01-02"

// TruncateDay drops the time-of-day component, keeping the location.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CalendarDay returns midnight UTC of the calendar date t shows in its own
// location, so dates from different zones compare by y/m/d.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
