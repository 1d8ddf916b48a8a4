package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/newthinker/smaprob/internal/core"
)

func TestSMA_Calculate(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}

	sma := SMA(prices, 3)

	// SMA(3) for [10,11,12,13,14,15]:
	// [0] = (10+11+12)/3 = 11
	// [1] = (11+12+13)/3 = 12
	// [2] = (12+13+14)/3 = 13
	// [3] = (13+14+15)/3 = 14

	expected := []float64{11, 12, 13, 14}

	if len(sma) != len(expected) {
		t.Fatalf("expected %d values, got %d", len(expected), len(sma))
	}

	for i, v := range expected {
		if sma[i] != v {
			t.Errorf("sma[%d] = %f, want %f", i, sma[i], v)
		}
	}
}

func TestSMA_NotEnoughData(t *testing.T) {
	prices := []float64{10, 11}
	sma := SMA(prices, 5)

	if len(sma) != 0 {
		t.Errorf("expected empty slice, got %d values", len(sma))
	}
}

func TestSMA_NonPositivePeriod(t *testing.T) {
	if got := SMA([]float64{1, 2, 3}, 0); len(got) != 0 {
		t.Errorf("expected empty slice for period 0, got %v", got)
	}
}

func TestSMA_WindowOfOne(t *testing.T) {
	prices := []float64{3, 1, 4, 1, 5}
	sma := SMA(prices, 1)
	for i := range prices {
		if sma[i] != prices[i] {
			t.Errorf("sma[%d] = %f, want %f", i, sma[i], prices[i])
		}
	}
}

func TestSMA_FlatWindowEqualsClose(t *testing.T) {
	for _, c := range []float64{10.1, 0.1, 123.45, 9} {
		sma := SMA([]float64{c, c, c}, 3)
		if len(sma) != 1 || sma[0] != c {
			t.Errorf("SMA of flat %v = %v, want exactly %v", c, sma, c)
		}
	}
}

func TestMovingAverage_NoDriftAfterVolatileHistory(t *testing.T) {
	closes := []float64{13.37, 99.99, 0.01, 55.55}
	for i := 0; i < 200; i++ {
		closes = append(closes, 9)
	}

	ma := MovingAverage(series(closes...), 3)
	for i := 6; i < len(ma); i++ {
		if ma[i].Average != 9 {
			t.Fatalf("ma[%d] = %.17g, want exactly 9", i, ma[i].Average)
		}
	}
}

func series(closes ...float64) core.PriceSeries {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := make(core.PriceSeries, len(closes))
	for i, c := range closes {
		s[i] = core.PricePoint{Time: base.AddDate(0, 0, i), Close: c}
	}
	return s
}

func TestMovingAverage_Aligned(t *testing.T) {
	s := series(10, 10, 10, 8, 8, 8, 12, 12, 12, 12)

	ma := MovingAverage(s, 3)

	if len(ma) != len(s) {
		t.Fatalf("expected %d entries, got %d", len(s), len(ma))
	}

	for i := 0; i < 2; i++ {
		if ma[i].Defined {
			t.Errorf("ma[%d] should be undefined", i)
		}
	}

	want := map[int]float64{2: 10, 3: 28.0 / 3, 4: 26.0 / 3, 5: 8, 6: 28.0 / 3, 7: 32.0 / 3, 8: 12, 9: 12}
	for i, w := range want {
		if !ma[i].Defined {
			t.Errorf("ma[%d] should be defined", i)
			continue
		}
		if !almostEqual(ma[i].Average, w, 1e-9) {
			t.Errorf("ma[%d] = %f, want %f", i, ma[i].Average, w)
		}
	}

	for i := range s {
		if !ma[i].Time.Equal(s[i].Time) {
			t.Errorf("ma[%d] time %v not aligned with %v", i, ma[i].Time, s[i].Time)
		}
	}
}

func TestMovingAverage_ShortSeries(t *testing.T) {
	ma := MovingAverage(series(1, 2), 10)
	if len(ma) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(ma))
	}
	for i, p := range ma {
		if p.Defined {
			t.Errorf("ma[%d] should be undefined with insufficient history", i)
		}
	}
}

func TestMovingAverage_Empty(t *testing.T) {
	if ma := MovingAverage(nil, 3); len(ma) != 0 {
		t.Errorf("expected empty series, got %d", len(ma))
	}
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}
