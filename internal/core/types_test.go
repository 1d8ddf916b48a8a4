package core

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestAction_Label(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{ActionBuy, "Buy"},
		{ActionSell, "Sell"},
		{Action("hold"), "hold"},
	}

	for _, tc := range tests {
		if got := tc.action.Label(); got != tc.want {
			t.Errorf("Label(%s) = %s, want %s", tc.action, got, tc.want)
		}
	}
}

func TestToPriceSeries_SortsAndDedupes(t *testing.T) {
	bars := []OHLCV{
		{Close: 12, Time: day(3)},
		{Close: 10, Time: day(1)},
		{Close: 0, Time: day(2)}, // dropped: non-positive
		{Close: 11, Time: day(2).Add(16 * time.Hour)},
		{Close: 13, Time: day(3).Add(time.Hour)}, // same day as 12, later wins
	}

	series := ToPriceSeries(bars)

	if len(series) != 3 {
		t.Fatalf("expected 3 points, got %d", len(series))
	}
	want := []float64{10, 11, 13}
	for i, w := range want {
		if series[i].Close != w {
			t.Errorf("series[%d].Close = %f, want %f", i, series[i].Close, w)
		}
	}
	if err := series.Validate(); err != nil {
		t.Errorf("expected valid series, got %v", err)
	}
}

func TestPriceSeries_Validate(t *testing.T) {
	tests := []struct {
		name    string
		series  PriceSeries
		wantErr bool
	}{
		{"empty", PriceSeries{}, false},
		{"increasing", PriceSeries{{day(1), 10}, {day(2), 11}}, false},
		{"duplicate date", PriceSeries{{day(1), 10}, {day(1), 11}}, true},
		{"decreasing", PriceSeries{{day(2), 10}, {day(1), 11}}, true},
		{"zero close", PriceSeries{{day(1), 0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.series.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPriceSeries_From(t *testing.T) {
	series := PriceSeries{{day(1), 1}, {day(2), 2}, {day(4), 4}, {day(5), 5}}

	tail, idx := series.From(day(3).Add(9 * time.Hour))
	if idx != 2 {
		t.Errorf("expected start index 2, got %d", idx)
	}
	if len(tail) != 2 || tail[0].Close != 4 {
		t.Errorf("unexpected tail: %+v", tail)
	}

	all, idx := series.From(day(1).Add(23 * time.Hour))
	if idx != 0 || len(all) != 4 {
		t.Errorf("expected whole series from same day, got idx %d len %d", idx, len(all))
	}

	none, _ := series.From(day(9))
	if len(none) != 0 {
		t.Errorf("expected empty tail, got %d", len(none))
	}
}

func TestPriceSeries_From_OtherZone(t *testing.T) {
	series := PriceSeries{{day(14), 14}, {day(15), 15}, {day(16), 16}}
	newYork := time.FixedZone("EST", -5*3600)

	// Local midnight in New York is 05:00 UTC, after the UTC bar for the 15th.
	tail, idx := series.From(time.Date(2024, 1, 15, 0, 0, 0, 0, newYork))
	if idx != 1 || tail[0].Close != 15 {
		t.Errorf("expected to start at the 15th, got idx %d tail %+v", idx, tail)
	}

	// Late evening in Tokyo on the 15th is still the 15th UTC morning.
	tokyo := time.FixedZone("JST", 9*3600)
	_, idx = series.From(time.Date(2024, 1, 15, 23, 0, 0, 0, tokyo))
	if idx != 1 {
		t.Errorf("expected index 1 for the 15th in Tokyo, got %d", idx)
	}
}

func TestCalendarDay(t *testing.T) {
	newYork := time.FixedZone("EST", -5*3600)
	got := CalendarDay(time.Date(2024, 1, 15, 22, 30, 0, 0, newYork))
	if !got.Equal(day(15)) || got.Location() != time.UTC {
		t.Errorf("CalendarDay = %v, want %v", got, day(15))
	}
}

func TestPriceSeries_Closes(t *testing.T) {
	series := PriceSeries{{day(1), 1.5}, {day(2), 2.5}}
	closes := series.Closes()
	if len(closes) != 2 || closes[0] != 1.5 || closes[1] != 2.5 {
		t.Errorf("unexpected closes: %v", closes)
	}
}
