package indicator

import "github.com/newthinker/smaprob/internal/core"

// SMA calculates Simple Moving Average
// Returns slice of length: len(prices) - period + 1
//
// Each window is averaged on its own rather than with a rolling sum, so a
// window of equal closes averages to exactly that close.
func SMA(prices []float64, period int) []float64 {
	if period < 1 || len(prices) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(prices)-period+1)
	for i := period - 1; i < len(prices); i++ {
		result = append(result, mean(prices[i-period+1:i+1]))
	}

	return result
}

// mean averages deviations from the first value and adds them back.
func mean(window []float64) float64 {
	base := window[0]
	var dev float64
	for _, p := range window {
		dev += p - base
	}
	return base + dev/float64(len(window))
}

// MovingAverage returns the trailing simple moving average aligned 1:1 with
// series. Entry i is undefined for i < window-1 and otherwise the mean of the
// closes at [i-window+1, i]. A non-positive window yields an all-undefined
// series.
func MovingAverage(series core.PriceSeries, window int) core.MovingAverageSeries {
	out := make(core.MovingAverageSeries, len(series))
	for i, p := range series {
		out[i].Time = p.Time
	}

	sma := SMA(series.Closes(), window)
	offset := len(series) - len(sma)
	for j, v := range sma {
		out[offset+j].Average = v
		out[offset+j].Defined = true
	}

	return out
}
