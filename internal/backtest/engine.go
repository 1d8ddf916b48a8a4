package backtest

import (
	"fmt"

	"github.com/newthinker/smaprob/internal/core"
)

// position is the state of the single long-only position
type position int

const (
	flat position = iota
	long
)

// Evaluate walks the aligned close and moving-average series once and
// simulates a long-only strategy that buys on an upward cross of the average
// and sells on the next downward cross. Entries and exits fill at the close
// of the signal bar. A position still open at the end is reported in
// OpenPosition and left out of TotalProfit and the win probability.
//
// Evaluate is a pure function of its inputs.
func Evaluate(symbol string, series core.PriceSeries, ma core.MovingAverageSeries) (Result, error) {
	if len(series) != len(ma) {
		return Result{}, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("series length %d does not match moving average length %d", len(series), len(ma)))
	}

	result := Result{Symbol: symbol}
	if len(series) > 0 {
		result.Start = series[0].Time
		result.End = series[len(series)-1].Time
	}

	state := flat
	var entryPrice float64

	for i := 1; i < len(series); i++ {
		prev, curr := ma[i-1], ma[i]
		if !prev.Defined || !curr.Defined {
			continue
		}
		prevClose, currClose := series[i-1].Close, series[i].Close

		switch {
		case prevClose < prev.Average && currClose > curr.Average:
			if state == long {
				continue // no pyramiding
			}
			state = long
			entryPrice = currClose
			result.Trades = append(result.Trades, Trade{
				Time:   series[i].Time,
				Action: core.ActionBuy,
				Price:  currClose,
			})

		case prevClose > prev.Average && currClose < curr.Average:
			if state == flat {
				continue // no short selling
			}
			state = flat
			profit := currClose - entryPrice
			result.TotalProfit += profit
			result.CompletedTrades++
			if profit > 0 {
				result.ProfitableTrades++
			}
			result.Trades = append(result.Trades, Trade{
				Time:   series[i].Time,
				Action: core.ActionSell,
				Price:  currClose,
				Profit: profit,
			})
		}
	}

	if state == long {
		open := result.Trades[len(result.Trades)-1]
		result.OpenPosition = &open
	}

	return result, nil
}
