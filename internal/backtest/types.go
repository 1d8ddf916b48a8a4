package backtest

import (
	"time"

	"github.com/newthinker/smaprob/internal/core"
)

// Result holds the complete output of one backtest run. It is never mutated
// after it is returned.
type Result struct {
	Symbol           string
	Window           int
	Start            time.Time
	End              time.Time
	TotalProfit      float64 // Sum of closed round-trip profits
	Trades           []Trade
	CompletedTrades  int
	ProfitableTrades int
	OpenPosition     *Trade // Buy still open at the end of the window, excluded from stats
}

// Trade is one entry in the trade log
type Trade struct {
	Time   time.Time
	Action core.Action
	Price  float64
	Profit float64 // exit - entry for sells, 0 for buys
}

// Stats holds supplementary statistics over the closed trades
type Stats struct {
	CompletedTrades int
	WinningTrades   int
	LosingTrades    int
	WinProbability  float64 // Percentage of closed trades with profit > 0
	HasProbability  bool    // false when there are no closed trades
	TotalProfit     float64
	AverageProfit   float64
	MaxDrawdown     float64 // Largest peak-to-trough decline of cumulative profit
}

// IsWin returns true if the trade closed a position with strictly positive profit
func (t Trade) IsWin() bool {
	return t.Action == core.ActionSell && t.Profit > 0
}

// IsExit returns true if the trade closed a position
func (t Trade) IsExit() bool {
	return t.Action == core.ActionSell
}

// WinProbability returns 100 * profitable / completed. ok is false when no
// round trip was completed, in which case the probability is undefined.
func (r Result) WinProbability() (probability float64, ok bool) {
	if r.CompletedTrades == 0 {
		return 0, false
	}
	return 100 * float64(r.ProfitableTrades) / float64(r.CompletedTrades), true
}

// Probability is WinProbability with the undefined case reported as
// core.ErrInsufficientTrades.
func (r Result) Probability() (float64, error) {
	p, ok := r.WinProbability()
	if !ok {
		return 0, core.ErrInsufficientTrades
	}
	return p, nil
}

// ClosedTrades returns the sell side of every completed round trip.
func (r Result) ClosedTrades() []Trade {
	closed := make([]Trade, 0, r.CompletedTrades)
	for _, t := range r.Trades {
		if t.IsExit() {
			closed = append(closed, t)
		}
	}
	return closed
}
