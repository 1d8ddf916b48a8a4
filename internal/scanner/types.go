package scanner

import (
	"github.com/newthinker/smaprob/internal/backtest"
)

// Status records why a row carries the probability it does
type Status string

const (
	StatusOK       Status = "ok"
	StatusNoTrades Status = "no_trades"
	StatusFailed   Status = "failed"
)

// Row is one line of a scan: a symbol and its win probability in percent.
// Failed symbols and symbols without completed trades carry 0.
type Row struct {
	Symbol         string  `json:"symbol"`
	WinProbability float64 `json:"win_probability"`
	Status         Status  `json:"status"`
	Error          string  `json:"error,omitempty"`
}

// Outcome is the raw per-symbol result before it is reduced to a Row
type Outcome struct {
	Symbol string
	Result *backtest.Result
	Err    error
}

// ToRow maps an outcome to a scan row
func ToRow(o Outcome) Row {
	if o.Err != nil {
		return Row{Symbol: o.Symbol, Status: StatusFailed, Error: o.Err.Error()}
	}
	if o.Result == nil {
		return Row{Symbol: o.Symbol, Status: StatusFailed, Error: "no result"}
	}
	p, ok := o.Result.WinProbability()
	if !ok {
		return Row{Symbol: o.Symbol, Status: StatusNoTrades}
	}
	return Row{Symbol: o.Symbol, WinProbability: p, Status: StatusOK}
}

// ToRows maps outcomes to rows preserving order
func ToRows(outcomes []Outcome) []Row {
	rows := make([]Row, len(outcomes))
	for i, o := range outcomes {
		rows[i] = ToRow(o)
	}
	return rows
}
