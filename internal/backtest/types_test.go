package backtest

import (
	"testing"

	"github.com/newthinker/smaprob/internal/core"
)

func TestTrade_IsWin(t *testing.T) {
	tests := []struct {
		name  string
		trade Trade
		want  bool
	}{
		{"positive profit", Trade{Action: core.ActionSell, Profit: 0.05}, true},
		{"negative profit", Trade{Action: core.ActionSell, Profit: -0.02}, false},
		{"zero profit", Trade{Action: core.ActionSell, Profit: 0}, false},
		{"buy", Trade{Action: core.ActionBuy}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.trade.IsWin(); got != tt.want {
				t.Errorf("IsWin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResult_WinProbability(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   float64
		wantOK bool
	}{
		{"no trades", Result{}, 0, false},
		{"all winners", Result{CompletedTrades: 3, ProfitableTrades: 3}, 100, true},
		{"one of four", Result{CompletedTrades: 4, ProfitableTrades: 1}, 25, true},
		{"no winners", Result{CompletedTrades: 2}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.result.WinProbability()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("WinProbability() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResult_ClosedTrades(t *testing.T) {
	r := Result{
		Trades: []Trade{
			{Action: core.ActionBuy},
			{Action: core.ActionSell, Profit: 1},
			{Action: core.ActionBuy},
		},
		CompletedTrades: 1,
	}

	closed := r.ClosedTrades()
	if len(closed) != 1 || closed[0].Profit != 1 {
		t.Errorf("unexpected closed trades: %+v", closed)
	}
}
