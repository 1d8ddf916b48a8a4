package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/smaprob/internal/backtest"
	"github.com/newthinker/smaprob/internal/core"
	"github.com/newthinker/smaprob/internal/scanner"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func sampleResult() *backtest.Result {
	return &backtest.Result{
		Symbol:      "SPY",
		TotalProfit: 1,
		Trades: []backtest.Trade{
			{Time: day(5), Action: core.ActionBuy, Price: 12},
			{Time: day(9), Action: core.ActionSell, Price: 11, Profit: -1},
			{Time: day(11), Action: core.ActionBuy, Price: 12},
			{Time: day(16), Action: core.ActionSell, Price: 14, Profit: 2},
		},
		CompletedTrades:  2,
		ProfitableTrades: 1,
	}
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$12.30", Money(12.3))
	assert.Equal(t, "$-1.00", Money(-1))
	assert.Equal(t, "$0.00", Money(0))
	assert.Equal(t, "$2.35", Money(2.345))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "66.67%", Percent(200.0/3))
	assert.Equal(t, "0.00%", Percent(0))
}

func TestWriteBacktest(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBacktest(&buf, sampleResult()))

	want := "Total profit: $1.00\n" +
		"Trades:\n" +
		"Date: 2024-01-05 | Action: Buy | Price: $12.00 | Profit: $0.00\n" +
		"Date: 2024-01-09 | Action: Sell | Price: $11.00 | Profit: $-1.00\n" +
		"Date: 2024-01-11 | Action: Buy | Price: $12.00 | Profit: $0.00\n" +
		"Date: 2024-01-16 | Action: Sell | Price: $14.00 | Profit: $2.00\n" +
		"Probability of positive trade: 50.00%\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteBacktest_Undefined(t *testing.T) {
	var buf bytes.Buffer
	open := backtest.Trade{Time: day(5), Action: core.ActionBuy, Price: 12}
	r := &backtest.Result{Trades: []backtest.Trade{open}, OpenPosition: &open}

	require.NoError(t, WriteBacktest(&buf, r))
	assert.Contains(t, buf.String(), "Open position: bought 2024-01-05 at $12.00")
	assert.True(t, strings.HasSuffix(buf.String(), "Probability of positive trade: undefined (no completed trades)\n"))
}

func TestWriteScan(t *testing.T) {
	var buf bytes.Buffer
	rows := []scanner.Row{
		{Symbol: "AAPL", WinProbability: 75, Status: scanner.StatusOK},
		{Symbol: "ZZZZ", Status: scanner.StatusFailed},
	}
	require.NoError(t, WriteScan(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"SYMBOL", "PROBABILITY", "STATUS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"AAPL", "75.00%", "ok"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"ZZZZ", "0.00%", "failed"}, strings.Fields(lines[2]))
}

func TestWriteDistribution(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDistribution(&buf, []scanner.Bucket{{Probability: 0, Count: 2}, {Probability: 50, Count: 3}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"0.00%", "2", "##"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"50.00%", "3", "###"}, strings.Fields(lines[2]))
}

func TestWriteSelected(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSelected(&buf, []string{"AAPL", "MSFT"}))
	assert.Equal(t, "Your selected stocks:\nAAPL\nMSFT\n", buf.String())
}

func TestScanReport_JSON(t *testing.T) {
	r := ScanReport{
		RunID:     "run-1",
		Window:    10,
		Threshold: 60,
		Rows:      []scanner.Row{{Symbol: "AAPL", WinProbability: 75, Status: scanner.StatusOK}},
		Selected:  []string{"AAPL"},
	}

	data, err := r.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"run_id\": \"run-1\"")

	var decoded ScanReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []string{"AAPL"}, decoded.Selected)
}

func TestTradesCSV(t *testing.T) {
	data, err := TradesCSV(sampleResult())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Date,Action,Price,Profit", lines[0])
	assert.Equal(t, "2024-01-09,Sell,11.00,-1.00", lines[2])
}
