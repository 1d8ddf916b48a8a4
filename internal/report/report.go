// Package report renders backtest and scan results as text, JSON and CSV.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/tidwall/pretty"

	"github.com/newthinker/smaprob/internal/backtest"
	"github.com/newthinker/smaprob/internal/core"
	"github.com/newthinker/smaprob/internal/scanner"
)

// Money formats a dollar amount with two decimals, e.g. $12.30 or $-1.00
func Money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

// Percent formats a probability in percent with two decimals
func Percent(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(2) + "%"
}

// WriteBacktest prints the total profit, the trade log and the win probability
func WriteBacktest(w io.Writer, r *backtest.Result) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Total profit: %s\n", Money(r.TotalProfit))
	b.WriteString("Trades:\n")
	for _, t := range r.Trades {
		fmt.Fprintf(&b, "Date: %s | Action: %s | Price: %s | Profit: %s\n",
			t.Time.Format(core.DateLayout), t.Action.Label(), Money(t.Price), Money(t.Profit))
	}
	if r.OpenPosition != nil {
		fmt.Fprintf(&b, "Open position: bought %s at %s (excluded)\n",
			r.OpenPosition.Time.Format(core.DateLayout), Money(r.OpenPosition.Price))
	}

	if p, ok := r.WinProbability(); ok {
		fmt.Fprintf(&b, "Probability of positive trade: %s\n", Percent(p))
	} else {
		b.WriteString("Probability of positive trade: undefined (no completed trades)\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteStats prints supplementary statistics for a backtest
func WriteStats(w io.Writer, s backtest.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Completed trades:\t%d\n", s.CompletedTrades)
	fmt.Fprintf(tw, "Winning / losing:\t%d / %d\n", s.WinningTrades, s.LosingTrades)
	fmt.Fprintf(tw, "Average profit:\t%s\n", Money(s.AverageProfit))
	fmt.Fprintf(tw, "Max drawdown:\t%s\n", Money(s.MaxDrawdown))
	return tw.Flush()
}

// WriteScan prints one line per row: symbol, probability, status
func WriteScan(w io.Writer, rows []scanner.Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tPROBABILITY\tSTATUS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Symbol, Percent(r.WinProbability), r.Status)
	}
	return tw.Flush()
}

// WriteDistribution prints how many symbols share each probability value
func WriteDistribution(w io.Writer, buckets []scanner.Bucket) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Probability distribution:")
	for _, b := range buckets {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", Percent(b.Probability), b.Count, strings.Repeat("#", b.Count))
	}
	return tw.Flush()
}

// WriteSelected prints the selected symbols, one per line
func WriteSelected(w io.Writer, selected []string) error {
	var b strings.Builder
	b.WriteString("Your selected stocks:\n")
	for _, s := range selected {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ScanReport is the archived form of a scan run
type ScanReport struct {
	RunID        string           `json:"run_id"`
	CreatedAt    time.Time        `json:"created_at"`
	Start        string           `json:"start"`
	End          string           `json:"end"`
	Window       int              `json:"window"`
	Threshold    float64          `json:"threshold"`
	Rows         []scanner.Row    `json:"rows"`
	Distribution []scanner.Bucket `json:"distribution"`
	Selected     []string         `json:"selected"`
}

// JSON encodes the report as indented JSON
func (r ScanReport) JSON() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding scan report: %w", err)
	}
	return pretty.Pretty(data), nil
}

type tradeRecord struct {
	Date   string `csv:"Date"`
	Action string `csv:"Action"`
	Price  string `csv:"Price"`
	Profit string `csv:"Profit"`
}

// TradesCSV renders a backtest trade log as CSV
func TradesCSV(r *backtest.Result) ([]byte, error) {
	records := make([]*tradeRecord, 0, len(r.Trades))
	for _, t := range r.Trades {
		records = append(records, &tradeRecord{
			Date:   t.Time.Format(core.DateLayout),
			Action: t.Action.Label(),
			Price:  decimal.NewFromFloat(t.Price).StringFixed(2),
			Profit: decimal.NewFromFloat(t.Profit).StringFixed(2),
		})
	}

	var buf bytes.Buffer
	if err := gocsv.Marshal(records, &buf); err != nil {
		return nil, fmt.Errorf("encoding trades: %w", err)
	}
	return buf.Bytes(), nil
}
