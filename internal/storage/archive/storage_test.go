// internal/storage/archive/storage_test.go
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/smaprob/internal/backtest"
	"github.com/newthinker/smaprob/internal/core"
	"github.com/newthinker/smaprob/internal/report"
	"github.com/newthinker/smaprob/internal/scanner"
)

func TestNew(t *testing.T) {
	s, err := New(Config{})
	if err != nil || s != nil {
		t.Errorf("empty type should disable archiving, got %v, %v", s, err)
	}

	s, err = New(Config{Type: "localfs", Path: t.TempDir()})
	if err != nil {
		t.Fatalf("localfs: %v", err)
	}
	if _, ok := s.(*LocalFS); !ok {
		t.Errorf("expected *LocalFS, got %T", s)
	}

	s, err = New(Config{Type: "s3", S3: S3Config{Bucket: "reports", Endpoint: "http://localhost:9000"}})
	if err != nil {
		t.Fatalf("s3: %v", err)
	}
	if _, ok := s.(*S3Storage); !ok {
		t.Errorf("expected *S3Storage, got %T", s)
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"localfs without path", Config{Type: "localfs"}, core.ErrConfigMissing},
		{"s3 without bucket", Config{Type: "s3"}, core.ErrConfigMissing},
		{"unknown type", Config{Type: "ftp"}, core.ErrConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	day := time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)

	if got := ScanPath(day, "abc"); got != "scans/2024-06-30/abc.json" {
		t.Errorf("ScanPath = %s", got)
	}
	if got := BacktestPath("spy", day); got != "backtests/SPY/2024-06-30.csv" {
		t.Errorf("BacktestPath = %s", got)
	}
	if got := BacktestPath("A/B", day); got != "backtests/A_B/2024-06-30.csv" {
		t.Errorf("BacktestPath = %s", got)
	}
}

func TestArchiver(t *testing.T) {
	store, _ := NewLocalFS(t.TempDir())
	a := NewArchiver(store, nil)
	ctx := context.Background()
	day := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	p, err := a.SaveScan(ctx, report.ScanReport{
		RunID:     "run-1",
		CreatedAt: day,
		Rows:      []scanner.Row{{Symbol: "AAPL", WinProbability: 75, Status: scanner.StatusOK}},
		Selected:  []string{"AAPL"},
	})
	if err != nil {
		t.Fatalf("SaveScan: %v", err)
	}
	if p != "scans/2024-06-30/run-1.json" {
		t.Errorf("unexpected path %s", p)
	}

	data, _ := store.Read(ctx, p)
	var decoded report.ScanReport
	if err := json.Unmarshal(data, &decoded); err != nil || decoded.RunID != "run-1" {
		t.Errorf("archived report not readable: %v", err)
	}

	scans, err := a.Scans(ctx, day)
	if err != nil || len(scans) != 1 {
		t.Errorf("Scans = %v, %v", scans, err)
	}

	r := &backtest.Result{
		Symbol: "SPY",
		Trades: []backtest.Trade{{Time: day, Action: core.ActionBuy, Price: 10}},
	}
	p, err = a.SaveBacktest(ctx, r, day)
	if err != nil {
		t.Fatalf("SaveBacktest: %v", err)
	}
	data, _ = store.Read(ctx, p)
	if !strings.HasPrefix(string(data), "Date,Action,Price,Profit") {
		t.Errorf("unexpected csv: %s", data)
	}
}
