package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/newthinker/smaprob/internal/notifier"
	"github.com/newthinker/smaprob/internal/report"
	"github.com/newthinker/smaprob/internal/scanner"
)

func TestTelegram_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Telegram)(nil)
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("", "chat"); err == nil {
		t.Error("expected error for missing bot_token")
	}
	if _, err := New("token", ""); err == nil {
		t.Error("expected error for missing chat_id")
	}
}

func TestFormatReport(t *testing.T) {
	rep := report.ScanReport{
		Start:     "2024-01-02",
		End:       "2024-06-30",
		Window:    10,
		Threshold: 60,
		Rows: []scanner.Row{
			{Symbol: "AAPL", WinProbability: 75},
			{Symbol: "MSFT", WinProbability: 40},
		},
		Selected: []string{"AAPL"},
	}

	msg := formatReport(rep)
	if !strings.Contains(msg, "2024-01-02 to 2024-06-30") {
		t.Errorf("missing period: %s", msg)
	}
	if !strings.Contains(msg, "threshold 60.00%, 2 symbols") {
		t.Errorf("missing summary: %s", msg)
	}
	if !strings.Contains(msg, "AAPL  75.00%") {
		t.Errorf("missing selection: %s", msg)
	}
	if strings.Contains(msg, "MSFT") {
		t.Errorf("unselected symbol listed: %s", msg)
	}
}

func TestFormatReport_NoneSelected(t *testing.T) {
	msg := formatReport(report.ScanReport{})
	if !strings.HasSuffix(msg, "No symbols at or above the threshold.") {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestTelegram_Notify(t *testing.T) {
	var path string
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tg, _ := New("123:abc", "42")
	tg.baseURL = server.URL

	if err := tg.Notify(context.Background(), report.ScanReport{Selected: []string{"AAPL"}}); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if path != "/bot123:abc/sendMessage" {
		t.Errorf("unexpected path %s", path)
	}
	if payload["chat_id"] != "42" || payload["parse_mode"] != "Markdown" {
		t.Errorf("unexpected payload %v", payload)
	}
}

func TestTelegram_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer server.Close()

	tg, _ := New("bad", "42")
	tg.baseURL = server.URL

	if err := tg.Notify(context.Background(), report.ScanReport{}); err == nil {
		t.Error("expected error for 401")
	}
}
