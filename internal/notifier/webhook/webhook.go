// Package webhook implements an HTTP webhook notifier
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/smaprob/internal/report"
	"github.com/newthinker/smaprob/internal/scanner"
)

// Webhook posts a JSON scan summary to a URL
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// New creates a new Webhook notifier
func New(url string, headers map[string]string) (*Webhook, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook: url is required")
	}
	return &Webhook{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (w *Webhook) Name() string { return "webhook" }

// payload is the body posted for each scan
type payload struct {
	Type      string           `json:"type"`
	RunID     string           `json:"run_id"`
	Start     string           `json:"start"`
	End       string           `json:"end"`
	Window    int              `json:"window"`
	Threshold float64          `json:"threshold"`
	Counts    map[string]int   `json:"counts"`
	Selected  []string         `json:"selected"`
	Rows      []scanner.Row    `json:"rows,omitempty"`
	Generated string           `json:"generated_at"`
	Buckets   []scanner.Bucket `json:"distribution,omitempty"`
}

func toPayload(rep report.ScanReport) payload {
	counts := map[string]int{}
	for _, r := range rep.Rows {
		counts[string(r.Status)]++
	}
	return payload{
		Type:      "scan",
		RunID:     rep.RunID,
		Start:     rep.Start,
		End:       rep.End,
		Window:    rep.Window,
		Threshold: rep.Threshold,
		Counts:    counts,
		Selected:  rep.Selected,
		Rows:      rep.Rows,
		Generated: rep.CreatedAt.Format(time.RFC3339),
		Buckets:   rep.Distribution,
	}
}

func (w *Webhook) Notify(ctx context.Context, rep report.ScanReport) error {
	body, err := json.Marshal(toPayload(rep))
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: server returned %d", resp.StatusCode)
	}

	return nil
}
