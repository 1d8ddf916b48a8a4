package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/smaprob/internal/report"
)

const defaultBaseURL = "https://api.telegram.org"

// maxListed caps the symbols listed in one message.
const maxListed = 50

// Telegram sends scan selections through the Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) (*Telegram, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram: bot_token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("telegram: chat_id is required")
	}
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Notify(ctx context.Context, rep report.ScanReport) error {
	return t.sendMessage(ctx, formatReport(rep))
}

func formatReport(rep report.ScanReport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📊 *SMA crossover scan* %s to %s\n", rep.Start, rep.End))
	sb.WriteString(fmt.Sprintf("Window %d, threshold %s, %d symbols\n\n",
		rep.Window, report.Percent(rep.Threshold), len(rep.Rows)))

	if len(rep.Selected) == 0 {
		sb.WriteString("No symbols at or above the threshold.")
		return sb.String()
	}

	probs := make(map[string]float64, len(rep.Rows))
	for _, r := range rep.Rows {
		probs[r.Symbol] = r.WinProbability
	}

	sb.WriteString(fmt.Sprintf("📈 *%d selected*\n", len(rep.Selected)))
	for i, s := range rep.Selected {
		if i == maxListed {
			sb.WriteString(fmt.Sprintf("… and %d more", len(rep.Selected)-maxListed))
			break
		}
		sb.WriteString(fmt.Sprintf("%s  %s\n", s, report.Percent(probs[s])))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result)
	}

	return nil
}
