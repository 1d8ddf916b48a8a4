package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/newthinker/smaprob/internal/collector"
	"github.com/newthinker/smaprob/internal/core"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	userAgent      = "Mozilla/5.0 (compatible; smaprob/1.0)"
)

// validSymbol matches stock symbols like AAPL, BRK.B, 600519.SH, 0700.HK
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9^]{1,10}([.\-][A-Za-z]{1,4})?$`)

// classShare matches share-class suffixes written with a dot (BRK.B).
var classShare = regexp.MustCompile(`^[A-Za-z]+\.[A-Za-z]$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo implements the Yahoo Finance chart collector
type Yahoo struct {
	client  *http.Client
	baseURL string
	config  collector.Config
}

// New creates a new Yahoo collector
func New() *Yahoo {
	return &Yahoo{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
	}
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

func (y *Yahoo) Init(cfg collector.Config) error {
	y.config = cfg
	if cfg.BaseURL != "" {
		y.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		y.client.Timeout = cfg.Timeout
	}
	return nil
}

// toYahooSymbol converts internal symbol format to Yahoo format
func (y *Yahoo) toYahooSymbol(symbol string) string {
	symbol = strings.ToUpper(symbol)
	// Shanghai stocks: 600519.SH -> 600519.SS
	if strings.HasSuffix(symbol, ".SH") {
		return strings.TrimSuffix(symbol, ".SH") + ".SS"
	}
	// Share classes: BRK.B -> BRK-B
	if classShare.MatchString(symbol) {
		return strings.Replace(symbol, ".", "-", 1)
	}
	return symbol
}

// FetchHistory fetches daily OHLCV bars between start and end inclusive
func (y *Yahoo) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.OHLCV, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, err)
	}
	yahooSymbol := y.toYahooSymbol(symbol)

	// period2 is exclusive on Yahoo's side.
	url := fmt.Sprintf("%s/%s?interval=1d&events=history&period1=%d&period2=%d",
		y.baseURL, yahooSymbol, core.CalendarDay(start).Unix(), core.CalendarDay(end).AddDate(0, 0, 1).Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := y.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("fetching history: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("unexpected status for %s: %d", symbol, resp.StatusCode))
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("decoding response: %w", err))
	}

	if result.Chart.Error != nil {
		return nil, core.WrapError(core.ErrDataUnavailable,
			fmt.Errorf("yahoo error: %s", result.Chart.Error.Description))
	}

	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("no data for symbol: %s", symbol))
	}

	data := y.toBars(symbol, result.Chart.Result[0])
	if len(data) == 0 {
		return nil, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("no bars for symbol: %s", symbol))
	}
	return data, nil
}

func (y *Yahoo) toBars(symbol string, r chartResult) []core.OHLCV {
	quotes := r.Indicators.Quote[0]
	var adjusted []*float64
	if y.config.Adjusted && len(r.Indicators.AdjClose) > 0 {
		adjusted = r.Indicators.AdjClose[0].AdjClose
	}

	data := make([]core.OHLCV, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		closePrice := at(quotes.Close, i)
		if adjusted != nil {
			closePrice = at(adjusted, i)
		}
		if closePrice == nil {
			continue // Skip missing data
		}
		bar := core.OHLCV{
			Symbol:   symbol,
			Interval: "1d",
			Close:    *closePrice,
			Time:     time.Unix(ts, 0).UTC(),
		}
		if v := at(quotes.Open, i); v != nil {
			bar.Open = *v
		}
		if v := at(quotes.High, i); v != nil {
			bar.High = *v
		}
		if v := at(quotes.Low, i); v != nil {
			bar.Low = *v
		}
		if i < len(quotes.Volume) && quotes.Volume[i] != nil {
			bar.Volume = *quotes.Volume[i]
		}
		data = append(data, bar)
	}
	return data
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
}

type indicators struct {
	Quote    []quoteIndicator `json:"quote"`
	AdjClose []struct {
		AdjClose []*float64 `json:"adjclose"`
	} `json:"adjclose"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}
