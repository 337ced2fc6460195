/**
 * @description
 * HTTP Client for the Alpha Vantage daily time series.
 * Supplies closing prices of the market-index proxy instrument.
 *
 * @dependencies
 * - net/http
 * - encoding/json
 * - backend/internal/config
 */

package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/daily-pulse/backend/internal/config"
)

const (
	DefaultBaseURL = "https://www.alphavantage.co"
	DefaultTimeout = 20 * time.Second
	dateLayout     = "2006-01-02"
)

var (
	// ErrMissingAPIKey is returned before any request is made without a key
	ErrMissingAPIKey = errors.New("alpha vantage api key is not configured")
	// ErrRateLimited is returned when the provider answers 200 with a Note/Information body
	ErrRateLimited = errors.New("alpha vantage rate limited")
)

type Client struct {
	apiKey     string
	baseURL    string
	HTTPClient *http.Client
}

// DailyBar is one day of the series
type DailyBar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

type dailyResponse struct {
	Series       map[string]rawBar `json:"Time Series (Daily)"`
	Note         string            `json:"Note"`
	Information  string            `json:"Information"`
	ErrorMessage string            `json:"Error Message"`
}

type rawBar struct {
	Open  string `json:"1. open"`
	High  string `json:"2. high"`
	Low   string `json:"3. low"`
	Close string `json:"4. close"`
}

func NewClient(cfg config.MarketConfig) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Configured reports whether a credential is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// DailySeries fetches TIME_SERIES_DAILY for symbol, keyed by YYYY-MM-DD.
func (c *Client) DailySeries(ctx context.Context, symbol string) (map[string]DailyBar, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	u, err := url.Parse(fmt.Sprintf("%s/query", c.baseURL))
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("function", "TIME_SERIES_DAILY")
	q.Set("symbol", symbol)
	q.Set("outputsize", "full")
	q.Set("apikey", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alpha vantage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alpha vantage api error: status %d", resp.StatusCode)
	}

	var raw dailyResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode alpha vantage response: %w", err)
	}

	if raw.ErrorMessage != "" {
		return nil, fmt.Errorf("alpha vantage error: %s", raw.ErrorMessage)
	}
	if len(raw.Series) == 0 && (raw.Note != "" || raw.Information != "") {
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, raw.Note+raw.Information)
	}

	series := make(map[string]DailyBar, len(raw.Series))
	for day, bar := range raw.Series {
		date, err := time.Parse(dateLayout, day)
		if err != nil {
			continue
		}
		closeValue, err := strconv.ParseFloat(bar.Close, 64)
		if err != nil {
			continue
		}
		series[day] = DailyBar{Date: date, Close: closeValue}
	}

	return series, nil
}
