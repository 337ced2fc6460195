/**
 * @description
 * Client for the GNews search API.
 * Serves historical headlines restricted to a time window.
 *
 * @dependencies
 * - net/http
 * - encoding/json
 * - backend/internal/config
 */

package gnews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/daily-pulse/backend/internal/config"
	"github.com/daily-pulse/backend/internal/logger"
)

const (
	DefaultBaseURL = "https://gnews.io"
	requestTimeout = 15 * time.Second
)

// ErrMissingAPIKey is returned before any request is made without a key
var ErrMissingAPIKey = errors.New("gnews api key is not configured")

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// SearchParams holds the query for /api/v4/search.
// From and To are sent as RFC3339 UTC instants.
type SearchParams struct {
	Query    string
	From     time.Time
	To       time.Time
	Language string
	Max      int
	SortBy   string // "relevance" or "publishedAt"
}

type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	PublishedAt string `json:"publishedAt"`
	Source      Source `json:"source"`
}

type searchResponse struct {
	TotalArticles int       `json:"totalArticles"`
	Articles      []Article `json:"articles"`
}

func NewClient(cfg config.NewsConfig) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.GNewsBaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  cfg.HistoricalNewsAPIKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Configured reports whether a credential is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Search performs a query against the GNews search endpoint.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]Article, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	query := strings.TrimSpace(params.Query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	u, err := url.Parse(fmt.Sprintf("%s/api/v4/search", c.baseURL))
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("q", query)
	q.Set("token", c.apiKey)
	if !params.From.IsZero() {
		q.Set("from", params.From.UTC().Format(time.RFC3339))
	}
	if !params.To.IsZero() {
		q.Set("to", params.To.UTC().Format(time.RFC3339))
	}
	if params.Language != "" {
		q.Set("lang", params.Language)
	}
	if params.Max > 0 {
		q.Set("max", strconv.Itoa(params.Max))
	}
	if params.SortBy != "" {
		q.Set("sortby", params.SortBy)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gnews request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Error("GNews API error: %d - %s", resp.StatusCode, string(respBody))
		return nil, fmt.Errorf("gnews api returned status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode gnews response: %w", err)
	}

	if result.Articles == nil {
		return []Article{}, nil
	}
	return result.Articles, nil
}
