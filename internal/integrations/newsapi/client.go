/**
 * @description
 * HTTP Client for the NewsAPI top-headlines endpoint.
 * Serves the current day's headlines (recency ranked, no date filter).
 *
 * @dependencies
 * - net/http
 * - encoding/json
 * - backend/internal/config
 */

package newsapi

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
	DefaultBaseURL = "https://newsapi.org"
	DefaultTimeout = 15 * time.Second
)

// ErrMissingAPIKey is returned before any request is made without a key
var ErrMissingAPIKey = errors.New("newsapi api key is not configured")

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// TopHeadlinesParams holds query parameters for /v2/top-headlines
type TopHeadlinesParams struct {
	Language string
	Category string
	PageSize int
}

type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Article struct {
	Source      Source `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
}

type topHeadlinesResponse struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
}

func NewClient(cfg config.NewsConfig) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.NewsAPIBaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  cfg.NewsAPIKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Configured reports whether a credential is present
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// TopHeadlines fetches the current top headlines
func (c *Client) TopHeadlines(ctx context.Context, params TopHeadlinesParams) ([]Article, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	u, err := url.Parse(fmt.Sprintf("%s/v2/top-headlines", c.baseURL))
	if err != nil {
		return nil, err
	}

	q := u.Query()
	if params.Language != "" {
		q.Set("language", params.Language)
	}
	if params.Category != "" {
		q.Set("category", params.Category)
	}
	if params.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(params.PageSize))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Error("NewsAPI error: %d - %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("newsapi returned status %d", resp.StatusCode)
	}

	var result topHeadlinesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode newsapi response: %w", err)
	}

	if result.Status == "error" {
		return nil, fmt.Errorf("newsapi error %s: %s", result.Code, result.Message)
	}

	return result.Articles, nil
}
