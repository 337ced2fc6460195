/**
 * @description
 * Chat Completions client for the verdict model.
 * Gemini's OpenAI-compatible endpoint is the default; OpenRouter and OpenAI
 * accept the same request.
 *
 * @dependencies
 * - backend/internal/config
 */

package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/daily-pulse/backend/internal/config"
	"github.com/daily-pulse/backend/internal/logger"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions"
	DefaultModel   = "gemini-flash-lite-latest"

	verdictTemperature = 0.2
	verdictMaxTokens   = 2048
	requestTimeout     = 120 * time.Second
	logBodyLimit       = 1000
)

// ErrMissingAPIKey is returned before any request is made without a key
var ErrMissingAPIKey = errors.New("model api key is not configured")

// APIError is a non-200 answer from the model endpoint
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("model api returned status %d", e.StatusCode)
}

type Client struct {
	apiKey   string
	endpoint string
	model    string
	http     *http.Client
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type ChatResponse struct {
	Choices []Choice `json:"choices"`
	Usage   struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func NewClient(cfg config.ModelConfig) *Client {
	c := &Client{
		apiKey:   cfg.APIKey,
		endpoint: strings.TrimSpace(cfg.BaseURL),
		model:    strings.TrimSpace(cfg.Model),
		http:     &http.Client{Timeout: requestTimeout},
	}
	if c.endpoint == "" {
		c.endpoint = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	return c
}

// Configured reports whether a credential is present
func (c *Client) Configured() bool { return c.apiKey != "" }

// Model names the model sent with every request
func (c *Client) Model() string { return c.model }

// Complete asks for one completion and returns the first choice's text.
// No JSON mode is requested; the caller extracts the verdict itself.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !c.Configured() {
		return "", ErrMissingAPIKey
	}
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return "", errors.New("user prompt is required")
	}

	raw, err := c.post(ctx, ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: strings.TrimSpace(systemPrompt)},
			{Role: "user", Content: userPrompt},
		},
		Temperature: verdictTemperature,
		MaxTokens:   verdictMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return firstChoice(raw)
}

func (c *Client) post(ctx context.Context, payload ChatRequest) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("model response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: clip(string(raw))}
		logger.Error("Model API error: %d - %s", apiErr.StatusCode, apiErr.Body)
		return nil, apiErr
	}
	return raw, nil
}

func firstChoice(raw []byte) (string, error) {
	var result ChatResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		logger.Error("Failed to decode model response: %v | raw: %s", err, clip(string(raw)))
		return "", fmt.Errorf("model response decode failed: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("no choices returned from model")
	}

	choice := result.Choices[0]
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return "", fmt.Errorf("model response missing content (finish_reason: %s)", choice.FinishReason)
	}
	logger.Info("Model verdict received (%d tokens)", result.Usage.TotalTokens)
	return content, nil
}

func clip(s string) string {
	runes := []rune(s)
	if len(runes) <= logBodyLimit {
		return s
	}
	return string(runes[:logBodyLimit]) + "...(truncated)"
}
