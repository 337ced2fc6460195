package newsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/daily-pulse/backend/internal/config"
)

func TestTopHeadlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/top-headlines" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}
		q := r.URL.Query()
		if q.Get("language") != "en" || q.Get("category") != "general" || q.Get("pageSize") != "20" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"totalResults": 1,
			"articles": [{
				"source": {"id": "reuters", "name": "Reuters"},
				"title": "Vaccine rollout expands",
				"description": "Millions more eligible.",
				"url": "https://example.com/vaccine",
				"publishedAt": "2024-05-01T10:00:00Z"
			}]
		}`))
	}))
	defer srv.Close()

	client := NewClient(config.NewsConfig{NewsAPIKey: "test-key", NewsAPIBaseURL: srv.URL})

	articles, err := client.TopHeadlines(context.Background(), TopHeadlinesParams{
		Language: "en",
		Category: "general",
		PageSize: 20,
	})
	if err != nil {
		t.Fatalf("TopHeadlines() error = %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}

	a := articles[0]
	if a.Title != "Vaccine rollout expands" || a.Source.Name != "Reuters" || a.URL != "https://example.com/vaccine" {
		t.Fatalf("unexpected article: %+v", a)
	}
}

func TestTopHeadlinesMissingKey(t *testing.T) {
	client := NewClient(config.NewsConfig{})

	_, err := client.TopHeadlines(context.Background(), TopHeadlinesParams{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if client.Configured() {
		t.Fatal("client without key should not report configured")
	}
}

func TestTopHeadlinesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"bad key"}`))
	}))
	defer srv.Close()

	client := NewClient(config.NewsConfig{NewsAPIKey: "bad", NewsAPIBaseURL: srv.URL})

	if _, err := client.TopHeadlines(context.Background(), TopHeadlinesParams{}); err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestTopHeadlinesErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","code":"rateLimited","message":"slow down"}`))
	}))
	defer srv.Close()

	client := NewClient(config.NewsConfig{NewsAPIKey: "k", NewsAPIBaseURL: srv.URL})

	if _, err := client.TopHeadlines(context.Background(), TopHeadlinesParams{}); err == nil {
		t.Fatal("expected error for status=error body")
	}
}
