package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/daily-pulse/backend/internal/config"
	"github.com/daily-pulse/backend/internal/integrations/gnews"
	"github.com/daily-pulse/backend/internal/integrations/newsapi"
)

func newsServer(t *testing.T, hits *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits = append(*hits, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v2/top-headlines":
			_, _ = w.Write([]byte(`{"status":"ok","articles":[
				{"source":{"id":"bbc","name":"BBC"},"title":"Today A","description":"desc A","url":"https://a"},
				{"source":{"id":null,"name":"CNN"},"title":"Today B","description":"desc B","url":"https://b"}
			]}`))
		case "/api/v4/search":
			if r.URL.Query().Get("q") != historicalQuery {
				t.Errorf("unexpected historical query %q", r.URL.Query().Get("q"))
			}
			_, _ = w.Write([]byte(`{"articles":[
				{"title":"Past A","description":"old","url":"https://old","source":{"name":"AP","url":"https://apnews.com"}}
			]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestNewsService(baseURL string, now time.Time, cfg config.NewsConfig) *NewsService {
	cfg.NewsAPIBaseURL = baseURL
	cfg.GNewsBaseURL = baseURL
	s := NewNewsService(newsapi.NewClient(cfg), gnews.NewClient(cfg))
	s.now = func() time.Time { return now }
	return s
}

func TestFetchHeadlinesToday(t *testing.T) {
	var hits []string
	srv := newsServer(t, &hits)
	now := time.Date(2024, 5, 1, 23, 50, 0, 0, time.UTC)
	s := newTestNewsService(srv.URL, now, config.NewsConfig{NewsAPIKey: "n", HistoricalNewsAPIKey: "g"})

	headlines, err := s.FetchHeadlines(context.Background(), time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchHeadlines() error = %v", err)
	}

	if len(hits) != 1 || hits[0] != "/v2/top-headlines" {
		t.Fatalf("expected top-headlines call only, got %v", hits)
	}
	if len(headlines) != 2 || headlines[0].Title != "Today A" || headlines[1].Source.Name != "CNN" {
		t.Fatalf("unexpected headlines: %+v", headlines)
	}
}

func TestFetchHeadlinesHistorical(t *testing.T) {
	var hits []string
	srv := newsServer(t, &hits)
	now := time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC)
	s := newTestNewsService(srv.URL, now, config.NewsConfig{HistoricalNewsAPIKey: "g"})

	headlines, err := s.FetchHeadlines(context.Background(), time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchHeadlines() error = %v", err)
	}

	if len(hits) != 1 || hits[0] != "/api/v4/search" {
		t.Fatalf("expected search call only, got %v", hits)
	}
	want := "https://apnews.com"
	if len(headlines) != 1 || headlines[0].Source.URL != want || headlines[0].Description != "old" {
		t.Fatalf("unexpected headlines: %+v", headlines)
	}
}

func TestFetchHeadlinesMissingKeys(t *testing.T) {
	now := time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC)
	s := newTestNewsService("http://127.0.0.1:1", now, config.NewsConfig{})

	if _, err := s.FetchHeadlines(context.Background(), now); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("today without NEWS_API_KEY: expected ErrConfiguration, got %v", err)
	}
	if _, err := s.FetchHeadlines(context.Background(), now.AddDate(0, 0, -1)); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("past without GNEWS_API_KEY: expected ErrConfiguration, got %v", err)
	}
}

func TestFetchHeadlinesUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	now := time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC)
	s := newTestNewsService(srv.URL, now, config.NewsConfig{NewsAPIKey: "n", HistoricalNewsAPIKey: "g"})

	for _, day := range []time.Time{now, now.AddDate(0, 0, -2)} {
		_, err := s.FetchHeadlines(context.Background(), day)
		if !errors.Is(err, ErrUpstream) {
			t.Fatalf("expected ErrUpstream for %v, got %v", day, err)
		}
	}
}
