package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/daily-pulse/backend/internal/config"
	"github.com/daily-pulse/backend/internal/integrations/alphavantage"
	"github.com/redis/go-redis/v9"
)

const seriesBody = `{
	"Meta Data": {"2. Symbol": "SPY"},
	"Time Series (Daily)": {
		"2024-05-03": {"1. open": "500.0", "4. close": "511.296"},
		"2024-05-01": {"1. open": "498.0", "4. close": "500.354"},
		"2024-04-30": {"1. open": "497.0", "4. close": "501.98"}
	}
}`

func marketServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.URL.Query().Get("function") != "TIME_SERIES_DAILY" {
			t.Errorf("unexpected function %q", r.URL.Query().Get("function"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(seriesBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func mustDay(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFetchIndexValueExactAndNearestPrior(t *testing.T) {
	var calls int32
	srv := marketServer(t, &calls)
	client := alphavantage.NewClient(config.MarketConfig{APIKey: "k", BaseURL: srv.URL})
	s := NewMarketDataService(client, newTestRedis(t), "SPY", 2)

	tests := []struct {
		date string
		want float64
	}{
		{date: "2024-05-01", want: 500.35},
		{date: "2024-05-02", want: 500.35},
		{date: "2024-05-03", want: 511.3},
		{date: "2024-05-05", want: 511.3},
	}
	for _, tt := range tests {
		got := s.FetchIndexValue(context.Background(), mustDay(tt.date))
		if got == nil || *got != tt.want {
			t.Fatalf("FetchIndexValue(%s) = %v, want %v", tt.date, got, tt.want)
		}
	}

	// 2024-05-05 is newer than the cached series, so only that lookup refetches
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 provider calls, got %d", calls)
	}
}

func TestFetchIndexValueNoPriorData(t *testing.T) {
	var calls int32
	srv := marketServer(t, &calls)
	client := alphavantage.NewClient(config.MarketConfig{APIKey: "k", BaseURL: srv.URL})
	s := NewMarketDataService(client, nil, "SPY", 2)

	if got := s.FetchIndexValue(context.Background(), mustDay("2020-01-01")); got != nil {
		t.Fatalf("expected nil before the series starts, got %v", *got)
	}
}

func TestFetchIndexValueAbsorbsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Note":"Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`))
	}))
	defer srv.Close()

	limited := NewMarketDataService(alphavantage.NewClient(config.MarketConfig{APIKey: "k", BaseURL: srv.URL}), nil, "SPY", 2)
	if got := limited.FetchIndexValue(context.Background(), mustDay("2024-05-01")); got != nil {
		t.Fatalf("expected nil when rate limited, got %v", *got)
	}

	unconfigured := NewMarketDataService(alphavantage.NewClient(config.MarketConfig{}), nil, "SPY", 2)
	if got := unconfigured.FetchIndexValue(context.Background(), mustDay("2024-05-01")); got != nil {
		t.Fatalf("expected nil without api key, got %v", *got)
	}
}

func TestFetchIndexValueServesStaleCacheOnFailure(t *testing.T) {
	var fail atomic.Bool
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(seriesBody))
	}))
	defer srv.Close()

	s := NewMarketDataService(alphavantage.NewClient(config.MarketConfig{APIKey: "k", BaseURL: srv.URL}), newTestRedis(t), "SPY", 2)
	if got := s.FetchIndexValue(context.Background(), mustDay("2024-05-03")); got == nil {
		t.Fatal("expected a value while the provider is healthy")
	}

	fail.Store(true)
	got := s.FetchIndexValue(context.Background(), mustDay("2024-05-06"))
	if got == nil || *got != 511.3 {
		t.Fatalf("expected cached 2024-05-03 close, got %v", got)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected one refresh attempt, got %d calls", calls)
	}
}
