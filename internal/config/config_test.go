package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pulse")
	t.Setenv("NEWS_API_KEY", ` "news-key" `)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.News.NewsAPIKey != "news-key" {
		t.Fatalf("expected sanitized news key, got %q", cfg.News.NewsAPIKey)
	}
	if cfg.Market.Symbol != "SPY" {
		t.Fatalf("expected default symbol SPY, got %q", cfg.Market.Symbol)
	}
	if cfg.Market.Precision != 2 {
		t.Fatalf("expected default precision 2, got %d", cfg.Market.Precision)
	}
	if cfg.Jobs.DailyAt != "23:50" {
		t.Fatalf("expected default schedule 23:50, got %q", cfg.Jobs.DailyAt)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is empty")
	}
}

func TestLoadRejectsBadSchedule(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pulse")
	t.Setenv("PULSE_DAILY_AT", "25:00")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range hour")
	}
}

func TestParseDailyAt(t *testing.T) {
	tests := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{in: "23:50", hour: 23, minute: 50},
		{in: " 07:05 ", hour: 7, minute: 5},
		{in: "2350", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "ab:10", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			hour, minute, err := ParseDailyAt(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if hour != tt.hour || minute != tt.minute {
				t.Fatalf("got %02d:%02d, want %02d:%02d", hour, minute, tt.hour, tt.minute)
			}
		})
	}
}
