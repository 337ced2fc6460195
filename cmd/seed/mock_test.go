package main

import (
	"math/rand"
	"testing"
	"time"

	"github.com/daily-pulse/backend/internal/models"
)

func TestMockPulses(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	pulses := mockPulses(now, 60, rand.New(rand.NewSource(1)))

	if len(pulses) != 60 {
		t.Fatalf("expected 60 pulses, got %d", len(pulses))
	}
	if got := pulses[59].Date.Format(models.DateLayout); got != "2024-05-10" {
		t.Fatalf("expected the window to end today, got %s", got)
	}
	if got := pulses[0].Date.Format(models.DateLayout); got != "2024-03-12" {
		t.Fatalf("expected the window to start 59 days back, got %s", got)
	}

	for i, p := range pulses {
		if p.Status != models.StatusGood && p.Status != models.StatusBad {
			t.Fatalf("pulse %d has status %q", i, p.Status)
		}
		if *p.Score < 0 || *p.Score > 10 {
			t.Fatalf("pulse %d score out of range: %v", i, *p.Score)
		}
		if *p.MarketIndex < 4000 || *p.MarketIndex > 5000 {
			t.Fatalf("pulse %d sp500 out of range: %v", i, *p.MarketIndex)
		}
		if n := len(p.HeadlineList()); n < 3 || n > 4 {
			t.Fatalf("pulse %d has %d headlines", i, n)
		}
		if i > 0 && !p.Date.After(pulses[i-1].Date) {
			t.Fatalf("pulses not in ascending date order at %d", i)
		}
	}
}
