package main

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/daily-pulse/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var mockSources = []models.HeadlineSource{
	{Name: "Bloomberg", URL: "https://bloomberg.com"},
	{Name: "Reuters", URL: "https://reuters.com"},
	{Name: "CNBC", URL: "https://cnbc.com"},
	{Name: "MarketWatch", URL: "https://marketwatch.com"},
	{Name: "Wall Street Journal", URL: "https://wsj.com"},
}

var mockDescriptions = []string{
	"Market analysts weigh in on today's trading activity and economic data.",
	"Latest financial news and market insights from top analysts.",
	"Breaking news affecting stock market performance today.",
	"Economic indicators show signs of market momentum.",
	"Investment professionals discuss market outlook and opportunities.",
}

// mockPulses builds one pulse per day for the trailing window, oldest first.
func mockPulses(now time.Time, days int, rnd *rand.Rand) []models.Pulse {
	today := models.TruncateDay(now)
	pulses := make([]models.Pulse, 0, days)

	for i := days - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i)

		status := models.StatusBad
		if rnd.Float64() > 0.5 {
			status = models.StatusGood
		}
		score := roundTo(rnd.Float64()*10, 1)
		sp500 := roundTo(4000+rnd.Float64()*1000, 2)

		pulses = append(pulses, models.Pulse{
			Date:        date,
			Status:      status,
			Score:       &score,
			Headlines:   datatypes.NewJSONType(mockHeadlines(status, 3+rnd.Intn(2))),
			Rationale:   fmt.Sprintf("Mock rationale: The market pulse for %s is %s with a score of %.1f. This is based on simulated economic indicators and news sentiment analysis.", date.Format("Mon Jan 02 2006"), status, score),
			MarketIndex: &sp500,
		})
	}
	return pulses
}

func mockHeadlines(status models.Status, n int) []models.Headline {
	confidence := "falling"
	if status == models.StatusGood {
		confidence = "rising"
	}
	titles := []string{
		fmt.Sprintf("Market shows %s sentiment", strings.ToLower(string(status))),
		fmt.Sprintf("Economic indicators point to %s conditions", status),
		fmt.Sprintf("Investor confidence %s", confidence),
		"Global events impact market pulse",
		fmt.Sprintf("Technical analysis suggests %s outlook", status),
	}

	headlines := make([]models.Headline, 0, n)
	for j := 0; j < n; j++ {
		source := mockSources[j%len(mockSources)]
		headlines = append(headlines, models.Headline{
			Title:       titles[j%len(titles)],
			Description: mockDescriptions[j%len(mockDescriptions)],
			URL:         source.URL,
			Source:      source,
		})
	}
	return headlines
}

func roundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
