/**
 * @description
 * Market Data Service.
 * Resolves the closing value of the market-index proxy for a date.
 * The full daily series is cached in Redis so a backfill over many dates costs
 * one provider call. Weekends and holidays resolve to the latest earlier close.
 *
 * @dependencies
 * - backend/internal/integrations/alphavantage
 * - github.com/redis/go-redis/v9
 * - github.com/shopspring/decimal
 */

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/daily-pulse/backend/internal/integrations/alphavantage"
	"github.com/daily-pulse/backend/internal/logger"
	"github.com/daily-pulse/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	CacheKeyMarketSeries = "market:series:%s"
	MarketSeriesTTL      = 6 * time.Hour
)

// closeSeries maps YYYY-MM-DD to the closing value of that trading day
type closeSeries map[string]float64

type MarketDataService struct {
	Client    *alphavantage.Client
	Redis     *redis.Client
	Symbol    string
	Precision int32
}

func NewMarketDataService(client *alphavantage.Client, rdb *redis.Client, symbol string, precision int32) *MarketDataService {
	if symbol == "" {
		symbol = "SPY"
	}
	return &MarketDataService{
		Client:    client,
		Redis:     rdb,
		Symbol:    symbol,
		Precision: precision,
	}
}

// FetchIndexValue returns the close for date, or the latest close before it.
// Every failure is logged and reported as nil; a pulse never fails on market data.
func (s *MarketDataService) FetchIndexValue(ctx context.Context, date time.Time) *float64 {
	if s.Client == nil || !s.Client.Configured() {
		logger.Warn("ALPHA_VANTAGE_API_KEY not configured; skipping market data")
		return nil
	}

	day := models.TruncateDay(date)
	dayKey := day.Format(models.DateLayout)

	series := s.cachedSeries(ctx)
	if series == nil || series.newest() < dayKey {
		fresh, err := s.Client.DailySeries(ctx, s.Symbol)
		if err != nil {
			logger.Error("Error fetching market data for %s: %v", dayKey, err)
		} else {
			series = make(closeSeries, len(fresh))
			for key, bar := range fresh {
				series[key] = bar.Close
			}
			s.storeSeries(ctx, series)
		}
	}
	if len(series) == 0 {
		return nil
	}

	usedKey, value, ok := series.onOrBefore(dayKey)
	if !ok {
		logger.Warn("No market data available on or before %s", dayKey)
		return nil
	}
	if usedKey != dayKey {
		logger.Info("Using market data from %s for %s", usedKey, dayKey)
	}

	rounded, _ := decimal.NewFromFloat(value).Round(s.Precision).Float64()
	return &rounded
}

func (s *MarketDataService) cacheKey() string {
	return fmt.Sprintf(CacheKeyMarketSeries, s.Symbol)
}

func (s *MarketDataService) cachedSeries(ctx context.Context) closeSeries {
	if s.Redis == nil {
		return nil
	}
	val, err := s.Redis.Get(ctx, s.cacheKey()).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Failed to read market series cache: %v", err)
		}
		return nil
	}
	var series closeSeries
	if err := json.Unmarshal([]byte(val), &series); err != nil {
		return nil
	}
	return series
}

func (s *MarketDataService) storeSeries(ctx context.Context, series closeSeries) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(series)
	if err != nil {
		logger.Warn("Failed to marshal market series for cache: %v", err)
		return
	}
	if err := s.Redis.Set(ctx, s.cacheKey(), data, MarketSeriesTTL).Err(); err != nil {
		logger.Warn("Failed to set market series cache: %v", err)
	}
}

// newest returns the latest date key; YYYY-MM-DD orders lexically.
func (c closeSeries) newest() string {
	var latest string
	for key := range c {
		if key > latest {
			latest = key
		}
	}
	return latest
}

func (c closeSeries) onOrBefore(dayKey string) (string, float64, bool) {
	if v, ok := c[dayKey]; ok {
		return dayKey, v, true
	}
	var best string
	for key := range c {
		if key <= dayKey && key > best {
			best = key
		}
	}
	if best == "" {
		return "", 0, false
	}
	return best, c[best], true
}
