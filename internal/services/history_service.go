/**
 * @description
 * History Service.
 * Read side of the dashboard: date-range history, trailing windows, single-day
 * details and Good/Bad metrics. Metrics are cached in Redis and dropped on
 * every pulse write.
 *
 * @dependencies
 * - backend/internal/services (PulseStore)
 * - github.com/redis/go-redis/v9
 * - github.com/shopspring/decimal
 */

package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/daily-pulse/backend/internal/logger"
	"github.com/daily-pulse/backend/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	CacheKeyMetrics = "pulse:metrics"
	MetricsCacheTTL = 5 * time.Minute
)

// WindowMetrics summarises the pulses of one trailing window
type WindowMetrics struct {
	Steady       int     `json:"steady"`
	Distressed   int     `json:"distressed"`
	Percentage   int     `json:"percentage"`
	AverageScore float64 `json:"averageScore"`
}

type Metrics struct {
	Last7  WindowMetrics `json:"last7"`
	Last30 WindowMetrics `json:"last30"`
}

type HistoryService struct {
	Store *PulseStore
	Redis *redis.Client

	now func() time.Time
}

func NewHistoryService(store *PulseStore, rdb *redis.Client) *HistoryService {
	return &HistoryService{
		Store: store,
		Redis: rdb,
		now:   time.Now,
	}
}

// History returns summaries between the optional bounds, ascending.
func (s *HistoryService) History(ctx context.Context, start, end *time.Time) ([]models.PulseSummary, error) {
	return s.Store.FindRange(ctx, start, end)
}

// LastDays returns full records of the trailing n days including today.
func (s *HistoryService) LastDays(ctx context.Context, n int) ([]models.Pulse, error) {
	return s.Store.FindSince(ctx, s.windowStart(n))
}

// Details returns the full record for date or ErrPulseNotFound.
func (s *HistoryService) Details(ctx context.Context, date time.Time) (*models.Pulse, error) {
	pulse, err := s.Store.FindByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if pulse == nil {
		return nil, ErrPulseNotFound
	}
	return pulse, nil
}

// Metrics returns the 7 and 30 day summaries, preferring Cache -> DB
func (s *HistoryService) Metrics(ctx context.Context) (*Metrics, error) {
	if s.Redis != nil {
		val, err := s.Redis.Get(ctx, CacheKeyMetrics).Result()
		if err == nil {
			var cached Metrics
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	var last7, last30 []models.Pulse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		last7, err = s.Store.FindSince(gctx, s.windowStart(7))
		return err
	})
	g.Go(func() error {
		var err error
		last30, err = s.Store.FindSince(gctx, s.windowStart(30))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics := &Metrics{
		Last7:  ComputeWindowMetrics(last7),
		Last30: ComputeWindowMetrics(last30),
	}

	if s.Redis != nil {
		data, err := json.Marshal(metrics)
		if err != nil {
			logger.Warn("Failed to marshal metrics for cache: %v", err)
		} else if err := s.Redis.Set(ctx, CacheKeyMetrics, data, MetricsCacheTTL).Err(); err != nil {
			logger.Warn("Failed to set metrics cache: %v", err)
		}
	}

	return metrics, nil
}

// OnPulseChanged drops cached metrics after any write
func (s *HistoryService) OnPulseChanged(ctx context.Context, _ PulseEvent) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, CacheKeyMetrics).Err(); err != nil {
		logger.Warn("Failed to invalidate metrics cache: %v", err)
	}
}

func (s *HistoryService) windowStart(days int) time.Time {
	return models.TruncateDay(s.now()).AddDate(0, 0, -(days - 1))
}

// ComputeWindowMetrics counts Good as steady and Bad as distressed.
// averageScore is the mean of the pulses that carry a score, to one decimal.
func ComputeWindowMetrics(pulses []models.Pulse) WindowMetrics {
	var m WindowMetrics
	sum := decimal.Zero
	scored := 0

	for _, p := range pulses {
		switch p.Status {
		case models.StatusGood:
			m.Steady++
		case models.StatusBad:
			m.Distressed++
		}
		if p.Score != nil {
			sum = sum.Add(decimal.NewFromFloat(*p.Score))
			scored++
		}
	}

	if len(pulses) > 0 {
		pct := decimal.NewFromInt(int64(m.Steady)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(len(pulses)))).
			Round(0)
		m.Percentage = int(pct.IntPart())
	}
	if scored > 0 {
		m.AverageScore, _ = sum.Div(decimal.NewFromInt(int64(scored))).Round(1).Float64()
	}

	return m
}
