/**
 * @description
 * Pulse Store.
 * Persists one pulse per UTC date in Postgres. The unique index on date plus
 * ON CONFLICT keeps concurrent writers for one date to a single row.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/jackc/pgx/v5/pgconn
 */

package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/daily-pulse/backend/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxWriteRetries = 5

type PulseStore struct {
	DB *gorm.DB
}

func NewPulseStore(db *gorm.DB) *PulseStore {
	return &PulseStore{DB: db}
}

// FindByDate returns the pulse for date's UTC day, or nil when none exists.
func (s *PulseStore) FindByDate(ctx context.Context, date time.Time) (*models.Pulse, error) {
	var pulse models.Pulse
	err := s.DB.WithContext(ctx).Where("date = ?", models.TruncateDay(date)).First(&pulse).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pulse, nil
}

// Upsert writes p keyed by its date. On conflict every non-key column is
// replaced. The persisted row is returned.
func (s *PulseStore) Upsert(ctx context.Context, p *models.Pulse) (*models.Pulse, error) {
	p.Date = models.TruncateDay(p.Date)

	err := withWriteRetry(ctx, func() error {
		return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status",
				"score",
				"headlines",
				"rationale",
				"sp500",
				"updated_at",
			}),
		}).Create(p).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert pulse: %w", err)
	}

	return s.FindByDate(ctx, p.Date)
}

// InsertIfAbsent writes p only when no pulse exists for its date.
// It reports whether a row was created.
func (s *PulseStore) InsertIfAbsent(ctx context.Context, p *models.Pulse) (bool, error) {
	p.Date = models.TruncateDay(p.Date)

	var created bool
	err := withWriteRetry(ctx, func() error {
		res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoNothing: true,
		}).Create(p)
		created = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to insert pulse: %w", err)
	}
	return created, nil
}

// UpdateMarketIndex sets only the sp500 column of an existing pulse.
func (s *PulseStore) UpdateMarketIndex(ctx context.Context, date time.Time, value float64) (*models.Pulse, error) {
	day := models.TruncateDay(date)

	var affected int64
	err := withWriteRetry(ctx, func() error {
		res := s.DB.WithContext(ctx).Model(&models.Pulse{}).Where("date = ?", day).Update("sp500", value)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update market index: %w", err)
	}
	if affected == 0 {
		return nil, ErrPulseNotFound
	}

	return s.FindByDate(ctx, day)
}

// FindRange returns summaries ordered by date ascending. Nil bounds are open.
func (s *PulseStore) FindRange(ctx context.Context, start, end *time.Time) ([]models.PulseSummary, error) {
	query := s.DB.WithContext(ctx).Model(&models.Pulse{}).Select("date", "status", "score", "sp500")
	if start != nil {
		query = query.Where("date >= ?", models.TruncateDay(*start))
	}
	if end != nil {
		query = query.Where("date <= ?", models.TruncateDay(*end))
	}

	summaries := make([]models.PulseSummary, 0)
	if err := query.Order("date ASC").Scan(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

// FindSince returns full records on or after since, ordered by date ascending.
func (s *PulseStore) FindSince(ctx context.Context, since time.Time) ([]models.Pulse, error) {
	pulses := make([]models.Pulse, 0)
	err := s.DB.WithContext(ctx).
		Where("date >= ?", models.TruncateDay(since)).
		Order("date ASC").
		Find(&pulses).Error
	if err != nil {
		return nil, err
	}
	return pulses, nil
}

// Count returns the number of stored pulses
func (s *PulseStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Pulse{}).Count(&n).Error
	return n, err
}

// withWriteRetry retries serialization failures and deadlocks with jittered
// backoff. It gives up early once ctx is done.
func withWriteRetry(ctx context.Context, write func() error) error {
	var err error
	for attempt := 1; attempt <= maxWriteRetries; attempt++ {
		err = write()
		if err == nil || !isRetryableWriteError(err) || attempt == maxWriteRetries {
			return err
		}
		backoff := time.Duration(attempt*100+rand.Intn(100)) * time.Millisecond
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(backoff):
		}
	}
	return err
}

func isRetryableWriteError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40P01" || pgErr.Code == "40001"
	}
	return false
}
