/**
 * @description
 * Pulse Service.
 * Runs the daily check for one UTC date:
 * 1. Return the stored verdict if the date already has one (filling a missing
 *    market value on the way)
 * 2. Fetch headlines and the market value concurrently
 * 3. Classify the headlines
 * 4. Persist and notify listeners
 *
 * @dependencies
 * - backend/internal/services (NewsService, MarketDataService, ClassifierService, PulseStore)
 * - golang.org/x/sync/errgroup
 * - backend/internal/trace
 */

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daily-pulse/backend/internal/logger"
	"github.com/daily-pulse/backend/internal/models"
	"github.com/daily-pulse/backend/internal/trace"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const MessageEntryExists = "Entry already exists"

var errNoHeadlines = errors.New("no headlines returned")

type HeadlineFetcher interface {
	FetchHeadlines(ctx context.Context, date time.Time) ([]models.Headline, error)
}

type IndexFetcher interface {
	FetchIndexValue(ctx context.Context, date time.Time) *float64
}

type PulseClassifier interface {
	Classify(ctx context.Context, headlines []models.Headline) (*Verdict, error)
}

type PulseRepository interface {
	FindByDate(ctx context.Context, date time.Time) (*models.Pulse, error)
	Upsert(ctx context.Context, p *models.Pulse) (*models.Pulse, error)
	UpdateMarketIndex(ctx context.Context, date time.Time, value float64) (*models.Pulse, error)
}

// PulseListener is told about every pulse write. It must not fail the run.
type PulseListener interface {
	OnPulseChanged(ctx context.Context, event PulseEvent)
}

// CheckResult is the outcome of one daily check
type CheckResult struct {
	Date     string        `json:"-"`
	Status   models.Status `json:"status"`
	Score    *float64      `json:"score"`
	Message  string        `json:"message,omitempty"`
	Existing bool          `json:"-"`
}

type PulseService struct {
	News       HeadlineFetcher
	Market     IndexFetcher
	Classifier PulseClassifier
	Store      PulseRepository
	Listeners  []PulseListener

	now func() time.Time
}

func NewPulseService(news HeadlineFetcher, market IndexFetcher, classifier PulseClassifier, store PulseRepository, listeners ...PulseListener) *PulseService {
	return &PulseService{
		News:       news,
		Market:     market,
		Classifier: classifier,
		Store:      store,
		Listeners:  listeners,
		now:        time.Now,
	}
}

// RunDailyCheck classifies date's UTC day once. A zero date means today.
// An existing verdict is returned untouched apart from a missing market value.
func (s *PulseService) RunDailyCheck(ctx context.Context, date time.Time) (*CheckResult, error) {
	if date.IsZero() {
		date = s.now()
	}
	day := models.TruncateDay(date)
	key := day.Format(models.DateLayout)

	ctx, span := trace.StartSpan(ctx, "pulse.run_daily_check", attribute.String("pulse.date", key))
	defer span.End()

	existing, err := s.Store.FindByDate(ctx, day)
	if err != nil {
		trace.RecordError(span, err)
		return nil, fmt.Errorf("failed to load pulse for %s: %w", key, err)
	}
	if existing != nil {
		logger.Info("Pulse entry exists for %s.", key)
		span.SetAttributes(attribute.Bool("pulse.existing", true))
		s.backfillMarketIndex(ctx, existing)
		return &CheckResult{
			Date:     key,
			Status:   existing.Status,
			Score:    existing.Score,
			Message:  MessageEntryExists,
			Existing: true,
		}, nil
	}

	logger.Info("Running Daily Pulse Check for %s...", key)

	var (
		headlines   []models.Headline
		marketIndex *float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stageCtx, stage := trace.StartSpan(gctx, "pulse.fetch_headlines")
		defer stage.End()

		var err error
		headlines, err = s.News.FetchHeadlines(stageCtx, day)
		if err == nil && len(headlines) == 0 {
			err = fmt.Errorf("%w: %w for %s", ErrUpstream, errNoHeadlines, key)
		}
		trace.RecordError(stage, err)
		return err
	})
	if s.Market != nil {
		g.Go(func() error {
			stageCtx, stage := trace.StartSpan(gctx, "pulse.fetch_market_index")
			defer stage.End()

			marketIndex = s.Market.FetchIndexValue(stageCtx, day)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		trace.RecordError(span, err)
		return nil, err
	}
	logger.Info("Extracted %d headlines...", len(headlines))

	classifyCtx, stage := trace.StartSpan(ctx, "pulse.classify")
	verdict, err := s.Classifier.Classify(classifyCtx, headlines)
	trace.RecordError(stage, err)
	stage.End()
	if err != nil {
		trace.RecordError(span, err)
		return nil, err
	}
	logger.Info("Analyzed pulse: %s (%s)", verdict.Status, formatScore(verdict.Score))

	saved, err := s.Store.Upsert(ctx, &models.Pulse{
		Date:        day,
		Status:      verdict.Status,
		Score:       verdict.Score,
		Headlines:   datatypes.NewJSONType(headlines),
		Rationale:   verdict.Rationale,
		MarketIndex: marketIndex,
	})
	if err != nil {
		trace.RecordError(span, err)
		return nil, err
	}
	s.notify(ctx, NewPulseEvent(EventPulseCreated, saved))

	logger.Info("Pulse Check Complete: %s (%s)", saved.Status, formatScore(saved.Score))
	return &CheckResult{
		Date:   key,
		Status: saved.Status,
		Score:  saved.Score,
	}, nil
}

// backfillMarketIndex fills sp500 on an existing pulse. Failures are logged.
func (s *PulseService) backfillMarketIndex(ctx context.Context, existing *models.Pulse) {
	if existing.MarketIndex != nil || s.Market == nil {
		return
	}

	key := existing.Date.UTC().Format(models.DateLayout)
	value := s.Market.FetchIndexValue(ctx, existing.Date)
	if value == nil {
		return
	}

	updated, err := s.Store.UpdateMarketIndex(ctx, existing.Date, *value)
	if err != nil {
		logger.Error("Failed to backfill market index for %s: %v", key, err)
		return
	}
	logger.Info("Backfilled market index for %s: %.2f", key, *value)
	s.notify(ctx, NewPulseEvent(EventMarketBackfilled, updated))
}

func (s *PulseService) notify(ctx context.Context, event PulseEvent) {
	for _, l := range s.Listeners {
		l.OnPulseChanged(ctx, event)
	}
}

func formatScore(score *float64) string {
	if score == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", *score)
}
