/**
 * @description
 * News Service.
 * Picks the headline provider by recency and normalises both answers to
 * models.Headline:
 * - today (UTC): NewsAPI top headlines
 * - past dates: GNews search bounded to that UTC day
 *
 * @dependencies
 * - backend/internal/integrations/newsapi
 * - backend/internal/integrations/gnews
 */

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/daily-pulse/backend/internal/integrations/gnews"
	"github.com/daily-pulse/backend/internal/integrations/newsapi"
	"github.com/daily-pulse/backend/internal/logger"
	"github.com/daily-pulse/backend/internal/models"
)

const (
	headlineLimit    = 20
	headlineLanguage = "en"
	historicalQuery  = "world OR news OR humanity OR progress"
)

type NewsService struct {
	Today      *newsapi.Client
	Historical *gnews.Client

	now func() time.Time
}

func NewNewsService(today *newsapi.Client, historical *gnews.Client) *NewsService {
	return &NewsService{
		Today:      today,
		Historical: historical,
		now:        time.Now,
	}
}

// FetchHeadlines returns up to 20 headlines for the UTC day of date.
func (s *NewsService) FetchHeadlines(ctx context.Context, date time.Time) ([]models.Headline, error) {
	day := models.TruncateDay(date)
	if day.Equal(models.TruncateDay(s.now())) {
		return s.fetchToday(ctx)
	}
	return s.fetchHistorical(ctx, day)
}

func (s *NewsService) fetchToday(ctx context.Context) ([]models.Headline, error) {
	if s.Today == nil || !s.Today.Configured() {
		return nil, fmt.Errorf("%w: NEWS_API_KEY is not defined", ErrConfiguration)
	}

	articles, err := s.Today.TopHeadlines(ctx, newsapi.TopHeadlinesParams{
		Language: headlineLanguage,
		Category: "general",
		PageSize: headlineLimit,
	})
	if err != nil {
		logger.Error("Error fetching today's news: %v", err)
		return nil, fmt.Errorf("%w: top headlines: %w", ErrUpstream, err)
	}

	headlines := make([]models.Headline, 0, len(articles))
	for _, a := range articles {
		headlines = append(headlines, models.Headline{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      models.HeadlineSource{Name: a.Source.Name},
		})
	}
	return headlines, nil
}

func (s *NewsService) fetchHistorical(ctx context.Context, day time.Time) ([]models.Headline, error) {
	if s.Historical == nil || !s.Historical.Configured() {
		return nil, fmt.Errorf("%w: GNEWS_API_KEY is not defined", ErrConfiguration)
	}

	articles, err := s.Historical.Search(ctx, gnews.SearchParams{
		Query:    historicalQuery,
		From:     day,
		To:       day.Add(24*time.Hour - time.Second),
		Language: headlineLanguage,
		Max:      headlineLimit,
		SortBy:   "relevance",
	})
	if err != nil {
		logger.Error("Error fetching historical news for %s: %v", day.Format(models.DateLayout), err)
		return nil, fmt.Errorf("%w: historical search: %w", ErrUpstream, err)
	}

	headlines := make([]models.Headline, 0, len(articles))
	for _, a := range articles {
		headlines = append(headlines, models.Headline{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      models.HeadlineSource{Name: a.Source.Name, URL: a.Source.URL},
		})
	}
	return headlines, nil
}
