package services

import (
	"github.com/daily-pulse/backend/internal/config"
	"github.com/daily-pulse/backend/internal/integrations/alphavantage"
	"github.com/daily-pulse/backend/internal/integrations/gnews"
	"github.com/daily-pulse/backend/internal/integrations/newsapi"
	"github.com/daily-pulse/backend/internal/integrations/openai"
	"github.com/daily-pulse/backend/internal/logger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Pipeline is the set of services shared by the API, the worker and the CLI jobs
type Pipeline struct {
	Store   *PulseStore
	History *HistoryService
	Pulse   *PulseService
}

// NewPipeline wires provider clients from cfg. Every write invalidates the
// metrics cache and is published on PulseUpdateChannel.
func NewPipeline(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Pipeline {
	store := NewPulseStore(db)
	history := NewHistoryService(store, rdb)

	news := NewNewsService(newsapi.NewClient(cfg.News), gnews.NewClient(cfg.News))
	market := NewMarketDataService(alphavantage.NewClient(cfg.Market), rdb, cfg.Market.Symbol, cfg.Market.Precision)
	llm := openai.NewClient(cfg.Model)
	if llm.Configured() {
		logger.Info("Classifier using model %s", llm.Model())
	}
	classifier := NewClassifierService(llm)

	pulse := NewPulseService(news, market, classifier, store, history, NewPulsePublisher(rdb))

	return &Pipeline{
		Store:   store,
		History: history,
		Pulse:   pulse,
	}
}
