/**
 * @description
 * Backfill Entry Point.
 * Runs the daily check for each of the last N days, oldest first. Existing
 * days are skipped by the pipeline itself (apart from a missing market value),
 * so the job is safe to re-run.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/services
 */

package main

import (
	"context"
	"flag"
	"time"

	"github.com/daily-pulse/backend/internal/config"
	"github.com/daily-pulse/backend/internal/db"
	"github.com/daily-pulse/backend/internal/logger"
	"github.com/daily-pulse/backend/internal/models"
	"github.com/daily-pulse/backend/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config: %v", err)
	}
	logger.Configure(cfg.Server.Env)
	defer logger.Sync()

	days := flag.Int("days", cfg.Jobs.BackfillDays, "number of trailing days to check, including today")
	flag.Parse()

	logger.Info("Starting pulse backfill for the last %d days...", *days)

	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("failed to connect to postgres: %v", err)
	}

	redisClient, release, err := db.ConnectRedisOrMemory(cfg)
	if err != nil {
		logger.Fatal("failed to start redis: %v", err)
	}
	defer release()

	pipeline := services.NewPipeline(cfg, pgDB, redisClient)
	ctx := context.Background()

	var created, existing, failed int
	for _, day := range backfillDates(time.Now(), *days) {
		key := day.Format(models.DateLayout)
		result, err := pipeline.Pulse.RunDailyCheck(ctx, day)
		if err != nil {
			failed++
			logger.Error("backfill %s failed: %v", key, err)
			continue
		}
		if result.Existing {
			existing++
			continue
		}
		created++
		logger.Info("backfill %s: %s", key, result.Status)
	}

	if total, err := pipeline.Store.Count(ctx); err == nil {
		logger.Info("Pulses stored in Postgres: %d", total)
	} else {
		logger.Warn("Failed to count pulses: %v", err)
	}

	logger.Info("Backfill completed: %d created, %d existing, %d failed.", created, existing, failed)
}

// backfillDates lists the UTC days of the trailing window, oldest first.
func backfillDates(now time.Time, days int) []time.Time {
	if days <= 0 {
		return nil
	}
	today := models.TruncateDay(now)
	dates := make([]time.Time, 0, days)
	for i := days - 1; i >= 0; i-- {
		dates = append(dates, today.AddDate(0, 0, -i))
	}
	return dates
}
