/**
 * @description
 * Development seed.
 * Inserts 60 days of mock pulses. Dates that already have a pulse are left
 * untouched, so real data is never overwritten.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/services (PulseStore)
 */

package main

import (
	"context"
	"math/rand"
	"time"

	"github.com/daily-pulse/backend/internal/config"
	"github.com/daily-pulse/backend/internal/db"
	"github.com/daily-pulse/backend/internal/logger"
	"github.com/daily-pulse/backend/internal/models"
	"github.com/daily-pulse/backend/internal/services"
)

const seedDays = 60

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config: %v", err)
	}
	logger.Configure(cfg.Server.Env)
	defer logger.Sync()

	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("failed to connect to postgres: %v", err)
	}

	store := services.NewPulseStore(pgDB)
	ctx := context.Background()
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	logger.Info("Generating mock data for the last %d days...", seedDays)

	var inserted int
	for _, p := range mockPulses(time.Now(), seedDays, rnd) {
		pulse := p
		key := pulse.Date.Format(models.DateLayout)
		created, err := store.InsertIfAbsent(ctx, &pulse)
		if err != nil {
			logger.Error("Error inserting data for %s: %v", key, err)
			continue
		}
		if created {
			inserted++
			logger.Info("Inserted data for %s", key)
		}
	}

	logger.Info("Mock data generation complete: %d inserted.", inserted)
}
