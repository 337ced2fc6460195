/**
 * @description
 * Worker Service Entry Point.
 * Runs the daily pulse check once a day at PULSE_DAILY_AT (UTC, default 23:50).
 * A failed run is logged and the next day is scheduled as usual.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/services
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daily-pulse/backend/internal/config"
	"github.com/daily-pulse/backend/internal/db"
	"github.com/daily-pulse/backend/internal/logger"
	"github.com/daily-pulse/backend/internal/services"
	"github.com/daily-pulse/backend/internal/trace"
)

// runTimeout bounds one scheduled check
const runTimeout = 10 * time.Minute

func main() {
	logger.Info("Starting Daily Pulse Worker...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	logger.Configure(cfg.Server.Env)
	defer logger.Sync()

	if err := trace.Init(cfg.Tracing.Enabled); err != nil {
		logger.Error("Failed to init tracing: %v", err)
	}

	hour, minute, err := config.ParseDailyAt(cfg.Jobs.DailyAt)
	if err != nil {
		logger.Fatal("Invalid schedule: %v", err)
	}

	// 2. Connect DBs
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Redis connection failed: %v", err)
	}

	// 3. Initialize Services
	pipeline := services.NewPipeline(cfg, pgDB, redisClient)

	// 4. Context with Cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. Schedule Loop
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			next := nextRun(time.Now(), hour, minute)
			logger.Info("Next pulse check scheduled for %s", next.Format(time.RFC3339))

			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				runCheck(ctx, pipeline.Pulse)
			}
		}
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	<-done

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := trace.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error flushing traces: %v", err)
	}
	logger.Info("Worker exited.")
}

func runCheck(ctx context.Context, pulse *services.PulseService) {
	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	logger.Info("Running scheduled pulse check...")
	result, err := pulse.RunDailyCheck(runCtx, time.Now())
	if err != nil {
		logger.Error("Scheduled pulse check failed: %v", err)
		return
	}
	logger.Info("Scheduled pulse check finished: %s %s", result.Date, result.Status)
}
