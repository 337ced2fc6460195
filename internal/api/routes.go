/**
 * @description
 * API Route definitions.
 * Sets up the router groups and assigns handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/api/middleware
 * - backend/internal/services
 */

package api

import (
	"context"
	"time"

	"github.com/daily-pulse/backend/internal/api/handlers"
	"github.com/daily-pulse/backend/internal/api/middleware"
	"github.com/daily-pulse/backend/internal/config"
	"github.com/daily-pulse/backend/internal/logger"
	"github.com/daily-pulse/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes configures all API routes. The stream hub relays updates until ctx is done.
func SetupRoutes(ctx context.Context, app *fiber.App, pipeline *services.Pipeline, rdb *redis.Client, cfg *config.Config) {
	// 1. Initialize Middleware
	guard, err := middleware.NewTriggerGuard(cfg)
	if err != nil {
		// Reads keep working; the trigger rejects every token.
		logger.Error("Failed to init trigger guard: %v", err)
	}

	// 2. Initialize Handlers
	var hub *services.PulseStreamHub
	if rdb != nil {
		hub = services.NewPulseStreamHub(ctx, rdb, services.PulseUpdateChannel)
	}
	pulseHandler := handlers.NewPulseHandler(pipeline.Pulse, pipeline.History, hub)

	// 3. Define Routes
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	pulse := api.Group("/pulse")
	pulse.Get("/history", pulseHandler.GetHistory)
	pulse.Get("/metrics", pulseHandler.GetMetrics)
	pulse.Get("/last-7-days", pulseHandler.GetLastSevenDays)
	pulse.Get("/details/:date", pulseHandler.GetDetails)
	pulse.Get("/stream", pulseHandler.StreamUpdates)
	pulse.Post("/trigger-check", guard.Handler(), pulseHandler.TriggerCheck)
}
