/**
 * @description
 * Main entry point for the Daily Pulse API.
 * Initializes the Fiber web server, loads configuration, and sets up routes.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: Web framework
 * - github.com/daily-pulse/backend/internal/config: Config loader
 * - github.com/daily-pulse/backend/internal/db: Database connections
 *
 * @notes
 * - Connects to Postgres and Redis on startup.
 * - Sets up basic middleware (CORS, Logger, Recover).
 * - Serves the static dashboard from ./static/pulse when present.
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daily-pulse/backend/internal/api"
	"github.com/daily-pulse/backend/internal/config"
	"github.com/daily-pulse/backend/internal/db"
	"github.com/daily-pulse/backend/internal/logger"
	"github.com/daily-pulse/backend/internal/services"
	"github.com/daily-pulse/backend/internal/trace"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const staticDir = "./static/pulse"

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}
	logger.Configure(cfg.Server.Env)
	defer logger.Sync()

	if err := trace.Init(cfg.Tracing.Enabled); err != nil {
		logger.Error("Failed to init tracing: %v", err)
	}

	// 2. Initialize Database Connections
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Postgres: %v", err)
	}

	redisClient, err := db.ConnectRedis(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to Redis: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize Fiber App
	app := fiber.New(fiber.Config{
		AppName:       "Daily Pulse",
		StrictRouting: true,
		CaseSensitive: true,
	})

	// 4. Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.FrontendURL,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Job-Secret",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))

	// 5. Routes
	pipeline := services.NewPipeline(cfg, pgDB, redisClient)
	api.SetupRoutes(ctx, app, pipeline, redisClient, cfg)

	if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
		app.Static("/pulse", staticDir)
	}

	// 6. Start Server
	go func() {
		logger.Info("Starting Daily Pulse API on port %s", cfg.Server.Port)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// 7. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down API...")
	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("Error shutting down server: %v", err)
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := trace.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error flushing traces: %v", err)
	}
	logger.Info("API exited.")
}
