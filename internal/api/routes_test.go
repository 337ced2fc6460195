package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/daily-pulse/backend/internal/api/middleware"
	"github.com/daily-pulse/backend/internal/config"
	"github.com/daily-pulse/backend/internal/db"
	"github.com/daily-pulse/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newTestApp(t *testing.T, cfg *config.Config) *fiber.App {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := gdb.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	SetupRoutes(ctx, app, services.NewPipeline(cfg, gdb, rdb), rdb, cfg)
	return app
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, &config.Config{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["timestamp"] == "" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestTriggerCheckRequiresSecret(t *testing.T) {
	cfg := &config.Config{}
	cfg.Jobs.TriggerSecret = "s3cret"
	app := newTestApp(t, cfg)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/pulse/trigger-check", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without the secret, got %d", resp.StatusCode)
	}

	// Past the guard the run fails on the missing news key.
	req := httptest.NewRequest("POST", "/api/pulse/trigger-check", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.JobSecretHeader, "s3cret")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500 from the unconfigured pipeline, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body["error"], "NEWS_API_KEY") {
		t.Fatalf("unexpected error %q", body["error"])
	}
}
