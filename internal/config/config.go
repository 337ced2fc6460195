/**
 * @description
 * Configuration loader for the Daily Pulse backend.
 * Reads environment variables, applies defaults and validates the result.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 *
 * @notes
 * - Only DATABASE_URL is fatal at load time. Provider credentials are checked
 *   by the component that needs them so a missing market key can degrade
 *   silently while a missing news or model key fails the pulse run.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	News    NewsConfig
	Model   ModelConfig
	Market  MarketConfig
	Jobs    JobsConfig
	Auth    AuthConfig
	Tracing TracingConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        string
	Env         string // "development", "staging", "production" or "test"
	FrontendURL string
}

// DBConfig holds PostgreSQL settings
type DBConfig struct {
	URL string
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL string
}

// NewsConfig holds the credentials of both headline providers.
// NewsAPIKey serves today's headlines, HistoricalNewsAPIKey serves past dates.
type NewsConfig struct {
	NewsAPIKey           string
	NewsAPIBaseURL       string
	HistoricalNewsAPIKey string
	GNewsBaseURL         string
}

// ModelConfig holds the chat-completions endpoint used by the classifier
type ModelConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// MarketConfig holds the market-data provider settings
type MarketConfig struct {
	APIKey    string
	BaseURL   string
	Symbol    string
	Precision int32
}

// JobsConfig holds settings for scheduled and manual pulse runs
type JobsConfig struct {
	TriggerSecret string
	DailyAt       string // HH:MM in UTC
	BackfillDays  int
}

// AuthConfig holds optional JWT validation for the manual trigger
type AuthConfig struct {
	JWKSURL string
}

// TracingConfig toggles the OpenTelemetry stdout exporter
type TracingConfig struct {
	Enabled bool
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (containers inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "3001"),
			Env:         getEnv("GO_ENV", "development"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:8100"),
		},
		DB: DBConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		News: NewsConfig{
			NewsAPIKey:           sanitizeCredential(getEnv("NEWS_API_KEY", "")),
			NewsAPIBaseURL:       getEnv("NEWS_API_BASE_URL", "https://newsapi.org"),
			HistoricalNewsAPIKey: sanitizeCredential(getEnv("GNEWS_API_KEY", "")),
			GNewsBaseURL:         getEnv("GNEWS_BASE_URL", "https://gnews.io"),
		},
		Model: ModelConfig{
			APIKey:  sanitizeCredential(getEnv("GEMINI_API_KEY", "")),
			BaseURL: getEnv("OPENAI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions"),
			Model:   getEnv("OPENAI_MODEL", "gemini-flash-lite-latest"),
		},
		Market: MarketConfig{
			APIKey:    sanitizeCredential(getEnv("ALPHA_VANTAGE_API_KEY", "")),
			BaseURL:   getEnv("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co"),
			Symbol:    strings.ToUpper(getEnv("MARKET_SYMBOL", "SPY")),
			Precision: int32(getEnvAsInt("MARKET_PRECISION", 2)),
		},
		Jobs: JobsConfig{
			TriggerSecret: sanitizeCredential(getEnv("JOB_SYNC_SECRET", "")),
			DailyAt:       getEnv("PULSE_DAILY_AT", "23:50"),
			BackfillDays:  getEnvAsInt("PULSE_BACKFILL_DAYS", 30),
		},
		Auth: AuthConfig{
			JWKSURL: getEnv("CLERK_JWKS_URL", ""),
		},
		Tracing: TracingConfig{
			Enabled: getEnvAsBool("TRACING_ENABLED", false),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for required variables
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Market.Precision < 0 {
		return fmt.Errorf("MARKET_PRECISION must not be negative")
	}
	if _, _, err := ParseDailyAt(cfg.Jobs.DailyAt); err != nil {
		return err
	}
	return nil
}

// ParseDailyAt splits an "HH:MM" schedule into hour and minute.
func ParseDailyAt(value string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("PULSE_DAILY_AT must be HH:MM, got %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("PULSE_DAILY_AT has invalid hour %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("PULSE_DAILY_AT has invalid minute %q", parts[1])
	}
	return hour, minute, nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func sanitizeCredential(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.Trim(trimmed, "\"")
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
