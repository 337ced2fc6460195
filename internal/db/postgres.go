/**
 * @description
 * PostgreSQL connection manager using GORM.
 * Handles connection pooling, initialization and the pulses schema.
 *
 * @dependencies
 * - gorm.io/gorm: ORM library
 * - gorm.io/driver/postgres: Postgres driver
 */

package db

import (
	"time"

	"github.com/daily-pulse/backend/internal/config"
	"github.com/daily-pulse/backend/internal/logger"
	"github.com/daily-pulse/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// ConnectPostgres initializes the PostgreSQL connection and migrates the schema
func ConnectPostgres(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DB.URL,
		PreferSimpleProtocol: true, // disable prepared statements to avoid stmtcache collisions behind poolers
	}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(LogLevel(cfg.Server.Env)),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// One pulse a day does not need a wide pool
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logger.Info("✅ Connected to PostgreSQL")
	return db, nil
}

// Migrate creates or updates the pulses table, including the unique date index
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Pulse{})
}

// LogLevel maps the deployment environment to a GORM log level
func LogLevel(env string) gormLogger.LogLevel {
	switch env {
	case "development":
		return gormLogger.Info
	case "staging":
		return gormLogger.Warn
	case "test":
		return gormLogger.Silent
	default:
		return gormLogger.Error
	}
}
