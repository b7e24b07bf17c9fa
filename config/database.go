package config

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DatabaseDSN builds the Postgres DSN from DB_* variables.
func DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		GetEnv("DB_HOST", "localhost"),
		GetEnv("DB_PORT", "5432"),
		GetEnv("DB_USER", "postgres"),
		GetEnv("DB_PASSWORD", ""),
		GetEnv("DB_NAME", "feedreader"),
		GetEnv("DB_SSLMODE", "disable"),
	)
}

// ConnectDB opens the Postgres connection used by the gorm article store
func ConnectDB() (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(DatabaseDSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	slog.Info("database connected", "host", GetEnv("DB_HOST", "localhost"), "name", GetEnv("DB_NAME", "feedreader"))
	return db, nil
}
