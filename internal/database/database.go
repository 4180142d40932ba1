package database

import (
	"fmt"

	"github.com/kleverbot/kleverbot-api/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the Postgres connection described by cfg. Credentials come
// from the environment when set, otherwise from AWS Secrets Manager.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	username, password, err := retrieveCredentials(cfg.DBSecretID)
	if err != nil {
		return nil, fmt.Errorf("db credentials: %w", err)
	}

	var sslMode string
	if cfg.DBSSLDisable {
		sslMode = " sslmode=disable"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d%s",
		cfg.DBHost, username, password, cfg.DBName, cfg.DBPort, sslMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}
