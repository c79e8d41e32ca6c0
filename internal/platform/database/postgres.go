package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"algoryth/internal/platform/config"
	"algoryth/internal/platform/logger"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
)

var DB *sql.DB

//go:embed schema.sql
var schemaSQL string

func Connect() {
	var err error
	DB, err = sql.Open("pgx", config.AppConfig.DBConnStr)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error opening database")
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = DB.PingContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Error connecting to database")
	}

	logger.Info().Str("host", config.AppConfig.DBHost).Str("db", config.AppConfig.DBName).Msg("Connected to PostgreSQL")
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("database.Migrate: %w", err)
	}
	return nil
}

func Close() {
	if DB != nil {
		DB.Close()
		logger.Info().Msg("Database connection closed")
	}
}
