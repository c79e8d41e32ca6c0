package main

import (
	"context"
	"time"

	"algoryth/internal/domain/repository"
	"algoryth/internal/platform/config"
	"algoryth/internal/platform/database"
	"algoryth/internal/platform/logger"
	"algoryth/internal/seed"
)

func main() {
	config.Load()
	logger.Init(config.AppConfig.Env)

	database.Connect()
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.Migrate(ctx, database.DB); err != nil {
		logger.Fatal().Err(err).Msg("Schema migration failed")
	}

	seeder := seed.NewSeeder(
		repository.NewPgProblemRepository(database.DB),
		repository.NewPgBadgeRepository(database.DB),
	)
	if err := seeder.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Seeding failed")
	}
	logger.Info().Msg("Seeding complete")
}
