package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"algoryth/internal/api"
	"algoryth/internal/api/handler"
	"algoryth/internal/api/middleware"
	"algoryth/internal/app/service"
	"algoryth/internal/app/worker"
	"algoryth/internal/common/security"
	"algoryth/internal/domain/repository"
	"algoryth/internal/platform/config"
	"algoryth/internal/platform/database"
	"algoryth/internal/platform/executor"
	"algoryth/internal/platform/logger"
	"algoryth/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	config.Load()
	cfg := config.AppConfig
	logger.Init(cfg.Env)
	logger.Info().Str("env", cfg.Env).Msg("Configuration loaded")

	// 2. Initialize JWT
	security.InitJWT()

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, database.DB); err != nil {
		logger.Fatal().Err(err).Msg("Schema migration failed")
	}
	migrateCancel()

	// 4. Initialize Redis
	queue.ConnectRedis()
	defer queue.CloseRedis()

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	profileRepo := repository.NewPgProfileRepository(database.DB)
	problemRepo := repository.NewPgProblemRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)
	userProblemRepo := repository.NewPgUserProblemRepository(database.DB)
	badgeRepo := repository.NewPgBadgeRepository(database.DB)
	tx := database.NewTransactor(database.DB)

	jobQueue := queue.NewRedisJobQueue(queue.RDB, cfg.JudgeQueueName)
	locker := queue.NewRedisLocker(queue.RDB, cfg.JudgeLockPrefix, time.Duration(cfg.JudgeLockTTLSeconds)*time.Second)
	cache := queue.NewRedisCache(queue.RDB)
	piston := executor.NewPistonClient(cfg)

	// 6. Initialize Services
	leaderboardService := service.NewLeaderboardService(profileRepo, cache, cfg.LeaderboardCacheTTL)
	badgeService := service.NewBadgeService(badgeRepo, profileRepo, submissionRepo)
	judgeService := service.NewJudgeService(submissionRepo, problemRepo, userProblemRepo, profileRepo, piston, badgeService, leaderboardService, tx)

	services := api.Services{
		Auth:        service.NewAuthService(userRepo, profileRepo, tx),
		Problems:    service.NewProblemService(problemRepo, submissionRepo, userProblemRepo, tx),
		Execute:     service.NewExecuteService(piston, cfg.MaxCodeLength),
		Submissions: service.NewSubmissionService(submissionRepo, problemRepo, userProblemRepo, jobQueue, tx, cfg.MaxCodeLength),
		Profiles:    service.NewProfileService(userRepo, profileRepo, userProblemRepo, tx),
		Progress:    service.NewProgressService(userRepo, problemRepo, submissionRepo, userProblemRepo),
		Leaderboard: leaderboardService,
		Badges:      badgeService,
	}

	// 7. Initialize Judge Worker (as a goroutine)
	judgeWorker := worker.NewJudgeWorker(jobQueue, locker, judgeService, cfg.JudgeMaxAttempts)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		judgeWorker.Start(workerCtx)
	}()

	authLimiter := middleware.NewIPRateLimiter(cfg.RateLimitAuthPerMinute, 10)
	executeLimiter := middleware.NewIPRateLimiter(cfg.RateLimitExecutePerMinute, 5)
	go sweepLimiters(workerCtx, authLimiter, executeLimiter)

	// 8. Initialize Router & HTTP Server
	health := handler.NewHealthHandler("algoryth", map[string]handler.Pinger{
		"database": database.DB.PingContext,
		"redis":    func(ctx context.Context) error { return queue.RDB.Ping(ctx).Err() },
	})
	router := api.NewRouter(cfg, services, api.Limits{
		Auth:    middleware.RateLimit(authLimiter),
		Execute: middleware.Chain(
			middleware.RateLimit(executeLimiter),
			middleware.RedisRateLimit(queue.RDB, "execute", cfg.RateLimitExecutePerMinute, time.Minute),
		),
	}, health)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 65 * time.Second, // execute may run several Piston calls
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info().Str("port", cfg.APIPort).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Str("port", cfg.APIPort).Msg("Could not listen")
		}
	}()

	<-stop // Wait for interrupt signal

	logger.Info().Msg("Shutting down server...")
	workerCancel() // Signal worker to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Warn().Msg("Judge worker did not stop in time")
	}

	logger.Info().Msg("Server and worker stopped gracefully")
}

func sweepLimiters(ctx context.Context, limiters ...*middleware.IPRateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, l := range limiters {
				l.Cleanup(3 * time.Minute)
			}
		}
	}
}
