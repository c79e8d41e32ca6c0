package api

import (
	"net/http"
	"time"

	"algoryth/internal/api/handler"
	"algoryth/internal/api/middleware"
	"algoryth/internal/app/service"
	"algoryth/internal/common"
	"algoryth/internal/common/security"
	"algoryth/internal/platform/config"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
)

// Services groups everything the HTTP layer calls into.
type Services struct {
	Auth        *service.AuthService
	Problems    *service.ProblemService
	Execute     *service.ExecuteService
	Submissions *service.SubmissionService
	Profiles    *service.ProfileService
	Progress    *service.ProgressService
	Leaderboard *service.LeaderboardService
	Badges      *service.BadgeService
}

// Limits holds the rate limiting middlewares. Nil entries disable limiting.
type Limits struct {
	Auth    func(http.Handler) http.Handler
	Execute func(http.Handler) http.Handler
}

func NewRouter(cfg *config.Config, svc Services, limits Limits, health *handler.HealthHandler) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	// Piston runs every test case in turn, so allow more than a plain CRUD call.
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies the bearer token if present; Authenticator/OptionalAuth decide what to do with it.
	r.Use(jwtauth.Verifier(security.TokenAuth))
	r.Use(middleware.RequestLogger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	if health != nil {
		r.Method(http.MethodGet, "/health", health)
	}

	r.Route("/api", func(api chi.Router) {
		if health != nil {
			api.Method(http.MethodGet, "/health", health)
		}

		authHandler := handler.NewAuthHandler(svc.Auth, limits.Auth)
		api.Route("/auth", authHandler.RegisterRoutes)

		problemHandler := handler.NewProblemHandler(svc.Problems)
		api.Route("/problems", problemHandler.RegisterRoutes)

		executeHandler := handler.NewExecuteHandler(svc.Execute, limits.Execute)
		api.Route("/execute", executeHandler.RegisterRoutes)
		api.Route("/languages", executeHandler.RegisterLanguageRoutes)

		submissionHandler := handler.NewSubmissionHandler(svc.Submissions)
		api.Route("/submissions", submissionHandler.RegisterRoutes)

		profileHandler := handler.NewProfileHandler(svc.Profiles)
		api.Route("/user/profile", profileHandler.RegisterRoutes)

		api.Group(profileHandler.RegisterPublicRoutes)

		progressHandler := handler.NewProgressHandler(svc.Progress)
		api.Group(progressHandler.RegisterRoutes)

		leaderboardHandler := handler.NewLeaderboardHandler(svc.Leaderboard)
		api.Route("/leaderboard", leaderboardHandler.RegisterRoutes)

		badgeHandler := handler.NewBadgeHandler(svc.Badges)
		api.Route("/badges", badgeHandler.RegisterRoutes)
	})

	return r
}
