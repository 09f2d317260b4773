package routes

import (
	"context"
	"net/http"
	"os"
	"time"

	"commuteforecast/backend/internal/api"
	"commuteforecast/backend/internal/db"
	"commuteforecast/backend/internal/jobs"
	"commuteforecast/backend/internal/logging"
	"commuteforecast/backend/internal/middleware"
	"commuteforecast/backend/internal/workers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// RegisterRoutes wires dependencies, starts the background jobs and the
// forecast worker pool, and returns the chi router serving the HTTP API.
func RegisterRoutes(upSince time.Time) http.Handler {
	r := chi.NewRouter()

	deps, err := api.InitDependencies(os.Getenv("JWT_SECRET"))
	if err != nil {
		panic("Failed to initialize dependencies: " + err.Error())
	}

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(deps.MetricsReg))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:8081"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	logging.Info("router initialized with metrics and logging middleware")

	r.Get("/healthCheck", api.HealthCheckHandler(db.DB, deps.RedisClient, upSince))

	handlers := api.NewHandlers(deps)

	r.Route("/routes", func(rt chi.Router) {
		rt.Use(middleware.AuthMiddleware(deps.JWTVerifier))
		rt.Use(middleware.RateLimitMiddleware)
		rt.Post("/create", handlers.CreateRouteHandler)
		rt.Put("/update", handlers.UpdateRouteHandler)
		rt.Delete("/delete", handlers.DeleteRouteHandler)
		rt.Get("/fetch", handlers.FetchRoutesHandler)
	})

	r.Post("/internal/identity-hook", handlers.IdentityHookHandler)

	ctx := context.Background()
	jobs.InitializeJobs(ctx, deps.Repo.Routes, deps.Repo.Cities, deps.Repo.Delays, deps.Services.ScheduleQueue, deps.Services.OrchestratorLock, deps.Services.Weather, deps.Services.Events)
	workers.InitializeWorkers(ctx, deps.Repo.Routes, deps.Repo.Delays, deps.Services.ScheduleQueue, deps.MetricsReg)

	return r
}
