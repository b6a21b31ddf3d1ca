// Package main provides the API router setup.
package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/BrainPreserve/supplements/cmd/supplements-api/handlers"
	"github.com/BrainPreserve/supplements/cmd/supplements-api/middleware"
	"github.com/BrainPreserve/supplements/internal/config"
	"github.com/BrainPreserve/supplements/internal/observability"
)

// Dependencies are the services the router wires into handlers.
type Dependencies struct {
	Logger  *observability.Logger
	Metrics *observability.Metrics
	Engine  handlers.Searcher
	Coach   handlers.Generator
	Config  *config.Config
}

// NewRouter creates the main API router with all routes configured.
func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceID)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(chimiddleware.Timeout(requestTimeout(cfg)))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","service":"supplements"}`))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	supplements := handlers.NewSupplementsHandler(deps.Logger, deps.Engine, deps.Metrics, cfg.Coach.Columns, cfg.Search.DefaultLimit)
	coachHandler := handlers.NewCoachHandler(deps.Logger, deps.Coach, deps.Engine, cfg.Coach)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/indications", supplements.Indications)

		r.Route("/supplements", func(r chi.Router) {
			r.Get("/", supplements.Search)
			r.Get("/{key}", supplements.Get)
			r.Post("/{key}/coach", coachHandler.GenerateForKey)
		})

		r.Post("/coach", coachHandler.Generate)
	})

	return r
}

// requestTimeout bounds handlers; coaching may retry so it gets the larger
// of the write timeout and the coach budget.
func requestTimeout(cfg *config.Config) time.Duration {
	budget := cfg.Coach.Timeout * time.Duration(cfg.Coach.MaxRetries+1)
	if cfg.Server.WriteTimeout > budget {
		return cfg.Server.WriteTimeout
	}
	if budget <= 0 {
		return 30 * time.Second
	}
	return budget
}
