package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/smart-home-relay/alexa-relay/internal/config"
)

// NewRouter constructs the HTTP router with middleware and routes.
// gatherer may be nil, in which case /metrics is not served.
func NewRouter(cfg *config.Config, dispatcher Dispatcher, gatherer prometheus.Gatherer, logger zerolog.Logger) chi.Router {
	r := chi.NewRouter()

	if cfg.Server.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	h := NewHandler(dispatcher, cfg, logger)

	r.Get("/v1/health", h.HandleHealthGet)
	r.Post("/v1/health", h.HandleHealthPost)

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	limiter := NewRateLimiter(cfg.Limits.RequestsPerMinute, time.Minute)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Auth.APIKey))
		r.Use(limiter.Middleware)

		r.Post("/v1/skill", h.HandleSkill)
	})

	return r
}
