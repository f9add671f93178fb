package main

import (
	"fmt"
	"net/http"

	"github.com/benvon/lingua-drome/internal/config"
	"github.com/benvon/lingua-drome/internal/handlers"
	"github.com/benvon/lingua-drome/internal/kv"
	"github.com/benvon/lingua-drome/internal/middleware"
	"github.com/benvon/lingua-drome/internal/project"
	"github.com/benvon/lingua-drome/internal/prompt"
	"github.com/benvon/lingua-drome/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// routerDeps are the long-lived objects the HTTP layer serves
type routerDeps struct {
	cfg     *config.Config
	kv      kv.Store
	store   *project.Store
	console *prompt.Console
	logger  *zap.Logger
	tracing bool
}

// newHandler builds the routed, middleware-wrapped server handler
func newHandler(d routerDeps) (http.Handler, error) {
	r := mux.NewRouter()

	// Middleware registered first wraps outermost
	if d.tracing {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
		d.logger.Info("otel_middleware_enabled")
	}
	r.Use(middleware.ErrorHandler(d.logger))
	r.Use(middleware.Logging(d.logger))

	r.HandleFunc("/healthz", handlers.NewHealthChecker(d.kv).HealthCheck).Methods(http.MethodGet)

	// The limiter shares the store's Redis connection when there is one
	var client *redis.Client
	if rs, ok := d.kv.(*kv.RedisStore); ok {
		client = rs.Client()
	}
	limiterStore, err := middleware.NewRateLimitStore(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit store: %w", err)
	}
	rateLimit, err := middleware.RateLimit(limiterStore, d.cfg.RateLimit, d.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(rateLimit)
	api.Use(middleware.ContentType("application/json", "multipart/form-data"))
	handlers.NewProjectHandler(d.store, d.console, d.logger, d.cfg.MaxUploadBytes).RegisterRoutes(api)

	// Outside the router so preflight and unmatched requests are covered too
	var h http.Handler = middleware.SecurityHeaders(d.cfg.EnableHSTS)(r)
	return middleware.CORS(middleware.ParseOrigins(d.cfg.FrontendURL))(h), nil
}
