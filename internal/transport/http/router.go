// Package http assembles the engine's HTTP surface: the middleware chain,
// the public health/metrics endpoints, and the authenticated API routes.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"custos/internal/platform/metrics"
	"custos/internal/platform/middleware"
)

// RouteRegistrar mounts a handler's routes on a router. Every domain handler
// implements it.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// HealthChecker reports dependency health for /healthz. Nil checkers are
// skipped, so memory-mode deployments expose a trivially healthy endpoint.
type HealthChecker func() error

// Options configure the router.
type Options struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	TokenValidator middleware.TokenValidator
	RequestTimeout time.Duration
	// Handlers are mounted behind authentication.
	Handlers []RouteRegistrar
	// HealthChecks run on /healthz; any failure returns 503.
	HealthChecks map[string]HealthChecker
}

// New builds the full router.
func New(opts Options) chi.Router {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(middleware.Latency(opts.Metrics))

	r.Get("/healthz", healthHandler(opts.HealthChecks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		api.Use(middleware.RequireAuth(opts.TokenValidator, opts.Logger))
		for _, h := range opts.Handlers {
			h.Register(api)
		}
	})

	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unhealthy","failed":"` + name + `"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
