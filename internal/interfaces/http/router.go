// Package http assembles the scan API: global middleware, probes, metrics
// and the tenant-scoped /api/v1 group.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/prometheus"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/interfaces/http/handlers"
)

// Middleware is the chi middleware signature.
type Middleware = func(http.Handler) http.Handler

// RouterConfig aggregates the handlers and middleware the route tree needs.
// Nil handlers and middleware are skipped.
type RouterConfig struct {
	ScanHandler   *handlers.ScanHandler
	UsageHandler  *handlers.UsageHandler
	HealthHandler *handlers.HealthHandler

	// Global, in order: CORS then Logging.
	CORS    Middleware
	Logging Middleware

	// API group, in order: Tenant then RateLimit, so limits apply per tenant.
	Tenant    Middleware
	RateLimit Middleware

	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
	// MetricsPath mounts the scrape endpoint; empty keeps it off the API
	// listener (metrics.addr may serve it separately).
	MetricsPath string
}

// NewRouter builds the complete route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}
	if cfg.Logging != nil {
		r.Use(cfg.Logging)
	}

	if h := cfg.HealthHandler; h != nil {
		r.Get("/healthz", h.Liveness)
		r.Get("/healthz/detail", h.Detailed)
		r.Get("/readyz", h.Readiness)
	}
	if cfg.MetricsCollector != nil && cfg.MetricsPath != "" {
		r.Handle(cfg.MetricsPath, cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.Tenant != nil {
			api.Use(cfg.Tenant)
		}
		if cfg.RateLimit != nil {
			api.Use(cfg.RateLimit)
		}
		if cfg.ScanHandler != nil {
			cfg.ScanHandler.RegisterRoutes(api)
		}
		if cfg.UsageHandler != nil {
			cfg.UsageHandler.RegisterRoutes(api)
		}
	})

	return r
}

//Personal.AI order the ending
