package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/prometheus"
)

// LoggingConfig configures RequestLogging.
type LoggingConfig struct {
	// SkipPaths are not logged (health probes, metrics scrapes).
	SkipPaths []string

	// SlowThreshold promotes successful requests to Warn.
	SlowThreshold time.Duration

	// Metrics, when set, receives one observation per request labelled by
	// the matched route pattern.
	Metrics *prometheus.ScanMetrics
}

// DefaultLoggingConfig skips the probe and scrape endpoints.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: 3 * time.Second,
	}
}

// RequestLogging logs one line per request at a level chosen by status and
// latency, and records request metrics when configured.
func RequestLogging(logger logging.Logger, config LoggingConfig) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	skipSet := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skipSet[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipSet[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			caller := &TenantInfo{}
			r = r.WithContext(context.WithValue(r.Context(), callerSlotKey{}, caller))
			next.ServeHTTP(ww, r)
			duration := time.Since(start)

			status := ww.Status()
			if status == 0 {
				// Handler wrote nothing; net/http answers 200.
				status = http.StatusOK
			}
			route := routePattern(r)
			config.Metrics.RecordHTTPRequest(r.Method, route, status, duration)

			fields := make([]logging.Field, 0, 10)
			fields = append(fields,
				logging.String("method", r.Method),
				logging.String("route", route),
				logging.String("path", r.URL.Path),
				logging.Int("status", status),
				logging.Duration("duration", duration),
				logging.Int("bytes", ww.BytesWritten()),
				logging.String("remote_addr", r.RemoteAddr),
			)
			if reqID := chimw.GetReqID(r.Context()); reqID != "" {
				fields = append(fields, logging.String("request_id", reqID))
			}
			if caller.ID != "" {
				fields = append(fields, logging.TenantID(caller.ID))
			}
			if caller.UserID != "" {
				fields = append(fields, logging.String("user_id", caller.UserID))
			}

			switch {
			case status >= http.StatusInternalServerError:
				logger.Error("request failed", fields...)
			case status >= http.StatusBadRequest:
				logger.Warn("request rejected", fields...)
			case config.SlowThreshold > 0 && duration >= config.SlowThreshold:
				logger.Warn("slow request", fields...)
			default:
				logger.Info("request served", fields...)
			}
		})
	}
}

// callerSlotKey holds a *TenantInfo that the tenant middleware, running
// further down the chain, fills in so the access log can name the caller.
type callerSlotKey struct{}

func recordCaller(ctx context.Context, info *TenantInfo) {
	if slot, ok := ctx.Value(callerSlotKey{}).(*TenantInfo); ok {
		*slot = *info
	}
}

// routePattern is the chi route template ("/api/v1/scans/{id}") so that
// metric labels stay bounded. Unmatched requests collapse to "unmatched".
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

//Personal.AI order the ending
