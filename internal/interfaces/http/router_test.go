package http

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/quota"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/config"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/prometheus"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/interfaces/http/handlers"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/interfaces/http/middleware"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

type stubUsage struct{ mock.Mock }

func (s *stubUsage) Usage(ctx context.Context, tenantID common.TenantID) (*quota.Usage, error) {
	args := s.Called(ctx, tenantID)
	return args.Get(0).(*quota.Usage), args.Error(1)
}

func marker(header string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("X-Chain", header)
			next.ServeHTTP(w, r)
		})
	}
}

func TestNewRouter_ProbesSkipTenant(t *testing.T) {
	r := NewRouter(RouterConfig{
		HealthHandler: handlers.NewHealthHandler("test"),
		Tenant:        middleware.NewTenantMiddleware(middleware.DefaultTenantConfig(), nil),
	})

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detail"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestNewRouter_APIRequiresTenant(t *testing.T) {
	usage := &stubUsage{}
	usage.On("Usage", mock.Anything, common.TenantID("acme")).Return(&quota.Usage{TenantID: "acme"}, nil)
	r := NewRouter(RouterConfig{
		UsageHandler: handlers.NewUsageHandler(usage, nil),
		Tenant:       middleware.NewTenantMiddleware(middleware.DefaultTenantConfig(), nil),
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil)
	req.Header.Set("X-Tenant-ID", "acme")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	usage.AssertExpectations(t)
}

func TestNewRouter_ScanRoutesRegistered(t *testing.T) {
	r := NewRouter(RouterConfig{ScanHandler: handlers.NewScanHandler(nil, 0, nil)})

	// The routes exist: malformed bodies are rejected by the handler, not 404/405.
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/scans"},
		{http.MethodPost, "/api/v1/scans/j1/verify"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/scans/j1", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestNewRouter_MiddlewareOrder(t *testing.T) {
	usage := &stubUsage{}
	usage.On("Usage", mock.Anything, mock.Anything).Return(&quota.Usage{}, nil)
	r := NewRouter(RouterConfig{
		UsageHandler: handlers.NewUsageHandler(usage, nil),
		CORS:         marker("cors"),
		Logging:      marker("logging"),
		Tenant:       marker("tenant"),
		RateLimit:    marker("ratelimit"),
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))
	assert.Equal(t, []string{"cors", "logging", "tenant", "ratelimit"}, w.Header().Values("X-Chain"))
}

func TestNewRouter_Metrics(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "cfd", Subsystem: "router_test"}, logging.NewNopLogger())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	NewRouter(RouterConfig{MetricsCollector: collector, MetricsPath: "/metrics"}).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	NewRouter(RouterConfig{MetricsCollector: collector}).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewRouter_RecoversPanics(t *testing.T) {
	r := NewRouter(RouterConfig{Tenant: func(http.Handler) http.Handler {
		return http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Server
// ─────────────────────────────────────────────────────────────────────────────

func TestServer_ServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(config.ServerConfig{Host: "127.0.0.1", ShutdownTimeout: time.Second},
		NewRouter(RouterConfig{HealthHandler: handlers.NewHealthHandler("t")}), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_Addr(t *testing.T) {
	srv := NewServer(config.ServerConfig{Host: "0.0.0.0", Port: 9090}, http.NotFoundHandler(), nil)
	assert.Equal(t, "0.0.0.0:9090", srv.Addr())
}

//Personal.AI order the ending
