package app

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/evaluation"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/config"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/profile"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/database/redis"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/vision"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/interfaces/http/middleware"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/testutil"
)

func TestTenantConfig_UsesConfiguredHeaders(t *testing.T) {
	tc := tenantConfig(config.ServerConfig{TenantHeader: "X-Org", UserHeader: "X-Operator"})
	assert.Equal(t, "X-Org", tc.HeaderName)
	assert.Equal(t, "X-Operator", tc.UserHeader)
	assert.True(t, tc.Required)

	def := tenantConfig(config.ServerConfig{})
	assert.Equal(t, middleware.DefaultTenantConfig().HeaderName, def.HeaderName)
}

func TestCORSConfig_AllowsCustomTenantHeaders(t *testing.T) {
	cc := corsConfig(config.ServerConfig{
		AllowedOrigins: []string{"https://console.example.com"},
		TenantHeader:   "X-Org",
		UserHeader:     "X-User-ID",
	})
	assert.Equal(t, []string{"https://console.example.com"}, cc.AllowedOrigins)
	assert.Contains(t, cc.AllowedHeaders, "X-Org")

	count := 0
	for _, h := range cc.AllowedHeaders {
		if h == "X-User-ID" {
			count++
		}
	}
	assert.Equal(t, 1, count, "existing headers are not duplicated")
}

func TestNewRateLimiter_Selection(t *testing.T) {
	limiter, bucket := newRateLimiter(config.ServerConfig{}, nil)
	assert.Nil(t, limiter)
	assert.Nil(t, bucket)

	limiter, bucket = newRateLimiter(config.ServerConfig{RateLimitRPS: 5, RateLimitBurst: 2}, nil)
	require.NotNil(t, limiter)
	require.NotNil(t, bucket)
	ok, info, err := limiter.Allow(context.Background(), "tenant:t1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, info.Limit)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client, err := redis.NewClient(&redis.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	limiter, bucket = newRateLimiter(config.ServerConfig{RateLimitRPS: 0.5}, client)
	require.NotNil(t, limiter)
	assert.Nil(t, bucket)
	ok, info, err = limiter.Allow(context.Background(), "tenant:t1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, info.Limit, "fractional rates round up to one request per second")
}

func TestVisionChecker_ReportsOpenBreaker(t *testing.T) {
	local := &testutil.MockVisionProvider{ProviderName: "local"}
	local.On("Analyze", mock.Anything, "img").Return(scan.VisionSignature{}, stderrors.New("down"))

	r := vision.NewRouter(local, nil, vision.RouterConfig{
		Breaker: vision.BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Hour},
	}, nil, logging.NewNopLogger())
	check := visionChecker(r)

	assert.NoError(t, check.Check(context.Background()))
	r.Analyze(context.Background(), scan.ScanTypeLocal, "img")
	assert.ErrorIs(t, check.Check(context.Background()), vision.ErrBreakerOpen)
}

func TestNewVisionRouter_DisabledProvidersFallBack(t *testing.T) {
	r := newVisionRouter(config.VisionConfig{}, nil, nil, logging.NewNopLogger())
	sig := r.Analyze(context.Background(), scan.ScanTypeAuto, "img")
	assert.True(t, sig.IsFallback())
	assert.Nil(t, r.Breaker("local"))
}

func TestListenConfig(t *testing.T) {
	sc, err := listenConfig("127.0.0.1:9102")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9102", sc.Addr())

	_, err = listenConfig("9102")
	assert.Error(t, err)
	_, err = listenConfig("host:http")
	assert.Error(t, err)
}

func TestNewEvaluator_OfflineWithoutRepositories(t *testing.T) {
	svc, err := NewEvaluator(evaluation.Config{}, profile.NewStore(nil), evaluation.Dependencies{})
	require.NoError(t, err)

	res, err := svc.Evaluate(context.Background(), evaluation.Request{
		TenantID: "offline",
		Product:  &scan.ProductProfile{ID: "p1", Category: "Smartphones", Brand: "Apple"},
		Signature: scan.VisionSignature{
			Labels: []scan.Label{{Description: "Mobile phone", Score: 0.9}},
			Origin: scan.OriginProvider,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, scan.ModeUndefinedCategory, res.Mode)
	assert.Equal(t, scan.StatusIndeterminate, res.Status)
}

func TestInfrastructure_HealthCheckers(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client, err := redis.NewClient(&redis.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)

	infra := &Infrastructure{Redis: client}
	critical, optional := infra.HealthCheckers()
	require.Len(t, critical, 1)
	assert.Empty(t, optional)
	assert.Equal(t, "redis", critical[0].Name())
	assert.NoError(t, critical[0].Check(context.Background()))

	infra.Close(logging.NewNopLogger())
	assert.Error(t, critical[0].Check(context.Background()))
}

func TestSweepBuckets_StopsWithContext(t *testing.T) {
	bucket := middleware.NewTokenBucketLimiter(1, 1, time.Millisecond)
	_, _, _ = bucket.Allow(context.Background(), "k")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweepBuckets(ctx, bucket, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return bucket.BucketCount() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweepBuckets did not return after cancel")
	}
}

func TestRouterProbes_WithoutOptionalClients(t *testing.T) {
	a := &App{
		cfg:      &config.Config{Server: config.ServerConfig{MaxBodySize: 1 << 20}},
		opts:     Options{Role: RoleAPI, Version: "test"},
		logger:   logging.NewNopLogger(),
		infra:    &Infrastructure{},
		profiles: profile.NewStore(nil),
		vision:   newVisionRouter(config.VisionConfig{}, nil, nil, logging.NewNopLogger()),
	}
	h := a.HTTPHandler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"vision"`)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code, "tenant header required")
}

//Personal.AI order the ending
