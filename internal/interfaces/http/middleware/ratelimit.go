package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/database/redis"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

// RateLimiter decides whether one more request for key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, RateLimitInfo, error)
}

// RateLimitInfo is reported back to clients in X-RateLimit-* headers.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimitConfig holds configuration for the rate limit middleware.
type RateLimitConfig struct {
	// KeyFunc extracts the bucket key. Default: TenantKeyFunc.
	KeyFunc func(r *http.Request) string
	// SkipPaths bypass limiting.
	SkipPaths []string
	// FailOpen lets requests through when the limiter backend errors.
	FailOpen bool
}

// DefaultRateLimitConfig limits per tenant, failing open.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		KeyFunc:   TenantKeyFunc,
		SkipPaths: []string{"/healthz", "/readyz", "/metrics"},
		FailOpen:  true,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// In-process token bucket
// ─────────────────────────────────────────────────────────────────────────────

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// TokenBucketLimiter is a per-process limiter for single-replica deployments
// or when Redis is disabled.
type TokenBucketLimiter struct {
	rate    float64
	burst   int
	idleTTL time.Duration

	mu      sync.Mutex
	buckets map[string]*tokenBucket
	now     func() time.Time
}

// NewTokenBucketLimiter refills rate tokens per second up to burst. Buckets
// idle for longer than idleTTL are dropped on the next sweep.
func NewTokenBucketLimiter(rate float64, burst int, idleTTL time.Duration) *TokenBucketLimiter {
	if burst < 1 {
		burst = 1
	}
	if idleTTL <= 0 {
		idleTTL = 5 * time.Minute
	}
	return &TokenBucketLimiter{
		rate:    rate,
		burst:   burst,
		idleTTL: idleTTL,
		buckets: make(map[string]*tokenBucket),
		now:     time.Now,
	}
}

func (l *TokenBucketLimiter) Allow(_ context.Context, key string) (bool, RateLimitInfo, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: float64(l.burst), lastRefill: now}
		l.buckets[key] = b
	}
	b.tokens += now.Sub(b.lastRefill).Seconds() * l.rate
	if b.tokens > float64(l.burst) {
		b.tokens = float64(l.burst)
	}
	b.lastRefill = now

	info := RateLimitInfo{Limit: l.burst}
	if l.rate > 0 {
		info.ResetAt = now.Add(time.Duration(float64(time.Second) / l.rate))
	}
	if b.tokens < 1 {
		return false, info, nil
	}
	b.tokens--
	info.Remaining = int(b.tokens)
	return true, info, nil
}

// Sweep drops idle buckets. The server calls it periodically.
func (l *TokenBucketLimiter) Sweep() int {
	threshold := l.now().Add(-l.idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for key, b := range l.buckets {
		if b.lastRefill.Before(threshold) {
			delete(l.buckets, key)
			n++
		}
	}
	return n
}

// BucketCount returns the number of live buckets.
func (l *TokenBucketLimiter) BucketCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// ─────────────────────────────────────────────────────────────────────────────
// Redis window
// ─────────────────────────────────────────────────────────────────────────────

type redisRateLimiter struct {
	window *redis.WindowLimiter
}

// NewRedisRateLimiter shares the limit across replicas through Redis.
func NewRedisRateLimiter(window *redis.WindowLimiter) RateLimiter {
	return &redisRateLimiter{window: window}
}

func (l *redisRateLimiter) Allow(ctx context.Context, key string) (bool, RateLimitInfo, error) {
	res, err := l.window.Allow(ctx, key)
	if err != nil {
		return false, RateLimitInfo{}, err
	}
	return res.Allowed, RateLimitInfo{Limit: res.Limit, Remaining: res.Remaining, ResetAt: res.ResetAt}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

// RateLimit rejects requests over the limit with 429 and Retry-After.
func RateLimit(limiter RateLimiter, config RateLimitConfig, logger logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	skipSet := make(map[string]bool, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skipSet[p] = true
	}
	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = TenantKeyFunc
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipSet[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			allowed, info, err := limiter.Allow(r.Context(), keyFunc(r))
			if err != nil {
				logger.Warn("rate limiter unavailable", logging.Err(err), logging.Bool("fail_open", config.FailOpen))
				if config.FailOpen {
					next.ServeHTTP(w, r)
					return
				}
				writeMiddlewareError(w, http.StatusServiceUnavailable, errors.ErrCodeServiceUnavailable, "rate limiter unavailable")
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			if !info.ResetAt.IsZero() {
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))
			}

			if !allowed {
				retryAfter := int(time.Until(info.ResetAt).Seconds() + 0.999)
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeMiddlewareError(w, http.StatusTooManyRequests, errors.ErrCodeTooManyRequests, "rate limit exceeded, please retry later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TenantKeyFunc buckets by tenant, falling back to the client address.
func TenantKeyFunc(r *http.Request) string {
	if tenantID := ContextGetTenantID(r.Context()); tenantID != "" {
		return "tenant:" + tenantID
	}
	return "ip:" + clientAddr(r)
}

func clientAddr(r *http.Request) string {
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

//Personal.AI order the ending
