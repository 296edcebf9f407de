package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/scanjob"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/config"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/database/redis"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/vision"
	httpserver "github.com/themastyogi/Counterfeit-Detector-sub000/internal/interfaces/http"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/interfaces/http/handlers"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/interfaces/http/middleware"
)

// bucketIdleTTL is how long an untouched in-process rate limit bucket lives.
const bucketIdleTTL = 10 * time.Minute

// ─────────────────────────────────────────────────────────────────────────────
// HTTP surface
// ─────────────────────────────────────────────────────────────────────────────

// HTTPHandler builds the API route tree with its middleware stack.
func (a *App) HTTPHandler() http.Handler {
	h, _ := a.httpHandler()
	return h
}

// httpHandler also returns the in-process limiter, if one was chosen, so
// RunAPI can sweep its idle buckets.
func (a *App) httpHandler() (http.Handler, *middleware.TokenBucketLimiter) {
	cfg, log := a.cfg, a.logger

	critical, optional := a.infra.HealthCheckers()
	optional = append(optional, visionChecker(a.vision))
	health := handlers.NewHealthHandler(a.opts.Version, critical...).WithOptional(optional...)

	logCfg := middleware.DefaultLoggingConfig()
	logCfg.Metrics = a.metrics

	rc := httpserver.RouterConfig{
		ScanHandler:   handlers.NewScanHandler(a.scans, cfg.Server.MaxBodySize, log),
		UsageHandler:  handlers.NewUsageHandler(a.quota, log),
		HealthHandler: health,
		CORS:          middleware.CORS(corsConfig(cfg.Server)),
		Logging:       middleware.RequestLogging(log, logCfg),
		Tenant:        middleware.NewTenantMiddleware(tenantConfig(cfg.Server), log),
		Logger:        log,
	}
	if a.collector != nil && cfg.Metrics.Addr == "" {
		rc.MetricsCollector = a.collector
		rc.MetricsPath = cfg.Metrics.Path
	}

	limiter, bucket := newRateLimiter(cfg.Server, a.infra.Redis)
	if limiter != nil {
		rc.RateLimit = middleware.RateLimit(limiter, middleware.DefaultRateLimitConfig(), log)
	}
	return httpserver.NewRouter(rc), bucket
}

func tenantConfig(s config.ServerConfig) middleware.TenantConfig {
	tc := middleware.DefaultTenantConfig()
	if s.TenantHeader != "" {
		tc.HeaderName = s.TenantHeader
	}
	if s.UserHeader != "" {
		tc.UserHeader = s.UserHeader
	}
	return tc
}

func corsConfig(s config.ServerConfig) middleware.CORSConfig {
	cc := middleware.DefaultCORSConfig()
	cc.AllowedOrigins = s.AllowedOrigins
	cc.AllowedHeaders = appendMissing(cc.AllowedHeaders, s.TenantHeader, s.UserHeader)
	return cc
}

func appendMissing(list []string, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		found := false
		for _, have := range list {
			if have == v {
				found = true
				break
			}
		}
		if !found {
			list = append(list, v)
		}
	}
	return list
}

// newRateLimiter picks the shared Redis window when Redis is available and
// a per-process token bucket otherwise. A zero rate disables limiting.
func newRateLimiter(s config.ServerConfig, client *redis.Client) (middleware.RateLimiter, *middleware.TokenBucketLimiter) {
	if s.RateLimitRPS <= 0 {
		return nil, nil
	}
	if client != nil {
		limit := int(s.RateLimitRPS)
		if limit < 1 {
			limit = 1
		}
		return middleware.NewRedisRateLimiter(redis.NewWindowLimiter(client, limit, time.Second)), nil
	}
	bucket := middleware.NewTokenBucketLimiter(s.RateLimitRPS, s.RateLimitBurst, bucketIdleTTL)
	return bucket, bucket
}

// visionChecker reports a provider whose breaker is open. Vision outages
// degrade results to fallback signatures rather than failing scans.
func visionChecker(r *vision.Router) handlers.HealthChecker {
	return handlers.CheckerFunc("vision", func(context.Context) error {
		for _, name := range []string{"local", "openai"} {
			if b := r.Breaker(name); b != nil && b.State() == vision.StateOpen {
				return vision.ErrBreakerOpen
			}
		}
		return nil
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Running
// ─────────────────────────────────────────────────────────────────────────────

// RunAPI serves HTTP until ctx is cancelled. In inline dispatch mode it also
// runs the job pool, which is drained before RunAPI returns.
func (a *App) RunAPI(ctx context.Context) error {
	handler, bucket := a.httpHandler()
	server := httpserver.NewServer(a.cfg.Server, handler, a.logger)

	g, gctx := errgroup.WithContext(ctx)

	if a.pool != nil {
		// Workers outlive ctx so Shutdown can drain the queue.
		if err := a.pool.Start(context.WithoutCancel(ctx), a.scans); err != nil {
			return err
		}
	}
	a.startBackground(g, gctx)
	if bucket != nil {
		g.Go(func() error {
			sweepBuckets(gctx, bucket, bucketIdleTTL)
			return nil
		})
	}
	g.Go(func() error { return server.Run(gctx) })

	err := g.Wait()
	if a.pool != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if perr := a.pool.Shutdown(shutdownCtx); perr != nil {
			a.logger.Warn("scan pool did not drain", logging.Err(perr))
		}
	}
	return err
}

// startBackground launches the tasks both roles run: the stale job sweeper,
// the detection profile watcher and, when configured, a separate metrics
// listener.
func (a *App) startBackground(g *errgroup.Group, ctx context.Context) {
	sweeper := scanjob.NewSweeper(a.scans, a.cfg.Worker.SweepInterval, a.cfg.Worker.StaleAfter, a.logger)
	if a.infra.Redis != nil {
		sweeper.WithLock(redis.NewLease(a.infra.Redis, "scan-sweeper", a.cfg.Worker.SweepLockTTL, a.logger))
	}
	g.Go(func() error {
		sweeper.Run(ctx)
		return nil
	})

	if a.opts.ConfigPath != "" {
		if err := a.WatchProfile(a.opts.ConfigPath); err != nil {
			a.logger.Warn("detection profile reload disabled", logging.Err(err))
		}
	}

	if a.collector != nil && a.cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle(a.cfg.Metrics.Path, a.collector.Handler())
		sc, err := listenConfig(a.cfg.Metrics.Addr)
		if err != nil {
			g.Go(func() error { return err })
			return
		}
		srv := httpserver.NewServer(sc, mux, a.logger.Named("metrics"))
		g.Go(func() error { return srv.Run(ctx) })
	}
}

// WatchProfile swaps the detection profile whenever the config file
// changes. Invalid profiles are logged and the previous one stays active.
func (a *App) WatchProfile(path string) error {
	return config.Watch(path, func(c *config.Config) {
		if _, err := a.profiles.Replace(c.Detection); err != nil {
			a.logger.Warn("detection profile rejected", logging.Err(err))
			return
		}
		a.logger.Info("detection profile reloaded")
	}, func(err error) {
		a.logger.Warn("config reload failed", logging.Err(err))
	})
}

// listenConfig turns "host:port" into a ServerConfig for a side listener.
func listenConfig(addr string) (config.ServerConfig, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return config.ServerConfig{}, fmt.Errorf("metrics.addr %q: %w", addr, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return config.ServerConfig{}, fmt.Errorf("metrics.addr %q: invalid port", addr)
	}
	return config.ServerConfig{Host: host, Port: p, ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second}, nil
}

func sweepBuckets(ctx context.Context, bucket *middleware.TokenBucketLimiter, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bucket.Sweep()
		}
	}
}

//Personal.AI order the ending
