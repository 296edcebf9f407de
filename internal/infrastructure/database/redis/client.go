// Package redis backs the catalog read-through cache, the per-tenant usage
// counters, the fixed-window API rate limiter and the sweeper lease.
package redis

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

var (
	ErrClientClosed     = errors.New(errors.ErrCodeInternal, "redis client is closed")
	ErrConnectionFailed = errors.New(errors.ErrCodeCacheError, "redis connection failed")
)

// Deployment modes.
const (
	ModeStandalone = "standalone"
	ModeSentinel   = "sentinel"
	ModeCluster    = "cluster"
)

// RedisConfig selects standalone, sentinel or cluster mode.
type RedisConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Mode            string        `mapstructure:"mode"`
	Addr            string        `mapstructure:"addr"`
	MasterName      string        `mapstructure:"master_name"`
	SentinelAddrs   []string      `mapstructure:"sentinel_addrs"`
	ClusterAddrs    []string      `mapstructure:"cluster_addrs"`
	Password        string        `mapstructure:"password"`
	Username        string        `mapstructure:"username"`
	DB              int           `mapstructure:"db"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	MaxIdleTime     time.Duration `mapstructure:"max_idle_time"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	TLSEnabled      bool          `mapstructure:"tls_enabled"`
	TLSCertFile     string        `mapstructure:"tls_cert_file"`
	TLSKeyFile      string        `mapstructure:"tls_key_file"`
	TLSCAFile       string        `mapstructure:"tls_ca_file"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
}

func (cfg *RedisConfig) withDefaults() {
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 10 * runtime.GOMAXPROCS(0)
	}
	if cfg.MinIdleConns == 0 {
		cfg.MinIdleConns = 2
	}
	if cfg.MaxIdleTime == 0 {
		cfg.MaxIdleTime = 5 * time.Minute
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 3 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 3 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.MinRetryBackoff == 0 {
		cfg.MinRetryBackoff = 8 * time.Millisecond
	}
	if cfg.MaxRetryBackoff == 0 {
		cfg.MaxRetryBackoff = 512 * time.Millisecond
	}
}

// universalOptions maps the config onto go-redis options shared by all three
// modes.
func (cfg *RedisConfig) universalOptions() (*redis.UniversalOptions, error) {
	tlsConfig, err := buildTLSConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts := &redis.UniversalOptions{
		Addrs:           []string{cfg.Addr},
		Username:        cfg.Username,
		Password:        cfg.Password,
		DB:              cfg.DB,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		ConnMaxIdleTime: cfg.MaxIdleTime,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		TLSConfig:       tlsConfig,
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: cfg.MinRetryBackoff,
		MaxRetryBackoff: cfg.MaxRetryBackoff,
	}
	switch cfg.Mode {
	case ModeCluster:
		opts.Addrs = cfg.ClusterAddrs
	case ModeSentinel:
		opts.Addrs = cfg.SentinelAddrs
		opts.MasterName = cfg.MasterName
	}
	return opts, nil
}

func buildTLSConfig(cfg *RedisConfig) (*tls.Config, error) {
	if !cfg.TLSEnabled {
		return nil, nil
	}
	tlsConfig := &tls.Config{InsecureSkipVerify: cfg.TLSInsecure} //nolint:gosec // opt-in for self-signed test clusters
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load redis tls keypair: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	if cfg.TLSCAFile != "" {
		pem, err := os.ReadFile(cfg.TLSCAFile)
		if err != nil {
			return nil, fmt.Errorf("read redis ca: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("redis ca %s holds no certificates", cfg.TLSCAFile)
		}
		tlsConfig.RootCAs = pool
	}
	return tlsConfig, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Client
// ─────────────────────────────────────────────────────────────────────────────

// Client wraps a go-redis client and refuses commands once closed, so a
// component racing shutdown gets ErrClientClosed rather than a pool error.
type Client struct {
	rdb    redis.UniversalClient
	mode   string
	logger logging.Logger
	closed atomic.Bool
}

// NewClient connects and pings. An unknown mode falls back to standalone.
func NewClient(cfg *RedisConfig, log logging.Logger) (*Client, error) {
	cfg.withDefaults()
	opts, err := cfg.universalOptions()
	if err != nil {
		return nil, err
	}

	c := &Client{mode: cfg.Mode, logger: log}
	switch cfg.Mode {
	case ModeCluster:
		c.rdb = redis.NewClusterClient(opts.Cluster())
	case ModeSentinel:
		c.rdb = redis.NewFailoverClient(opts.Failover())
	default:
		if cfg.Mode != "" && cfg.Mode != ModeStandalone {
			log.Warn("unknown redis mode, using standalone", logging.String("mode", cfg.Mode))
		}
		c.mode = ModeStandalone
		c.rdb = redis.NewClient(opts.Simple())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		_ = c.rdb.Close()
		return nil, ErrConnectionFailed.WithCause(err)
	}

	log.Info("redis client connected", logging.String("mode", c.mode), logging.String("addr", cfg.Addr))
	return c, nil
}

// Ping is the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return c.rdb.Ping(ctx).Err()
}

// Close is idempotent.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := c.rdb.Close(); err != nil {
		c.logger.Error("failed to close redis client", logging.Err(err))
		return err
	}
	c.logger.Info("redis client closed")
	return nil
}

// GetUnderlyingClient exposes the go-redis client for scripts.
func (c *Client) GetUnderlyingClient() redis.UniversalClient {
	return c.rdb
}

// ─────────────────────────────────────────────────────────────────────────────
// Commands
// ─────────────────────────────────────────────────────────────────────────────

// closedCmd fails a command built for a closed client.
func closedCmd[T interface{ SetErr(error) }](cmd T) T {
	cmd.SetErr(ErrClientClosed)
	return cmd
}

func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	if c.closed.Load() {
		return closedCmd(redis.NewStringCmd(ctx))
	}
	return c.rdb.Get(ctx, key)
}

func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	if c.closed.Load() {
		return closedCmd(redis.NewStatusCmd(ctx))
	}
	return c.rdb.Set(ctx, key, value, ttl)
}

func (c *Client) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.BoolCmd {
	if c.closed.Load() {
		return closedCmd(redis.NewBoolCmd(ctx))
	}
	return c.rdb.SetNX(ctx, key, value, ttl)
}

func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if c.closed.Load() {
		return closedCmd(redis.NewIntCmd(ctx))
	}
	return c.rdb.Del(ctx, keys...)
}

func (c *Client) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	if c.closed.Load() {
		return closedCmd(redis.NewIntCmd(ctx))
	}
	return c.rdb.Exists(ctx, keys...)
}

func (c *Client) PTTL(ctx context.Context, key string) *redis.DurationCmd {
	if c.closed.Load() {
		return closedCmd(redis.NewDurationCmd(ctx, time.Millisecond))
	}
	return c.rdb.PTTL(ctx, key)
}

func (c *Client) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	if c.closed.Load() {
		return closedCmd(redis.NewMapStringStringCmd(ctx))
	}
	return c.rdb.HGetAll(ctx, key)
}

func (c *Client) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	if c.closed.Load() {
		return closedCmd(redis.NewScanCmd(ctx, nil))
	}
	return c.rdb.Scan(ctx, cursor, match, count)
}

// TxPipeline queues commands for a MULTI/EXEC round trip. After Close, Exec
// fails with the pool's closed error.
func (c *Client) TxPipeline() redis.Pipeliner {
	return c.rdb.TxPipeline()
}

//Personal.AI order the ending
