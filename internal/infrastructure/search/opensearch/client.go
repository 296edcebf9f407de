// Package opensearch indexes completed scan records into an OpenSearch
// cluster so they can be searched and aggregated outside the primary store.
package opensearch

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/opensearch-project/opensearch-go/v3"
	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

var (
	ErrInvalidConfig    = errors.New(errors.ErrCodeValidation, "invalid configuration")
	ErrConnectionFailed = errors.New(errors.ErrCodeSearch, "connection failed")
)

// ClientConfig holds the configuration for the OpenSearch client.
type ClientConfig struct {
	Addresses           []string      `mapstructure:"addresses"`
	Username            string        `mapstructure:"username"`
	Password            string        `mapstructure:"password"`
	TLSEnabled          bool          `mapstructure:"tls_enabled"`
	InsecureSkipVerify  bool          `mapstructure:"insecure_skip_verify"`
	MaxRetries          int           `mapstructure:"max_retries"`
	RetryBackoff        time.Duration `mapstructure:"retry_backoff"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval"`
}

// Client manages the OpenSearch client connection.
type Client struct {
	api     *opensearchapi.Client
	config  ClientConfig
	logger  logging.Logger
	healthy atomic.Bool
	cancel  context.CancelFunc
}

func applyDefaults(cfg *ClientConfig) {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.MaxIdleConnsPerHost == 0 {
		cfg.MaxIdleConnsPerHost = 10
	}
	if cfg.HealthCheckInterval == 0 {
		cfg.HealthCheckInterval = 30 * time.Second
	}
}

// NewClient creates a client, pings the cluster and starts a background
// health check.
func NewClient(cfg ClientConfig, logger logging.Logger) (*Client, error) {
	c, err := newClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	if err := c.Ping(ctx); err != nil {
		cancel()
		return nil, ErrConnectionFailed.WithCause(err)
	}

	go c.startHealthCheck(ctx)
	return c, nil
}

// newClient builds the client without touching the network.
func newClient(cfg ClientConfig, logger logging.Logger) (*Client, error) {
	applyDefaults(&cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		ResponseHeaderTimeout: cfg.RequestTimeout,
	}
	if cfg.TLSEnabled {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		}
	}

	api, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses:     cfg.Addresses,
			Username:      cfg.Username,
			Password:      cfg.Password,
			MaxRetries:    cfg.MaxRetries,
			RetryBackoff:  func(int) time.Duration { return cfg.RetryBackoff },
			Transport:     transport,
			RetryOnStatus: []int{502, 503, 504, 429},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearch, "failed to create opensearch client")
	}

	return &Client{
		api:    api,
		config: cfg,
		logger: logger.Named("opensearch"),
		cancel: func() {},
	}, nil
}

// Ping checks the connection to OpenSearch.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	resp, err := c.api.Ping(ctx, nil)
	if err != nil {
		c.healthy.Store(false)
		c.logger.Warn("OpenSearch ping failed", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeSearch, "ping failed")
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if resp != nil && resp.IsError() {
		c.healthy.Store(false)
		c.logger.Warn("OpenSearch ping returned error status", logging.Int("status", resp.StatusCode))
		return errors.New(errors.ErrCodeSearch, "ping returned error status")
	}

	c.healthy.Store(true)
	return nil
}

// IsHealthy returns the last observed health.
func (c *Client) IsHealthy() bool {
	return c.healthy.Load()
}

// API returns the typed OpenSearch client.
func (c *Client) API() *opensearchapi.Client {
	return c.api
}

// Close stops the health check.
func (c *Client) Close() error {
	c.cancel()
	c.logger.Info("OpenSearch client closed")
	return nil
}

func (c *Client) startHealthCheck(ctx context.Context) {
	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prev := c.healthy.Load()
			err := c.Ping(ctx)
			curr := c.healthy.Load()

			if prev && !curr {
				c.logger.Error("OpenSearch cluster became unhealthy", logging.Err(err))
			} else if !prev && curr {
				c.logger.Info("OpenSearch cluster recovered")
			}
		}
	}
}

// ValidateConfig validates the client configuration.
func ValidateConfig(cfg ClientConfig) error {
	if len(cfg.Addresses) == 0 {
		return ErrInvalidConfig
	}
	if cfg.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "MaxRetries must be >= 0")
	}
	if cfg.RequestTimeout <= 0 {
		return errors.New(errors.ErrCodeValidation, "RequestTimeout must be > 0")
	}
	return nil
}

//Personal.AI order the ending
