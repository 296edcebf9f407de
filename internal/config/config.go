// Package config defines the configuration of the scan evaluation service.
// Sections reuse the config structs of the components they configure so a
// value set in YAML reaches the component unchanged.
package config

import (
	"fmt"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/evaluation"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/scanjob"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/profile"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/database/postgres"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/database/redis"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/messaging/kafka"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/prometheus"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/search/opensearch"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/storage/minio"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/vision"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	TenantHeader   string   `mapstructure:"tenant_header"`
	UserHeader     string   `mapstructure:"user_header"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RateLimitRPS   float64  `mapstructure:"rate_limit_rps"` // per tenant; 0 disables
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`
}

// Addr is host:port for net/http.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// TopicsConfig names the Kafka topics.
type TopicsConfig struct {
	Submitted  string `mapstructure:"submitted"`
	Completed  string `mapstructure:"completed"`
	Failed     string `mapstructure:"failed"`
	DeadLetter string `mapstructure:"dead_letter"`
}

func (t TopicsConfig) Names() kafka.TopicNames {
	return kafka.TopicNames{Submitted: t.Submitted, Completed: t.Completed, Failed: t.Failed, DeadLetter: t.DeadLetter}
}

// KafkaConfig holds producer and consumer parameters shared by the apiserver
// and the worker.
type KafkaConfig struct {
	Brokers           []string              `mapstructure:"brokers"`
	GroupID           string                `mapstructure:"group_id"`
	AutoOffsetReset   string                `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	Acks              string                `mapstructure:"acks"`
	Compression       string                `mapstructure:"compression"`
	MaxRetries        int                   `mapstructure:"max_retries"`
	RetryBackoff      time.Duration         `mapstructure:"retry_backoff"`
	AutoCreateTopics  bool                  `mapstructure:"auto_create_topics"`
	NumPartitions     int                   `mapstructure:"num_partitions"`
	ReplicationFactor int                   `mapstructure:"replication_factor"`
	Topics            TopicsConfig          `mapstructure:"topics"`
	Security          kafka.SecurityConfig  `mapstructure:"security"`
}

// Producer derives the producer settings.
func (k KafkaConfig) Producer() kafka.ProducerConfig {
	return kafka.ProducerConfig{
		Brokers:          k.Brokers,
		Acks:             k.Acks,
		MaxRetries:       k.MaxRetries,
		CompressionCodec: k.Compression,
		Security:         k.Security,
	}
}

// Consumer derives the settings of the job consumer.
func (k KafkaConfig) Consumer() kafka.ConsumerConfig {
	return kafka.ConsumerConfig{
		Brokers:         k.Brokers,
		GroupID:         k.GroupID,
		Topics:          []string{k.Topics.Submitted},
		AutoOffsetReset: k.AutoOffsetReset,
		Security:        k.Security,
		Retry: kafka.RetryConfig{
			MaxRetries:      k.MaxRetries,
			RetryBackoff:    k.RetryBackoff,
			DeadLetterTopic: k.Topics.DeadLetter,
		},
	}
}

// OpenSearchConfig enables the secondary scan-history index.
type OpenSearchConfig struct {
	Enabled bool                     `mapstructure:"enabled"`
	Client  opensearch.ClientConfig  `mapstructure:"client"`
	Indexer opensearch.IndexerConfig `mapstructure:"indexer"`
}

// MinIOSection wraps the object store settings with an on/off switch.
type MinIOSection struct {
	Enabled           bool `mapstructure:"enabled"`
	minio.MinIOConfig `mapstructure:",squash"`
}

// VisionConfig selects and tunes the vision providers.
type VisionConfig struct {
	LocalEnabled  bool                `mapstructure:"local_enabled"`
	OpenAIEnabled bool                `mapstructure:"openai_enabled"`
	Local         vision.LocalConfig  `mapstructure:"local"`
	OpenAI        vision.OpenAIConfig `mapstructure:"openai"`
	Router        vision.RouterConfig `mapstructure:"router"`
}

// DispatchConfig decides who runs submitted jobs.
type DispatchConfig struct {
	Mode string `mapstructure:"mode"` // "inline" | "kafka"
}

// Dispatch modes.
const (
	DispatchInline = "inline"
	DispatchKafka  = "kafka"
)

// WorkerConfig sizes the job pool and the stale-job sweeper.
type WorkerConfig struct {
	Pool           scanjob.PoolConfig `mapstructure:"pool"`
	SweepInterval  time.Duration      `mapstructure:"sweep_interval"`
	StaleAfter     time.Duration      `mapstructure:"stale_after"`
	SweepLockTTL   time.Duration      `mapstructure:"sweep_lock_ttl"`
	RecoverOnStart bool               `mapstructure:"recover_on_start"`
}

// QuotaConfig picks where monthly usage counters live.
type QuotaConfig struct {
	UsageStore string `mapstructure:"usage_store"` // "postgres" | "redis"
}

// Usage stores.
const (
	UsageStorePostgres = "postgres"
	UsageStoreRedis    = "redis"
)

// CacheConfig tunes the catalog read-through cache.
type CacheConfig struct {
	ProductTTL   time.Duration `mapstructure:"product_ttl"`
	ReferenceTTL time.Duration `mapstructure:"reference_ttl"`
}

// MetricsConfig exposes Prometheus metrics.
type MetricsConfig struct {
	Enabled                   bool   `mapstructure:"enabled"`
	Path                      string `mapstructure:"path"`
	Addr                      string `mapstructure:"addr"` // worker only; apiserver serves on its own port
	prometheus.CollectorConfig `mapstructure:",squash"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration. Every component reads its settings from
// the relevant sub-struct.
type Config struct {
	Server     ServerConfig            `mapstructure:"server"`
	Database   postgres.PostgresConfig `mapstructure:"database"`
	Redis      redis.RedisConfig       `mapstructure:"redis"`
	Cache      CacheConfig             `mapstructure:"cache"`
	Kafka      KafkaConfig             `mapstructure:"kafka"`
	MinIO      MinIOSection            `mapstructure:"minio"`
	OpenSearch OpenSearchConfig        `mapstructure:"opensearch"`
	Vision     VisionConfig            `mapstructure:"vision"`
	Dispatch   DispatchConfig          `mapstructure:"dispatch"`
	Worker     WorkerConfig            `mapstructure:"worker"`
	Quota      QuotaConfig             `mapstructure:"quota"`
	Evaluation evaluation.Config       `mapstructure:"evaluation"`
	Detection  profile.Config          `mapstructure:"detection"`
	Log        logging.LogConfig       `mapstructure:"log"`
	Metrics    MetricsConfig           `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("config: server.rate_limit_rps must be ≥ 0")
	}

	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.Username == "" {
		return fmt.Errorf("config: database.username is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("config: database.database is required")
	}

	// Redis
	if c.Redis.Enabled && c.Redis.Addr == "" && len(c.Redis.ClusterAddrs) == 0 && len(c.Redis.SentinelAddrs) == 0 {
		return fmt.Errorf("config: redis.addr is required when redis is enabled")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Dispatch / Kafka
	switch c.Dispatch.Mode {
	case DispatchInline:
	case DispatchKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.GroupID == "" {
			return fmt.Errorf("config: kafka.group_id is required")
		}
	default:
		return fmt.Errorf("config: dispatch.mode %q is invalid; expected inline|kafka", c.Dispatch.Mode)
	}

	// Quota
	switch c.Quota.UsageStore {
	case UsageStorePostgres:
	case UsageStoreRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("config: quota.usage_store redis requires redis.enabled")
		}
	default:
		return fmt.Errorf("config: quota.usage_store %q is invalid; expected postgres|redis", c.Quota.UsageStore)
	}

	// Vision
	if c.Vision.LocalEnabled && c.Vision.Local.Endpoint == "" {
		return fmt.Errorf("config: vision.local.endpoint is required when the local provider is enabled")
	}
	if c.Vision.OpenAIEnabled && c.Vision.OpenAI.APIKey == "" {
		return fmt.Errorf("config: vision.openai.api_key is required when the openai provider is enabled")
	}

	// OpenSearch
	if c.OpenSearch.Enabled {
		if err := opensearch.ValidateConfig(c.OpenSearch.Client); err != nil {
			return fmt.Errorf("config: opensearch.client: %w", err)
		}
	}

	// Worker
	if c.Worker.Pool.Workers < 1 {
		return fmt.Errorf("config: worker.pool.workers must be ≥ 1, got %d", c.Worker.Pool.Workers)
	}
	if c.Worker.StaleAfter <= c.Worker.Pool.JobTimeout {
		return fmt.Errorf("config: worker.stale_after (%s) must exceed worker.pool.job_timeout (%s)",
			c.Worker.StaleAfter, c.Worker.Pool.JobTimeout)
	}

	// Detection
	if _, err := profile.New(c.Detection); err != nil {
		return fmt.Errorf("config: detection: %w", err)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

//Personal.AI order the ending
