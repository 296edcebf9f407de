package config

import (
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/evaluation"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/scanjob"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/profile"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/messaging/kafka"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort     = 8080
	DefaultServerMode     = "release"
	DefaultMaxBodySize    = 12 << 20
	DefaultTenantHeader   = "X-Tenant-ID"
	DefaultUserHeader     = "X-User-ID"
	DefaultRateLimitBurst = 20

	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "cfdetect"
	DefaultDBUser     = "cfdetect"
	DefaultDBMaxConns = 25
	DefaultMigrations = "file://internal/infrastructure/database/postgres/migrations"

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "cfdetect-workers"

	DefaultMinIOEndpoint = "localhost:9000"

	DefaultDispatchMode = DispatchInline
	DefaultUsageStore   = UsageStorePostgres

	DefaultSweepInterval = time.Minute
	DefaultStaleAfter    = 10 * time.Minute
	DefaultSweepLockTTL  = 50 * time.Second

	DefaultCacheTTL = 5 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "cfdetect"
)

// ApplyDefaults fills every zero-value field in cfg with the service default.
// Fields that have already been set (non-zero values) are left unchanged so
// that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 2 * time.Minute
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.TenantHeader == "" {
		cfg.Server.TenantHeader = DefaultTenantHeader
	}
	if cfg.Server.UserHeader == "" {
		cfg.Server.UserHeader = DefaultUserHeader
	}
	if cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = DefaultRateLimitBurst
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.Database == "" {
		cfg.Database.Database = DefaultDBName
	}
	if cfg.Database.Username == "" {
		cfg.Database.Username = DefaultDBUser
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = DefaultDBMaxConns
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = DefaultMigrations
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Cache.ProductTTL == 0 {
		cfg.Cache.ProductTTL = DefaultCacheTTL
	}
	if cfg.Cache.ReferenceTTL == 0 {
		cfg.Cache.ReferenceTTL = DefaultCacheTTL
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}
	if cfg.Kafka.Acks == "" {
		cfg.Kafka.Acks = "all"
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = 3
	}
	if cfg.Kafka.RetryBackoff == 0 {
		cfg.Kafka.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.Kafka.NumPartitions == 0 {
		cfg.Kafka.NumPartitions = 6
	}
	if cfg.Kafka.ReplicationFactor == 0 {
		cfg.Kafka.ReplicationFactor = 1
	}
	if cfg.Kafka.Topics.Submitted == "" {
		cfg.Kafka.Topics.Submitted = kafka.TopicScanSubmitted
	}
	if cfg.Kafka.Topics.Completed == "" {
		cfg.Kafka.Topics.Completed = kafka.TopicScanCompleted
	}
	if cfg.Kafka.Topics.Failed == "" {
		cfg.Kafka.Topics.Failed = kafka.TopicScanFailed
	}
	if cfg.Kafka.Topics.DeadLetter == "" {
		cfg.Kafka.Topics.DeadLetter = kafka.TopicScanDeadLetter
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}

	// ── OpenSearch ────────────────────────────────────────────────────────────
	if cfg.OpenSearch.Client.RequestTimeout == 0 {
		cfg.OpenSearch.Client.RequestTimeout = 10 * time.Second
	}

	// ── Vision ────────────────────────────────────────────────────────────────
	if cfg.Vision.Router.Timeout == 0 {
		cfg.Vision.Router.Timeout = 30 * time.Second
	}

	// ── Dispatch / Worker / Quota ─────────────────────────────────────────────
	if cfg.Dispatch.Mode == "" {
		cfg.Dispatch.Mode = DefaultDispatchMode
	}
	if cfg.Worker.Pool.Workers == 0 {
		cfg.Worker.Pool.Workers = scanjob.DefaultWorkers
	}
	if cfg.Worker.Pool.QueueSize == 0 {
		cfg.Worker.Pool.QueueSize = scanjob.DefaultQueueSize
	}
	if cfg.Worker.Pool.JobTimeout == 0 {
		cfg.Worker.Pool.JobTimeout = scanjob.DefaultJobTimeout
	}
	if cfg.Worker.SweepInterval == 0 {
		cfg.Worker.SweepInterval = DefaultSweepInterval
	}
	if cfg.Worker.StaleAfter == 0 {
		cfg.Worker.StaleAfter = DefaultStaleAfter
	}
	if cfg.Worker.SweepLockTTL == 0 {
		cfg.Worker.SweepLockTTL = DefaultSweepLockTTL
	}
	if cfg.Quota.UsageStore == "" {
		cfg.Quota.UsageStore = DefaultUsageStore
	}

	// ── Evaluation / Detection ────────────────────────────────────────────────
	if cfg.Evaluation.CategoryMismatchWeight == 0 {
		cfg.Evaluation.CategoryMismatchWeight = evaluation.DefaultCategoryMismatchWeight
	}
	if cfg.Evaluation.TrainingHistoryLimit == 0 {
		cfg.Evaluation.TrainingHistoryLimit = evaluation.DefaultTrainingHistoryLimit
	}
	if detectionUnset(cfg.Detection) {
		cfg.Detection = profile.DefaultConfig()
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// detectionUnset reports a `detection` section that was left out entirely.
func detectionUnset(d profile.Config) bool {
	return d.DefaultBaseline == 0 &&
		len(d.Baselines) == 0 &&
		len(d.LogoThresholds) == 0 &&
		len(d.Challenges) == 0 &&
		d.DefaultLogoThreshold == (profile.LogoThreshold{})
}

//Personal.AI order the ending
