// Package app is the composition root shared by the cfdetect binaries. It
// opens the infrastructure clients named in the configuration, builds the
// scan pipeline on top of them and runs it as an API server or a worker.
package app

import (
	"context"
	"fmt"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/config"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/database/postgres"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/database/redis"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/messaging/kafka"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/search/opensearch"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/storage/minio"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/interfaces/http/handlers"
)

// Infrastructure holds the external clients of one process. Optional
// clients are nil when their section is disabled.
type Infrastructure struct {
	Postgres   *postgres.Connection
	Redis      *redis.Client
	MinIO      *minio.MinIOClient
	OpenSearch *opensearch.Client
	Producer   *kafka.Producer
}

// Close releases every open client, most dependent first.
func (i *Infrastructure) Close(logger logging.Logger) {
	if i == nil {
		return
	}
	closeAll := []struct {
		name string
		fn   func() error
	}{
		{"kafka producer", closerOf(i.Producer != nil, func() error { return i.Producer.Close() })},
		{"opensearch", closerOf(i.OpenSearch != nil, func() error { return i.OpenSearch.Close() })},
		{"minio", closerOf(i.MinIO != nil, func() error { return i.MinIO.Close() })},
		{"redis", closerOf(i.Redis != nil, func() error { return i.Redis.Close() })},
		{"postgres", closerOf(i.Postgres != nil, func() error { return i.Postgres.Close() })},
	}
	for _, c := range closeAll {
		if c.fn == nil {
			continue
		}
		if err := c.fn(); err != nil {
			logger.Warn("failed to close client", logging.String("client", c.name), logging.Err(err))
		}
	}
}

func closerOf(open bool, fn func() error) func() error {
	if !open {
		return nil
	}
	return fn
}

// NewInfrastructure connects to everything cfg enables. withProducer asks
// for a Kafka producer even in inline mode; the worker publishes outcomes
// through it.
func NewInfrastructure(ctx context.Context, cfg *config.Config, withProducer bool, logger logging.Logger) (*Infrastructure, error) {
	infra := &Infrastructure{}

	pg, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	infra.Postgres = pg
	if cfg.Database.AutoMigrate {
		if err := pg.Migrate(); err != nil {
			infra.Close(logger)
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
	}

	if cfg.Redis.Enabled {
		rc := cfg.Redis
		client, err := redis.NewClient(&rc, logger)
		if err != nil {
			infra.Close(logger)
			return nil, fmt.Errorf("redis: %w", err)
		}
		infra.Redis = client
	}

	if cfg.MinIO.Enabled {
		mc := cfg.MinIO.MinIOConfig
		client, err := minio.NewMinIOClient(&mc, logger)
		if err != nil {
			infra.Close(logger)
			return nil, fmt.Errorf("minio: %w", err)
		}
		infra.MinIO = client
	}

	if cfg.OpenSearch.Enabled {
		client, err := opensearch.NewClient(cfg.OpenSearch.Client, logger)
		if err != nil {
			infra.Close(logger)
			return nil, fmt.Errorf("opensearch: %w", err)
		}
		infra.OpenSearch = client
	}

	if cfg.Dispatch.Mode == config.DispatchKafka || withProducer {
		if cfg.Kafka.AutoCreateTopics {
			if err := ensureTopics(cfg.Kafka, logger); err != nil {
				logger.Warn("kafka topic provisioning failed", logging.Err(err))
			}
		}
		producer, err := kafka.NewProducer(cfg.Kafka.Producer(), logger)
		if err != nil {
			infra.Close(logger)
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		infra.Producer = producer
	}

	logger.Info("infrastructure initialized",
		logging.Bool("redis", infra.Redis != nil),
		logging.Bool("minio", infra.MinIO != nil),
		logging.Bool("opensearch", infra.OpenSearch != nil),
		logging.Bool("kafka", infra.Producer != nil))
	return infra, nil
}

func ensureTopics(cfg config.KafkaConfig, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Brokers, logger)
	if err != nil {
		return err
	}
	defer tm.Close()
	return tm.EnsureTopics(kafka.ScanTopics(cfg.Topics.Names(), cfg.NumPartitions, cfg.ReplicationFactor))
}

// HealthCheckers splits the open clients into dependencies the process
// cannot serve without and ones it degrades around.
func (i *Infrastructure) HealthCheckers() (critical, optional []handlers.HealthChecker) {
	if i.Postgres != nil {
		critical = append(critical, handlers.CheckerFunc("postgres", i.Postgres.HealthCheck))
	}
	if i.Redis != nil {
		critical = append(critical, handlers.CheckerFunc("redis", i.Redis.Ping))
	}
	if i.MinIO != nil {
		critical = append(critical, handlers.CheckerFunc("minio", i.MinIO.Ping))
	}
	if i.OpenSearch != nil {
		optional = append(optional, handlers.CheckerFunc("opensearch", i.OpenSearch.Ping))
	}
	return critical, optional
}

//Personal.AI order the ending
