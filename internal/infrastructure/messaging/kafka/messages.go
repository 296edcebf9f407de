// Package kafka carries scan jobs and their outcomes over Kafka using
// segmentio/kafka-go. It provides a producer and a consumer group wrapper
// with retry and dead-lettering, topic management, and the adapters that
// plug the broker into the scan job lifecycle.
package kafka

import (
	"context"
	"time"
)

// ProducerMessage is one record to publish.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Message is one consumed record.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// MessageHandler processes a consumed record. A returned error triggers the
// consumer's retry policy.
type MessageHandler func(ctx context.Context, msg *Message) error

// TopicConfig describes a topic to create.
type TopicConfig struct {
	Name              string            `mapstructure:"name"`
	NumPartitions     int               `mapstructure:"partitions"`
	ReplicationFactor int               `mapstructure:"replication_factor"`
	RetentionMs       int64             `mapstructure:"retention_ms"`
	CleanupPolicy     string            `mapstructure:"cleanup_policy"`
	MaxMessageBytes   int               `mapstructure:"max_message_bytes"`
	Configs           map[string]string `mapstructure:"configs"`
}

//Personal.AI order the ending
