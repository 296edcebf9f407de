package kafka

import (
	"encoding/json"
	stderrors "errors"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

// Topics.
const (
	TopicScanSubmitted  = "scan.jobs.submitted"
	TopicScanCompleted  = "scan.jobs.completed"
	TopicScanFailed     = "scan.jobs.failed"
	TopicScanDeadLetter = "dead_letter.scan"
)

// Event types carried in EventEnvelope.EventType.
const (
	EventScanSubmitted = "scan.submitted"
	EventScanCompleted = "scan.completed"
	EventScanFailed    = "scan.failed"
)

const schemaVersion = "v1"

// EventEnvelope standardizes event messages.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ScanSubmittedPayload announces a PENDING job for the worker fleet.
type ScanSubmittedPayload struct {
	JobID       string    `json:"job_id"`
	TenantID    string    `json:"tenant_id"`
	ScanType    string    `json:"scan_type"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewEventEnvelope marshals payload into a fresh envelope.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "marshal event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: schemaVersion,
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeSerialization, "event has no payload")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "decode event payload")
	}
	return nil
}

// ToMessage encodes the envelope for topic, keyed by key.
func (e *EventEnvelope) ToMessage(topic, key string) (*ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "marshal event envelope")
	}
	headers := map[string]string{
		"event_type":     e.EventType,
		"source_service": e.Source,
		"schema_version": e.SchemaVersion,
	}
	if e.TraceID != "" {
		headers["trace_id"] = e.TraceID
	}
	msg := &ProducerMessage{Topic: topic, Value: val, Headers: headers, Timestamp: e.Timestamp}
	if key != "" {
		msg.Key = []byte(key)
	}
	return msg, nil
}

// MessageToEventEnvelope decodes a consumed record.
func MessageToEventEnvelope(msg *Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "unmarshal event envelope")
	}
	return &env, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Topic management
// ─────────────────────────────────────────────────────────────────────────────

// TopicNames are the four scan topics as configured. Empty names fall back
// to the Topic* constants.
type TopicNames struct {
	Submitted  string
	Completed  string
	Failed     string
	DeadLetter string
}

func (n TopicNames) withDefaults() TopicNames {
	if n.Submitted == "" {
		n.Submitted = TopicScanSubmitted
	}
	if n.Completed == "" {
		n.Completed = TopicScanCompleted
	}
	if n.Failed == "" {
		n.Failed = TopicScanFailed
	}
	if n.DeadLetter == "" {
		n.DeadLetter = TopicScanDeadLetter
	}
	return n
}

const day = int64(24 * time.Hour / time.Millisecond)

// ScanTopics lays out the scan topics. Submitted jobs get the configured
// partition count since it bounds worker parallelism; the outcome and
// dead-letter topics are smaller and kept longer.
func ScanTopics(names TopicNames, partitions, replication int) []TopicConfig {
	names = names.withDefaults()
	if partitions <= 0 {
		partitions = 6
	}
	if replication <= 0 {
		replication = 1
	}
	small := partitions / 2
	if small < 1 {
		small = 1
	}
	return []TopicConfig{
		{Name: names.Submitted, NumPartitions: partitions, ReplicationFactor: replication, RetentionMs: 3 * day},
		{Name: names.Completed, NumPartitions: partitions, ReplicationFactor: replication, RetentionMs: 7 * day},
		{Name: names.Failed, NumPartitions: small, ReplicationFactor: replication, RetentionMs: 7 * day},
		{Name: names.DeadLetter, NumPartitions: small, ReplicationFactor: replication, RetentionMs: 30 * day},
	}
}

// entries renders the per-topic overrides in a stable order.
func (c TopicConfig) entries() []kafka.ConfigEntry {
	var out []kafka.ConfigEntry
	add := func(name, value string) {
		out = append(out, kafka.ConfigEntry{ConfigName: name, ConfigValue: value})
	}
	if c.RetentionMs > 0 {
		add("retention.ms", strconv.FormatInt(c.RetentionMs, 10))
	}
	if c.CleanupPolicy != "" {
		add("cleanup.policy", c.CleanupPolicy)
	}
	if c.MaxMessageBytes > 0 {
		add("max.message.bytes", strconv.Itoa(c.MaxMessageBytes))
	}
	keys := make([]string, 0, len(c.Configs))
	for k := range c.Configs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(k, c.Configs[k])
	}
	return out
}

func (c TopicConfig) validate() error {
	switch {
	case c.Name == "":
		return errors.New(errors.ErrCodeValidation, "kafka: topic name required")
	case c.NumPartitions <= 0:
		return errors.New(errors.ErrCodeValidation, "kafka: partitions must be > 0").WithDetail(c.Name)
	case c.ReplicationFactor <= 0:
		return errors.New(errors.ErrCodeValidation, "kafka: replication_factor must be > 0").WithDetail(c.Name)
	}
	return nil
}

// topicAdmin is the part of kafka.Conn used for topic creation.
type topicAdmin interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager creates the scan topics when kafka.auto_create_topics is on.
type TopicManager struct {
	admin  topicAdmin
	logger logging.Logger
}

// NewTopicManager dials the first broker.
func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka: brokers required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessageQueue, "dial kafka")
	}
	return &TopicManager{admin: conn, logger: logger.Named("kafka.topics")}, nil
}

// EnsureTopics creates each topic that does not exist yet and stops at the
// first failure.
func (m *TopicManager) EnsureTopics(topics []TopicConfig) error {
	for _, t := range topics {
		if err := t.validate(); err != nil {
			return err
		}
		if m.exists(t.Name) {
			m.logger.Debug("topic exists", logging.String("topic", t.Name))
			continue
		}
		err := m.admin.CreateTopics(kafka.TopicConfig{
			Topic:             t.Name,
			NumPartitions:     t.NumPartitions,
			ReplicationFactor: t.ReplicationFactor,
			ConfigEntries:     t.entries(),
		})
		if err != nil && !stderrors.Is(err, kafka.TopicAlreadyExists) {
			return errors.Wrap(err, errors.ErrCodeMessageQueue, "create topic").WithDetail(t.Name)
		}
		m.logger.Info("topic created",
			logging.String("topic", t.Name),
			logging.Int("partitions", t.NumPartitions))
	}
	return nil
}

func (m *TopicManager) exists(name string) bool {
	partitions, err := m.admin.ReadPartitions(name)
	return err == nil && len(partitions) > 0
}

func (m *TopicManager) Close() error { return m.admin.Close() }

//Personal.AI order the ending
