package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/testutil"
	apperrors "github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

// recordingWriter captures what the producer hands to kafka-go.
type recordingWriter struct {
	written []kafka.Message
	err     error
	closed  bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func producerOver(w WriterInterface) *Producer {
	return &Producer{
		writer:  w,
		config:  ProducerConfig{Brokers: []string{"localhost:9092"}, MaxMessageBytes: 1024},
		logger:  testutil.NewNopLogger(),
		metrics: &ProducerMetrics{},
	}
}

func submittedMessage(t *testing.T, jobID string) *ProducerMessage {
	t.Helper()
	env, err := NewEventEnvelope(EventScanSubmitted, Source, ScanSubmittedPayload{
		JobID:       jobID,
		TenantID:    "acme",
		ScanType:    "AUTO",
		SubmittedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	msg, err := env.ToMessage(TopicScanSubmitted, jobID)
	require.NoError(t, err)
	return msg
}

func TestValidateProducerConfig(t *testing.T) {
	assert.NoError(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"k1:9092"}}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"k1:9092"}, MaxRetries: -1}))
}

func TestPublish_KeysByJobID(t *testing.T) {
	w := &recordingWriter{}
	p := producerOver(w)

	require.NoError(t, p.Publish(context.Background(), submittedMessage(t, "job-42")))
	require.Len(t, w.written, 1)

	got := w.written[0]
	assert.Equal(t, TopicScanSubmitted, got.Topic)
	assert.Equal(t, "job-42", string(got.Key))
	assert.False(t, got.Time.IsZero())

	var env EventEnvelope
	require.NoError(t, json.Unmarshal(got.Value, &env))
	assert.Equal(t, EventScanSubmitted, env.EventType)
	assert.Equal(t, int64(1), p.metrics.MessagesSent.Load())
	assert.Equal(t, int64(len(got.Value)), p.metrics.BytesSent.Load())
}

func TestPublish_Rejects(t *testing.T) {
	p := producerOver(&recordingWriter{})
	ctx := context.Background()

	assert.True(t, apperrors.IsCode(p.Publish(ctx, nil), apperrors.ErrCodeValidation))
	assert.True(t, apperrors.IsCode(p.Publish(ctx, &ProducerMessage{Value: []byte("x")}), apperrors.ErrCodeValidation))
	assert.True(t, apperrors.IsCode(p.Publish(ctx, &ProducerMessage{Topic: TopicScanSubmitted}), apperrors.ErrCodeValidation))

	big := &ProducerMessage{Topic: TopicScanSubmitted, Value: []byte(strings.Repeat("x", 2048))}
	assert.True(t, apperrors.IsCode(p.Publish(ctx, big), apperrors.ErrCodeValidation))
}

func TestPublish_WriterFailure(t *testing.T) {
	p := producerOver(&recordingWriter{err: errors.New("leader not available")})

	err := p.Publish(context.Background(), submittedMessage(t, "job-1"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMessageQueue))
	assert.Equal(t, int64(1), p.metrics.MessagesFailed.Load())
}

func TestClose_IsIdempotent(t *testing.T) {
	w := &recordingWriter{}
	p := producerOver(w)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), submittedMessage(t, "job-1")), ErrProducerClosed)
}

//Personal.AI order the ending
