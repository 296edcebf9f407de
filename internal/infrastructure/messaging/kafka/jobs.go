package kafka

import (
	"context"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/scanjob"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// Source identifies this service in event envelopes.
const Source = "counterfeit-detector"

// MessagePublisher is the part of Producer the job adapters need.
type MessagePublisher interface {
	Publish(ctx context.Context, msg *ProducerMessage) error
}

// JobDispatcher announces submitted jobs on TopicScanSubmitted so that any
// worker in the consumer group can pick them up. Records are keyed by job id.
type JobDispatcher struct {
	pub   MessagePublisher
	topic string
}

// NewJobDispatcher returns a dispatcher publishing to topic, or to
// TopicScanSubmitted when topic is empty.
func NewJobDispatcher(pub MessagePublisher, topic string) *JobDispatcher {
	if topic == "" {
		topic = TopicScanSubmitted
	}
	return &JobDispatcher{pub: pub, topic: topic}
}

// Dispatch implements scanjob.Dispatcher.
func (d *JobDispatcher) Dispatch(ctx context.Context, job *scan.ScanJob) error {
	env, err := NewEventEnvelope(EventScanSubmitted, Source, ScanSubmittedPayload{
		JobID:       string(job.ID),
		TenantID:    string(job.TenantID),
		ScanType:    string(job.ScanType),
		SubmittedAt: job.CreatedAt,
	})
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(d.topic, string(job.ID))
	if err != nil {
		return err
	}
	return d.pub.Publish(ctx, msg)
}

// OutcomePublisher emits terminal job events on the completed and failed
// topics.
type OutcomePublisher struct {
	pub    MessagePublisher
	topics TopicNames
}

func NewOutcomePublisher(pub MessagePublisher, topics TopicNames) *OutcomePublisher {
	return &OutcomePublisher{pub: pub, topics: topics.withDefaults()}
}

// PublishOutcome implements scanjob.EventPublisher.
func (p *OutcomePublisher) PublishOutcome(ctx context.Context, ev scanjob.OutcomeEvent) error {
	topic, eventType := p.topics.Completed, EventScanCompleted
	if ev.Status == scan.JobFailed {
		topic, eventType = p.topics.Failed, EventScanFailed
	}
	env, err := NewEventEnvelope(eventType, Source, ev)
	if err != nil {
		return err
	}
	env.Metadata = map[string]string{"tenant_id": string(ev.TenantID)}
	msg, err := env.ToMessage(topic, string(ev.JobID))
	if err != nil {
		return err
	}
	return p.pub.Publish(ctx, msg)
}

// JobHandler turns TopicScanSubmitted records into Processor calls.
// Malformed records are logged and acknowledged so they do not block the
// partition; processing errors are returned so the consumer retries them.
func JobHandler(proc scanjob.Processor, logger logging.Logger) MessageHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return func(ctx context.Context, msg *Message) error {
		env, err := MessageToEventEnvelope(msg)
		if err != nil {
			logger.Warn("dropping unreadable scan job record", logging.Int64("offset", msg.Offset), logging.Err(err))
			return nil
		}
		var payload ScanSubmittedPayload
		if err := env.DecodePayload(&payload); err != nil || payload.JobID == "" {
			logger.Warn("dropping scan job record without job id", logging.String("event_id", env.EventID))
			return nil
		}
		err = proc.Process(ctx, common.ID(payload.JobID))
		if err != nil && errors.IsNotFound(err) {
			logger.Warn("scan job from record no longer exists", logging.JobID(payload.JobID))
			return nil
		}
		return err
	}
}

//Personal.AI order the ending
