// Package scanjob owns the asynchronous scan lifecycle: submission behind the
// quota gate, out-of-band processing with an explicit PROCESSING state, and
// poll-based retrieval of results keyed by job id.
package scanjob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/evaluation"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/prometheus"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// StaleReason is recorded on jobs failed by the stale sweeper.
const StaleReason = "worker lost: job exceeded processing deadline"

// SubmitRequest is one scan submission. Either Image or ImagePath must be
// set; an uploaded Image is stored first and its path recorded on the job.
type SubmitRequest struct {
	TenantID    common.TenantID
	UserID      common.UserID
	ProductID   *common.ID
	ReferenceID *common.ID
	ScanType    string

	ImagePath   string
	Image       io.Reader
	ImageName   string
	ImageSize   int64
	ContentType string
}

// Service is the scan job lifecycle.
type Service interface {
	Processor
	Submit(ctx context.Context, req SubmitRequest) (*scan.ScanJob, error)
	Get(ctx context.Context, tenantID common.TenantID, id common.ID) (*scan.ScanJob, error)
	GetResult(ctx context.Context, tenantID common.TenantID, id common.ID) (*scan.ScanRecord, error)
	Verify(ctx context.Context, tenantID common.TenantID, id common.ID, verdict string) (*scan.ScanRecord, error)
	FailStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Dependencies wires the service. Images, Indexer and Events are optional.
type Dependencies struct {
	Jobs       scan.JobRepository
	History    scan.HistoryRepository
	Indexer    scan.HistoryIndexer
	Quota      QuotaGate
	Analyzer   Analyzer
	Evaluator  Evaluator
	Images     ImageStore
	Dispatcher Dispatcher
	Events     EventPublisher
	Metrics    *prometheus.ScanMetrics
	Logger     logging.Logger
}

type serviceImpl struct {
	jobs       scan.JobRepository
	history    scan.HistoryRepository
	indexer    scan.HistoryIndexer
	quota      QuotaGate
	analyzer   Analyzer
	evaluator  Evaluator
	images     ImageStore
	dispatcher Dispatcher
	events     EventPublisher
	metrics    *prometheus.ScanMetrics
	logger     logging.Logger
	now        func() time.Time
}

// NewService validates deps and builds the service. A nil Dispatcher is
// allowed for worker processes that only consume.
func NewService(deps Dependencies) (Service, error) {
	switch {
	case deps.Jobs == nil:
		return nil, errors.New(errors.ErrCodeInternal, "scanjob: job repository is required")
	case deps.History == nil:
		return nil, errors.New(errors.ErrCodeInternal, "scanjob: history repository is required")
	case deps.Quota == nil:
		return nil, errors.New(errors.ErrCodeInternal, "scanjob: quota gate is required")
	case deps.Analyzer == nil:
		return nil, errors.New(errors.ErrCodeInternal, "scanjob: analyzer is required")
	case deps.Evaluator == nil:
		return nil, errors.New(errors.ErrCodeInternal, "scanjob: evaluator is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	return &serviceImpl{
		jobs:       deps.Jobs,
		history:    deps.History,
		indexer:    deps.Indexer,
		quota:      deps.Quota,
		analyzer:   deps.Analyzer,
		evaluator:  deps.Evaluator,
		images:     deps.Images,
		dispatcher: deps.Dispatcher,
		events:     deps.Events,
		metrics:    deps.Metrics,
		logger:     deps.Logger.Named("scanjob"),
		now:        time.Now,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Submission
// ─────────────────────────────────────────────────────────────────────────────

// Submit checks quota, stores the image, creates a PENDING job and hands it
// to the dispatcher. It never waits for the evaluation.
func (s *serviceImpl) Submit(ctx context.Context, req SubmitRequest) (*scan.ScanJob, error) {
	scanType, err := scan.ParseScanType(req.ScanType)
	if err != nil {
		return nil, err
	}
	if req.TenantID == "" {
		return nil, errors.InvalidParam("tenant_id is required")
	}
	if req.Image == nil && strings.TrimSpace(req.ImagePath) == "" {
		return nil, errors.New(errors.ErrCodeScanImageMissing, "an image upload or image_path is required")
	}

	if err := s.quota.Enforce(ctx, req.TenantID, scanType); err != nil {
		return nil, err
	}

	imagePath := req.ImagePath
	if req.Image != nil {
		if s.images == nil {
			return nil, errors.New(errors.ErrCodeFeatureDisabled, "image uploads are not configured")
		}
		imagePath, err = s.images.PutImage(ctx, s.imageKey(req), req.Image, req.ImageSize, req.ContentType)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStorage, "store scan image")
		}
	}

	job, err := scan.NewScanJob(req.TenantID, req.UserID, scanType, imagePath, s.now())
	if err != nil {
		return nil, err
	}
	job.ProductID = nonEmpty(req.ProductID)
	job.ReferenceID = nonEmpty(req.ReferenceID)

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "create scan job")
	}

	log := s.logger.With(logging.JobID(string(job.ID)), logging.TenantID(string(job.TenantID)))
	if s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(ctx, job); err != nil {
			// A job nobody will pick up must not stay PENDING.
			reason := fmt.Sprintf("dispatch failed: %v", err)
			if ferr := s.jobs.MarkFailed(context.WithoutCancel(ctx), job.ID, reason, s.now()); ferr != nil {
				log.Error("failed to mark undispatched job", logging.Err(ferr))
			}
			return nil, errors.Wrap(err, errors.CodeUnknown, "dispatch scan job")
		}
	}

	s.metrics.RecordJobSubmitted(string(job.ScanType))
	log.Info("scan job submitted", logging.String("scan_type", string(job.ScanType)))
	return job, nil
}

// imageKey is tenant/yyyy/mm/<uuid><ext>.
func (s *serviceImpl) imageKey(req SubmitRequest) string {
	ext := strings.ToLower(path.Ext(req.ImageName))
	if ext == "" {
		switch req.ContentType {
		case "image/png":
			ext = ".png"
		case "image/webp":
			ext = ".webp"
		default:
			ext = ".jpg"
		}
	}
	return path.Join(string(req.TenantID), s.now().UTC().Format("2006/01"), uuid.NewString()+ext)
}

func nonEmpty(id *common.ID) *common.ID {
	if id == nil || strings.TrimSpace(string(*id)) == "" {
		return nil
	}
	v := *id
	return &v
}

// ─────────────────────────────────────────────────────────────────────────────
// Processing
// ─────────────────────────────────────────────────────────────────────────────

// Process claims a PENDING job and runs it to a terminal state. A job already
// claimed elsewhere is skipped without error so redelivered messages are
// harmless. Any error or panic after the claim fails the job.
func (s *serviceImpl) Process(ctx context.Context, jobID common.ID) (err error) {
	job, err := s.jobs.Claim(ctx, jobID, s.now())
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeScanAlreadyClaimed) {
			s.logger.Debug("scan job already claimed", logging.JobID(string(jobID)))
			return nil
		}
		return errors.Wrap(err, errors.CodeUnknown, "claim scan job")
	}
	log := s.logger.With(logging.JobID(string(job.ID)), logging.TenantID(string(job.TenantID)))
	started := s.now()

	defer func() {
		if r := recover(); r != nil {
			reason := fmt.Sprintf("panic: %v", r)
			log.Error("scan pipeline panicked", logging.Any("panic", r))
			s.fail(ctx, job, reason, started, log)
			err = errors.New(errors.ErrCodeInternal, reason)
		}
	}()

	record, err := s.run(ctx, job, log)
	if err != nil {
		s.fail(ctx, job, err.Error(), started, log)
		return err
	}

	if err := s.jobs.MarkCompleted(ctx, job.ID, s.now()); err != nil {
		// The job was failed underneath us (stale sweep); do not charge.
		log.Warn("could not mark scan job completed", logging.Err(err))
		return errors.Wrap(err, errors.CodeUnknown, "complete scan job")
	}
	if _, err := s.quota.Consume(ctx, job.TenantID, job.ScanType); err != nil {
		log.Error("usage increment failed for completed scan", logging.Err(err))
	}
	s.index(ctx, record, log)

	finished := s.now()
	s.metrics.RecordJobFinished(string(scan.JobCompleted), finished.Sub(started))
	s.publish(ctx, OutcomeEvent{
		JobID:      job.ID,
		TenantID:   job.TenantID,
		UserID:     job.UserID,
		Status:     scan.JobCompleted,
		ScanStatus: record.Result.Status,
		RiskScore:  record.Result.RiskScore,
		Mode:       record.Result.Mode,
		Origin:     record.Origin,
		FinishedAt: finished.UTC(),
	}, log)
	log.Info("scan job completed",
		logging.String("status", string(record.Result.Status)),
		logging.Int("risk_score", record.Result.RiskScore),
		logging.Duration("elapsed", finished.Sub(started)))
	return nil
}

// run is the pipeline body: vision, evaluation, persistence.
func (s *serviceImpl) run(ctx context.Context, job *scan.ScanJob, log logging.Logger) (*scan.ScanRecord, error) {
	sig := s.analyzer.Analyze(ctx, job.ScanType, job.ImagePath)
	if sig.IsFallback() {
		log.Warn("vision provider unavailable; using fallback signature", logging.String("provider", sig.Provider))
	}

	res, err := s.evaluator.Evaluate(ctx, evaluation.Request{
		TenantID:    job.TenantID,
		ProductID:   job.ProductID,
		ReferenceID: job.ReferenceID,
		Signature:   sig,
	})
	if err != nil {
		return nil, err
	}

	origin := sig.Origin
	if origin == "" {
		origin = scan.OriginProvider
	}
	record := scan.NewScanRecord(job, res, origin)
	if err := s.history.SaveResult(ctx, record); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "save scan result")
	}
	return record, nil
}

func (s *serviceImpl) fail(ctx context.Context, job *scan.ScanJob, reason string, started time.Time, log logging.Logger) {
	now := s.now()
	if err := s.jobs.MarkFailed(context.WithoutCancel(ctx), job.ID, reason, now); err != nil {
		log.Error("failed to mark scan job failed", logging.Err(err))
		return
	}
	s.metrics.RecordJobFinished(string(scan.JobFailed), now.Sub(started))
	s.publish(ctx, OutcomeEvent{
		JobID:      job.ID,
		TenantID:   job.TenantID,
		UserID:     job.UserID,
		Status:     scan.JobFailed,
		Error:      reason,
		FinishedAt: now.UTC(),
	}, log)
	log.Warn("scan job failed", logging.String("reason", reason))
}

func (s *serviceImpl) index(ctx context.Context, record *scan.ScanRecord, log logging.Logger) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexRecord(ctx, record); err != nil {
		log.Warn("scan history indexing failed", logging.Err(err))
	}
}

func (s *serviceImpl) publish(ctx context.Context, ev OutcomeEvent, log logging.Logger) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOutcome(context.WithoutCancel(ctx), ev); err != nil {
		log.Warn("publishing scan outcome failed", logging.Err(err))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

// Get returns the job if it belongs to tenantID.
func (s *serviceImpl) Get(ctx context.Context, tenantID common.TenantID, id common.ID) (*scan.ScanJob, error) {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.TenantID != tenantID {
		return nil, errors.New(errors.ErrCodeScanJobNotFound, fmt.Sprintf("scan job %s not found", id))
	}
	return job, nil
}

// GetResult returns the history record written by job id. It is only
// available once the job is COMPLETED.
func (s *serviceImpl) GetResult(ctx context.Context, tenantID common.TenantID, id common.ID) (*scan.ScanRecord, error) {
	job, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if job.Status != scan.JobCompleted {
		return nil, errors.New(errors.ErrCodeScanJobInvalidState,
			fmt.Sprintf("scan job %s is %s; no result available", id, job.Status))
	}
	return s.history.GetByJobID(ctx, id)
}

// Verify records a reviewer's verdict on a completed scan.
func (s *serviceImpl) Verify(ctx context.Context, tenantID common.TenantID, id common.ID, verdict string) (*scan.ScanRecord, error) {
	v, err := scan.ParseVerdict(verdict)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetResult(ctx, tenantID, id); err != nil {
		return nil, err
	}
	if err := s.history.SetVerdict(ctx, id, v, s.now()); err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "record verdict")
	}
	log := s.logger.With(logging.JobID(string(id)), logging.TenantID(string(tenantID)))
	log.Info("scan verdict recorded", logging.String("verdict", string(v)))
	record, err := s.history.GetByJobID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.index(ctx, record, log)
	return record, nil
}

// FailStale fails PROCESSING jobs that started more than olderThan ago.
func (s *serviceImpl) FailStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	now := s.now()
	n, err := s.jobs.FailStale(ctx, now.Add(-olderThan), StaleReason, now)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "fail stale scan jobs")
	}
	if n > 0 {
		s.logger.Warn("stale scan jobs failed", logging.Int64("count", n), logging.Duration("older_than", olderThan))
	}
	return n, nil
}

//Personal.AI order the ending
