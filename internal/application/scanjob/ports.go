package scanjob

import (
	"context"
	"io"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/evaluation"
	domainQuota "github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/quota"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// Analyzer produces a signature for a stored image. It never fails: provider
// errors come back as a fallback signature.
type Analyzer interface {
	Analyze(ctx context.Context, scanType scan.ScanType, imagePath string) scan.VisionSignature
}

// Evaluator runs the risk aggregator.
type Evaluator interface {
	Evaluate(ctx context.Context, req evaluation.Request) (*scan.EvaluationResult, error)
}

// QuotaGate is the part of the quota service the job lifecycle needs.
type QuotaGate interface {
	Enforce(ctx context.Context, tenantID common.TenantID, scanType scan.ScanType) error
	Consume(ctx context.Context, tenantID common.TenantID, scanType scan.ScanType) (*domainQuota.UsagePeriod, error)
}

// ImageStore persists uploaded images and returns the path vision providers
// will read.
type ImageStore interface {
	PutImage(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// Dispatcher hands a created job to whatever will process it.
type Dispatcher interface {
	Dispatch(ctx context.Context, job *scan.ScanJob) error
}

// Processor runs one job through the pipeline.
type Processor interface {
	Process(ctx context.Context, jobID common.ID) error
}

// OutcomeEvent is published when a job reaches a terminal state.
type OutcomeEvent struct {
	JobID      common.ID       `json:"job_id"`
	TenantID   common.TenantID `json:"tenant_id"`
	UserID     common.UserID   `json:"user_id"`
	Status     scan.JobStatus  `json:"status"`
	ScanStatus scan.Status     `json:"scan_status,omitempty"`
	RiskScore  int             `json:"risk_score"`
	Mode       scan.Mode       `json:"used_mode,omitempty"`
	Origin     scan.Origin     `json:"vision_origin,omitempty"`
	Error      string          `json:"error,omitempty"`
	FinishedAt time.Time       `json:"finished_at"`
}

// EventPublisher announces terminal job transitions. Publishing is best
// effort.
type EventPublisher interface {
	PublishOutcome(ctx context.Context, ev OutcomeEvent) error
}

//Personal.AI order the ending
