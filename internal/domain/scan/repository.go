package scan

import (
	"context"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// ProductRepository reads product profiles. The engine never writes them.
type ProductRepository interface {
	GetProduct(ctx context.Context, tenantID common.TenantID, id common.ID) (*ProductProfile, error)
}

// ReferenceRepository reads reference fingerprints.
type ReferenceRepository interface {
	GetFingerprint(ctx context.Context, tenantID common.TenantID, id common.ID) (*ReferenceFingerprint, error)
	ListActiveFingerprints(ctx context.Context, tenantID common.TenantID, productID common.ID) ([]*ReferenceFingerprint, error)
}

// JobRepository persists scan jobs. Claim, MarkCompleted and MarkFailed are
// conditional updates on the current status so two workers can never both
// own a job.
type JobRepository interface {
	Create(ctx context.Context, job *ScanJob) error
	Get(ctx context.Context, id common.ID) (*ScanJob, error)
	// Claim moves a PENDING job to PROCESSING. It returns
	// ErrCodeScanAlreadyClaimed when the job is no longer PENDING.
	Claim(ctx context.Context, id common.ID, now time.Time) (*ScanJob, error)
	MarkCompleted(ctx context.Context, id common.ID, now time.Time) error
	MarkFailed(ctx context.Context, id common.ID, reason string, now time.Time) error
	// FailStale fails PROCESSING jobs started before cutoff and returns how
	// many rows it touched.
	FailStale(ctx context.Context, cutoff time.Time, reason string, now time.Time) (int64, error)
	ListPending(ctx context.Context, limit int) ([]*ScanJob, error)
}

// HistoryRepository stores evaluation outcomes keyed by job id and serves the
// verified samples used by the training adjuster.
type HistoryRepository interface {
	SaveResult(ctx context.Context, record *ScanRecord) error
	GetByJobID(ctx context.Context, jobID common.ID) (*ScanRecord, error)
	SetVerdict(ctx context.Context, jobID common.ID, verdict Verdict, now time.Time) error
	// ListForProduct returns the newest records for a product whose job
	// completed. Records left behind by jobs failed mid-flight are excluded.
	ListForProduct(ctx context.Context, tenantID common.TenantID, productID common.ID, limit int) ([]*ScanRecord, error)
}

// HistoryIndexer is a secondary, best-effort sink for search and analytics.
type HistoryIndexer interface {
	IndexRecord(ctx context.Context, record *ScanRecord) error
}

// VisionProvider analyses one stored image.
type VisionProvider interface {
	Name() string
	Analyze(ctx context.Context, imagePath string) (VisionSignature, error)
}

//Personal.AI order the ending
