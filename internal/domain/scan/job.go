package scan

import (
	"fmt"
	"strings"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// ScanType selects the vision tier used for a scan and the quota counter it
// draws from.
type ScanType string

const (
	ScanTypeLocal    ScanType = "LOCAL"
	ScanTypeAIVision ScanType = "AI_VISION"
	ScanTypeAuto     ScanType = "AUTO"
)

// IsValid reports a known scan type.
func (t ScanType) IsValid() bool {
	switch t {
	case ScanTypeLocal, ScanTypeAIVision, ScanTypeAuto:
		return true
	}
	return false
}

// IsHighTier reports whether the scan draws from the high (AI vision) quota.
func (t ScanType) IsHighTier() bool { return t == ScanTypeAIVision }

// ParseScanType accepts the canonical names case-insensitively. Empty input
// defaults to AUTO.
func ParseScanType(s string) (ScanType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ScanTypeAuto, nil
	}
	t := ScanType(s)
	if !t.IsValid() {
		return "", errors.New(errors.ErrCodeScanTypeInvalid, fmt.Sprintf("unknown scan type %q", s))
	}
	return t, nil
}

// JobStatus is the lifecycle state of a scan job.
type JobStatus string

const (
	JobPending    JobStatus = "PENDING"
	JobProcessing JobStatus = "PROCESSING"
	JobCompleted  JobStatus = "COMPLETED"
	JobFailed     JobStatus = "FAILED"
)

// IsTerminal reports COMPLETED or FAILED.
func (s JobStatus) IsTerminal() bool { return s == JobCompleted || s == JobFailed }

// allowedJobTransitions is the whole job state machine. Terminal states have
// no successors; there are no retries.
var allowedJobTransitions = map[JobStatus][]JobStatus{
	JobPending:    {JobProcessing, JobFailed},
	JobProcessing: {JobCompleted, JobFailed},
	JobCompleted:  {},
	JobFailed:     {},
}

// CanTransition reports whether from → to is a legal move.
func CanTransition(from, to JobStatus) bool {
	for _, s := range allowedJobTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ScanJob is the asynchronous envelope around one evaluation.
type ScanJob struct {
	ID           common.ID       `json:"id"`
	TenantID     common.TenantID `json:"tenant_id"`
	UserID       common.UserID   `json:"user_id"`
	ProductID    *common.ID      `json:"product_id,omitempty"`
	ReferenceID  *common.ID      `json:"reference_id,omitempty"`
	ScanType     ScanType        `json:"scan_type"`
	ImagePath    string          `json:"image_path"`
	Status       JobStatus       `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
}

// NewScanJob creates a PENDING job.
func NewScanJob(tenantID common.TenantID, userID common.UserID, scanType ScanType, imagePath string, now time.Time) (*ScanJob, error) {
	if tenantID == "" {
		return nil, errors.InvalidParam("tenant_id is required")
	}
	if strings.TrimSpace(imagePath) == "" {
		return nil, errors.New(errors.ErrCodeScanImageMissing, "image_path is required")
	}
	if !scanType.IsValid() {
		return nil, errors.New(errors.ErrCodeScanTypeInvalid, fmt.Sprintf("unknown scan type %q", scanType))
	}
	return &ScanJob{
		ID:        common.NewID(),
		TenantID:  tenantID,
		UserID:    userID,
		ScanType:  scanType,
		ImagePath: imagePath,
		Status:    JobPending,
		CreatedAt: now.UTC(),
	}, nil
}

// Start moves a PENDING job to PROCESSING.
func (j *ScanJob) Start(now time.Time) error {
	if err := j.transition(JobProcessing); err != nil {
		return err
	}
	t := now.UTC()
	j.StartedAt = &t
	return nil
}

// Complete moves a PROCESSING job to COMPLETED.
func (j *ScanJob) Complete(now time.Time) error {
	if err := j.transition(JobCompleted); err != nil {
		return err
	}
	t := now.UTC()
	j.FinishedAt = &t
	return nil
}

// Fail moves a non-terminal job to FAILED and records the reason.
func (j *ScanJob) Fail(reason string, now time.Time) error {
	if err := j.transition(JobFailed); err != nil {
		return err
	}
	t := now.UTC()
	j.FinishedAt = &t
	j.ErrorMessage = reason
	return nil
}

func (j *ScanJob) transition(to JobStatus) error {
	if !CanTransition(j.Status, to) {
		return errors.New(errors.ErrCodeScanJobInvalidState,
			fmt.Sprintf("illegal status transition %q → %q for scan job %s", j.Status, to, j.ID))
	}
	j.Status = to
	return nil
}

//Personal.AI order the ending
