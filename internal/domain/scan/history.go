package scan

import (
	"fmt"
	"strings"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// Verdict is a human reviewer's classification of a scanned item.
type Verdict string

const (
	VerdictGenuine Verdict = "GENUINE"
	VerdictFake    Verdict = "FAKE"
)

// ParseVerdict accepts GENUINE or FAKE case-insensitively.
func ParseVerdict(s string) (Verdict, error) {
	v := Verdict(strings.ToUpper(strings.TrimSpace(s)))
	if v != VerdictGenuine && v != VerdictFake {
		return "", errors.New(errors.ErrCodeScanVerdictInvalid, fmt.Sprintf("unknown verdict %q", s))
	}
	return v, nil
}

// ScanRecord is the persisted history entry for one completed job. It is
// linked to its job by JobID, one to one.
type ScanRecord struct {
	JobID      common.ID         `json:"job_id"`
	TenantID   common.TenantID   `json:"tenant_id"`
	UserID     common.UserID     `json:"user_id"`
	ProductID  *common.ID        `json:"product_id,omitempty"`
	ImagePath  string            `json:"image_path"`
	ScanType   ScanType          `json:"scan_type"`
	Result     *EvaluationResult `json:"result"`
	Origin     Origin            `json:"vision_origin"`
	Verdict    *Verdict          `json:"verdict,omitempty"`
	VerifiedAt *time.Time        `json:"verified_at,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewScanRecord builds the history entry for a finished job.
func NewScanRecord(job *ScanJob, result *EvaluationResult, origin Origin) *ScanRecord {
	return &ScanRecord{
		JobID:     job.ID,
		TenantID:  job.TenantID,
		UserID:    job.UserID,
		ProductID: job.ProductID,
		ImagePath: job.ImagePath,
		ScanType:  job.ScanType,
		Result:    result,
		Origin:    origin,
		CreatedAt: result.EvaluatedAt,
	}
}

// EffectiveVerdict is the reviewer override if one exists, otherwise the
// verdict implied by an unambiguous system status. SUSPICIOUS and
// INDETERMINATE imply nothing.
func EffectiveVerdict(override *Verdict, status Status) (Verdict, bool) {
	if override != nil {
		return *override, true
	}
	switch status {
	case StatusLikelyGenuine:
		return VerdictGenuine, true
	case StatusHighRisk:
		return VerdictFake, true
	}
	return "", false
}

// VerifiedSample is one prior outcome the training adjuster learns from.
type VerifiedSample struct {
	JobID     common.ID `json:"job_id"`
	RiskScore int       `json:"risk_score"`
	Verdict   Verdict   `json:"verdict"`
}

// SamplesFromRecords keeps the records that resolve to a verdict.
func SamplesFromRecords(records []*ScanRecord) []VerifiedSample {
	out := make([]VerifiedSample, 0, len(records))
	for _, r := range records {
		if r == nil || r.Result == nil {
			continue
		}
		v, ok := EffectiveVerdict(r.Verdict, r.Result.Status)
		if !ok {
			continue
		}
		out = append(out, VerifiedSample{JobID: r.JobID, RiskScore: r.Result.RiskScore, Verdict: v})
	}
	return out
}

//Personal.AI order the ending
