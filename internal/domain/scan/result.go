package scan

import (
	"fmt"
	"time"
)

// Status is the categorical verdict of an evaluation.
type Status string

const (
	StatusLikelyGenuine Status = "LIKELY_GENUINE"
	StatusSuspicious    Status = "SUSPICIOUS"
	StatusHighRisk      Status = "HIGH_RISK"
	StatusIndeterminate Status = "INDETERMINATE"
)

// IsValid reports a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusLikelyGenuine, StatusSuspicious, StatusHighRisk, StatusIndeterminate:
		return true
	}
	return false
}

// Mode is the evaluation path the engine chose for a scan.
type Mode string

const (
	ModeUndefinedCategory Mode = "UNDEFINED_CATEGORY"
	ModeReferenceCompare  Mode = "REFERENCE_COMPARE"
	ModeMasterPlusCloud   Mode = "MASTER_PLUS_CLOUD"
)

// Score bounds and status thresholds.
const (
	MinScore = 0
	MaxScore = 100

	LikelyGenuineMax = 30
	SuspiciousMax    = 60
)

// ClampScore bounds a raw weight sum to [MinScore, MaxScore].
func ClampScore(raw int) int {
	if raw < MinScore {
		return MinScore
	}
	if raw > MaxScore {
		return MaxScore
	}
	return raw
}

// StatusForScore maps a clamped score to a status. It is the only place the
// thresholds are applied.
func StatusForScore(score int) Status {
	switch {
	case score <= LikelyGenuineMax:
		return StatusLikelyGenuine
	case score <= SuspiciousMax:
		return StatusSuspicious
	default:
		return StatusHighRisk
	}
}

// EvaluationResult is the immutable outcome of evaluating one scan.
type EvaluationResult struct {
	Status      Status         `json:"status"`
	RiskScore   int            `json:"risk_score"`
	Violations  []Violation    `json:"violations"`
	Mode        Mode           `json:"used_mode"`
	DebugInfo   map[string]any `json:"debug_info,omitempty"`
	EvaluatedAt time.Time      `json:"evaluated_at"`
}

// NewEvaluationResult derives score and status from the violations. The
// UNDEFINED_CATEGORY mode forces INDETERMINATE whatever the score.
func NewEvaluationResult(mode Mode, violations []Violation, debug map[string]any, now time.Time) (*EvaluationResult, error) {
	switch mode {
	case ModeUndefinedCategory, ModeReferenceCompare, ModeMasterPlusCloud:
	default:
		return nil, fmt.Errorf("scan: unknown evaluation mode %q", mode)
	}
	for i, v := range violations {
		if !v.Kind.IsValid() {
			return nil, fmt.Errorf("scan: violation %d has invalid kind", i)
		}
	}
	vs := make([]Violation, len(violations))
	copy(vs, violations)

	score := ClampScore(TotalWeight(vs))
	status := StatusForScore(score)
	if mode == ModeUndefinedCategory {
		status = StatusIndeterminate
	}
	if debug == nil {
		debug = map[string]any{}
	}
	return &EvaluationResult{
		Status:      status,
		RiskScore:   score,
		Violations:  vs,
		Mode:        mode,
		DebugInfo:   debug,
		EvaluatedAt: now.UTC(),
	}, nil
}

// HasViolation reports whether a kind fired at least once.
func (r *EvaluationResult) HasViolation(kind ViolationKind) bool {
	return r.CountViolations(kind) > 0
}

// CountViolations counts occurrences of kind.
func (r *EvaluationResult) CountViolations(kind ViolationKind) int {
	n := 0
	for _, v := range r.Violations {
		if v.Kind == kind {
			n++
		}
	}
	return n
}

//Personal.AI order the ending
