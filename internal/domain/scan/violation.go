package scan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ViolationKind is the closed set of reasons a scan can accumulate risk.
// The zero value is invalid so that an unset kind never reaches a result.
type ViolationKind uint8

const (
	kindInvalid ViolationKind = iota
	ViolationNoRulesDefined
	ViolationBaselineRisk
	ViolationCategoryMismatch
	ViolationLogoMissing
	ViolationAppleLogoMissing
	ViolationLowLogoConfidence
	ViolationBrandMismatch
	ViolationMultipleLogos
	ViolationWatermarkDetected
	ViolationLowOCRConfidence
	ViolationBrandMisspelling
	ViolationSuspiciousText
	ViolationCategoryPattern
	ViolationSpoofDetected
	ViolationMissingIdentifier
	ViolationInvalidIdentifier
	ViolationReferenceMatch
	ViolationReferenceMismatch
	ViolationReferenceNotFound
	ViolationNoReference
	ViolationChallengeAdjustment
	ViolationTrainingAdjustment
	ViolationVisionFallback
	kindSentinel
)

var violationCodes = [...]string{
	kindInvalid:                  "",
	ViolationNoRulesDefined:      "NO_RULES_DEFINED",
	ViolationBaselineRisk:        "BASELINE_RISK",
	ViolationCategoryMismatch:    "CATEGORY_MISMATCH",
	ViolationLogoMissing:         "LOGO_MISSING",
	ViolationAppleLogoMissing:    "APPLE_LOGO_MISSING",
	ViolationLowLogoConfidence:   "LOW_LOGO_CONFIDENCE",
	ViolationBrandMismatch:       "BRAND_MISMATCH",
	ViolationMultipleLogos:       "MULTIPLE_LOGOS",
	ViolationWatermarkDetected:   "WATERMARK_DETECTED",
	ViolationLowOCRConfidence:    "LOW_OCR_CONFIDENCE",
	ViolationBrandMisspelling:    "BRAND_MISSPELLING",
	ViolationSuspiciousText:      "SUSPICIOUS_TEXT",
	ViolationCategoryPattern:     "CATEGORY_PATTERN",
	ViolationSpoofDetected:       "SPOOF_DETECTED",
	ViolationMissingIdentifier:   "MISSING_IDENTIFIER",
	ViolationInvalidIdentifier:   "INVALID_IDENTIFIER",
	ViolationReferenceMatch:      "REFERENCE_MATCH",
	ViolationReferenceMismatch:   "REFERENCE_MISMATCH",
	ViolationReferenceNotFound:   "REFERENCE_NOT_FOUND",
	ViolationNoReference:         "NO_REFERENCE",
	ViolationChallengeAdjustment: "CHALLENGE_ADJUSTMENT",
	ViolationTrainingAdjustment:  "TRAINING_ADJUSTMENT",
	ViolationVisionFallback:      "VISION_FALLBACK",
}

// AllViolationKinds lists every valid kind in declaration order.
func AllViolationKinds() []ViolationKind {
	out := make([]ViolationKind, 0, int(kindSentinel)-1)
	for k := kindInvalid + 1; k < kindSentinel; k++ {
		out = append(out, k)
	}
	return out
}

// IsValid reports whether k is one of the declared kinds.
func (k ViolationKind) IsValid() bool { return k > kindInvalid && k < kindSentinel }

// String returns the stable wire code, e.g. "LOGO_MISSING".
func (k ViolationKind) String() string {
	if !k.IsValid() {
		return fmt.Sprintf("ViolationKind(%d)", uint8(k))
	}
	return violationCodes[k]
}

// ParseViolationKind maps a wire code back to its kind. Codes are matched
// case-insensitively; unknown codes are an error, never a zero-weight kind.
func ParseViolationKind(code string) (ViolationKind, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for k := kindInvalid + 1; k < kindSentinel; k++ {
		if violationCodes[k] == code {
			return k, nil
		}
	}
	return kindInvalid, fmt.Errorf("scan: unknown violation code %q", code)
}

func (k ViolationKind) MarshalText() ([]byte, error) {
	if !k.IsValid() {
		return nil, fmt.Errorf("scan: cannot marshal invalid violation kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *ViolationKind) UnmarshalText(b []byte) error {
	parsed, err := ParseViolationKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Evidence: typed payloads attached to violations
// ─────────────────────────────────────────────────────────────────────────────

// Evidence is the typed payload of a violation. The set of implementations is
// closed to this package.
type Evidence interface {
	evidence()
}

// LogoEvidence describes a logo-related finding.
type LogoEvidence struct {
	Brand      string   `json:"brand,omitempty"`
	Detected   []string `json:"detected,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
}

// TextEvidence carries the substring that triggered a text finding.
type TextEvidence struct {
	Match string `json:"match"`
}

// IdentifierEvidence names the identifier a rule was checked against.
type IdentifierEvidence struct {
	Name    string `json:"name"`
	Value   string `json:"value,omitempty"`
	Pattern string `json:"pattern,omitempty"`
}

// SimilarityEvidence records a reference comparison outcome.
type SimilarityEvidence struct {
	ReferenceID string  `json:"reference_id,omitempty"`
	Similarity  float64 `json:"similarity"`
	Confidence  string  `json:"confidence,omitempty"`
}

// CategoryEvidence records a category/label consistency finding.
type CategoryEvidence struct {
	Category string   `json:"category"`
	Labels   []string `json:"labels,omitempty"`
	Rule     string   `json:"rule,omitempty"`
}

// AdjustmentEvidence explains a contextual or statistical score nudge.
type AdjustmentEvidence struct {
	Reason string `json:"reason"`
}

func (LogoEvidence) evidence()       {}
func (TextEvidence) evidence()       {}
func (IdentifierEvidence) evidence() {}
func (SimilarityEvidence) evidence() {}
func (CategoryEvidence) evidence()   {}
func (AdjustmentEvidence) evidence() {}

// newEvidence returns an empty payload of the type a kind carries.
func newEvidence(k ViolationKind) Evidence {
	switch k {
	case ViolationLogoMissing, ViolationAppleLogoMissing, ViolationLowLogoConfidence,
		ViolationBrandMismatch, ViolationMultipleLogos:
		return &LogoEvidence{}
	case ViolationWatermarkDetected, ViolationBrandMisspelling, ViolationSuspiciousText, ViolationSpoofDetected:
		return &TextEvidence{}
	case ViolationMissingIdentifier, ViolationInvalidIdentifier:
		return &IdentifierEvidence{}
	case ViolationReferenceMatch, ViolationReferenceMismatch, ViolationReferenceNotFound:
		return &SimilarityEvidence{}
	case ViolationCategoryMismatch, ViolationCategoryPattern, ViolationBaselineRisk:
		return &CategoryEvidence{}
	default:
		return &AdjustmentEvidence{}
	}
}

func derefEvidence(e Evidence) Evidence {
	switch v := e.(type) {
	case *LogoEvidence:
		return *v
	case *TextEvidence:
		return *v
	case *IdentifierEvidence:
		return *v
	case *SimilarityEvidence:
		return *v
	case *CategoryEvidence:
		return *v
	case *AdjustmentEvidence:
		return *v
	}
	return e
}

// ─────────────────────────────────────────────────────────────────────────────
// Violation
// ─────────────────────────────────────────────────────────────────────────────

// Violation is one named, weighted contribution to a scan's risk score.
// Weights may be negative for adjustments that reduce risk.
type Violation struct {
	Kind     ViolationKind
	Message  string
	Weight   int
	Evidence Evidence
}

// NewViolation builds a violation. It panics on an invalid kind since kinds
// are compile-time constants.
func NewViolation(kind ViolationKind, weight int, message string, ev Evidence) Violation {
	if !kind.IsValid() {
		panic(fmt.Sprintf("scan: invalid violation kind %d", uint8(kind)))
	}
	return Violation{Kind: kind, Message: message, Weight: weight, Evidence: ev}
}

type violationJSON struct {
	Code     ViolationKind   `json:"code"`
	Message  string          `json:"message"`
	Weight   int             `json:"weight"`
	Evidence json.RawMessage `json:"evidence,omitempty"`
}

func (v Violation) MarshalJSON() ([]byte, error) {
	out := violationJSON{Code: v.Kind, Message: v.Message, Weight: v.Weight}
	if v.Evidence != nil {
		raw, err := json.Marshal(v.Evidence)
		if err != nil {
			return nil, err
		}
		out.Evidence = raw
	}
	return json.Marshal(out)
}

func (v *Violation) UnmarshalJSON(b []byte) error {
	var in violationJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	v.Kind, v.Message, v.Weight, v.Evidence = in.Code, in.Message, in.Weight, nil
	if len(in.Evidence) > 0 && string(in.Evidence) != "null" {
		ev := newEvidence(in.Code)
		if err := json.Unmarshal(in.Evidence, ev); err != nil {
			return fmt.Errorf("scan: decode evidence for %s: %w", in.Code, err)
		}
		v.Evidence = derefEvidence(ev)
	}
	return nil
}

// Kinds returns the kind codes of vs in order, duplicates included.
func Kinds(vs []Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Kind.String()
	}
	return out
}

// TotalWeight sums the weights of vs without clamping.
func TotalWeight(vs []Violation) int {
	total := 0
	for _, v := range vs {
		total += v.Weight
	}
	return total
}

//Personal.AI order the ending
