// Package reference compares a scan's vision signature against the stored
// fingerprint of a genuine reference image.
package reference

import (
	"fmt"
	"math"
	"strings"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
)

// Confidence is the tier an overall similarity falls into.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Tier boundaries on the 0..100 overall similarity.
const (
	HighMatchMin   = 75.0
	MediumMatchMin = 60.0
	MediumMin      = 45.0
)

// maxColorDistance is the Euclidean distance between black and white.
const maxColorDistance = 441.0

// topColors is how many dominant colors each side contributes.
const topColors = 3

// brandTextCredit is the logo score granted when no logos overlap but the
// brand name is printed in the scanned text.
const brandTextCredit = 50.0

// Weights splits the overall similarity between components.
type Weights struct {
	Logo  float64 `json:"logo"`
	Color float64 `json:"color"`
	Text  float64 `json:"text"`
}

var (
	// DefaultWeights apply when the reference has logos.
	DefaultWeights = Weights{Logo: 0.5, Color: 0.3, Text: 0.2}
	// NoLogoWeights apply when the reference has none; text dominates.
	NoLogoWeights = Weights{Logo: 0, Color: 0.4, Text: 0.6}
)

// Comparison is the outcome of one signature-versus-fingerprint comparison.
type Comparison struct {
	ReferenceID       string     `json:"reference_id"`
	ColorSimilarity   float64    `json:"color_similarity"`
	LogoSimilarity    float64    `json:"logo_similarity"`
	TextSimilarity    float64    `json:"text_similarity"`
	OverallSimilarity float64    `json:"overall_similarity"`
	Weights           Weights    `json:"weights"`
	Confidence        Confidence `json:"confidence"`
	IsMatch           bool       `json:"is_match"`
}

// Classify tiers an overall similarity.
func Classify(overall float64) (Confidence, bool) {
	switch {
	case overall >= HighMatchMin:
		return ConfidenceHigh, true
	case overall >= MediumMatchMin:
		return ConfidenceMedium, true
	case overall >= MediumMin:
		return ConfidenceMedium, false
	default:
		return ConfidenceLow, false
	}
}

// Compare scores sig against fp. brand is used when logos cannot be paired.
func Compare(sig scan.VisionSignature, fp *scan.ReferenceFingerprint, brand string) Comparison {
	ref := fp.Signature()

	text := TextSimilarity(sig.OCRText, ref.OCRText)
	logo := LogoSimilarity(sig, ref, brand)
	color := ColorSimilarity(sig.Colors, ref.Colors)

	w := DefaultWeights
	if len(ref.Logos) == 0 {
		w = NoLogoWeights
	}
	overall := clamp100(w.Logo*logo + w.Color*color + w.Text*text)
	conf, match := Classify(overall)

	return Comparison{
		ReferenceID:       string(fp.ID),
		ColorSimilarity:   color,
		LogoSimilarity:    logo,
		TextSimilarity:    text,
		OverallSimilarity: overall,
		Weights:           w,
		Confidence:        conf,
		IsMatch:           match,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Component similarities, each 0..100
// ─────────────────────────────────────────────────────────────────────────────

// ColorSimilarity compares the top three colors of each side. Every scan
// color is measured against all three reference colors and keeps its
// closest pair; pairs are weighted by the smaller pixel fraction.
func ColorSimilarity(scanColors, refColors []scan.Color) float64 {
	a, b := top(scanColors), top(refColors)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var sum, weights float64
	for _, ca := range a {
		best, bestW := -1.0, 0.0
		for _, cb := range b {
			sim := 1 - colorDistance(ca, cb)/maxColorDistance
			if sim > best {
				best, bestW = sim, pairWeight(ca, cb)
			}
		}
		sum += best * bestW
		weights += bestW
	}
	if weights == 0 {
		return 0
	}
	return clamp100(sum / weights * 100)
}

func top(cs []scan.Color) []scan.Color {
	if len(cs) > topColors {
		return cs[:topColors]
	}
	return cs
}

func colorDistance(a, b scan.Color) float64 {
	dr := float64(a.Red - b.Red)
	dg := float64(a.Green - b.Green)
	db := float64(a.Blue - b.Blue)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// pairWeight is the smaller pixel fraction, or 1 when the provider reports
// none so that unweighted palettes still compare.
func pairWeight(a, b scan.Color) float64 {
	w := math.Min(a.PixelFraction, b.PixelFraction)
	if w <= 0 {
		return 1
	}
	return w
}

// LogoSimilarity averages 1-|Δconfidence| over logo pairs whose names
// overlap. Without a pair it credits the brand name appearing in the text.
func LogoSimilarity(sig, ref scan.VisionSignature, brand string) float64 {
	var sum float64
	var n int
	for _, la := range sig.Logos {
		for _, lb := range ref.Logos {
			if namesOverlap(la.Description, lb.Description) {
				sum += 1 - math.Abs(la.Score-lb.Score)
				n++
			}
		}
	}
	if n > 0 {
		return clamp100(sum / float64(n) * 100)
	}
	brand = strings.ToLower(strings.TrimSpace(brand))
	if brand != "" && strings.Contains(strings.ToLower(sig.OCRText), brand) {
		return brandTextCredit
	}
	return 0
}

func namesOverlap(a, b string) bool {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// TextSimilarity counts the scan's words, repeats included, that occur
// anywhere in the reference text, over the word count of the longer text.
func TextSimilarity(scanText, refText string) float64 {
	wa, wb := strings.Fields(strings.ToLower(scanText)), strings.Fields(strings.ToLower(refText))
	longer := len(wa)
	if len(wb) > longer {
		longer = len(wb)
	}
	if longer == 0 {
		return 0
	}
	vocab := make(map[string]struct{}, len(wb))
	for _, w := range wb {
		vocab[w] = struct{}{}
	}
	shared := 0
	for _, w := range wa {
		if _, ok := vocab[w]; ok {
			shared++
		}
	}
	return clamp100(float64(shared) / float64(longer) * 100)
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// Risk adjustment
// ─────────────────────────────────────────────────────────────────────────────

// Risk adjustments applied by the aggregator.
const (
	HighMatchAdjustment   = -30
	MediumMatchAdjustment = -15
	MediumMissAdjustment  = 25
	LowMissAdjustment     = 40
	NoReferencePenalty    = 10
)

// Adjustment maps a comparison to its violation.
func Adjustment(c Comparison) scan.Violation {
	ev := scan.SimilarityEvidence{ReferenceID: c.ReferenceID, Similarity: c.OverallSimilarity, Confidence: string(c.Confidence)}
	switch {
	case c.IsMatch && c.Confidence == ConfidenceHigh:
		return scan.NewViolation(scan.ViolationReferenceMatch, HighMatchAdjustment,
			fmt.Sprintf("matches genuine reference (%.0f%% similar)", c.OverallSimilarity), ev)
	case c.IsMatch:
		return scan.NewViolation(scan.ViolationReferenceMatch, MediumMatchAdjustment,
			fmt.Sprintf("partially matches genuine reference (%.0f%% similar)", c.OverallSimilarity), ev)
	case c.Confidence == ConfidenceMedium:
		return scan.NewViolation(scan.ViolationReferenceMismatch, MediumMissAdjustment,
			fmt.Sprintf("differs from genuine reference (%.0f%% similar)", c.OverallSimilarity), ev)
	default:
		return scan.NewViolation(scan.ViolationReferenceMismatch, LowMissAdjustment,
			fmt.Sprintf("does not match genuine reference (%.0f%% similar)", c.OverallSimilarity), ev)
	}
}

// NoReference is the uncertainty penalty when no reference exists at all.
func NoReference() scan.Violation {
	return scan.NewViolation(scan.ViolationNoReference, NoReferencePenalty,
		"no genuine reference available for comparison", scan.SimilarityEvidence{})
}

// NotFound records a requested reference that could not be loaded. It
// carries no weight.
func NotFound(id string) scan.Violation {
	return scan.NewViolation(scan.ViolationReferenceNotFound, 0,
		fmt.Sprintf("reference %s not found", id), scan.SimilarityEvidence{ReferenceID: id})
}

// Best returns the comparison with the highest overall similarity.
func Best(sig scan.VisionSignature, fps []*scan.ReferenceFingerprint, brand string) (Comparison, bool) {
	var best Comparison
	found := false
	for _, fp := range fps {
		if fp == nil {
			continue
		}
		c := Compare(sig, fp, brand)
		if !found || c.OverallSimilarity > best.OverallSimilarity {
			best, found = c, true
		}
	}
	return best, found
}

//Personal.AI order the ending
