// Package training nudges a risk score toward the historical outcome it most
// resembles. It is a two-centroid heuristic over human-verified scans of the
// same product, not a learned model.
package training

import (
	"fmt"
	"math"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
)

// Defaults for the adjuster.
const (
	DefaultMinSamples = 5
	DefaultStep       = 10
)

// ReasonInsufficientData is reported whenever no adjustment is made.
const ReasonInsufficientData = "insufficient data"

// Result is the adjustment and why it was chosen.
type Result struct {
	Adjustment  int     `json:"adjustment"`
	Reason      string  `json:"reason"`
	Samples     int     `json:"samples"`
	GenuineMean float64 `json:"genuine_mean,omitempty"`
	FakeMean    float64 `json:"fake_mean,omitempty"`
}

// Applied reports a non-zero adjustment.
func (r Result) Applied() bool { return r.Adjustment != 0 }

// Adjuster holds the sample floor and step size.
type Adjuster struct {
	minSamples int
	step       int
}

// NewAdjuster builds an adjuster; non-positive arguments take the defaults.
func NewAdjuster(minSamples, step int) *Adjuster {
	if minSamples <= 0 {
		minSamples = DefaultMinSamples
	}
	if step <= 0 {
		step = DefaultStep
	}
	return &Adjuster{minSamples: minSamples, step: step}
}

// MinSamples is the number of verified records needed before adjusting.
func (a *Adjuster) MinSamples() int { return a.minSamples }

// Adjust compares score with the genuine and fake means. Ties go to fake.
func (a *Adjuster) Adjust(score int, samples []scan.VerifiedSample) Result {
	res := Result{Reason: ReasonInsufficientData, Samples: len(samples)}
	if len(samples) < a.minSamples {
		return res
	}

	var gSum, fSum float64
	var gN, fN int
	for _, s := range samples {
		switch s.Verdict {
		case scan.VerdictGenuine:
			gSum += float64(s.RiskScore)
			gN++
		case scan.VerdictFake:
			fSum += float64(s.RiskScore)
			fN++
		}
	}
	if gN == 0 || fN == 0 {
		return res
	}

	res.GenuineMean = gSum / float64(gN)
	res.FakeMean = fSum / float64(fN)
	dg := math.Abs(float64(score) - res.GenuineMean)
	df := math.Abs(float64(score) - res.FakeMean)
	if dg < df {
		res.Adjustment = -a.step
		res.Reason = fmt.Sprintf("closer to genuine mean %.1f than fake mean %.1f (%d samples)", res.GenuineMean, res.FakeMean, len(samples))
	} else {
		res.Adjustment = a.step
		res.Reason = fmt.Sprintf("closer to fake mean %.1f than genuine mean %.1f (%d samples)", res.FakeMean, res.GenuineMean, len(samples))
	}
	return res
}

// Violation renders an applied adjustment; ok is false when there is none.
func (r Result) Violation() (scan.Violation, bool) {
	if !r.Applied() {
		return scan.Violation{}, false
	}
	return scan.NewViolation(scan.ViolationTrainingAdjustment, r.Adjustment, r.Reason,
		scan.AdjustmentEvidence{Reason: fmt.Sprintf("%d verified samples", r.Samples)}), true
}

//Personal.AI order the ending
