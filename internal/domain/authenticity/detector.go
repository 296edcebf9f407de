// Package authenticity scores the visual and textual evidence in a vision
// signature: brand logo presence and confidence, OCR text quality with
// watermark and misspelling signals, and category-specific contradictions.
//
// Each check returns weighted violations; the detector never lowers risk on
// evidence of genuineness, only through the profile's challenge rules.
package authenticity

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/profile"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
)

// Flag keys recorded alongside violations.
const (
	FlagBrandVerified = "brand_verified"
	FlagLogoCheck     = "logo_check"
	FlagMatchedBrand  = "matched_brand"
	FlagWatermark     = "watermark"
	FlagPattern       = "category_pattern"
)

// ProfileSource yields the detection profile in effect. *profile.Profile and
// *profile.Store both satisfy it.
type ProfileSource interface {
	Current() *profile.Profile
}

// Input is everything one detection run looks at.
type Input struct {
	Category  string
	Brand     string
	Signature scan.VisionSignature
}

// Report is the merged output of the checks.
type Report struct {
	Violations []scan.Violation
	Flags      map[string]string
}

// Risk is the unclamped sum of the report's weights.
func (r Report) Risk() int { return scan.TotalWeight(r.Violations) }

func (r *Report) merge(o Report) {
	r.Violations = append(r.Violations, o.Violations...)
	if r.Flags == nil {
		r.Flags = map[string]string{}
	}
	for k, v := range o.Flags {
		r.Flags[k] = v
	}
}

type misspelling struct {
	brand string
	typo  string
	re    *regexp.Regexp
}

// Detector applies Tables under the current profile.
type Detector struct {
	tables   Tables
	profiles ProfileSource
	brands   map[string][]string
	typos    []misspelling
}

// NewDetector copies tables and precompiles the misspelling matchers.
func NewDetector(tables Tables, profiles ProfileSource) *Detector {
	t := tables.clone()
	d := &Detector{
		tables:   t,
		profiles: profiles,
		brands:   make(map[string][]string, len(t.CategoryBrands)),
	}
	for cat, bs := range t.CategoryBrands {
		d.brands[fold(cat)] = bs
	}
	for _, m := range t.Misspellings {
		for _, typo := range m.Typos {
			typo = fold(typo)
			if typo == "" {
				continue
			}
			d.typos = append(d.typos, misspelling{
				brand: m.Brand,
				typo:  typo,
				re:    regexp.MustCompile(`\b` + regexp.QuoteMeta(typo) + `\b`),
			})
		}
	}
	return d
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// fuzzyMatch is a case-insensitive substring test in either direction.
func fuzzyMatch(a, b string) bool {
	a, b = fold(a), fold(b)
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// ExpectedBrands returns the brands the category's dictionary lists. An
// empty result means the logo check does not apply.
func (d *Detector) ExpectedBrands(category string) []string {
	bs := d.brands[fold(category)]
	return append(make([]string, 0, len(bs)), bs...)
}

// thresholdBrand picks whose logo thresholds apply when nothing matched: the
// declared brand if the category lists it, else the category's first brand.
func thresholdBrand(expected []string, declared string) string {
	for _, b := range expected {
		if fuzzyMatch(b, declared) {
			return b
		}
	}
	return expected[0]
}

// subjectBrands is who the item claims to be for contradiction rules: the
// declared brand, or the category's list when none is declared.
func (d *Detector) subjectBrands(category, brand string) []string {
	if b := strings.TrimSpace(brand); b != "" {
		return []string{b}
	}
	return d.ExpectedBrands(category)
}

// Pin returns a detector bound to the profile in effect now, so that a
// multi-check run sees one snapshot even if the profile is reloaded.
func (d *Detector) Pin() *Detector {
	cp := *d
	cp.profiles = d.profiles.Current()
	return &cp
}

// Detect runs baseline, logo, text, category-pattern and challenge checks.
func (d *Detector) Detect(in Input) Report {
	pd := d.Pin()
	rep := Report{Flags: map[string]string{}}

	rep.merge(pd.Baseline(in.Category))
	rep.merge(pd.CheckLogos(in.Category, in.Brand, in.Signature))
	rep.merge(pd.CheckText(in.Signature))
	rep.merge(pd.CheckCategoryPatterns(in.Category, in.Brand, in.Signature))
	rep.merge(pd.Challenges(in))
	return rep
}

// Baseline records the category's prior risk as a violation.
func (d *Detector) Baseline(category string) Report {
	b := d.profiles.Current().BaselineRisk(category)
	if b == 0 {
		return Report{}
	}
	name := category
	if name == "" {
		name = "uncategorised"
	}
	return Report{Violations: []scan.Violation{scan.NewViolation(scan.ViolationBaselineRisk, b,
		fmt.Sprintf("baseline risk for %s", name),
		scan.CategoryEvidence{Category: category, Rule: "baseline"})}}
}

// ─────────────────────────────────────────────────────────────────────────────
// Logo check
// ─────────────────────────────────────────────────────────────────────────────

// CheckLogos compares detected logos with the brands the category expects.
// It is skipped when the category lists none. The declared brand only
// selects which logo thresholds apply to a missing logo.
func (d *Detector) CheckLogos(category, brand string, sig scan.VisionSignature) Report {
	expected := d.ExpectedBrands(category)
	if len(expected) == 0 {
		return Report{Flags: map[string]string{FlagLogoCheck: "skipped"}}
	}
	p := d.profiles.Current()
	rep := Report{Flags: map[string]string{FlagLogoCheck: "run"}}
	detected := sig.LogoNames()

	if len(sig.Logos) == 0 {
		owner := thresholdBrand(expected, brand)
		th := p.LogoThreshold(owner)
		rep.Violations = append(rep.Violations, scan.NewViolation(scan.ViolationLogoMissing, th.MissingPenalty,
			fmt.Sprintf("no brand logo detected; expected one of %s", strings.Join(expected, ", ")),
			scan.LogoEvidence{Brand: owner}))
		// Device categories listing Apple pay extra for a missing mark.
		for _, b := range expected {
			if strings.EqualFold(b, "apple") {
				rep.Violations = append(rep.Violations, scan.NewViolation(scan.ViolationAppleLogoMissing, AppleMissingExtra,
					fmt.Sprintf("no logo on a %s item; Apple devices carry a visible mark", category), scan.LogoEvidence{Brand: b}))
				break
			}
		}
		return rep
	}

	// Best-scoring logo that names an expected brand.
	var (
		matchedBrand string
		matchedScore = -1.0
	)
	for _, l := range sig.Logos {
		for _, b := range expected {
			if fuzzyMatch(l.Description, b) && l.Score > matchedScore {
				matchedBrand, matchedScore = b, l.Score
			}
		}
	}

	if matchedBrand == "" {
		rep.Violations = append(rep.Violations, scan.NewViolation(scan.ViolationBrandMismatch, BrandMismatchWeight,
			fmt.Sprintf("detected logos %s do not match expected %s", strings.Join(detected, ", "), strings.Join(expected, ", ")),
			scan.LogoEvidence{Brand: expected[0], Detected: detected}))
	} else {
		rep.Flags[FlagMatchedBrand] = matchedBrand
		th := p.LogoThreshold(matchedBrand)
		if pen := th.PenaltyFor(matchedScore); pen > 0 {
			msg := fmt.Sprintf("%s logo confidence %.2f below %.2f", matchedBrand, matchedScore, th.MinConfidence)
			if matchedScore < th.FloorConfidence {
				msg = fmt.Sprintf("%s logo confidence %.2f below %.2f; probably fake", matchedBrand, matchedScore, th.FloorConfidence)
			}
			rep.Violations = append(rep.Violations, scan.NewViolation(scan.ViolationLowLogoConfidence, pen, msg,
				scan.LogoEvidence{Brand: matchedBrand, Detected: detected, Confidence: matchedScore}))
		} else {
			rep.Flags[FlagBrandVerified] = matchedBrand
		}
	}

	if len(sig.Logos) > MultipleLogosThreshold {
		rep.Violations = append(rep.Violations, scan.NewViolation(scan.ViolationMultipleLogos, MultipleLogosWeight,
			fmt.Sprintf("%d logos detected; conflicting branding", len(sig.Logos)),
			scan.LogoEvidence{Detected: detected}))
	}
	return rep
}

// ─────────────────────────────────────────────────────────────────────────────
// Text checks
// ─────────────────────────────────────────────────────────────────────────────

// CheckText runs the four independent text checks.
func (d *Detector) CheckText(sig scan.VisionSignature) Report {
	var rep Report
	rep.merge(d.CheckWatermark(sig))
	rep.merge(d.CheckOCRConfidence(sig))
	rep.merge(d.CheckMisspelling(sig))
	rep.merge(d.CheckSuspiciousText(sig))
	return rep
}

// CheckWatermark flags the first stock-photo marker found; later markers are
// not scanned.
func (d *Detector) CheckWatermark(sig scan.VisionSignature) Report {
	text := fold(sig.OCRText)
	if text == "" {
		return Report{}
	}
	for _, w := range d.tables.Watermarks {
		w = fold(w)
		if w != "" && strings.Contains(text, w) {
			return Report{
				Violations: []scan.Violation{scan.NewViolation(scan.ViolationWatermarkDetected, WatermarkWeight,
					fmt.Sprintf("stock photo watermark %q in image text", w), scan.TextEvidence{Match: w})},
				Flags: map[string]string{FlagWatermark: w},
			}
		}
	}
	return Report{}
}

// CheckOCRConfidence penalises unreadable text. Images without any text are
// not judged.
func (d *Detector) CheckOCRConfidence(sig scan.VisionSignature) Report {
	if strings.TrimSpace(sig.OCRText) == "" {
		return Report{}
	}
	c := sig.OCRConfidence
	var w int
	switch {
	case c < VeryLowOCRConfidence:
		w = VeryLowOCRWeight
	case c < LowOCRConfidence:
		w = LowOCRWeight
	default:
		return Report{}
	}
	return Report{Violations: []scan.Violation{scan.NewViolation(scan.ViolationLowOCRConfidence, w,
		fmt.Sprintf("OCR confidence %.2f", c), scan.AdjustmentEvidence{Reason: "low print quality"})}}
}

// CheckMisspelling flags the first known brand typo.
func (d *Detector) CheckMisspelling(sig scan.VisionSignature) Report {
	text := fold(sig.OCRText)
	if text == "" {
		return Report{}
	}
	for _, m := range d.typos {
		if m.re.MatchString(text) {
			return Report{Violations: []scan.Violation{scan.NewViolation(scan.ViolationBrandMisspelling, MisspellingWeight,
				fmt.Sprintf("%q looks like a misspelling of %s", m.typo, m.brand), scan.TextEvidence{Match: m.typo})}}
		}
	}
	return Report{}
}

// CheckSuspiciousText flags the first counterfeit-typical phrase.
func (d *Detector) CheckSuspiciousText(sig scan.VisionSignature) Report {
	text := fold(sig.OCRText)
	if text == "" {
		return Report{}
	}
	for _, ph := range d.tables.SuspiciousPhrases {
		ph = fold(ph)
		if ph != "" && strings.Contains(text, ph) {
			return Report{Violations: []scan.Violation{scan.NewViolation(scan.ViolationSuspiciousText, SuspiciousTextWeight,
				fmt.Sprintf("suspicious phrase %q", ph), scan.TextEvidence{Match: ph})}}
		}
	}
	return Report{}
}

// CheckSpoof flags imagery the provider believes is spoofed or edited.
func (d *Detector) CheckSpoof(sig scan.VisionSignature) Report {
	if !sig.Spoof.AtLeastLikely() {
		return Report{}
	}
	return Report{Violations: []scan.Violation{scan.NewViolation(scan.ViolationSpoofDetected, SpoofWeight,
		fmt.Sprintf("spoof likelihood %s", sig.Spoof), scan.TextEvidence{Match: string(sig.Spoof)})}}
}

// Universal runs the checks applied to every scan regardless of product
// configuration: watermark, spoof and OCR confidence.
func (d *Detector) Universal(sig scan.VisionSignature) Report {
	var rep Report
	rep.merge(d.CheckWatermark(sig))
	rep.merge(d.CheckSpoof(sig))
	rep.merge(d.CheckOCRConfidence(sig))
	return rep
}

// ─────────────────────────────────────────────────────────────────────────────
// Category patterns and challenges
// ─────────────────────────────────────────────────────────────────────────────

// CheckCategoryPatterns applies the first matching contradiction rule.
func (d *Detector) CheckCategoryPatterns(category, brand string, sig scan.VisionSignature) Report {
	brands := append(d.subjectBrands(category, brand), sig.LogoNames()...)
	for _, r := range d.tables.CategoryPatterns {
		if r.Category != "" && fold(r.Category) != fold(category) {
			continue
		}
		if r.Brand != "" && !containsFuzzy(brands, r.Brand) {
			continue
		}
		for _, l := range sig.Labels {
			if l.Score >= patternLabelMinScore && strings.Contains(fold(l.Description), fold(r.Label)) {
				return Report{
					Violations: []scan.Violation{scan.NewViolation(scan.ViolationCategoryPattern, CategoryPatternWeight,
						r.Reason, scan.CategoryEvidence{Category: category, Labels: []string{l.Description}, Rule: r.Name})},
					Flags: map[string]string{FlagPattern: r.Name},
				}
			}
		}
	}
	return Report{}
}

func containsFuzzy(list []string, s string) bool {
	for _, v := range list {
		if fuzzyMatch(v, s) {
			return true
		}
	}
	return false
}

// Challenges converts profile challenge rules into negative violations.
func (d *Detector) Challenges(in Input) Report {
	p := d.profiles.Current()
	brand := in.Brand
	if subject := d.subjectBrands(in.Category, in.Brand); brand == "" && len(subject) > 0 {
		brand = subject[0]
	}
	th := p.LogoThreshold(brand)
	adj := p.ChallengeAdjustment(brand, profile.ContextFor(in.Category, in.Signature, th))
	if len(adj) == 0 {
		return Report{}
	}
	sort.SliceStable(adj, func(i, j int) bool { return adj[i].Rule < adj[j].Rule })
	rep := Report{}
	for _, a := range adj {
		rep.Violations = append(rep.Violations, scan.NewViolation(scan.ViolationChallengeAdjustment, a.Points,
			a.Reason, scan.AdjustmentEvidence{Reason: a.Rule}))
	}
	return rep
}

//Personal.AI order the ending
