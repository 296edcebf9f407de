// Package profile resolves the tunable detection parameters: per-category
// baseline risk, per-brand logo confidence thresholds and the contextual
// challenge adjustments that offset known false-positive situations.
//
// A Profile is an immutable value. Configuration reloads build a new Profile
// and swap it in; nothing in this package holds mutable global state.
package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
)

// ─────────────────────────────────────────────────────────────────────────────
// Configuration
// ─────────────────────────────────────────────────────────────────────────────

// LogoThreshold tiers the penalty for a matched logo by its confidence.
type LogoThreshold struct {
	MinConfidence            float64 `mapstructure:"min_confidence" json:"min_confidence"`
	FloorConfidence          float64 `mapstructure:"floor_confidence" json:"floor_confidence"`
	LowConfidencePenalty     int     `mapstructure:"low_confidence_penalty" json:"low_confidence_penalty"`
	VeryLowConfidencePenalty int     `mapstructure:"very_low_confidence_penalty" json:"very_low_confidence_penalty"`
	MissingPenalty           int     `mapstructure:"missing_penalty" json:"missing_penalty"`
}

// PenaltyFor returns the penalty for a matched logo at confidence c. Zero
// means the logo is verified.
func (t LogoThreshold) PenaltyFor(c float64) int {
	switch {
	case c < t.FloorConfidence:
		return t.VeryLowConfidencePenalty
	case c < t.MinConfidence:
		return t.LowConfidencePenalty
	default:
		return 0
	}
}

func (t LogoThreshold) validate(name string) error {
	if t.FloorConfidence < 0 || t.MinConfidence > 1 || t.FloorConfidence > t.MinConfidence {
		return fmt.Errorf("profile: logo threshold %q needs 0 <= floor <= min <= 1", name)
	}
	for _, p := range []int{t.LowConfidencePenalty, t.VeryLowConfidencePenalty, t.MissingPenalty} {
		if p < 0 || p > 100 {
			return fmt.Errorf("profile: logo threshold %q penalty %d outside 0..100", name, p)
		}
	}
	return nil
}

// Condition is a fact about a scan that a challenge rule can require.
type Condition string

const (
	ConditionDarkDevice Condition = "dark_device"
	ConditionNoLogos    Condition = "no_logos"
	ConditionLowLogo    Condition = "low_logo_confidence"
)

// ChallengeRule reduces risk when every condition holds for the given brand
// or category. An empty Brand or Category matches anything.
type ChallengeRule struct {
	Name       string      `mapstructure:"name" json:"name"`
	Brand      string      `mapstructure:"brand" json:"brand,omitempty"`
	Category   string      `mapstructure:"category" json:"category,omitempty"`
	Conditions []Condition `mapstructure:"conditions" json:"conditions"`
	Adjustment int         `mapstructure:"adjustment" json:"adjustment"`
	Reason     string      `mapstructure:"reason" json:"reason"`
}

// Config is the serialisable form of a Profile, loaded from the `detection`
// configuration section.
type Config struct {
	DefaultBaseline      int                      `mapstructure:"default_baseline" json:"default_baseline"`
	Baselines            map[string]int           `mapstructure:"baselines" json:"baselines"`
	DefaultLogoThreshold LogoThreshold            `mapstructure:"default_logo_threshold" json:"default_logo_threshold"`
	LogoThresholds       map[string]LogoThreshold `mapstructure:"logo_thresholds" json:"logo_thresholds"`
	Challenges           []ChallengeRule          `mapstructure:"challenges" json:"challenges"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Profile
// ─────────────────────────────────────────────────────────────────────────────

// Profile is the validated, immutable lookup table set.
type Profile struct {
	defaultBaseline int
	baselines       map[string]int
	defaultLogo     LogoThreshold
	logos           map[string]LogoThreshold
	challenges      []ChallengeRule
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// New validates cfg and builds a Profile. cfg is copied.
func New(cfg Config) (*Profile, error) {
	if cfg.DefaultBaseline < 0 || cfg.DefaultBaseline > 100 {
		return nil, fmt.Errorf("profile: default baseline %d outside 0..100", cfg.DefaultBaseline)
	}
	if err := cfg.DefaultLogoThreshold.validate("default"); err != nil {
		return nil, err
	}
	p := &Profile{
		defaultBaseline: cfg.DefaultBaseline,
		baselines:       make(map[string]int, len(cfg.Baselines)),
		defaultLogo:     cfg.DefaultLogoThreshold,
		logos:           make(map[string]LogoThreshold, len(cfg.LogoThresholds)),
		challenges:      make([]ChallengeRule, 0, len(cfg.Challenges)),
	}
	for cat, b := range cfg.Baselines {
		if b < 0 || b > 100 {
			return nil, fmt.Errorf("profile: baseline for %q is %d, outside 0..100", cat, b)
		}
		p.baselines[fold(cat)] = b
	}
	for brand, t := range cfg.LogoThresholds {
		if err := t.validate(brand); err != nil {
			return nil, err
		}
		p.logos[fold(brand)] = t
	}
	for _, r := range cfg.Challenges {
		if r.Adjustment > 0 {
			return nil, fmt.Errorf("profile: challenge %q must not add risk (adjustment %d)", r.Name, r.Adjustment)
		}
		if len(r.Conditions) == 0 {
			return nil, fmt.Errorf("profile: challenge %q has no conditions", r.Name)
		}
		for _, c := range r.Conditions {
			switch c {
			case ConditionDarkDevice, ConditionNoLogos, ConditionLowLogo:
			default:
				return nil, fmt.Errorf("profile: challenge %q has unknown condition %q", r.Name, c)
			}
		}
		cp := r
		cp.Conditions = append([]Condition(nil), r.Conditions...)
		p.challenges = append(p.challenges, cp)
	}
	return p, nil
}

// MustNew is New that panics, for built-in tables.
func MustNew(cfg Config) *Profile {
	p, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

// BaselineRisk returns the starting risk for a category.
func (p *Profile) BaselineRisk(category string) int {
	if b, ok := p.baselines[fold(category)]; ok {
		return b
	}
	return p.defaultBaseline
}

// LogoThreshold returns the thresholds for a brand, or the default.
func (p *Profile) LogoThreshold(brand string) LogoThreshold {
	if t, ok := p.logos[fold(brand)]; ok {
		return t
	}
	return p.defaultLogo
}

// Context carries the scan facts challenge rules are evaluated against.
type Context struct {
	Category          string
	DarkDevice        bool
	LogoCount         int
	LowLogoConfidence bool
}

func (c Context) holds(cond Condition) bool {
	switch cond {
	case ConditionDarkDevice:
		return c.DarkDevice
	case ConditionNoLogos:
		return c.LogoCount == 0
	case ConditionLowLogo:
		return c.LowLogoConfidence
	}
	return false
}

// Adjustment is one applied challenge correction.
type Adjustment struct {
	Rule   string
	Points int
	Reason string
}

// ChallengeAdjustment returns every correction that applies to brand in
// ctx. Points are never positive.
func (p *Profile) ChallengeAdjustment(brand string, ctx Context) []Adjustment {
	var out []Adjustment
	b, cat := fold(brand), fold(ctx.Category)
	for _, r := range p.challenges {
		if r.Brand != "" && fold(r.Brand) != b {
			continue
		}
		if r.Category != "" && fold(r.Category) != cat {
			continue
		}
		ok := true
		for _, c := range r.Conditions {
			if !ctx.holds(c) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, Adjustment{Rule: r.Name, Points: r.Adjustment, Reason: r.Reason})
		}
	}
	return out
}

// Config returns a copy of the tables the profile was built from.
func (p *Profile) Config() Config {
	cfg := Config{
		DefaultBaseline:      p.defaultBaseline,
		Baselines:            make(map[string]int, len(p.baselines)),
		DefaultLogoThreshold: p.defaultLogo,
		LogoThresholds:       make(map[string]LogoThreshold, len(p.logos)),
		Challenges:           append([]ChallengeRule(nil), p.challenges...),
	}
	for k, v := range p.baselines {
		cfg.Baselines[k] = v
	}
	for k, v := range p.logos {
		cfg.LogoThresholds[k] = v
	}
	return cfg
}

// Categories lists the categories with an explicit baseline, sorted.
func (p *Profile) Categories() []string {
	out := make([]string, 0, len(p.baselines))
	for k := range p.baselines {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan context
// ─────────────────────────────────────────────────────────────────────────────

// darkLuminance is the weighted luminance under which a device counts as dark.
const darkLuminance = 0.25

// ContextFor derives challenge facts from a signature.
func ContextFor(category string, sig scan.VisionSignature, th LogoThreshold) Context {
	ctx := Context{Category: category, LogoCount: len(sig.Logos)}

	var lum, weight float64
	for i, c := range sig.Colors {
		if i == 3 {
			break
		}
		w := c.PixelFraction
		if w <= 0 {
			w = c.Score
		}
		if w <= 0 {
			continue
		}
		lum += w * (0.2126*float64(c.Red) + 0.7152*float64(c.Green) + 0.0722*float64(c.Blue)) / 255
		weight += w
	}
	if weight > 0 {
		ctx.DarkDevice = lum/weight < darkLuminance
	}

	for _, l := range sig.Logos {
		if l.Score < th.MinConfidence {
			ctx.LowLogoConfidence = true
			break
		}
	}
	return ctx
}

//Personal.AI order the ending
