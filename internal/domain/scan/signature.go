// Package scan holds the entities of the scan evaluation domain: the vision
// signature a provider returns, product profiles with their rule
// configuration, reference fingerprints, violations, evaluation results and
// scan jobs.
package scan

import (
	"fmt"
	"strconv"
	"strings"
)

// Label is a vision-detected object or concept with its confidence.
type Label struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// Logo is a detected brand mark with its confidence.
type Logo struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// Color is one dominant color of an image.
type Color struct {
	Red           int     `json:"red"`
	Green         int     `json:"green"`
	Blue          int     `json:"blue"`
	PixelFraction float64 `json:"pixel_fraction"`
	Score         float64 `json:"score"`
}

// Hex renders the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", clampByte(c.Red), clampByte(c.Green), clampByte(c.Blue))
}

// ParseHexColor parses "#rrggbb" or "rrggbb".
func ParseHexColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("scan: invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("scan: invalid hex color %q: %w", s, err)
	}
	return Color{Red: int(v >> 16 & 0xff), Green: int(v >> 8 & 0xff), Blue: int(v & 0xff)}, nil
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// Likelihood is the safe-search style tier a provider reports for spoofed or
// edited imagery.
type Likelihood string

const (
	LikelihoodUnknown      Likelihood = "UNKNOWN"
	LikelihoodVeryUnlikely Likelihood = "VERY_UNLIKELY"
	LikelihoodUnlikely     Likelihood = "UNLIKELY"
	LikelihoodPossible     Likelihood = "POSSIBLE"
	LikelihoodLikely       Likelihood = "LIKELY"
	LikelihoodVeryLikely   Likelihood = "VERY_LIKELY"
)

// AtLeastLikely reports LIKELY or VERY_LIKELY.
func (l Likelihood) AtLeastLikely() bool {
	return l == LikelihoodLikely || l == LikelihoodVeryLikely
}

// Origin tags where a signature came from.
type Origin string

const (
	OriginProvider Origin = "PROVIDER"
	OriginFallback Origin = "FALLBACK"
)

// VisionSignature is the structured output of analysing one image. It is
// produced once per scan and treated as read-only by every consumer.
type VisionSignature struct {
	Labels        []Label    `json:"labels"`
	Logos         []Logo     `json:"logos"`
	OCRText       string     `json:"ocr_text"`
	OCRConfidence float64    `json:"ocr_confidence"`
	Colors        []Color    `json:"colors"`
	Spoof         Likelihood `json:"spoof"`
	Origin        Origin     `json:"origin"`
	Provider      string     `json:"provider,omitempty"`
}

// IsFallback reports whether the signature is a substitute for a failed
// provider call.
func (s VisionSignature) IsFallback() bool { return s.Origin == OriginFallback }

// LabelNames returns the label descriptions in order.
func (s VisionSignature) LabelNames() []string {
	out := make([]string, len(s.Labels))
	for i, l := range s.Labels {
		out[i] = l.Description
	}
	return out
}

// LogoNames returns the logo descriptions in order.
func (s VisionSignature) LogoNames() []string {
	out := make([]string, len(s.Logos))
	for i, l := range s.Logos {
		out[i] = l.Description
	}
	return out
}

// FallbackSignature is the clearly marked, empty signature substituted when
// the provider cannot be reached.
func FallbackSignature(provider string) VisionSignature {
	return VisionSignature{
		Labels:   []Label{},
		Logos:    []Logo{},
		Colors:   []Color{},
		Spoof:    LikelihoodUnknown,
		Origin:   OriginFallback,
		Provider: provider,
	}
}

//Personal.AI order the ending
