// Package vision turns a stored scan image into a VisionSignature. It holds
// two providers (an on-prem analysis service over HTTP and a cloud model via
// the OpenAI API) and a Router that picks one per scan type and substitutes
// a FALLBACK signature whenever a provider cannot answer.
package vision

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

// ImageSource reads images written by the image store.
type ImageSource interface {
	Open(ctx context.Context, path string) (io.ReadCloser, string, error)
	PresignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Wire format shared by both providers
// ─────────────────────────────────────────────────────────────────────────────

type signatureJSON struct {
	Labels     []scoredJSON `json:"labels"`
	Logos      []scoredJSON `json:"logos"`
	Text       textJSON     `json:"text"`
	Colors     []colorJSON  `json:"colors"`
	SafeSearch struct {
		Spoof string `json:"spoof"`
	} `json:"safe_search"`
}

type scoredJSON struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

type textJSON struct {
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

type colorJSON struct {
	Red           int     `json:"red"`
	Green         int     `json:"green"`
	Blue          int     `json:"blue"`
	Hex           string  `json:"hex"`
	PixelFraction float64 `json:"pixel_fraction"`
	Score         float64 `json:"score"`
}

// decodeSignature parses a provider answer. Scores are clamped to [0,1],
// blank descriptions dropped and unknown spoof tiers read as UNKNOWN.
func decodeSignature(raw []byte, provider string) (scan.VisionSignature, error) {
	var w signatureJSON
	if err := json.Unmarshal(raw, &w); err != nil {
		return scan.VisionSignature{}, errors.Wrap(err, errors.ErrCodeVisionBadResponse, "decode vision response")
	}

	sig := scan.VisionSignature{
		Labels:        make([]scan.Label, 0, len(w.Labels)),
		Logos:         make([]scan.Logo, 0, len(w.Logos)),
		OCRText:       strings.TrimSpace(w.Text.Content),
		OCRConfidence: unit(w.Text.Confidence),
		Colors:        make([]scan.Color, 0, len(w.Colors)),
		Spoof:         parseLikelihood(w.SafeSearch.Spoof),
		Origin:        scan.OriginProvider,
		Provider:      provider,
	}
	for _, l := range w.Labels {
		if d := strings.TrimSpace(l.Description); d != "" {
			sig.Labels = append(sig.Labels, scan.Label{Description: d, Score: unit(l.Score)})
		}
	}
	for _, l := range w.Logos {
		if d := strings.TrimSpace(l.Description); d != "" {
			sig.Logos = append(sig.Logos, scan.Logo{Description: d, Score: unit(l.Score)})
		}
	}
	for _, c := range w.Colors {
		col := scan.Color{Red: c.Red, Green: c.Green, Blue: c.Blue, PixelFraction: unit(c.PixelFraction), Score: unit(c.Score)}
		if c.Hex != "" && c.Red == 0 && c.Green == 0 && c.Blue == 0 {
			parsed, err := scan.ParseHexColor(c.Hex)
			if err != nil {
				return scan.VisionSignature{}, errors.Wrap(err, errors.ErrCodeVisionBadResponse, "decode vision color")
			}
			col.Red, col.Green, col.Blue = parsed.Red, parsed.Green, parsed.Blue
		}
		sig.Colors = append(sig.Colors, col)
	}
	return sig, nil
}

func parseLikelihood(s string) scan.Likelihood {
	switch l := scan.Likelihood(strings.ToUpper(strings.TrimSpace(s))); l {
	case scan.LikelihoodVeryUnlikely, scan.LikelihoodUnlikely, scan.LikelihoodPossible,
		scan.LikelihoodLikely, scan.LikelihoodVeryLikely:
		return l
	}
	return scan.LikelihoodUnknown
}

func unit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

//Personal.AI order the ending
