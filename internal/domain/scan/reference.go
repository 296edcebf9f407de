package scan

import (
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// ReferenceFingerprint summarises a genuine reference image. Fingerprints are
// immutable once computed; regeneration writes a new row.
type ReferenceFingerprint struct {
	ID            common.ID       `json:"id"`
	TenantID      common.TenantID `json:"tenant_id"`
	ProductID     common.ID       `json:"product_id"`
	Colors        []Color         `json:"colors"`
	Logos         []Logo          `json:"logos"`
	OCRText       string          `json:"ocr_text"`
	OCRConfidence float64         `json:"ocr_confidence"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Signature views the fingerprint as a vision signature so the same
// comparison code can run on both sides.
func (f *ReferenceFingerprint) Signature() VisionSignature {
	return VisionSignature{
		Colors:        f.Colors,
		Logos:         f.Logos,
		OCRText:       f.OCRText,
		OCRConfidence: f.OCRConfidence,
		Origin:        OriginProvider,
	}
}

//Personal.AI order the ending
