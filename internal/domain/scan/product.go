package scan

import (
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// Default weights for config-driven identifier checks.
const (
	DefaultMissingIdentifierWeight = 30
	DefaultInvalidIdentifierWeight = 40
)

// ProductProfile is the tenant-scoped identity of a product plus its optional
// rule configuration. The engine only reads it.
type ProductProfile struct {
	ID        common.ID       `json:"id"`
	TenantID  common.TenantID `json:"tenant_id"`
	Brand     string          `json:"brand"`
	SKU       string          `json:"sku"`
	Category  string          `json:"category"`
	Name      string          `json:"name"`
	Rules     *RuleConfig     `json:"rules,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// HasRules reports whether a usable rule configuration exists. An empty
// rules object counts as absent.
func (p *ProductProfile) HasRules() bool {
	return p != nil && p.Rules != nil && !p.Rules.IsEmpty()
}

// RuleConfig drives the MASTER_PLUS_CLOUD evaluation of one product.
type RuleConfig struct {
	UseLogoCheck        bool                  `json:"use_logo_check"`
	UseGenericLabels    bool                  `json:"use_generic_labels"`
	RequiredIdentifiers []string              `json:"required_identifiers,omitempty"`
	IdentifierPatterns  map[string]string     `json:"identifier_patterns,omitempty"`
	Weights             map[ViolationKind]int `json:"weights,omitempty"`
}

// IsEmpty reports a rules object with nothing configured.
func (r *RuleConfig) IsEmpty() bool {
	if r == nil {
		return true
	}
	return !r.UseLogoCheck && !r.UseGenericLabels &&
		len(r.RequiredIdentifiers) == 0 && len(r.IdentifierPatterns) == 0 && len(r.Weights) == 0
}

// Weight returns the configured weight for kind, clamped to 0..100, or def.
func (r *RuleConfig) Weight(kind ViolationKind, def int) int {
	if r == nil {
		return def
	}
	w, ok := r.Weights[kind]
	if !ok {
		return def
	}
	if w < 0 {
		return 0
	}
	if w > 100 {
		return 100
	}
	return w
}

//Personal.AI order the ending
