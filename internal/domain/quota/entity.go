// Package quota models subscription plans and the per-tenant monthly usage
// counters that the quota gate enforces.
package quota

import (
	"fmt"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// Unlimited marks a quota with no ceiling.
const Unlimited = -1

// Tier is the counter a scan type draws from.
type Tier string

const (
	TierLocal Tier = "local"
	TierHigh  Tier = "high"
)

// TierFor maps a scan type to its counter. LOCAL and AUTO share the local
// counter; only AI_VISION is billed as high.
func TierFor(t scan.ScanType) Tier {
	if t.IsHighTier() {
		return TierHigh
	}
	return TierLocal
}

// Plan is a tenant subscription with monthly limits.
type Plan struct {
	ID                 common.ID       `json:"id"`
	TenantID           common.TenantID `json:"tenant_id"`
	Name               string          `json:"name"`
	LocalQuotaPerMonth int             `json:"local_quota_per_month"`
	HighQuotaPerMonth  int             `json:"high_quota_per_month"`
	StartsAt           time.Time       `json:"starts_at"`
	EndsAt             *time.Time      `json:"ends_at,omitempty"`
}

// ActiveAt reports whether t falls in [StartsAt, EndsAt).
func (p *Plan) ActiveAt(t time.Time) bool {
	if t.Before(p.StartsAt) {
		return false
	}
	return p.EndsAt == nil || t.Before(*p.EndsAt)
}

// Limit returns the monthly limit for a tier.
func (p *Plan) Limit(tier Tier) int {
	if tier == TierHigh {
		return p.HighQuotaPerMonth
	}
	return p.LocalQuotaPerMonth
}

// Month is a calendar month in YYYY-MM form.
type Month string

// MonthOf returns the UTC calendar month of t.
func MonthOf(t time.Time) Month {
	return Month(t.UTC().Format("2006-01"))
}

// ParseMonth validates a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	if _, err := time.Parse("2006-01", s); err != nil {
		return "", fmt.Errorf("quota: invalid month %q: %w", s, err)
	}
	return Month(s), nil
}

// UsagePeriod holds one tenant's counters for one month.
type UsagePeriod struct {
	TenantID  common.TenantID `json:"tenant_id"`
	Month     Month           `json:"month"`
	LocalUsed int             `json:"local_used"`
	HighUsed  int             `json:"high_used"`
}

// Used returns the counter for a tier.
func (u *UsagePeriod) Used(tier Tier) int {
	if tier == TierHigh {
		return u.HighUsed
	}
	return u.LocalUsed
}

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed   bool   `json:"allowed"`
	Tier      Tier   `json:"tier"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Reason    string `json:"reason,omitempty"`
	Bypassed  bool   `json:"bypassed,omitempty"`
}

// Evaluate decides whether one more scan fits. A limit of Unlimited never
// rejects.
func Evaluate(plan *Plan, usage *UsagePeriod, tier Tier) Decision {
	limit := plan.Limit(tier)
	used := usage.Used(tier)
	d := Decision{Tier: tier, Used: used, Limit: limit}
	if limit == Unlimited {
		d.Allowed = true
		d.Remaining = Unlimited
		return d
	}
	d.Remaining = limit - used
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if used >= limit {
		d.Reason = fmt.Sprintf("monthly %s scan quota of %d reached for plan %q", tier, limit, plan.Name)
		return d
	}
	d.Allowed = true
	return d
}

//Personal.AI order the ending
