package quota

import (
	"context"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// PlanRepository resolves subscriptions.
type PlanRepository interface {
	// GetActivePlan returns the plan whose date range contains at. It returns
	// an ErrCodePlanNotFound error when none does.
	GetActivePlan(ctx context.Context, tenantID common.TenantID, at time.Time) (*Plan, error)
}

// UsageRepository owns the monthly counters. IncrementUsage must be atomic.
type UsageRepository interface {
	GetOrCreateUsagePeriod(ctx context.Context, tenantID common.TenantID, month Month) (*UsagePeriod, error)
	IncrementUsage(ctx context.Context, tenantID common.TenantID, month Month, tier Tier) (*UsagePeriod, error)
}

// AdminResolver reports whether a tenant is the system tenant that bypasses
// quotas.
type AdminResolver interface {
	IsSystemAdmin(ctx context.Context, tenantID common.TenantID) (bool, error)
}

//Personal.AI order the ending
