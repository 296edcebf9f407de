// Package quota enforces per-tenant monthly scan allowances. Check runs at
// submission time; Consume runs once per successfully evaluated job.
package quota

import (
	"context"
	"time"

	domainQuota "github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/quota"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/prometheus"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// ReasonNoPlan is the decision reason when a tenant has no active plan.
const ReasonNoPlan = "no active subscription plan"

// Usage is the current month's counters alongside the plan limits.
type Usage struct {
	TenantID common.TenantID          `json:"tenant_id"`
	Month    domainQuota.Month        `json:"month"`
	Plan     *domainQuota.Plan        `json:"plan,omitempty"`
	Period   *domainQuota.UsagePeriod `json:"usage"`
	Local    domainQuota.Decision     `json:"local"`
	High     domainQuota.Decision     `json:"high"`
	Bypassed bool                     `json:"bypassed,omitempty"`
}

// Gate is the quota service.
type Gate interface {
	// Check decides whether the tenant may submit one more scan of scanType.
	// A missing plan is a rejection, not an error.
	Check(ctx context.Context, tenantID common.TenantID, scanType scan.ScanType) (domainQuota.Decision, error)
	// Enforce is Check returning a QUOTA_* error on rejection.
	Enforce(ctx context.Context, tenantID common.TenantID, scanType scan.ScanType) error
	// Consume charges one scan. It must be called at most once per job.
	Consume(ctx context.Context, tenantID common.TenantID, scanType scan.ScanType) (*domainQuota.UsagePeriod, error)
	Usage(ctx context.Context, tenantID common.TenantID) (*Usage, error)
}

type gateImpl struct {
	plans   domainQuota.PlanRepository
	usage   domainQuota.UsageRepository
	admins  domainQuota.AdminResolver
	metrics *prometheus.ScanMetrics
	logger  logging.Logger
	now     func() time.Time
}

// NewGate builds a Gate. admins may be nil, in which case nobody bypasses.
func NewGate(
	plans domainQuota.PlanRepository,
	usage domainQuota.UsageRepository,
	admins domainQuota.AdminResolver,
	metrics *prometheus.ScanMetrics,
	logger logging.Logger,
) Gate {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &gateImpl{
		plans:   plans,
		usage:   usage,
		admins:  admins,
		metrics: metrics,
		logger:  logger.Named("quota"),
		now:     time.Now,
	}
}

func (g *gateImpl) isAdmin(ctx context.Context, tenantID common.TenantID) (bool, error) {
	if g.admins == nil {
		return false, nil
	}
	ok, err := g.admins.IsSystemAdmin(ctx, tenantID)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternal, "resolve system admin")
	}
	return ok, nil
}

// activePlan returns nil without error when the tenant has no plan.
func (g *gateImpl) activePlan(ctx context.Context, tenantID common.TenantID, at time.Time) (*domainQuota.Plan, error) {
	plan, err := g.plans.GetActivePlan(ctx, tenantID, at)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodePlanNotFound) || errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "load active plan")
	}
	return plan, nil
}

func (g *gateImpl) Check(ctx context.Context, tenantID common.TenantID, scanType scan.ScanType) (domainQuota.Decision, error) {
	tier := domainQuota.TierFor(scanType)

	admin, err := g.isAdmin(ctx, tenantID)
	if err != nil {
		return domainQuota.Decision{}, err
	}
	if admin {
		return domainQuota.Decision{Allowed: true, Tier: tier, Limit: domainQuota.Unlimited, Remaining: domainQuota.Unlimited, Bypassed: true}, nil
	}

	now := g.now()
	plan, err := g.activePlan(ctx, tenantID, now)
	if err != nil {
		return domainQuota.Decision{}, err
	}
	if plan == nil {
		g.metrics.RecordQuotaRejection(string(scanType))
		return domainQuota.Decision{Tier: tier, Reason: ReasonNoPlan}, nil
	}

	period, err := g.usage.GetOrCreateUsagePeriod(ctx, tenantID, domainQuota.MonthOf(now))
	if err != nil {
		return domainQuota.Decision{}, errors.Wrap(err, errors.ErrCodeDatabaseError, "load usage period")
	}

	d := domainQuota.Evaluate(plan, period, tier)
	if !d.Allowed {
		g.metrics.RecordQuotaRejection(string(scanType))
		g.logger.Info("scan rejected by quota",
			logging.TenantID(string(tenantID)),
			logging.String("tier", string(tier)),
			logging.Int("used", d.Used),
			logging.Int("limit", d.Limit))
	}
	return d, nil
}

func (g *gateImpl) Enforce(ctx context.Context, tenantID common.TenantID, scanType scan.ScanType) error {
	d, err := g.Check(ctx, tenantID, scanType)
	if err != nil {
		return err
	}
	if d.Allowed {
		return nil
	}
	if d.Reason == ReasonNoPlan {
		return errors.New(errors.ErrCodePlanNotFound, ReasonNoPlan)
	}
	return errors.New(errors.ErrCodeQuotaExceeded, d.Reason)
}

// Consume charges one scan against the current month. System admins are not
// charged.
func (g *gateImpl) Consume(ctx context.Context, tenantID common.TenantID, scanType scan.ScanType) (*domainQuota.UsagePeriod, error) {
	admin, err := g.isAdmin(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if admin {
		return nil, nil
	}
	tier := domainQuota.TierFor(scanType)
	period, err := g.usage.IncrementUsage(ctx, tenantID, domainQuota.MonthOf(g.now()), tier)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUsageUpdateFailed, "increment usage")
	}
	return period, nil
}

func (g *gateImpl) Usage(ctx context.Context, tenantID common.TenantID) (*Usage, error) {
	now := g.now()
	month := domainQuota.MonthOf(now)
	out := &Usage{TenantID: tenantID, Month: month}

	admin, err := g.isAdmin(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out.Bypassed = admin

	period, err := g.usage.GetOrCreateUsagePeriod(ctx, tenantID, month)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "load usage period")
	}
	out.Period = period

	plan, err := g.activePlan(ctx, tenantID, now)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		out.Local = domainQuota.Decision{Tier: domainQuota.TierLocal, Used: period.LocalUsed, Reason: ReasonNoPlan}
		out.High = domainQuota.Decision{Tier: domainQuota.TierHigh, Used: period.HighUsed, Reason: ReasonNoPlan}
		return out, nil
	}
	out.Plan = plan
	out.Local = domainQuota.Evaluate(plan, period, domainQuota.TierLocal)
	out.High = domainQuota.Evaluate(plan, period, domainQuota.TierHigh)
	return out, nil
}

//Personal.AI order the ending
