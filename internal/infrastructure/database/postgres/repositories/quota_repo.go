package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/quota"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/database/postgres"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Plans
// ─────────────────────────────────────────────────────────────────────────────

type postgresPlanRepo struct {
	log      logging.Logger
	executor queryExecutor
}

func NewPostgresPlanRepo(conn *postgres.Connection, log logging.Logger) quota.PlanRepository {
	return &postgresPlanRepo{log: log, executor: conn.DB()}
}

// GetActivePlan picks the most recently started plan covering at.
func (r *postgresPlanRepo) GetActivePlan(ctx context.Context, tenantID common.TenantID, at time.Time) (*quota.Plan, error) {
	query := `
		SELECT id, tenant_id, name, local_quota_per_month, high_quota_per_month, starts_at, ends_at
		FROM plans
		WHERE tenant_id = $1 AND starts_at <= $2 AND (ends_at IS NULL OR ends_at > $2)
		ORDER BY starts_at DESC
		LIMIT 1
	`
	var (
		p       quota.Plan
		id, tid string
		endsAt  sql.NullTime
	)
	err := r.executor.QueryRowContext(ctx, query, string(tenantID), at.UTC()).
		Scan(&id, &tid, &p.Name, &p.LocalQuotaPerMonth, &p.HighQuotaPerMonth, &p.StartsAt, &endsAt)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodePlanNotFound, fmt.Sprintf("tenant %s has no active plan", tenantID))
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get active plan")
	}
	p.ID, p.TenantID = common.ID(id), common.TenantID(tid)
	p.StartsAt = p.StartsAt.UTC()
	p.EndsAt = timeFromNull(endsAt)
	return &p, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Usage
// ─────────────────────────────────────────────────────────────────────────────

type postgresUsageRepo struct {
	log      logging.Logger
	executor queryExecutor
}

func NewPostgresUsageRepo(conn *postgres.Connection, log logging.Logger) quota.UsageRepository {
	return &postgresUsageRepo{log: log, executor: conn.DB()}
}

func (r *postgresUsageRepo) GetOrCreateUsagePeriod(ctx context.Context, tenantID common.TenantID, month quota.Month) (*quota.UsagePeriod, error) {
	query := `
		INSERT INTO usage_periods (tenant_id, month) VALUES ($1, $2)
		ON CONFLICT (tenant_id, month) DO UPDATE SET tenant_id = EXCLUDED.tenant_id
		RETURNING local_used, high_used
	`
	u := &quota.UsagePeriod{TenantID: tenantID, Month: month}
	err := r.executor.QueryRowContext(ctx, query, string(tenantID), string(month)).Scan(&u.LocalUsed, &u.HighUsed)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load usage period")
	}
	return u, nil
}

// IncrementUsage upserts and increments in one statement, so concurrent
// completions never lose an update.
func (r *postgresUsageRepo) IncrementUsage(ctx context.Context, tenantID common.TenantID, month quota.Month, tier quota.Tier) (*quota.UsagePeriod, error) {
	local, high := 0, 0
	switch tier {
	case quota.TierLocal:
		local = 1
	case quota.TierHigh:
		high = 1
	default:
		return nil, errors.InvalidParam(fmt.Sprintf("unknown quota tier %q", tier))
	}
	query := `
		INSERT INTO usage_periods (tenant_id, month, local_used, high_used) VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, month) DO UPDATE SET
			local_used = usage_periods.local_used + EXCLUDED.local_used,
			high_used = usage_periods.high_used + EXCLUDED.high_used
		RETURNING local_used, high_used
	`
	u := &quota.UsagePeriod{TenantID: tenantID, Month: month}
	err := r.executor.QueryRowContext(ctx, query, string(tenantID), string(month), local, high).Scan(&u.LocalUsed, &u.HighUsed)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeUsageUpdateFailed, "failed to increment usage")
	}
	return u, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Tenants
// ─────────────────────────────────────────────────────────────────────────────

type postgresTenantRepo struct {
	executor queryExecutor
}

// NewPostgresAdminResolver reads the system-admin flag from the tenants
// table. Unknown tenants are ordinary tenants.
func NewPostgresAdminResolver(conn *postgres.Connection) quota.AdminResolver {
	return &postgresTenantRepo{executor: conn.DB()}
}

func (r *postgresTenantRepo) IsSystemAdmin(ctx context.Context, tenantID common.TenantID) (bool, error) {
	var admin bool
	err := r.executor.QueryRowContext(ctx, `SELECT is_system_admin FROM tenants WHERE id = $1`, string(tenantID)).Scan(&admin)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to resolve tenant")
	}
	return admin, nil
}

//Personal.AI order the ending
