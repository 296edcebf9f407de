package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/quota"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
)

func TestPlanRepo_GetActivePlan(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := NewPostgresPlanRepo(conn, logging.NewNopLogger())
	at := time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC)
	starts := at.AddDate(0, -1, 0)

	mock.ExpectQuery("(?s)SELECT .* FROM plans").
		WithArgs("t-1", at).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "tenant_id", "name", "local_quota_per_month", "high_quota_per_month", "starts_at", "ends_at",
		}).AddRow("plan-1", "t-1", "starter", 100, quota.Unlimited, starts, nil))

	p, err := repo.GetActivePlan(context.Background(), "t-1", at)
	require.NoError(t, err)
	assert.Equal(t, "starter", p.Name)
	assert.Equal(t, 100, p.Limit(quota.TierLocal))
	assert.Equal(t, quota.Unlimited, p.Limit(quota.TierHigh))
	assert.Nil(t, p.EndsAt)
	assert.True(t, p.ActiveAt(at))
}

func TestPlanRepo_GetActivePlan_None(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := NewPostgresPlanRepo(conn, logging.NewNopLogger())

	mock.ExpectQuery("(?s)SELECT .* FROM plans").WillReturnError(sql.ErrNoRows)
	_, err := repo.GetActivePlan(context.Background(), "t-1", time.Now())
	assert.True(t, errors.IsCode(err, errors.ErrCodePlanNotFound))
}

func TestUsageRepo_GetOrCreateUsagePeriod(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := NewPostgresUsageRepo(conn, logging.NewNopLogger())

	mock.ExpectQuery("INSERT INTO usage_periods \\(tenant_id, month\\)").
		WithArgs("t-1", "2026-06").
		WillReturnRows(sqlmock.NewRows([]string{"local_used", "high_used"}).AddRow(3, 1))

	u, err := repo.GetOrCreateUsagePeriod(context.Background(), "t-1", "2026-06")
	require.NoError(t, err)
	assert.Equal(t, 3, u.LocalUsed)
	assert.Equal(t, 1, u.HighUsed)
	assert.Equal(t, quota.Month("2026-06"), u.Month)
}

func TestUsageRepo_IncrementUsage_PerTier(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := NewPostgresUsageRepo(conn, logging.NewNopLogger())

	mock.ExpectQuery("(?s)INSERT INTO usage_periods .* ON CONFLICT").
		WithArgs("t-1", "2026-06", 0, 1).
		WillReturnRows(sqlmock.NewRows([]string{"local_used", "high_used"}).AddRow(3, 2))

	u, err := repo.IncrementUsage(context.Background(), "t-1", "2026-06", quota.TierHigh)
	require.NoError(t, err)
	assert.Equal(t, 2, u.HighUsed)

	mock.ExpectQuery("(?s)INSERT INTO usage_periods .* ON CONFLICT").
		WithArgs("t-1", "2026-06", 1, 0).
		WillReturnError(sql.ErrConnDone)
	_, err = repo.IncrementUsage(context.Background(), "t-1", "2026-06", quota.TierLocal)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUsageUpdateFailed))

	_, err = repo.IncrementUsage(context.Background(), "t-1", "2026-06", quota.Tier("gold"))
	assert.Error(t, err)
}

func TestAdminResolver_IsSystemAdmin(t *testing.T) {
	conn, mock := newMockConn(t)
	resolver := NewPostgresAdminResolver(conn)

	mock.ExpectQuery("SELECT is_system_admin FROM tenants").
		WithArgs("root").
		WillReturnRows(sqlmock.NewRows([]string{"is_system_admin"}).AddRow(true))
	admin, err := resolver.IsSystemAdmin(context.Background(), "root")
	require.NoError(t, err)
	assert.True(t, admin)

	mock.ExpectQuery("SELECT is_system_admin FROM tenants").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	admin, err = resolver.IsSystemAdmin(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, admin)
}

//Personal.AI order the ending
