package quota

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainQuota "github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/quota"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/testutil"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

const tenant = common.TenantID("t-1")

var now = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

type gateFixture struct {
	plans  *testutil.MockPlanRepository
	usage  *testutil.MockUsageRepository
	admins *testutil.MockAdminResolver
	gate   *gateImpl
}

func newGateFixture(admin bool) *gateFixture {
	f := &gateFixture{
		plans:  new(testutil.MockPlanRepository),
		usage:  new(testutil.MockUsageRepository),
		admins: new(testutil.MockAdminResolver),
	}
	f.admins.On("IsSystemAdmin", mock.Anything, tenant).Return(admin, nil)
	f.gate = NewGate(f.plans, f.usage, f.admins, nil, testutil.NewNopLogger()).(*gateImpl)
	f.gate.now = func() time.Time { return now }
	return f
}

func plan(local, high int) *domainQuota.Plan {
	return &domainQuota.Plan{ID: "plan-1", TenantID: tenant, Name: "Pro", LocalQuotaPerMonth: local, HighQuotaPerMonth: high, StartsAt: now.AddDate(0, -1, 0)}
}

func period(local, high int) *domainQuota.UsagePeriod {
	return &domainQuota.UsagePeriod{TenantID: tenant, Month: "2026-05", LocalUsed: local, HighUsed: high}
}

func TestCheck_AllowsUnderLimit(t *testing.T) {
	f := newGateFixture(false)
	f.plans.On("GetActivePlan", mock.Anything, tenant, now).Return(plan(100, 10), nil)
	f.usage.On("GetOrCreateUsagePeriod", mock.Anything, tenant, domainQuota.Month("2026-05")).Return(period(99, 0), nil)

	d, err := f.gate.Check(context.Background(), tenant, scan.ScanTypeLocal)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
}

func TestCheck_RejectsAtLimitPerTier(t *testing.T) {
	f := newGateFixture(false)
	f.plans.On("GetActivePlan", mock.Anything, tenant, now).Return(plan(100, 10), nil)
	f.usage.On("GetOrCreateUsagePeriod", mock.Anything, tenant, domainQuota.Month("2026-05")).Return(period(5, 10), nil)

	d, err := f.gate.Check(context.Background(), tenant, scan.ScanTypeAIVision)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, domainQuota.TierHigh, d.Tier)

	d, err = f.gate.Check(context.Background(), tenant, scan.ScanTypeAuto)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "AUTO draws from the local counter")
}

func TestCheck_UnlimitedNeverRejects(t *testing.T) {
	f := newGateFixture(false)
	f.plans.On("GetActivePlan", mock.Anything, tenant, now).Return(plan(domainQuota.Unlimited, 0), nil)
	f.usage.On("GetOrCreateUsagePeriod", mock.Anything, tenant, mock.Anything).Return(period(1_000_000, 0), nil)

	d, err := f.gate.Check(context.Background(), tenant, scan.ScanTypeLocal)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, domainQuota.Unlimited, d.Remaining)
}

func TestCheck_AdminBypass(t *testing.T) {
	f := newGateFixture(true)

	d, err := f.gate.Check(context.Background(), tenant, scan.ScanTypeAIVision)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.True(t, d.Bypassed)
	f.plans.AssertNotCalled(t, "GetActivePlan", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheck_NoPlanRejects(t *testing.T) {
	f := newGateFixture(false)
	f.plans.On("GetActivePlan", mock.Anything, tenant, now).Return(nil, errors.New(errors.ErrCodePlanNotFound, "none"))

	d, err := f.gate.Check(context.Background(), tenant, scan.ScanTypeLocal)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonNoPlan, d.Reason)
}

func TestCheck_RepositoryError(t *testing.T) {
	f := newGateFixture(false)
	f.plans.On("GetActivePlan", mock.Anything, tenant, now).Return(nil, stderrors.New("conn refused"))

	_, err := f.gate.Check(context.Background(), tenant, scan.ScanTypeLocal)
	assert.Error(t, err)
}

func TestEnforce_ErrorCodes(t *testing.T) {
	f := newGateFixture(false)
	f.plans.On("GetActivePlan", mock.Anything, tenant, now).Return(plan(1, 1), nil).Once()
	f.usage.On("GetOrCreateUsagePeriod", mock.Anything, tenant, mock.Anything).Return(period(1, 0), nil)

	err := f.gate.Enforce(context.Background(), tenant, scan.ScanTypeLocal)
	assert.True(t, errors.IsCode(err, errors.ErrCodeQuotaExceeded))

	f.plans.On("GetActivePlan", mock.Anything, tenant, now).Return(nil, errors.NotFound("no plan")).Once()
	err = f.gate.Enforce(context.Background(), tenant, scan.ScanTypeLocal)
	assert.True(t, errors.IsCode(err, errors.ErrCodePlanNotFound))
}

func TestConsume_IncrementsTier(t *testing.T) {
	f := newGateFixture(false)
	f.usage.On("IncrementUsage", mock.Anything, tenant, domainQuota.Month("2026-05"), domainQuota.TierHigh).
		Return(period(0, 4), nil)

	p, err := f.gate.Consume(context.Background(), tenant, scan.ScanTypeAIVision)
	require.NoError(t, err)
	assert.Equal(t, 4, p.HighUsed)
	f.usage.AssertNumberOfCalls(t, "IncrementUsage", 1)
}

func TestConsume_AdminNotCharged(t *testing.T) {
	f := newGateFixture(true)
	p, err := f.gate.Consume(context.Background(), tenant, scan.ScanTypeLocal)
	require.NoError(t, err)
	assert.Nil(t, p)
	f.usage.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConsume_Failure(t *testing.T) {
	f := newGateFixture(false)
	f.usage.On("IncrementUsage", mock.Anything, tenant, mock.Anything, domainQuota.TierLocal).Return(nil, stderrors.New("boom"))

	_, err := f.gate.Consume(context.Background(), tenant, scan.ScanTypeLocal)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUsageUpdateFailed))
}

func TestUsage_Summary(t *testing.T) {
	f := newGateFixture(false)
	f.plans.On("GetActivePlan", mock.Anything, tenant, now).Return(plan(10, 2), nil)
	f.usage.On("GetOrCreateUsagePeriod", mock.Anything, tenant, domainQuota.Month("2026-05")).Return(period(3, 2), nil)

	u, err := f.gate.Usage(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, domainQuota.Month("2026-05"), u.Month)
	assert.Equal(t, 7, u.Local.Remaining)
	assert.False(t, u.High.Allowed)
	assert.Equal(t, "Pro", u.Plan.Name)
}

//Personal.AI order the ending
