package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/quota"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Scan repositories
// ─────────────────────────────────────────────────────────────────────────────

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetProduct(ctx context.Context, tenantID common.TenantID, id common.ID) (*scan.ProductProfile, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scan.ProductProfile), args.Error(1)
}

type MockReferenceRepository struct {
	mock.Mock
}

func (m *MockReferenceRepository) GetFingerprint(ctx context.Context, tenantID common.TenantID, id common.ID) (*scan.ReferenceFingerprint, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scan.ReferenceFingerprint), args.Error(1)
}

func (m *MockReferenceRepository) ListActiveFingerprints(ctx context.Context, tenantID common.TenantID, productID common.ID) ([]*scan.ReferenceFingerprint, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*scan.ReferenceFingerprint), args.Error(1)
}

type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) Create(ctx context.Context, job *scan.ScanJob) error {
	return m.Called(ctx, job).Error(0)
}

func (m *MockJobRepository) Get(ctx context.Context, id common.ID) (*scan.ScanJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scan.ScanJob), args.Error(1)
}

func (m *MockJobRepository) Claim(ctx context.Context, id common.ID, now time.Time) (*scan.ScanJob, error) {
	args := m.Called(ctx, id, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scan.ScanJob), args.Error(1)
}

func (m *MockJobRepository) MarkCompleted(ctx context.Context, id common.ID, now time.Time) error {
	return m.Called(ctx, id, now).Error(0)
}

func (m *MockJobRepository) MarkFailed(ctx context.Context, id common.ID, reason string, now time.Time) error {
	return m.Called(ctx, id, reason, now).Error(0)
}

func (m *MockJobRepository) FailStale(ctx context.Context, cutoff time.Time, reason string, now time.Time) (int64, error) {
	args := m.Called(ctx, cutoff, reason, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJobRepository) ListPending(ctx context.Context, limit int) ([]*scan.ScanJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*scan.ScanJob), args.Error(1)
}

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) SaveResult(ctx context.Context, record *scan.ScanRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockHistoryRepository) GetByJobID(ctx context.Context, jobID common.ID) (*scan.ScanRecord, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scan.ScanRecord), args.Error(1)
}

func (m *MockHistoryRepository) SetVerdict(ctx context.Context, jobID common.ID, verdict scan.Verdict, now time.Time) error {
	return m.Called(ctx, jobID, verdict, now).Error(0)
}

func (m *MockHistoryRepository) ListForProduct(ctx context.Context, tenantID common.TenantID, productID common.ID, limit int) ([]*scan.ScanRecord, error) {
	args := m.Called(ctx, tenantID, productID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*scan.ScanRecord), args.Error(1)
}

type MockHistoryIndexer struct {
	mock.Mock
}

func (m *MockHistoryIndexer) IndexRecord(ctx context.Context, record *scan.ScanRecord) error {
	return m.Called(ctx, record).Error(0)
}

// MockVisionProvider answers Analyze from its expectations; Name is fixed.
type MockVisionProvider struct {
	mock.Mock
	ProviderName string
}

func (m *MockVisionProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockVisionProvider) Analyze(ctx context.Context, imagePath string) (scan.VisionSignature, error) {
	args := m.Called(ctx, imagePath)
	return args.Get(0).(scan.VisionSignature), args.Error(1)
}

// ─────────────────────────────────────────────────────────────────────────────
// Quota repositories
// ─────────────────────────────────────────────────────────────────────────────

type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) GetActivePlan(ctx context.Context, tenantID common.TenantID, at time.Time) (*quota.Plan, error) {
	args := m.Called(ctx, tenantID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quota.Plan), args.Error(1)
}

type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) GetOrCreateUsagePeriod(ctx context.Context, tenantID common.TenantID, month quota.Month) (*quota.UsagePeriod, error) {
	args := m.Called(ctx, tenantID, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quota.UsagePeriod), args.Error(1)
}

func (m *MockUsageRepository) IncrementUsage(ctx context.Context, tenantID common.TenantID, month quota.Month, tier quota.Tier) (*quota.UsagePeriod, error) {
	args := m.Called(ctx, tenantID, month, tier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quota.UsagePeriod), args.Error(1)
}

type MockAdminResolver struct {
	mock.Mock
}

func (m *MockAdminResolver) IsSystemAdmin(ctx context.Context, tenantID common.TenantID) (bool, error) {
	args := m.Called(ctx, tenantID)
	return args.Bool(0), args.Error(1)
}

//Personal.AI order the ending
