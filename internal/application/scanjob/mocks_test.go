package scanjob

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/application/evaluation"
	domainQuota "github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/quota"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

type mockAnalyzer struct{ mock.Mock }

func (m *mockAnalyzer) Analyze(ctx context.Context, scanType scan.ScanType, imagePath string) scan.VisionSignature {
	args := m.Called(ctx, scanType, imagePath)
	return args.Get(0).(scan.VisionSignature)
}

type mockEvaluator struct{ mock.Mock }

func (m *mockEvaluator) Evaluate(ctx context.Context, req evaluation.Request) (*scan.EvaluationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scan.EvaluationResult), args.Error(1)
}

type mockQuota struct{ mock.Mock }

func (m *mockQuota) Enforce(ctx context.Context, tenantID common.TenantID, scanType scan.ScanType) error {
	return m.Called(ctx, tenantID, scanType).Error(0)
}

func (m *mockQuota) Consume(ctx context.Context, tenantID common.TenantID, scanType scan.ScanType) (*domainQuota.UsagePeriod, error) {
	args := m.Called(ctx, tenantID, scanType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainQuota.UsagePeriod), args.Error(1)
}

type mockImages struct{ mock.Mock }

func (m *mockImages) PutImage(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, r, size, contentType)
	return args.String(0), args.Error(1)
}

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) Dispatch(ctx context.Context, job *scan.ScanJob) error {
	return m.Called(ctx, job).Error(0)
}

type mockEvents struct{ mock.Mock }

func (m *mockEvents) PublishOutcome(ctx context.Context, ev OutcomeEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type processorFunc func(ctx context.Context, id common.ID) error

func (f processorFunc) Process(ctx context.Context, id common.ID) error { return f(ctx, id) }

//Personal.AI order the ending
