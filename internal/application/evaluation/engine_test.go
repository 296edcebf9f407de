package evaluation

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/authenticity"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/category"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/profile"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/testutil"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

const tenant = common.TenantID("tenant-1")

type fixture struct {
	products   *testutil.MockProductRepository
	references *testutil.MockReferenceRepository
	history    *testutil.MockHistoryRepository
	logger     *testutil.MockLogger
}

func newFixture() *fixture {
	return &fixture{
		products:   new(testutil.MockProductRepository),
		references: new(testutil.MockReferenceRepository),
		history:    new(testutil.MockHistoryRepository),
		logger:     testutil.NewMockLogger(),
	}
}

func (f *fixture) service(t *testing.T, cfg Config) Service {
	t.Helper()
	svc, err := NewService(cfg, Dependencies{
		Products:   f.products,
		References: f.references,
		History:    f.history,
		Detector:   authenticity.NewDetector(authenticity.DefaultTables(), profile.Default()),
		Matcher:    category.NewMatcher(category.DefaultDictionary()),
		Logger:     f.logger,
		Clock:      func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return svc
}

func (f *fixture) noHistory() {
	f.history.On("ListForProduct", mock.Anything, tenant, mock.Anything, DefaultTrainingHistoryLimit).
		Return([]*scan.ScanRecord{}, nil)
}

func weightOf(res *scan.EvaluationResult, kind scan.ViolationKind) int {
	total := 0
	for _, v := range res.Violations {
		if v.Kind == kind {
			total += v.Weight
		}
	}
	return total
}

func phoneSignature() scan.VisionSignature {
	return scan.VisionSignature{
		Labels:        []scan.Label{{Description: "Mobile phone", Score: 0.95}, {Description: "Gadget", Score: 0.9}},
		OCRConfidence: 0.95,
		Spoof:         scan.LikelihoodUnlikely,
		Origin:        scan.OriginProvider,
		Provider:      "mock",
	}
}

func acmeProduct(rules *scan.RuleConfig) *scan.ProductProfile {
	return &scan.ProductProfile{ID: "prod-1", TenantID: tenant, Brand: "Acme", Category: category.Other, Rules: rules}
}

// ─────────────────────────────────────────────────────────────────────────────
// Construction
// ─────────────────────────────────────────────────────────────────────────────

func TestNewService_RequiresDetectorAndMatcher(t *testing.T) {
	_, err := NewService(Config{}, Dependencies{Matcher: category.NewMatcher(nil)})
	assert.Error(t, err)
	_, err = NewService(Config{}, Dependencies{Detector: authenticity.NewDetector(authenticity.DefaultTables(), profile.Default())})
	assert.Error(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// UNDEFINED_CATEGORY
// ─────────────────────────────────────────────────────────────────────────────

func TestEvaluate_NoRules_Indeterminate(t *testing.T) {
	f := newFixture()
	svc := f.service(t, Config{})

	res, err := svc.Evaluate(context.Background(), Request{
		TenantID:  tenant,
		Product:   &scan.ProductProfile{ID: "prod-1", Category: "Smartphones", Brand: "Apple"},
		Signature: phoneSignature(),
	})
	require.NoError(t, err)

	assert.Equal(t, scan.ModeUndefinedCategory, res.Mode)
	assert.Equal(t, scan.StatusIndeterminate, res.Status)
	assert.Equal(t, 1, res.CountViolations(scan.ViolationNoRulesDefined))
	assert.Equal(t, 0, weightOf(res, scan.ViolationNoRulesDefined))
	f.history.AssertNotCalled(t, "ListForProduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluate_NoRules_UniversalChecksStillScore(t *testing.T) {
	f := newFixture()
	svc := f.service(t, Config{})

	sig := phoneSignature()
	sig.OCRText = "Preview image courtesy of Shutterstock"
	res, err := svc.Evaluate(context.Background(), Request{TenantID: tenant, Signature: sig})
	require.NoError(t, err)

	assert.Equal(t, scan.StatusIndeterminate, res.Status, "undefined mode is never scored into a verdict")
	assert.True(t, res.HasViolation(scan.ViolationWatermarkDetected))
	assert.Equal(t, authenticity.WatermarkWeight, res.RiskScore)
}

func TestEvaluate_ProductNotFound_TreatedAsNoRules(t *testing.T) {
	f := newFixture()
	pid := common.ID("missing")
	f.products.On("GetProduct", mock.Anything, tenant, pid).Return(nil, errors.NotFound("product not found"))
	svc := f.service(t, Config{})

	res, err := svc.Evaluate(context.Background(), Request{TenantID: tenant, ProductID: &pid, Signature: phoneSignature()})
	require.NoError(t, err)
	assert.Equal(t, scan.ModeUndefinedCategory, res.Mode)
	assert.True(t, f.logger.HasLevel("warn"))
}

func TestEvaluate_ProductLookupError(t *testing.T) {
	f := newFixture()
	pid := common.ID("prod-1")
	f.products.On("GetProduct", mock.Anything, tenant, pid).Return(nil, stderrors.New("connection reset"))
	svc := f.service(t, Config{})

	_, err := svc.Evaluate(context.Background(), Request{TenantID: tenant, ProductID: &pid, Signature: phoneSignature()})
	assert.Error(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// MASTER_PLUS_CLOUD
// ─────────────────────────────────────────────────────────────────────────────

func TestEvaluate_Master_MissingAppleLogoIsHighRisk(t *testing.T) {
	f := newFixture()
	f.noHistory()
	svc := f.service(t, Config{})

	product := &scan.ProductProfile{
		ID: "prod-iphone", TenantID: tenant, Brand: "Apple", Category: "Smartphones",
		Rules: &scan.RuleConfig{UseLogoCheck: true},
	}
	res, err := svc.Evaluate(context.Background(), Request{TenantID: tenant, Product: product, Signature: phoneSignature()})
	require.NoError(t, err)

	assert.Equal(t, scan.ModeMasterPlusCloud, res.Mode)
	assert.Equal(t, 25, weightOf(res, scan.ViolationBaselineRisk))
	assert.Equal(t, 35, weightOf(res, scan.ViolationLogoMissing))
	assert.Equal(t, 15, weightOf(res, scan.ViolationAppleLogoMissing))
	assert.False(t, res.HasViolation(scan.ViolationCategoryMismatch))
	assert.Equal(t, 75, res.RiskScore)
	assert.Equal(t, scan.StatusHighRisk, res.Status)
}

func TestEvaluate_Master_NoActiveReferencePenalty(t *testing.T) {
	f := newFixture()
	f.noHistory()
	f.references.On("ListActiveFingerprints", mock.Anything, tenant, common.ID("prod-1")).
		Return([]*scan.ReferenceFingerprint{}, nil)
	svc := f.service(t, Config{CompareActiveReferences: true})

	res, err := svc.Evaluate(context.Background(), Request{
		TenantID:  tenant,
		Product:   acmeProduct(&scan.RuleConfig{UseGenericLabels: true}),
		Signature: phoneSignature(),
	})
	require.NoError(t, err)
	assert.Equal(t, 10, weightOf(res, scan.ViolationNoReference))
	assert.Equal(t, 25, res.RiskScore)
}

func TestEvaluate_Master_CategoryMismatch(t *testing.T) {
	f := newFixture()
	f.noHistory()
	svc := f.service(t, Config{})

	product := &scan.ProductProfile{
		ID: "prod-shoe", TenantID: tenant, Brand: "Acme", Category: "Smartphones",
		Rules: &scan.RuleConfig{UseGenericLabels: true},
	}
	sig := phoneSignature()
	sig.Labels = []scan.Label{{Description: "Shoe", Score: 0.97}, {Description: "Sneakers", Score: 0.9}}
	res, err := svc.Evaluate(context.Background(), Request{TenantID: tenant, Product: product, Signature: sig})
	require.NoError(t, err)
	assert.Equal(t, DefaultCategoryMismatchWeight, weightOf(res, scan.ViolationCategoryMismatch))
}

func TestEvaluate_Master_IdentifierRules(t *testing.T) {
	f := newFixture()
	f.noHistory()
	svc := f.service(t, Config{})

	sig := phoneSignature()
	sig.OCRText = "Model: AX-200\nBatch: 23B77"
	rules := &scan.RuleConfig{
		RequiredIdentifiers: []string{"model", "imei"},
		IdentifierPatterns: map[string]string{
			"model": `^AX-\d{3}$`,
			"batch": `^\d+$`,
		},
	}
	res, err := svc.Evaluate(context.Background(), Request{TenantID: tenant, Product: acmeProduct(rules), Signature: sig})
	require.NoError(t, err)

	require.Equal(t, 1, res.CountViolations(scan.ViolationMissingIdentifier))
	assert.Equal(t, scan.DefaultMissingIdentifierWeight, weightOf(res, scan.ViolationMissingIdentifier))
	require.Equal(t, 1, res.CountViolations(scan.ViolationInvalidIdentifier))
	assert.Equal(t, scan.DefaultInvalidIdentifierWeight, weightOf(res, scan.ViolationInvalidIdentifier))
	for _, v := range res.Violations {
		if v.Kind == scan.ViolationInvalidIdentifier {
			ev, ok := v.Evidence.(scan.IdentifierEvidence)
			require.True(t, ok)
			assert.Equal(t, "batch", ev.Name)
			assert.Equal(t, "23B77", ev.Value)
		}
	}
}

func TestEvaluate_Master_MalformedPatternSkipped(t *testing.T) {
	f := newFixture()
	f.noHistory()
	svc := f.service(t, Config{})

	sig := phoneSignature()
	sig.OCRText = "Model: AX-200"
	rules := &scan.RuleConfig{IdentifierPatterns: map[string]string{"model": `[unclosed`}}
	res, err := svc.Evaluate(context.Background(), Request{TenantID: tenant, Product: acmeProduct(rules), Signature: sig})
	require.NoError(t, err)

	assert.False(t, res.HasViolation(scan.ViolationInvalidIdentifier))
	assert.Equal(t, []string{"model"}, res.DebugInfo["skipped_patterns"])
	assert.True(t, f.logger.HasMessage("warn", "skipping malformed identifier pattern"))
}

func TestEvaluate_Master_RuleWeightOverride(t *testing.T) {
	f := newFixture()
	f.noHistory()
	svc := f.service(t, Config{})

	rules := &scan.RuleConfig{
		RequiredIdentifiers: []string{"imei"},
		Weights:             map[scan.ViolationKind]int{scan.ViolationMissingIdentifier: 55, scan.ViolationBaselineRisk: 0},
	}
	res, err := svc.Evaluate(context.Background(), Request{TenantID: tenant, Product: acmeProduct(rules), Signature: phoneSignature()})
	require.NoError(t, err)
	assert.Equal(t, 55, weightOf(res, scan.ViolationMissingIdentifier))
	assert.Equal(t, 0, weightOf(res, scan.ViolationBaselineRisk))
	assert.Equal(t, 55, res.RiskScore)
}

// ─────────────────────────────────────────────────────────────────────────────
// REFERENCE_COMPARE
// ─────────────────────────────────────────────────────────────────────────────

func TestEvaluate_Reference_NotFound(t *testing.T) {
	f := newFixture()
	f.noHistory()
	ref := common.ID("ref-404")
	f.references.On("GetFingerprint", mock.Anything, tenant, ref).Return(nil, errors.NotFound("reference not found"))
	svc := f.service(t, Config{})

	res, err := svc.Evaluate(context.Background(), Request{
		TenantID: tenant, Product: acmeProduct(&scan.RuleConfig{UseLogoCheck: true}),
		ReferenceID: &ref, Signature: phoneSignature(),
	})
	require.NoError(t, err)
	assert.Equal(t, scan.ModeReferenceCompare, res.Mode)
	assert.Equal(t, 1, res.CountViolations(scan.ViolationReferenceNotFound))
	assert.Equal(t, 0, weightOf(res, scan.ViolationReferenceNotFound))
}

func TestEvaluate_Reference_InactiveIsNotFound(t *testing.T) {
	f := newFixture()
	f.noHistory()
	ref := common.ID("ref-old")
	f.references.On("GetFingerprint", mock.Anything, tenant, ref).
		Return(&scan.ReferenceFingerprint{ID: ref, Active: false}, nil)
	svc := f.service(t, Config{})

	res, err := svc.Evaluate(context.Background(), Request{
		TenantID: tenant, Product: acmeProduct(&scan.RuleConfig{UseLogoCheck: true}),
		ReferenceID: &ref, Signature: phoneSignature(),
	})
	require.NoError(t, err)
	assert.True(t, res.HasViolation(scan.ViolationReferenceNotFound))
}

func TestEvaluate_Reference_SelfMatchLowersRisk(t *testing.T) {
	f := newFixture()
	f.noHistory()
	ref := common.ID("ref-1")

	sig := phoneSignature()
	sig.OCRText = "Acme Audio studio headphones"
	sig.Logos = []scan.Logo{{Description: "Acme", Score: 0.95}}
	sig.Colors = []scan.Color{
		{Red: 200, Green: 200, Blue: 200, PixelFraction: 0.5, Score: 0.5},
		{Red: 20, Green: 20, Blue: 20, PixelFraction: 0.3, Score: 0.3},
		{Red: 180, Green: 30, Blue: 30, PixelFraction: 0.2, Score: 0.2},
	}
	f.references.On("GetFingerprint", mock.Anything, tenant, ref).Return(&scan.ReferenceFingerprint{
		ID: ref, TenantID: tenant, ProductID: "prod-1", Active: true,
		Colors: sig.Colors, Logos: sig.Logos, OCRText: sig.OCRText, OCRConfidence: sig.OCRConfidence,
	}, nil)
	svc := f.service(t, Config{})

	res, err := svc.Evaluate(context.Background(), Request{
		TenantID: tenant, Product: acmeProduct(&scan.RuleConfig{UseLogoCheck: true}),
		ReferenceID: &ref, Signature: sig,
	})
	require.NoError(t, err)
	assert.Equal(t, -30, weightOf(res, scan.ViolationReferenceMatch))
	assert.Equal(t, 0, res.RiskScore)
	assert.Equal(t, scan.StatusLikelyGenuine, res.Status)
}

func TestEvaluate_Reference_RuleWeightOverride(t *testing.T) {
	f := newFixture()
	f.noHistory()
	ref := common.ID("ref-2")
	f.references.On("GetFingerprint", mock.Anything, tenant, ref).Return(&scan.ReferenceFingerprint{
		ID: ref, TenantID: tenant, ProductID: "prod-1", Active: true, OCRText: "unrelated packaging",
	}, nil)
	svc := f.service(t, Config{})

	rules := &scan.RuleConfig{
		UseLogoCheck: true,
		Weights:      map[scan.ViolationKind]int{scan.ViolationReferenceMismatch: 10, scan.ViolationBaselineRisk: 0},
	}
	res, err := svc.Evaluate(context.Background(), Request{
		TenantID: tenant, Product: acmeProduct(rules), ReferenceID: &ref, Signature: phoneSignature(),
	})
	require.NoError(t, err)
	require.Equal(t, scan.ModeReferenceCompare, res.Mode)
	assert.Equal(t, 10, weightOf(res, scan.ViolationReferenceMismatch))
	assert.Equal(t, 0, weightOf(res, scan.ViolationBaselineRisk))
	assert.Equal(t, 10, res.RiskScore)
}

func TestEvaluate_Reference_LookupError(t *testing.T) {
	f := newFixture()
	ref := common.ID("ref-1")
	f.references.On("GetFingerprint", mock.Anything, tenant, ref).Return(nil, stderrors.New("timeout"))
	svc := f.service(t, Config{})

	_, err := svc.Evaluate(context.Background(), Request{
		TenantID: tenant, Product: acmeProduct(&scan.RuleConfig{UseLogoCheck: true}),
		ReferenceID: &ref, Signature: phoneSignature(),
	})
	assert.Error(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Training and fallback
// ─────────────────────────────────────────────────────────────────────────────

func record(status scan.Status, score int) *scan.ScanRecord {
	return &scan.ScanRecord{Result: &scan.EvaluationResult{Status: status, RiskScore: score}}
}

func TestEvaluate_TrainingAdjustment(t *testing.T) {
	f := newFixture()
	f.history.On("ListForProduct", mock.Anything, tenant, common.ID("prod-1"), DefaultTrainingHistoryLimit).
		Return([]*scan.ScanRecord{
			record(scan.StatusLikelyGenuine, 10), record(scan.StatusLikelyGenuine, 12), record(scan.StatusLikelyGenuine, 8),
			record(scan.StatusHighRisk, 90), record(scan.StatusHighRisk, 85), record(scan.StatusSuspicious, 50),
		}, nil)
	svc := f.service(t, Config{})

	res, err := svc.Evaluate(context.Background(), Request{
		TenantID: tenant, Product: acmeProduct(&scan.RuleConfig{UseGenericLabels: true}), Signature: phoneSignature(),
	})
	require.NoError(t, err)

	// 15 baseline; five resolvable samples, nearer the genuine mean.
	assert.Equal(t, -10, weightOf(res, scan.ViolationTrainingAdjustment))
	assert.Equal(t, 5, res.RiskScore)
}

func TestEvaluate_TrainingHistoryErrorIsSkipped(t *testing.T) {
	f := newFixture()
	f.history.On("ListForProduct", mock.Anything, tenant, common.ID("prod-1"), DefaultTrainingHistoryLimit).
		Return(nil, stderrors.New("db down"))
	svc := f.service(t, Config{})

	res, err := svc.Evaluate(context.Background(), Request{
		TenantID: tenant, Product: acmeProduct(&scan.RuleConfig{UseGenericLabels: true}), Signature: phoneSignature(),
	})
	require.NoError(t, err)
	assert.False(t, res.HasViolation(scan.ViolationTrainingAdjustment))
	assert.True(t, f.logger.HasLevel("warn"))
}

func TestEvaluate_FallbackSignatureDisclosed(t *testing.T) {
	f := newFixture()
	svc := f.service(t, Config{})

	res, err := svc.Evaluate(context.Background(), Request{TenantID: tenant, Signature: scan.FallbackSignature("google")})
	require.NoError(t, err)
	assert.True(t, res.HasViolation(scan.ViolationVisionFallback))
	assert.Equal(t, string(scan.OriginFallback), res.DebugInfo["vision_origin"])
	assert.Equal(t, 1, res.CountViolations(scan.ViolationNoRulesDefined))
}

//Personal.AI order the ending
