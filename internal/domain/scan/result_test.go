package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForScore_Thresholds(t *testing.T) {
	cases := []struct {
		score int
		want  Status
	}{
		{0, StatusLikelyGenuine},
		{30, StatusLikelyGenuine},
		{31, StatusSuspicious},
		{60, StatusSuspicious},
		{61, StatusHighRisk},
		{100, StatusHighRisk},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusForScore(tc.score), "score %d", tc.score)
	}
}

func TestStatusForScore_TotalOverRange(t *testing.T) {
	for s := MinScore; s <= MaxScore; s++ {
		st := StatusForScore(s)
		assert.True(t, st == StatusLikelyGenuine || st == StatusSuspicious || st == StatusHighRisk)
	}
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, ClampScore(-45))
	assert.Equal(t, 55, ClampScore(55))
	assert.Equal(t, 100, ClampScore(380))
}

func TestNewEvaluationResult_ClampsSum(t *testing.T) {
	vs := []Violation{
		NewViolation(ViolationWatermarkDetected, 70, "", nil),
		NewViolation(ViolationBrandMismatch, 50, "", nil),
		NewViolation(ViolationCategoryPattern, 60, "", nil),
	}
	r, err := NewEvaluationResult(ModeMasterPlusCloud, vs, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 100, r.RiskScore)
	assert.Equal(t, StatusHighRisk, r.Status)
	assert.NotNil(t, r.DebugInfo)
}

func TestNewEvaluationResult_NegativeSumClampsToZero(t *testing.T) {
	vs := []Violation{NewViolation(ViolationReferenceMatch, -30, "", nil)}
	r, err := NewEvaluationResult(ModeReferenceCompare, vs, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, r.RiskScore)
	assert.Equal(t, StatusLikelyGenuine, r.Status)
}

func TestNewEvaluationResult_UndefinedCategoryForcesIndeterminate(t *testing.T) {
	vs := []Violation{
		NewViolation(ViolationNoRulesDefined, 0, "", nil),
		NewViolation(ViolationWatermarkDetected, 70, "", nil),
	}
	r, err := NewEvaluationResult(ModeUndefinedCategory, vs, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 70, r.RiskScore)
	assert.Equal(t, StatusIndeterminate, r.Status)
	assert.Equal(t, 1, r.CountViolations(ViolationNoRulesDefined))
}

func TestNewEvaluationResult_Rejects(t *testing.T) {
	_, err := NewEvaluationResult(Mode("FAST"), nil, nil, time.Now())
	assert.Error(t, err)

	_, err = NewEvaluationResult(ModeMasterPlusCloud, []Violation{{Weight: 5}}, nil, time.Now())
	assert.Error(t, err)
}

func TestNewEvaluationResult_CopiesViolations(t *testing.T) {
	vs := []Violation{NewViolation(ViolationLogoMissing, 35, "", nil)}
	r, err := NewEvaluationResult(ModeMasterPlusCloud, vs, nil, time.Now())
	require.NoError(t, err)
	vs[0].Weight = 99
	assert.Equal(t, 35, r.Violations[0].Weight)
}

//Personal.AI order the ending
