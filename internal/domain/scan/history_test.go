package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveVerdict(t *testing.T) {
	fake := VerdictFake

	v, ok := EffectiveVerdict(&fake, StatusLikelyGenuine)
	assert.True(t, ok)
	assert.Equal(t, VerdictFake, v, "override wins")

	v, ok = EffectiveVerdict(nil, StatusLikelyGenuine)
	assert.True(t, ok)
	assert.Equal(t, VerdictGenuine, v)

	v, ok = EffectiveVerdict(nil, StatusHighRisk)
	assert.True(t, ok)
	assert.Equal(t, VerdictFake, v)

	_, ok = EffectiveVerdict(nil, StatusSuspicious)
	assert.False(t, ok)
	_, ok = EffectiveVerdict(nil, StatusIndeterminate)
	assert.False(t, ok)
}

func TestParseVerdict(t *testing.T) {
	v, err := ParseVerdict("genuine")
	require.NoError(t, err)
	assert.Equal(t, VerdictGenuine, v)

	_, err = ParseVerdict("maybe")
	assert.Error(t, err)
}

func TestSamplesFromRecords(t *testing.T) {
	genuine := VerdictGenuine
	records := []*ScanRecord{
		{JobID: "a", Result: &EvaluationResult{Status: StatusHighRisk, RiskScore: 80}},
		{JobID: "b", Result: &EvaluationResult{Status: StatusSuspicious, RiskScore: 45}},
		{JobID: "c", Result: &EvaluationResult{Status: StatusSuspicious, RiskScore: 40}, Verdict: &genuine},
		{JobID: "d"},
		nil,
	}
	got := SamplesFromRecords(records)
	require.Len(t, got, 2)
	assert.Equal(t, VerifiedSample{JobID: "a", RiskScore: 80, Verdict: VerdictFake}, got[0])
	assert.Equal(t, VerifiedSample{JobID: "c", RiskScore: 40, Verdict: VerdictGenuine}, got[1])
}

//Personal.AI order the ending
