package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
)

func TestDefault_Baselines(t *testing.T) {
	p := Default()
	assert.Equal(t, 25, p.BaselineRisk("Smartphones"))
	assert.Equal(t, 25, p.BaselineRisk("  smartphones "))
	assert.Equal(t, 15, p.BaselineRisk("Garden"))

	for _, c := range p.Categories() {
		b := p.BaselineRisk(c)
		assert.True(t, b >= 10 && b <= 35, "%s=%d", c, b)
	}
}

func TestLogoThreshold_Fallback(t *testing.T) {
	p := Default()
	assert.Equal(t, defaultLogo, p.LogoThreshold("Apple"))
	assert.Equal(t, 0.85, p.LogoThreshold("rolex").MinConfidence)
}

func TestLogoThreshold_PenaltyTiers(t *testing.T) {
	th := defaultLogo
	assert.Equal(t, 40, th.PenaltyFor(0.59))
	assert.Equal(t, 20, th.PenaltyFor(0.6))
	assert.Equal(t, 20, th.PenaltyFor(0.79))
	assert.Equal(t, 0, th.PenaltyFor(0.8))
}

func TestChallengeAdjustment_AppleDarkDevice(t *testing.T) {
	p := Default()
	adj := p.ChallengeAdjustment("apple", Context{Category: "Smartphones", DarkDevice: true})
	require.Len(t, adj, 1)
	assert.Equal(t, -10, adj[0].Points)

	assert.Empty(t, p.ChallengeAdjustment("Apple", Context{Category: "Smartphones"}))
	assert.Empty(t, p.ChallengeAdjustment("Samsung", Context{DarkDevice: true}))
}

func TestChallengeAdjustment_Books(t *testing.T) {
	p := Default()
	adj := p.ChallengeAdjustment("", Context{Category: "books"})
	require.Len(t, adj, 1)
	assert.Equal(t, "books-without-logo", adj[0].Rule)
	assert.Less(t, adj[0].Points, 0)
}

func TestNew_RejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Baselines["Toys"] = 140
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Challenges = append(cfg.Challenges, ChallengeRule{Name: "bonus", Conditions: []Condition{ConditionNoLogos}, Adjustment: 5})
	_, err = New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Challenges = []ChallengeRule{{Name: "x", Conditions: []Condition{"full_moon"}}}
	_, err = New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.DefaultLogoThreshold.FloorConfidence = 0.9
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestNew_IsolatedFromInput(t *testing.T) {
	cfg := DefaultConfig()
	p, err := New(cfg)
	require.NoError(t, err)
	cfg.Baselines["Smartphones"] = 99
	assert.Equal(t, 25, p.BaselineRisk("Smartphones"))

	out := p.Config()
	out.Baselines["smartphones"] = 1
	assert.Equal(t, 25, p.BaselineRisk("Smartphones"))
}

func TestContextFor(t *testing.T) {
	dark := scan.VisionSignature{
		Colors: []scan.Color{{Red: 20, Green: 20, Blue: 25, PixelFraction: 0.7}, {Red: 240, Green: 240, Blue: 240, PixelFraction: 0.1}},
		Logos:  []scan.Logo{{Description: "Apple", Score: 0.7}},
	}
	ctx := ContextFor("Smartphones", dark, defaultLogo)
	assert.True(t, ctx.DarkDevice)
	assert.True(t, ctx.LowLogoConfidence)
	assert.Equal(t, 1, ctx.LogoCount)

	light := scan.VisionSignature{Colors: []scan.Color{{Red: 250, Green: 250, Blue: 250, PixelFraction: 0.9}}}
	assert.False(t, ContextFor("Smartphones", light, defaultLogo).DarkDevice)
	assert.False(t, ContextFor("Smartphones", scan.VisionSignature{}, defaultLogo).DarkDevice)
}

//Personal.AI order the ending
