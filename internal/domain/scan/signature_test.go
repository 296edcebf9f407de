package scan

import "testing"

func TestColorHex(t *testing.T) {
	c := Color{Red: 255, Green: 128, Blue: 0}
	if got := c.Hex(); got != "#ff8000" {
		t.Errorf("expected #ff8000, got %s", got)
	}
	if got := (Color{Red: 300, Green: -4}).Hex(); got != "#ff0000" {
		t.Errorf("expected clamped #ff0000, got %s", got)
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#1a2B3c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Red != 0x1a || c.Green != 0x2b || c.Blue != 0x3c {
		t.Errorf("unexpected color %+v", c)
	}
	if _, err := ParseHexColor("#12345"); err == nil {
		t.Error("expected error for short hex")
	}
	if _, err := ParseHexColor("zzzzzz"); err == nil {
		t.Error("expected error for non-hex")
	}
}

func TestFallbackSignature(t *testing.T) {
	s := FallbackSignature("local-http")
	if !s.IsFallback() {
		t.Error("expected fallback origin")
	}
	if len(s.Labels) != 0 || len(s.Logos) != 0 || s.OCRConfidence != 0 {
		t.Error("fallback must be empty")
	}
	if s.Spoof.AtLeastLikely() {
		t.Error("fallback must not claim spoofing")
	}
}

func TestRuleConfig_Weight(t *testing.T) {
	var nilRules *RuleConfig
	if nilRules.Weight(ViolationMissingIdentifier, 30) != 30 {
		t.Error("nil rules should return default")
	}
	r := &RuleConfig{Weights: map[ViolationKind]int{ViolationMissingIdentifier: 55, ViolationInvalidIdentifier: 400}}
	if r.Weight(ViolationMissingIdentifier, 30) != 55 {
		t.Error("configured weight ignored")
	}
	if r.Weight(ViolationInvalidIdentifier, 40) != 100 {
		t.Error("weight should clamp to 100")
	}
	if (&RuleConfig{}).IsEmpty() != true {
		t.Error("empty rules should report empty")
	}
	p := &ProductProfile{Rules: &RuleConfig{}}
	if p.HasRules() {
		t.Error("empty rules object counts as absent")
	}
}

//Personal.AI order the ending
