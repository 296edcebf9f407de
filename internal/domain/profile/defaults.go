package profile

// defaultLogo is the threshold applied to brands without an override.
var defaultLogo = LogoThreshold{
	MinConfidence:            0.8,
	FloorConfidence:          0.6,
	LowConfidencePenalty:     20,
	VeryLowConfidencePenalty: 40,
	MissingPenalty:           35,
}

// DefaultConfig returns the built-in detection tables. Baselines reflect how
// often each category is counterfeited.
func DefaultConfig() Config {
	return Config{
		DefaultBaseline: 15,
		Baselines: map[string]int{
			"Smartphones":     25,
			"Electronics":     20,
			"Luxury Watches":  35,
			"Watches":         30,
			"Handbags":        30,
			"Fashion":         20,
			"Footwear":        25,
			"Cosmetics":       25,
			"Pharmaceuticals": 35,
			"Toys":            15,
			"Books":           10,
		},
		DefaultLogoThreshold: defaultLogo,
		LogoThresholds: map[string]LogoThreshold{
			"Rolex": {
				MinConfidence: 0.85, FloorConfidence: 0.7,
				LowConfidencePenalty: 25, VeryLowConfidencePenalty: 45, MissingPenalty: 40,
			},
			"Louis Vuitton": {
				MinConfidence: 0.85, FloorConfidence: 0.65,
				LowConfidencePenalty: 25, VeryLowConfidencePenalty: 45, MissingPenalty: 40,
			},
			"Nike": {
				MinConfidence: 0.75, FloorConfidence: 0.55,
				LowConfidencePenalty: 15, VeryLowConfidencePenalty: 35, MissingPenalty: 30,
			},
		},
		Challenges: []ChallengeRule{
			{
				Name:       "apple-dark-device",
				Brand:      "Apple",
				Conditions: []Condition{ConditionDarkDevice, ConditionNoLogos},
				Adjustment: -10,
				Reason:     "Apple logos are hard to detect on dark finishes",
			},
			{
				Name:       "apple-dark-device-low-logo",
				Brand:      "Apple",
				Conditions: []Condition{ConditionDarkDevice, ConditionLowLogo},
				Adjustment: -5,
				Reason:     "low Apple logo confidence is common on dark finishes",
			},
			{
				Name:       "books-without-logo",
				Category:   "Books",
				Conditions: []Condition{ConditionNoLogos},
				Adjustment: -15,
				Reason:     "books rarely carry a detectable logo",
			},
		},
	}
}

// Default returns a Profile built from DefaultConfig.
func Default() *Profile { return MustNew(DefaultConfig()) }

//Personal.AI order the ending
