// Package category decides whether vision labels are consistent with the
// category a user declared for a product.
package category

import (
	"fmt"
	"strings"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
)

// Other is the catch-all category that always matches.
const Other = "Other"

// matchThreshold is the mean label score a match must exceed.
const matchThreshold = 0.5

// Dictionary maps a category name to the keywords its labels are expected
// to resemble.
type Dictionary map[string][]string

// MatchResult is the outcome of one category check.
type MatchResult struct {
	IsMatch       bool     `json:"is_match"`
	Confidence    float64  `json:"confidence"`
	MatchedLabels []string `json:"matched_labels"`
	Reason        string   `json:"reason"`
}

// Matcher holds an immutable, case-folded copy of a dictionary.
type Matcher struct {
	keywords map[string][]string
}

// NewMatcher copies dict so later changes to it have no effect.
func NewMatcher(dict Dictionary) *Matcher {
	m := &Matcher{keywords: make(map[string][]string, len(dict))}
	for cat, kws := range dict {
		folded := make([]string, 0, len(kws))
		for _, kw := range kws {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				folded = append(folded, kw)
			}
		}
		m.keywords[strings.ToLower(strings.TrimSpace(cat))] = folded
	}
	return m
}

// Match checks labels against the declared category. Unknown categories and
// Other are accepted with full confidence; a known category with no keywords
// is accepted at 0.5.
func (m *Matcher) Match(categoryName string, labels []scan.Label) MatchResult {
	key := strings.ToLower(strings.TrimSpace(categoryName))
	kws, known := m.keywords[key]
	if key == "" || key == strings.ToLower(Other) || !known {
		return MatchResult{
			IsMatch:       true,
			Confidence:    1.0,
			MatchedLabels: []string{},
			Reason:        fmt.Sprintf("category %q has no keyword rules; accepted by default", categoryName),
		}
	}
	if len(kws) == 0 {
		return MatchResult{
			IsMatch:       true,
			Confidence:    0.5,
			MatchedLabels: []string{},
			Reason:        fmt.Sprintf("category %q defines no keywords; allowed by default", categoryName),
		}
	}

	matched := make([]string, 0, len(labels))
	var sum float64
	for _, l := range labels {
		desc := strings.ToLower(strings.TrimSpace(l.Description))
		if desc == "" {
			continue
		}
		for _, kw := range kws {
			if strings.Contains(desc, kw) || strings.Contains(kw, desc) {
				matched = append(matched, l.Description)
				sum += l.Score
				break
			}
		}
	}
	if len(matched) == 0 {
		return MatchResult{
			MatchedLabels: matched,
			Reason:        fmt.Sprintf("no detected label resembles category %q", categoryName),
		}
	}

	mean := sum / float64(len(matched))
	res := MatchResult{Confidence: mean, MatchedLabels: matched}
	if mean > matchThreshold {
		res.IsMatch = true
		res.Reason = fmt.Sprintf("%d label(s) match category %q", len(matched), categoryName)
	} else {
		res.Reason = fmt.Sprintf("matching labels for %q are low confidence (%.2f)", categoryName, mean)
	}
	return res
}

// Categories lists the known category names in lower case.
func (m *Matcher) Categories() []string {
	out := make([]string, 0, len(m.keywords))
	for k := range m.keywords {
		out = append(out, k)
	}
	return out
}

// DefaultDictionary is the built-in keyword table. Callers get a fresh copy.
func DefaultDictionary() Dictionary {
	return Dictionary{
		"Smartphones":     {"phone", "mobile phone", "smartphone", "telephone", "gadget", "communication device", "portable communications device"},
		"Electronics":     {"electronics", "electronic device", "gadget", "computer", "laptop", "headphones", "speaker", "charger", "cable", "camera"},
		"Watches":         {"watch", "wrist", "clock", "analog watch", "strap", "chronograph"},
		"Luxury Watches":  {"watch", "wrist", "clock", "analog watch", "strap", "chronograph", "jewellery"},
		"Handbags":        {"bag", "handbag", "purse", "leather", "tote", "wallet", "luggage"},
		"Fashion":         {"clothing", "apparel", "shirt", "dress", "jacket", "textile", "sleeve", "fashion"},
		"Footwear":        {"shoe", "footwear", "sneaker", "boot", "sandal", "sole"},
		"Cosmetics":       {"cosmetics", "perfume", "bottle", "lipstick", "cream", "skin care", "beauty"},
		"Pharmaceuticals": {"medicine", "pill", "tablet", "capsule", "pharmaceutical", "blister", "bottle"},
		"Books":           {"book", "publication", "text", "font", "paper", "novel", "cover"},
		"Toys":            {"toy", "doll", "figure", "game", "plastic", "lego"},
		"Accessories":     {},
	}
}

//Personal.AI order the ending
