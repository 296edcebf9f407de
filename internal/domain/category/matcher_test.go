package category

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
)

func labels(pairs ...interface{}) []scan.Label {
	out := make([]scan.Label, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, scan.Label{Description: pairs[i].(string), Score: pairs[i+1].(float64)})
	}
	return out
}

func TestMatch_OtherAlwaysMatches(t *testing.T) {
	m := NewMatcher(DefaultDictionary())
	for _, ls := range [][]scan.Label{nil, {}, labels("banana", 0.99)} {
		r := m.Match("Other", ls)
		assert.True(t, r.IsMatch)
		assert.Equal(t, 1.0, r.Confidence)
	}
}

func TestMatch_UnknownCategoryLenient(t *testing.T) {
	m := NewMatcher(DefaultDictionary())
	r := m.Match("Garden Furniture", labels("chair", 0.2))
	assert.True(t, r.IsMatch)
	assert.Equal(t, 1.0, r.Confidence)
}

func TestMatch_EmptyKeywordListHalfConfidence(t *testing.T) {
	m := NewMatcher(DefaultDictionary())
	r := m.Match("accessories", labels("anything", 0.9))
	assert.True(t, r.IsMatch)
	assert.Equal(t, 0.5, r.Confidence)
}

func TestMatch_SubstringEitherDirection(t *testing.T) {
	m := NewMatcher(Dictionary{"Smartphones": {"mobile phone", "smartphone"}})

	r := m.Match("smartphones", labels("Mobile Phone Case", 0.9, "Phone", 0.8, "Table", 0.95))
	assert.True(t, r.IsMatch)
	assert.Equal(t, []string{"Mobile Phone Case", "Phone"}, r.MatchedLabels)
	assert.InDelta(t, 0.85, r.Confidence, 1e-9)
}

func TestMatch_LowConfidenceRejected(t *testing.T) {
	m := NewMatcher(Dictionary{"Watches": {"watch"}})
	r := m.Match("Watches", labels("watch", 0.5))
	assert.False(t, r.IsMatch, "mean must exceed 0.5")
	assert.Equal(t, 0.5, r.Confidence)
}

func TestMatch_NoLabelsMatch(t *testing.T) {
	m := NewMatcher(Dictionary{"Books": {"book"}})
	r := m.Match("Books", labels("shoe", 0.99))
	assert.False(t, r.IsMatch)
	assert.Zero(t, r.Confidence)
	assert.Empty(t, r.MatchedLabels)
}

func TestNewMatcher_CopiesDictionary(t *testing.T) {
	dict := Dictionary{"Books": {"book"}}
	m := NewMatcher(dict)
	dict["Books"][0] = "shoe"
	assert.True(t, m.Match("Books", labels("book", 0.9)).IsMatch)
}

//Personal.AI order the ending
