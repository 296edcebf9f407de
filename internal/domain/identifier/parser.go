// Package identifier extracts structured product identifiers (ISBN, IMEI,
// brand, publisher, model and batch numbers) from free-form OCR text.
package identifier

import (
	"regexp"
	"strings"
)

// Kind names one identifier family.
type Kind string

const (
	KindISBN      Kind = "isbn"
	KindIMEI      Kind = "imei"
	KindBrand     Kind = "brand"
	KindPublisher Kind = "publisher"
	KindModel     Kind = "model"
	KindBatch     Kind = "batch"
)

// Kinds lists every kind in extraction order.
func Kinds() []Kind {
	return []Kind{KindISBN, KindIMEI, KindBrand, KindPublisher, KindModel, KindBatch}
}

// ParseKind normalises a rule-supplied identifier name.
func ParseKind(name string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Kinds() {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Identifiers is the result of a parse. Kinds that were not found are
// absent, never empty strings.
type Identifiers map[Kind]string

// Get looks up an identifier by its rule name, case-insensitively.
func (ids Identifiers) Get(name string) (string, bool) {
	k, ok := ParseKind(name)
	if !ok {
		return "", false
	}
	v, ok := ids[k]
	return v, ok
}

// Names returns the found kinds as strings, in extraction order.
func (ids Identifiers) Names() []string {
	out := make([]string, 0, len(ids))
	for _, k := range Kinds() {
		if _, ok := ids[k]; ok {
			out = append(out, string(k))
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Patterns
// ─────────────────────────────────────────────────────────────────────────────

const nextField = `(?:brand|manufacturer|publisher|model|batch|lot|isbn|imei|sku|made)\b`

// Each pattern's first capture group is the value.
var patterns = map[Kind]*regexp.Regexp{
	// ISBN-13 (978/979 prefix, optional separators) before ISBN-10.
	KindISBN: regexp.MustCompile(`\b(97[89](?:[- ]?\d){9}[- ]?\d|\d(?:[- ]?\d){8}[- ]?[\dXx])\b`),
	KindIMEI: regexp.MustCompile(`\b(\d{15})\b`),
	// Free-text values stop at the end of the line, a list separator or the
	// next labelled field.
	KindBrand: regexp.MustCompile(
		`(?im)\b(?:brand|manufacturer)\s*[:\-]\s*([^\n\r,;|:]{1,64}?)\s*(?:$|[,;|]|\s` + nextField + `)`),
	KindPublisher: regexp.MustCompile(
		`(?im)\bpublisher\s*[:\-]\s*([^\n\r,;|:]{1,64}?)\s*(?:$|[,;|]|\s` + nextField + `)`),
	KindModel: regexp.MustCompile(
		`(?i)\bmodel\b(?:\s*(?:no\.?|number|#))?\s*[:#\-]?\s*([A-Za-z0-9\-]*\d[A-Za-z0-9\-]*)`),
	KindBatch: regexp.MustCompile(
		`(?i)\b(?:batch|lot)\b(?:\s*(?:no\.?|number|#))?\s*[:#\-]?\s*([A-Za-z0-9\-]*\d[A-Za-z0-9\-]*)`),
}

// Parse applies every pattern independently and keeps the first match per
// kind. It never fails; empty text yields an empty map.
func Parse(text string) Identifiers {
	out := Identifiers{}
	if strings.TrimSpace(text) == "" {
		return out
	}
	for _, k := range Kinds() {
		m := patterns[k].FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		v := clean(m[1])
		if v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// ParseKindOnly runs a single pattern. It is used when validating an
// identifier value in isolation.
func ParseKindOnly(k Kind, text string) (string, bool) {
	re, ok := patterns[k]
	if !ok {
		return "", false
	}
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	v := clean(m[1])
	return v, v != ""
}

func clean(s string) string {
	return strings.Trim(strings.TrimSpace(s), ".-:# ")
}

//Personal.AI order the ending
