package catalog

import (
	"regexp"

	"github.com/nao1215/stacksniffer/internal/model"
)

// PatternKind is the comparison used by a rule.
type PatternKind string

// Pattern kinds.
const (
	// KindExact is case-insensitive full-string equality.
	KindExact PatternKind = "exact"
	// KindSubstring is case-insensitive containment.
	KindSubstring PatternKind = "substring"
	// KindRegex is a regular expression compiled at load time.
	KindRegex PatternKind = "regex"
)

// Field selects which part of an evidence item a rule tests.
type Field string

// Match fields.
const (
	// FieldKey tests the evidence key (header name, cookie name, path).
	FieldKey Field = "key"
	// FieldValue tests the evidence value (header value, meta content, src).
	FieldValue Field = "value"
)

// Rule is a compiled signature rule. Rules are created by the loader and are
// never modified afterwards.
type Rule struct {
	// Technology is the technology the rule identifies.
	Technology string `json:"technology"`

	// Category is the technology category (e.g. "cms", "cdn").
	Category string `json:"category,omitempty"`

	// Source is the evidence kind the rule applies to.
	Source model.SourceKind `json:"source"`

	// Field is the evidence field tested against Pattern.
	Field Field `json:"field"`

	// Key restricts the rule to evidence with this key. Empty means any key.
	Key string `json:"key,omitempty"`

	// Pattern is the pattern as written in the catalog.
	Pattern string `json:"pattern"`

	// Kind is how Pattern is compared.
	Kind PatternKind `json:"kind"`

	// foldedKey and foldedPattern are case-folded copies used for matching.
	foldedKey     string
	foldedPattern string

	// re is the compiled expression for KindRegex rules.
	re *regexp.Regexp
}

// FoldedKey returns the case-folded key filter.
func (r *Rule) FoldedKey() string {
	return r.foldedKey
}

// FoldedPattern returns the case-folded pattern used by exact and substring rules.
func (r *Rule) FoldedPattern() string {
	return r.foldedPattern
}

// Regexp returns the compiled expression of a regex rule, or nil.
func (r *Rule) Regexp() *regexp.Regexp {
	return r.re
}

// String returns a short description of the rule for reports and logs.
func (r *Rule) String() string {
	s := string(r.Source)
	if r.Key != "" {
		s += "[" + r.Key + "]"
	}
	return s + "." + string(r.Field) + " " + string(r.Kind) + " " + r.Pattern
}
