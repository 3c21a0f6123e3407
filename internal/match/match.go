// Package match tests evidence items against the signature catalog.
//
// Matching is exhaustive: every item is tested against every rule of its
// source kind and one item may satisfy rules of several technologies. The
// package holds no technology-specific logic; all knowledge lives in the
// catalog.
package match

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/nao1215/stacksniffer/internal/catalog"
	"github.com/nao1215/stacksniffer/internal/model"
)

// Result records that one evidence item satisfied one rule.
type Result struct {
	// Technology is the technology named by the rule.
	Technology string

	// Category is the technology category named by the rule.
	Category string

	// Evidence is the matching evidence item.
	Evidence model.EvidenceItem

	// Rule is the rule that matched.
	Rule *catalog.Rule
}

// Match returns a result for every (item, rule) pair that matches, ordered
// by item and then by catalog order. A nil catalog matches nothing.
func Match(items []model.EvidenceItem, cat *catalog.Catalog) []Result {
	if cat == nil || len(items) == 0 {
		return nil
	}

	m := newMatcher(cat)
	var results []Result
	for _, item := range items {
		results = m.appendMatches(results, item)
	}
	return results
}

// matcher carries per-call state. A cases.Caser is stateful, so each call
// to Match gets its own.
type matcher struct {
	rules  map[model.SourceKind][]*catalog.Rule
	folder cases.Caser
}

func newMatcher(cat *catalog.Catalog) *matcher {
	rules := make(map[model.SourceKind][]*catalog.Rule, len(model.SourceKinds))
	for _, kind := range model.SourceKinds {
		rules[kind] = cat.RulesFor(kind)
	}
	return &matcher{rules: rules, folder: cases.Fold()}
}

func (m *matcher) appendMatches(results []Result, item model.EvidenceItem) []Result {
	rules := m.rules[item.Source]
	if len(rules) == 0 {
		return results
	}

	key := m.folder.String(item.Key)
	value := m.folder.String(item.Value)

	for _, r := range rules {
		if r.Key != "" && key != r.FoldedKey() {
			continue
		}

		raw, folded := item.Value, value
		if r.Field == catalog.FieldKey {
			raw, folded = item.Key, key
		}
		if !test(r, raw, folded) {
			continue
		}

		results = append(results, Result{
			Technology: r.Technology,
			Category:   r.Category,
			Evidence:   item,
			Rule:       r,
		})
	}
	return results
}

// test applies the rule pattern to the subject. Regex rules see the raw
// subject since they are compiled case-insensitive; the other kinds compare
// case-folded strings.
func test(r *catalog.Rule, raw, folded string) bool {
	switch r.Kind {
	case catalog.KindExact:
		return folded == r.FoldedPattern()
	case catalog.KindSubstring:
		return strings.Contains(folded, r.FoldedPattern())
	case catalog.KindRegex:
		re := r.Regexp()
		return re != nil && re.MatchString(raw)
	default:
		return false
	}
}
