package catalog

import (
	"slices"

	"github.com/nao1215/stacksniffer/internal/model"
)

// Technology is a catalog entry: a named technology and its rules.
type Technology struct {
	// Name is the technology name used in reports.
	Name string `json:"name"`
	// Category groups related technologies (web-server, cms, cdn, ...).
	Category string `json:"category,omitempty"`
	// Rules are the rules identifying this technology, in catalog order.
	Rules []*Rule `json:"rules"`
}

// Catalog is a sealed, read-only set of signature rules indexed by evidence
// source. A Catalog is safe for concurrent use by any number of analyses.
type Catalog struct {
	technologies []*Technology
	bySource     map[model.SourceKind][]*Rule
	probePaths   []string
}

// RulesFor returns the rules that apply to evidence of the given source kind,
// in catalog order. The returned rules must not be modified.
func (c *Catalog) RulesFor(source model.SourceKind) []*Rule {
	if c == nil {
		return nil
	}
	return slices.Clone(c.bySource[source])
}

// Technologies returns the catalog entries in catalog order.
func (c *Catalog) Technologies() []*Technology {
	if c == nil {
		return nil
	}
	return slices.Clone(c.technologies)
}

// Technology returns the entry with the given name.
func (c *Catalog) Technology(name string) (*Technology, bool) {
	if c == nil {
		return nil, false
	}
	for _, t := range c.technologies {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// RuleCount returns the total number of rules in the catalog.
func (c *Catalog) RuleCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, rules := range c.bySource {
		n += len(rules)
	}
	return n
}

// ProbePaths returns the auxiliary paths worth requesting for this catalog:
// the path of every well_known_file rule, deduplicated, in catalog order.
func (c *Catalog) ProbePaths() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.probePaths)
}

// seal builds the lookup indexes. It is called once by the loader.
func (c *Catalog) seal() {
	c.bySource = make(map[model.SourceKind][]*Rule, len(model.SourceKinds))
	seen := make(map[string]struct{})
	for _, t := range c.technologies {
		for _, r := range t.Rules {
			c.bySource[r.Source] = append(c.bySource[r.Source], r)

			if r.Source != model.SourceWellKnownFile {
				continue
			}
			path := probePath(r)
			if path == "" {
				continue
			}
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			c.probePaths = append(c.probePaths, path)
		}
	}
}

// probePath returns the path a well_known_file rule needs requested, or ""
// when the rule does not name a single path.
func probePath(r *Rule) string {
	if r.Key != "" {
		return r.Key
	}
	if r.Field == FieldKey && r.Kind == KindExact {
		return r.Pattern
	}
	return ""
}
