package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/nao1215/stacksniffer/internal/model"
)

//go:embed signatures.yaml
var builtinSignatures []byte

// BuiltinName is the source name used for the embedded catalog in errors.
const BuiltinName = "builtin"

// fileSchema is the on-disk catalog layout.
type fileSchema struct {
	Technologies []technologySchema `yaml:"technologies"`
}

type technologySchema struct {
	Name     string       `yaml:"name"`
	Category string       `yaml:"category"`
	Rules    []ruleSchema `yaml:"rules"`
}

type ruleSchema struct {
	Source  string `yaml:"source"`
	Key     string `yaml:"key"`
	Match   string `yaml:"match"`
	Kind    string `yaml:"kind"`
	Pattern string `yaml:"pattern"`
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return New()
}

// New loads the built-in catalog and merges the given catalog files into it.
// Any malformed rule in any file fails the whole load.
func New(files ...string) (*Catalog, error) {
	b := newBuilder()
	if err := b.add(BuiltinName, builtinSignatures); err != nil {
		return nil, err
	}
	for _, file := range files {
		data, err := os.ReadFile(file) //nolint:gosec // path comes from the command line or config file
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidCatalog, file, err)
		}
		if err := b.add(file, data); err != nil {
			return nil, err
		}
	}
	return b.build(), nil
}

// FromYAML builds a catalog from YAML documents only, without the built-in
// signatures.
func FromYAML(docs ...[]byte) (*Catalog, error) {
	b := newBuilder()
	for i, doc := range docs {
		if err := b.add(fmt.Sprintf("document %d", i+1), doc); err != nil {
			return nil, err
		}
	}
	return b.build(), nil
}

// Validate checks a catalog file without merging it into anything.
func Validate(file string) error {
	data, err := os.ReadFile(file) //nolint:gosec // path comes from the command line or config file
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidCatalog, file, err)
	}
	return newBuilder().add(file, data)
}

// builder accumulates technologies from several sources before sealing.
type builder struct {
	catalog *Catalog
	index   map[string]*Technology
	folder  cases.Caser
}

func newBuilder() *builder {
	return &builder{
		catalog: &Catalog{},
		index:   make(map[string]*Technology),
		folder:  cases.Fold(),
	}
}

// add parses one YAML document and appends its technologies. Technologies
// already present (by name) receive the new rules.
func (b *builder) add(source string, data []byte) error {
	var f fileSchema
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: %w", ErrInvalidCatalog, source, err)
	}

	for ti, ts := range f.Technologies {
		name := strings.TrimSpace(ts.Name)
		if name == "" {
			return fmt.Errorf("%w: %s: technology #%d: %w", ErrInvalidCatalog, source, ti+1, ErrMissingTechnology)
		}

		rules := make([]*Rule, 0, len(ts.Rules))
		for ri, rs := range ts.Rules {
			r, err := b.compile(name, ts.Category, rs)
			if err != nil {
				return fmt.Errorf("%w: %s: technology %q rule #%d: %w", ErrInvalidCatalog, source, name, ri+1, err)
			}
			rules = append(rules, r)
		}

		tech, ok := b.index[name]
		if !ok {
			tech = &Technology{Name: name, Category: ts.Category}
			b.index[name] = tech
			b.catalog.technologies = append(b.catalog.technologies, tech)
		}
		if tech.Category == "" {
			tech.Category = ts.Category
		}
		tech.Rules = append(tech.Rules, rules...)
	}
	return nil
}

// compile validates a rule and prepares its matching form.
func (b *builder) compile(tech, category string, rs ruleSchema) (*Rule, error) {
	source := model.SourceKind(strings.TrimSpace(rs.Source))
	if !source.Valid() {
		return nil, fmt.Errorf("%w %q", ErrUnknownSource, rs.Source)
	}

	field := Field(strings.TrimSpace(rs.Match))
	switch field {
	case "":
		field = FieldValue
	case FieldKey, FieldValue:
	default:
		return nil, fmt.Errorf("%w, got %q", ErrUnknownField, rs.Match)
	}

	kind := PatternKind(strings.TrimSpace(rs.Kind))
	switch kind {
	case "":
		kind = KindSubstring
	case KindExact, KindSubstring, KindRegex:
	default:
		return nil, fmt.Errorf("%w, got %q", ErrUnknownPatternKind, rs.Kind)
	}

	if rs.Pattern == "" {
		return nil, ErrEmptyPattern
	}

	r := &Rule{
		Technology:    tech,
		Category:      category,
		Source:        source,
		Field:         field,
		Key:           strings.TrimSpace(rs.Key),
		Pattern:       rs.Pattern,
		Kind:          kind,
		foldedPattern: b.folder.String(rs.Pattern),
	}
	r.foldedKey = b.folder.String(r.Key)

	if kind == KindRegex {
		re, err := regexp.Compile("(?i)" + rs.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRegex, err)
		}
		r.re = re
	}

	if source == model.SourceWellKnownFile {
		if path := probePath(r); path != "" && !model.IsLocalPath(path) {
			return nil, fmt.Errorf("%w, got %q", ErrInvalidProbePath, path)
		}
	}
	return r, nil
}

func (b *builder) build() *Catalog {
	b.catalog.seal()
	return b.catalog
}
