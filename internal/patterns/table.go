// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package patterns holds the curated pattern tables used by the extraction
// stage: typed entity patterns, relation templates, alias groups, and the
// predicate map used by ontology export. A Table is compiled once and is
// read-only afterwards, so it can be shared freely.
package patterns

import (
	"fmt"
	"os"
	"regexp"

	"go.yaml.in/yaml/v3"
)

// DefaultConfidence applies to patterns that do not set one.
const DefaultConfidence = 0.95

// SecondaryPredicate is the predicate of the extra triple emitted for
// templates that name a second object.
const SecondaryPredicate = "moved to"

// EntityPattern maps one case-insensitive regular expression to an entity type.
type EntityPattern struct {
	Type       string  `json:"type" yaml:"type"`
	Pattern    string  `json:"pattern" yaml:"pattern"`
	Confidence float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`

	// Family groups related patterns (e.g. "legislative", "heuristic").
	Family string `json:"family,omitempty" yaml:"family,omitempty"`
}

// RelationTemplate emits a fixed triple whenever its pattern matches.
// When Object2 is set a second triple (Subject, SecondaryPredicate, Object2)
// is emitted as well.
type RelationTemplate struct {
	Family       string  `json:"family" yaml:"family"`
	Pattern      string  `json:"pattern" yaml:"pattern"`
	RelationType string  `json:"relation_type" yaml:"relation_type"`
	Subject      string  `json:"subject" yaml:"subject"`
	Predicate    string  `json:"predicate" yaml:"predicate"`
	Object       string  `json:"object" yaml:"object"`
	Object2      string  `json:"object2,omitempty" yaml:"object2,omitempty"`
	Confidence   float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// AliasGroup lists the surface forms that canonicalize to Canonical.
type AliasGroup struct {
	Canonical string   `json:"canonical" yaml:"canonical"`
	Aliases   []string `json:"aliases" yaml:"aliases"`
}

// Spec is the uncompiled, serializable form of a Table.
type Spec struct {
	Name   string `json:"name" yaml:"name"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Extends names a built-in profile whose content is prepended.
	Extends string `json:"extends,omitempty" yaml:"extends,omitempty"`

	Entities   []EntityPattern    `json:"entities" yaml:"entities"`
	Relations  []RelationTemplate `json:"relations" yaml:"relations"`
	Aliases    []AliasGroup       `json:"aliases" yaml:"aliases"`
	Predicates map[string]string  `json:"predicates,omitempty" yaml:"predicates,omitempty"`
}

// EntityRule is a compiled entity pattern.
type EntityRule struct {
	EntityPattern
	Regexp *regexp.Regexp
}

// RelationRule is a compiled relation template.
type RelationRule struct {
	RelationTemplate
	Regexp *regexp.Regexp
}

// Table is a compiled pattern table.
type Table struct {
	name       string
	source     string
	entities   []EntityRule
	relations  []RelationRule
	aliases    *Aliases
	predicates map[string]string
}

// Compile validates and compiles every pattern in s. Patterns are matched
// case-insensitively. A malformed pattern fails the whole table.
func Compile(s Spec) (*Table, error) {
	if s.Extends != "" {
		base, ok := builtins[s.Extends]
		if !ok {
			return nil, fmt.Errorf("table %q extends unknown profile %q", s.Name, s.Extends)
		}
		s = merge(base(), s)
	}

	t := &Table{
		name:       s.Name,
		source:     s.Source,
		predicates: make(map[string]string, len(s.Predicates)),
	}
	if t.source == "" {
		t.source = "patterns:" + s.Name
	}

	for i, p := range s.Entities {
		if p.Type == "" {
			return nil, fmt.Errorf("entity pattern %d (%q): missing type", i, p.Pattern)
		}
		re, err := compilePattern(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("entity pattern %d (%s %q): %w", i, p.Type, p.Pattern, err)
		}
		if p.Confidence == 0 {
			p.Confidence = DefaultConfidence
		}
		t.entities = append(t.entities, EntityRule{EntityPattern: p, Regexp: re})
	}

	for i, r := range s.Relations {
		if r.Subject == "" || r.Predicate == "" || r.Object == "" {
			return nil, fmt.Errorf("relation template %d (%q): subject, predicate and object are required", i, r.Pattern)
		}
		re, err := compilePattern(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("relation template %d (%s %q): %w", i, r.RelationType, r.Pattern, err)
		}
		if r.Confidence == 0 {
			r.Confidence = DefaultConfidence
		}
		t.relations = append(t.relations, RelationRule{RelationTemplate: r, Regexp: re})
	}

	aliases, err := NewAliases(s.Aliases)
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", s.Name, err)
	}
	t.aliases = aliases

	for k, v := range s.Predicates {
		t.predicates[Fold(k)] = v
	}
	return t, nil
}

func compilePattern(p string) (*regexp.Regexp, error) {
	if p == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	return regexp.Compile("(?i)" + p)
}

// Load reads a YAML table file and compiles it.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pattern table: %w", err)
	}
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing pattern table %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return Compile(s)
}

// Name returns the table's profile name.
func (t *Table) Name() string { return t.name }

// Source returns the source tag stamped on every record the table produces.
func (t *Table) Source() string { return t.source }

// Entities returns the compiled entity rules in declaration order.
func (t *Table) Entities() []EntityRule {
	out := make([]EntityRule, len(t.entities))
	copy(out, t.entities)
	return out
}

// Relations returns the compiled relation rules in declaration order.
func (t *Table) Relations() []RelationRule {
	out := make([]RelationRule, len(t.relations))
	copy(out, t.relations)
	return out
}

// Aliases returns the table's closed alias map.
func (t *Table) Aliases() *Aliases { return t.aliases }

// Property maps a relation predicate to an ontology property name.
// ok is false when the predicate is not in the table's predicate map.
func (t *Table) Property(predicate string) (string, bool) {
	v, ok := t.predicates[Fold(predicate)]
	return v, ok
}

// merge appends ext onto base. Later alias groups and predicate entries override earlier ones.
func merge(base, ext Spec) Spec {
	out := Spec{
		Name:       ext.Name,
		Source:     ext.Source,
		Predicates: make(map[string]string, len(base.Predicates)+len(ext.Predicates)),
	}
	out.Entities = append(append(out.Entities, base.Entities...), ext.Entities...)
	out.Relations = append(append(out.Relations, base.Relations...), ext.Relations...)
	out.Aliases = append(append(out.Aliases, base.Aliases...), ext.Aliases...)
	for k, v := range base.Predicates {
		out.Predicates[k] = v
	}
	for k, v := range ext.Predicates {
		out.Predicates[k] = v
	}
	return out
}
