// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ontology turns one or more extraction documents into an ontology
// model and serializes it as OWL RDF/XML or GraphML.
package ontology

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/billgraph/internal/canonical"
	"github.com/pdiddy/billgraph/internal/extract"
	"github.com/pdiddy/billgraph/internal/patterns"
	"github.com/pdiddy/billgraph/pkg/types"
)

// Names shared by every ontology.
const (
	ClassEntity     = "Entity"
	ClassBill       = "Bill"
	PropMentionedIn = "mentionedIn"
)

// classNames maps entity types to ontology class names. Types not listed
// use their title-cased form.
var classNames = map[string]string{
	"PROGRAM":      "Program",
	"ORGANIZATION": "Organization",
	"DEPARTMENT":   "Department",
	"AGENCY":       "Agency",
	"PERSON":       "Person",
	"LOCATION":     "Location",
	"DATE":         "Date",
	"MONEY":        "MonetaryAmount",
	"PERCENT":      "Percentage",
	"POLICY":       "Policy",
	"REQUIREMENT":  "Requirement",
	"GOAL":         "Goal",
}

var (
	nonWord    = regexp.MustCompile(`[^\w\s]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Class is an OWL class derived from an entity type.
type Class struct {
	Name    string
	Label   string
	Comment string
	Parent  string
}

// Property is an OWL object property derived from a relation predicate.
type Property struct {
	Name    string
	Label   string
	Comment string
}

// BillNode is the individual standing for one extraction document.
type BillNode struct {
	Name         string
	BillID       string
	MeasureTitle string
}

// Individual is a named individual derived from entities or relation
// endpoints sharing one identifier.
type Individual struct {
	Name       string
	Class      string
	Label      string
	Confidence float64
	Bills      []string
}

// Assertion is an object property assertion derived from a relation.
type Assertion struct {
	Subject    string
	Property   string
	Object     string
	Confidence float64
	Bill       string
}

// Ontology is the serializable model built from extraction documents.
type Ontology struct {
	BaseIRI     string
	Classes     []Class
	Properties  []Property
	Bills       []BillNode
	Individuals []Individual
	Assertions  []Assertion
}

// Options controls Build.
type Options struct {
	// BaseIRI is the ontology IRI.
	BaseIRI string

	// MinConfidence drops entities and relations below this confidence.
	MinConfidence float64

	// Table maps predicates to property names. Nil derives every property
	// name from its predicate.
	Table *patterns.Table
}

// CleanIdentifier turns free text into an IRI fragment: punctuation is
// dropped, whitespace runs become underscores, and names that do not start
// with a letter get an "entity_" prefix.
func CleanIdentifier(s string) string {
	s = nonWord.ReplaceAllString(strings.TrimSpace(s), "")
	s = whitespace.ReplaceAllString(strings.TrimSpace(s), "_")
	if s == "" {
		return "entity"
	}
	if r := []rune(s)[0]; !unicode.IsLetter(r) {
		s = "entity_" + s
	}
	return s
}

// ClassName returns the class for an entity type.
func ClassName(entityType string) string {
	if c, ok := classNames[entityType]; ok {
		return c
	}
	var b strings.Builder
	for _, part := range strings.FieldsFunc(entityType, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	}) {
		b.WriteString(titleWord(part))
	}
	if b.Len() == 0 {
		return ClassEntity
	}
	return CleanIdentifier(b.String())
}

func titleWord(w string) string {
	rs := []rune(strings.ToLower(w))
	if len(rs) == 0 {
		return ""
	}
	rs[0] = unicode.ToUpper(rs[0])
	return string(rs)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

// builder accumulates the model while documents are added.
type builder struct {
	opts        Options
	canon       *canonical.Canonicalizer
	classes     map[string]Class
	properties  map[string]Property
	bills       []BillNode
	individuals map[string]*Individual
	order       []string
	assertions  map[[3]string]int
	out         []Assertion
}

// Build combines docs into one ontology. Entities with the same
// identifier across documents become one individual mentioned in every
// bill that names it.
func Build(docs []*types.ExtractionResult, opts Options) (*Ontology, error) {
	if opts.BaseIRI == "" {
		return nil, fmt.Errorf("ontology base IRI is required")
	}
	var canonOpts []canonical.Option
	if opts.Table != nil {
		canonOpts = append(canonOpts, canonical.WithPredicates(opts.Table.Property))
	}
	b := &builder{
		opts:  opts,
		canon: canonical.New(nil, canonOpts...),
		classes: map[string]Class{
			ClassEntity: {Name: ClassEntity, Label: ClassEntity, Comment: "Base class for all extracted entities"},
			ClassBill:   {Name: ClassBill, Label: ClassBill, Comment: "Legislative bills"},
		},
		properties:  map[string]Property{},
		individuals: map[string]*Individual{},
		assertions:  map[[3]string]int{},
	}
	seenBills := map[string]bool{}
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if seenBills[doc.BillID] {
			return nil, fmt.Errorf("bill %s appears in more than one document", doc.BillID)
		}
		seenBills[doc.BillID] = true
		b.add(doc)
	}
	return b.ontology(), nil
}

func (b *builder) add(doc *types.ExtractionResult) {
	bill := BillNode{
		Name:         "bill_" + CleanIdentifier(doc.BillID),
		BillID:       doc.BillID,
		MeasureTitle: doc.Metadata.MeasureTitle,
	}
	b.bills = append(b.bills, bill)

	for _, e := range doc.Entities {
		if e.Confidence < b.opts.MinConfidence {
			continue
		}
		class := ClassName(e.Type)
		if _, ok := b.classes[class]; !ok {
			b.classes[class] = Class{
				Name:    class,
				Label:   class,
				Comment: fmt.Sprintf("Class for %s entities", e.Type),
				Parent:  ClassEntity,
			}
		}
		b.individual(e.Text, class, e.Confidence, bill.Name)
	}

	for _, r := range doc.Relations {
		if r.Confidence < b.opts.MinConfidence {
			continue
		}
		prop := b.property(r.Predicate)
		subj := b.individual(r.Subject, ClassEntity, 0, bill.Name)
		obj := b.individual(r.Object, ClassEntity, 0, bill.Name)

		key := [3]string{subj, prop, obj}
		if i, ok := b.assertions[key]; ok {
			if r.Confidence > b.out[i].Confidence {
				b.out[i].Confidence = r.Confidence
			}
			continue
		}
		b.assertions[key] = len(b.out)
		b.out = append(b.out, Assertion{
			Subject:    subj,
			Property:   prop,
			Object:     obj,
			Confidence: r.Confidence,
			Bill:       bill.Name,
		})
	}
}

// individual records an occurrence of text and returns its name. A typed
// occurrence replaces the generic Entity class of an earlier relation
// endpoint.
func (b *builder) individual(text, class string, confidence float64, bill string) string {
	name := CleanIdentifier(text)
	ind, ok := b.individuals[name]
	if !ok {
		ind = &Individual{Name: name, Class: class, Label: strings.TrimSpace(text)}
		b.individuals[name] = ind
		b.order = append(b.order, name)
	}
	if ind.Class == ClassEntity && class != ClassEntity {
		ind.Class = class
		ind.Label = strings.TrimSpace(text)
	}
	if confidence > ind.Confidence {
		ind.Confidence = confidence
	}
	if n := len(ind.Bills); n == 0 || ind.Bills[n-1] != bill {
		ind.Bills = append(ind.Bills, bill)
	}
	return name
}

func (b *builder) property(predicate string) string {
	name := CleanIdentifier(b.canon.Predicate(predicate))
	if _, ok := b.properties[name]; !ok {
		b.properties[name] = Property{
			Name:    name,
			Label:   titleCase(predicate),
			Comment: fmt.Sprintf("Derived from predicate '%s'", strings.TrimSpace(predicate)),
		}
	}
	return name
}

func (b *builder) ontology() *Ontology {
	o := &Ontology{
		BaseIRI:    strings.TrimRight(b.opts.BaseIRI, "/#"),
		Bills:      b.bills,
		Assertions: b.out,
	}
	for _, c := range b.classes {
		o.Classes = append(o.Classes, c)
	}
	sort.Slice(o.Classes, func(i, j int) bool { return o.Classes[i].Name < o.Classes[j].Name })

	for _, p := range b.properties {
		o.Properties = append(o.Properties, p)
	}
	sort.Slice(o.Properties, func(i, j int) bool { return o.Properties[i].Name < o.Properties[j].Name })

	for _, name := range b.order {
		o.Individuals = append(o.Individuals, *b.individuals[name])
	}
	return o
}

// LoadDocuments reads extraction documents from paths.
func LoadDocuments(paths []string) ([]*types.ExtractionResult, error) {
	docs := make([]*types.ExtractionResult, 0, len(paths))
	for _, p := range paths {
		doc, err := extract.ReadResult(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
