// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotator

import "unicode/utf8"

// Document is the JSON annotation returned by the server for one request,
// or the merge of several chunk annotations.
type Document struct {
	Sentences []Sentence `json:"sentences"`

	// OpenIE holds document-level open relation triples. Servers usually
	// report them per sentence; Merge collects both.
	OpenIE []Triple `json:"openie,omitempty"`
}

// Sentence is one annotated sentence.
type Sentence struct {
	Index  int     `json:"index"`
	Tokens []Token `json:"tokens"`

	BasicDependencies            []Dependency `json:"basicDependencies,omitempty"`
	EnhancedPlusPlusDependencies []Dependency `json:"enhancedPlusPlusDependencies,omitempty"`
	Dependencies                 []Dependency `json:"dependencies,omitempty"`

	EntityMentions []EntityMention `json:"entitymentions,omitempty"`
	OpenIE         []Triple        `json:"openie,omitempty"`
}

// Edges returns the richest dependency graph present: enhanced++ first,
// then basic, then the generic "dependencies" key.
func (s Sentence) Edges() []Dependency {
	switch {
	case len(s.EnhancedPlusPlusDependencies) > 0:
		return s.EnhancedPlusPlusDependencies
	case len(s.BasicDependencies) > 0:
		return s.BasicDependencies
	default:
		return s.Dependencies
	}
}

// Token returns the token with the 1-based index i, or false when i is
// out of range (index 0 is the artificial ROOT).
func (s Sentence) Token(i int) (Token, bool) {
	if i < 1 || i > len(s.Tokens) {
		return Token{}, false
	}
	return s.Tokens[i-1], true
}

// Span returns the byte span covered by the sentence's tokens.
func (s Sentence) Span() (begin, end int) {
	if len(s.Tokens) == 0 {
		return 0, 0
	}
	return s.Tokens[0].CharacterOffsetBegin, s.Tokens[len(s.Tokens)-1].CharacterOffsetEnd
}

// Token is one annotated token. Offsets are byte offsets once the document
// has passed through Client.Annotate.
type Token struct {
	Index                int    `json:"index"`
	Word                 string `json:"word"`
	OriginalText         string `json:"originalText,omitempty"`
	Lemma                string `json:"lemma,omitempty"`
	POS                  string `json:"pos,omitempty"`
	NER                  string `json:"ner,omitempty"`
	CharacterOffsetBegin int    `json:"characterOffsetBegin"`
	CharacterOffsetEnd   int    `json:"characterOffsetEnd"`
}

// Dependency is one labelled edge of a dependency graph.
type Dependency struct {
	Dep            string `json:"dep"`
	Governor       int    `json:"governor"`
	GovernorGloss  string `json:"governorGloss"`
	Dependent      int    `json:"dependent"`
	DependentGloss string `json:"dependentGloss"`
}

// EntityMention is a multi-token named entity reported by the ner annotator.
type EntityMention struct {
	Text                 string             `json:"text"`
	NER                  string             `json:"ner"`
	CharacterOffsetBegin int                `json:"characterOffsetBegin"`
	CharacterOffsetEnd   int                `json:"characterOffsetEnd"`
	NERConfidences       map[string]float64 `json:"nerConfidences,omitempty"`
}

// Triple is an open relation triple.
type Triple struct {
	Subject    string  `json:"subject"`
	Relation   string  `json:"relation"`
	Object     string  `json:"object"`
	Confidence float64 `json:"confidence,omitempty"`
}

// toByteOffsets rewrites the server's character offsets, which count UTF-16
// code units, as byte offsets into text. Offsets past the end of text are
// clamped.
func (d *Document) toByteOffsets(text string) {
	table := utf16ByteTable(text)
	conv := func(off int) int {
		if off < 0 {
			return 0
		}
		if off >= len(table) {
			return len(text)
		}
		return table[off]
	}
	for i := range d.Sentences {
		s := &d.Sentences[i]
		for j := range s.Tokens {
			s.Tokens[j].CharacterOffsetBegin = conv(s.Tokens[j].CharacterOffsetBegin)
			s.Tokens[j].CharacterOffsetEnd = conv(s.Tokens[j].CharacterOffsetEnd)
		}
		for j := range s.EntityMentions {
			s.EntityMentions[j].CharacterOffsetBegin = conv(s.EntityMentions[j].CharacterOffsetBegin)
			s.EntityMentions[j].CharacterOffsetEnd = conv(s.EntityMentions[j].CharacterOffsetEnd)
		}
	}
}

// utf16ByteTable maps each UTF-16 code unit index of text to the byte
// offset where its rune starts; the final entry is len(text).
func utf16ByteTable(text string) []int {
	table := make([]int, 0, len(text)+1)
	for i, r := range text {
		table = append(table, i)
		if r >= 0x10000 && utf8.ValidRune(r) {
			table = append(table, i)
		}
	}
	return append(table, len(text))
}
