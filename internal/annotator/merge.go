// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotator

// Part is the annotation of one chunk and the byte offset at which the
// chunk starts in the combined text.
type Part struct {
	Doc    *Document
	Offset int
}

// Merge combines chunk annotations into one document. Token and mention
// offsets are shifted by each part's Offset, sentences are renumbered in
// order, and open relation lists are concatenated. Nil documents are skipped.
func Merge(parts []Part) *Document {
	merged := &Document{}
	for _, p := range parts {
		if p.Doc == nil {
			continue
		}
		for _, s := range p.Doc.Sentences {
			s.Index = len(merged.Sentences)
			s.Tokens = shiftTokens(s.Tokens, p.Offset)
			s.EntityMentions = shiftMentions(s.EntityMentions, p.Offset)
			merged.Sentences = append(merged.Sentences, s)
		}
		merged.OpenIE = append(merged.OpenIE, p.Doc.OpenIE...)
	}
	return merged
}

func shiftTokens(in []Token, off int) []Token {
	out := make([]Token, len(in))
	for i, t := range in {
		t.CharacterOffsetBegin += off
		t.CharacterOffsetEnd += off
		out[i] = t
	}
	return out
}

func shiftMentions(in []EntityMention, off int) []EntityMention {
	if len(in) == 0 {
		return nil
	}
	out := make([]EntityMention, len(in))
	for i, m := range in {
		m.CharacterOffsetBegin += off
		m.CharacterOffsetEnd += off
		out[i] = m
	}
	return out
}

// Triples returns every open relation triple in the document: the
// document-level list followed by each sentence's list.
func (d *Document) Triples() []Triple {
	out := append([]Triple(nil), d.OpenIE...)
	for _, s := range d.Sentences {
		out = append(out, s.OpenIE...)
	}
	return out
}
