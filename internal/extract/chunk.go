// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sentence is a trimmed sentence and its byte offset in the source text.
type Sentence struct {
	Text  string
	Start int
}

// SplitSentences splits text after '.', '!' or '?' when followed by
// whitespace. Sentences are trimmed; empty ones are dropped.
func SplitSentences(text string) []Sentence {
	var out []Sentence
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if i+1 >= len(text) {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(text[i+1:]); !unicode.IsSpace(r) {
			continue
		}
		out = appendSentence(out, text, start, i+1)
		start = i + 1
	}
	return appendSentence(out, text, start, len(text))
}

func appendSentence(out []Sentence, text string, lo, hi int) []Sentence {
	seg := text[lo:hi]
	trimmed := strings.TrimLeftFunc(seg, unicode.IsSpace)
	lo += len(seg) - len(trimmed)
	trimmed = strings.TrimRightFunc(trimmed, unicode.IsSpace)
	if trimmed == "" {
		return out
	}
	return append(out, Sentence{Text: trimmed, Start: lo})
}

// Segment maps a run of chunk bytes back to the source text.
type Segment struct {
	Offset int // start within the chunk text
	Source int // start within the source text
	Len    int
}

// Chunk is a piece of source text sent to the annotator in one request.
// Sentences inside a chunk are joined by single spaces, so chunk offsets
// are mapped back to the source through Segments.
type Chunk struct {
	Text     string
	Segments []Segment
}

// ToSource maps a byte offset within the chunk to the source text.
// End offsets (one past a segment) map as well.
func (c Chunk) ToSource(off int) (int, bool) {
	for _, s := range c.Segments {
		if off >= s.Offset && off <= s.Offset+s.Len {
			return s.Source + off - s.Offset, true
		}
	}
	return 0, false
}

// wholeChunk wraps unchunked text.
func wholeChunk(text string) Chunk {
	return Chunk{Text: text, Segments: []Segment{{Offset: 0, Source: 0, Len: len(text)}}}
}

type chunker struct {
	max    int
	chunks []Chunk
	cur    strings.Builder
	segs   []Segment
}

func (c *chunker) add(piece string, source int) {
	if c.cur.Len() > 0 {
		c.cur.WriteByte(' ')
	}
	c.segs = append(c.segs, Segment{Offset: c.cur.Len(), Source: source, Len: len(piece)})
	c.cur.WriteString(piece)
}

func (c *chunker) fits(n int) bool {
	if c.cur.Len() == 0 {
		return n <= c.max
	}
	return c.cur.Len()+1+n <= c.max
}

func (c *chunker) flush() {
	if c.cur.Len() == 0 {
		return
	}
	c.chunks = append(c.chunks, Chunk{Text: c.cur.String(), Segments: c.segs})
	c.cur.Reset()
	c.segs = nil
}

// ChunkText packs sentences into chunks of at most size bytes, joining
// sentences with single spaces. A sentence longer than size is split at
// word boundaries and a word longer than size is split at rune boundaries,
// so no chunk exceeds size. size is raised to utf8.UTFMax if smaller.
func ChunkText(text string, size int) []Chunk {
	if size < utf8.UTFMax {
		size = utf8.UTFMax
	}
	c := &chunker{max: size}
	for _, s := range SplitSentences(text) {
		if len(s.Text) <= size {
			if !c.fits(len(s.Text)) {
				c.flush()
			}
			c.add(s.Text, s.Start)
			continue
		}

		c.flush()
		for _, w := range words(s.Text) {
			if len(w.Text) > size {
				c.flush()
				for _, p := range splitRunes(w.Text, size) {
					c.add(p.Text, s.Start+w.Start+p.Start)
					c.flush()
				}
				continue
			}
			if !c.fits(len(w.Text)) {
				c.flush()
			}
			c.add(w.Text, s.Start+w.Start)
		}
		c.flush()
	}
	c.flush()
	return c.chunks
}

// words returns the whitespace-separated words of s with their offsets.
func words(s string) []Sentence {
	var out []Sentence
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, Sentence{Text: s[start:i], Start: start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, Sentence{Text: s[start:], Start: start})
	}
	return out
}

// splitRunes cuts s into pieces of at most size bytes on rune boundaries.
func splitRunes(s string, size int) []Sentence {
	var out []Sentence
	start := 0
	for start < len(s) {
		end := min(start+size, len(s))
		for end < len(s) && end > start && !utf8.RuneStart(s[end]) {
			end--
		}
		out = append(out, Sentence{Text: s[start:end], Start: start})
		start = end
	}
	return out
}
