// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Sentence
	}{
		{"empty", "", nil},
		{"whitespace", "   \n ", nil},
		{
			"mixed terminators",
			"One. Two!  Three? Four",
			[]Sentence{{"One.", 0}, {"Two!", 5}, {"Three?", 11}, {"Four", 18}},
		},
		{
			"decimal point does not split",
			"3.5 percent. Next.",
			[]Sentence{{"3.5 percent.", 0}, {"Next.", 13}},
		},
		{
			"leading whitespace trimmed",
			"\n\nSECTION 1. Findings.",
			[]Sentence{{"SECTION 1.", 2}, {"Findings.", 13}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitSentences(tt.text))
		})
	}
}

func longBill(n int) string {
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "The farm to school program shall support local farmers in district %d.", i)
	}
	return b.String()
}

func TestChunkTextRespectsLimit(t *testing.T) {
	text := longBill(5000)
	require.GreaterOrEqual(t, len(text), 5000)

	chunks := ChunkText(text, 1500)
	require.GreaterOrEqual(t, len(chunks), 4)

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 1500, "chunk %d", i)
		texts[i] = c.Text
	}

	// Rejoining the chunks yields the same sentences as the source.
	rejoined := strings.Join(texts, " ")
	assert.Equal(t, SplitSentences(text), SplitSentences(rejoined))
}

func TestChunkSegmentsMapToSource(t *testing.T) {
	text := longBill(4000)
	for _, c := range ChunkText(text, 700) {
		for _, s := range c.Segments {
			assert.Equal(t, text[s.Source:s.Source+s.Len], c.Text[s.Offset:s.Offset+s.Len])
		}
	}
}

func TestChunkTextSplitsLongSentenceAtWords(t *testing.T) {
	chunks := ChunkText("alpha beta gamma delta", 11)
	require.Len(t, chunks, 2)
	assert.Equal(t, "alpha beta", chunks[0].Text)
	assert.Equal(t, "gamma delta", chunks[1].Text)

	src, ok := chunks[1].ToSource(6)
	require.True(t, ok)
	assert.Equal(t, 17, src)
}

func TestChunkTextSplitsOversizedWord(t *testing.T) {
	chunks := ChunkText(strings.Repeat("a", 40), 16)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Text, 16)
	assert.Len(t, chunks[2].Text, 8)

	for _, c := range ChunkText(strings.Repeat("é", 10), 5) {
		assert.LessOrEqual(t, len(c.Text), 5)
		assert.True(t, utf8.ValidString(c.Text), "chunk %q split a rune", c.Text)
	}
}

func TestChunkTextEmpty(t *testing.T) {
	assert.Empty(t, ChunkText("", 100))
	assert.Empty(t, ChunkText("  \t\n", 100))
}

func TestChunkToSource(t *testing.T) {
	chunks := ChunkText("A b.   C d.", 100)
	require.Len(t, chunks, 1)
	c := chunks[0]
	assert.Equal(t, "A b. C d.", c.Text)

	tests := []struct {
		off  int
		want int
		ok   bool
	}{
		{0, 0, true},
		{4, 4, true},
		{5, 7, true},
		{9, 11, true},
		{100, 0, false},
	}
	for _, tt := range tests {
		got, ok := c.ToSource(tt.off)
		assert.Equal(t, tt.ok, ok, "offset %d", tt.off)
		if tt.ok {
			assert.Equal(t, tt.want, got, "offset %d", tt.off)
		}
	}
}

func TestJoinChunks(t *testing.T) {
	joined, bases := joinChunks([]Chunk{{Text: "one"}, {Text: "two"}, {Text: "three"}})
	assert.Equal(t, "one two three", joined)
	assert.Equal(t, []int{0, 4, 8}, bases)
}
