package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func glyph(text string, x, top float64) Glyph {
	return Glyph{Text: text, X: x, Top: top, Bottom: top + 10, Width: 6, Size: 10}
}

func TestBuildWords(t *testing.T) {
	glyphs := []Glyph{
		glyph("B", 16, 0),
		glyph("A", 10, 0),
		glyph(" ", 22, 0),
		glyph("C", 28, 0),
		glyph("D", 60, 0),
		glyph("E", 10, 30),
	}

	words := BuildWords(glyphs)
	require.Len(t, words, 4)

	assert.Equal(t, "AB", words[0].Text)
	assert.Equal(t, 10.0, words[0].X0)
	assert.Equal(t, 22.0, words[0].X1)
	assert.Equal(t, "C", words[1].Text)
	assert.Equal(t, "D", words[2].Text, "a wide gap ends the word")
	assert.Equal(t, "E", words[3].Text)
	assert.Equal(t, 30.0, words[3].Top)
}

func TestBuildWords_Empty(t *testing.T) {
	assert.Nil(t, BuildWords(nil))
	assert.Empty(t, BuildWords([]Glyph{glyph(" ", 0, 0), glyph("\t", 6, 0)}))
}

func TestBuildWords_NormalisesToNFC(t *testing.T) {
	// decomposed Hangul jamo for 한
	words := BuildWords([]Glyph{glyph("\u1112\u1161\u11ab", 0, 0)})
	require.Len(t, words, 1)
	assert.Equal(t, "\ud55c", words[0].Text)
}

func TestGroupLines(t *testing.T) {
	words := []Word{
		{Text: "world", X0: 50, X1: 80, Top: 1, Bottom: 11},
		{Text: "next", X0: 10, X1: 30, Top: 30, Bottom: 40},
		{Text: "hello", X0: 10, X1: 40, Top: 0, Bottom: 10},
	}

	lines := GroupLines(words, 0)
	require.Len(t, lines, 2)
	assert.Equal(t, "hello world", lines[0].Text())
	assert.Equal(t, 0.0, lines[0].Top)
	assert.Equal(t, 11.0, lines[0].Bottom)
	assert.Equal(t, "next", lines[1].Text())
}

func TestGroupLines_ExplicitTolerance(t *testing.T) {
	words := []Word{
		{Text: "a", X0: 0, X1: 5, Top: 0, Bottom: 10},
		{Text: "b", X0: 10, X1: 15, Top: 4, Bottom: 14},
	}
	assert.Len(t, GroupLines(words, 1), 2)
	assert.Len(t, GroupLines(words, 5), 1)
	assert.Nil(t, GroupLines(nil, 0))
}
