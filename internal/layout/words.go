package layout

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// wordGapRatio is the share of the font size a gap may reach before
	// two glyphs stop belonging to the same word
	wordGapRatio = 0.25
	minWordGap   = 1.0
	defaultSize  = 10.0
)

type glyphBand struct {
	bottom float64
	glyphs []Glyph
}

// BuildWords joins glyphs into words. Glyphs are first banded by baseline,
// then joined left to right while the horizontal gap stays small. Whitespace
// glyphs always end a word.
func BuildWords(glyphs []Glyph) []Word {
	if len(glyphs) == 0 {
		return nil
	}

	var bands []glyphBand
	for _, g := range glyphs {
		tol := sizeOf(g) * 0.5
		placed := false
		for i := range bands {
			if math.Abs(bands[i].bottom-g.Bottom) <= tol {
				bands[i].glyphs = append(bands[i].glyphs, g)
				placed = true
				break
			}
		}
		if !placed {
			bands = append(bands, glyphBand{bottom: g.Bottom, glyphs: []Glyph{g}})
		}
	}

	sort.SliceStable(bands, func(i, j int) bool { return bands[i].bottom < bands[j].bottom })

	var words []Word
	for _, band := range bands {
		sort.SliceStable(band.glyphs, func(i, j int) bool { return band.glyphs[i].X < band.glyphs[j].X })
		words = append(words, joinBand(band.glyphs)...)
	}
	return words
}

func joinBand(glyphs []Glyph) []Word {
	var words []Word
	var sb strings.Builder
	var cur Word
	open := false

	flush := func() {
		if open {
			cur.Text = norm.NFC.String(sb.String())
			if strings.TrimSpace(cur.Text) != "" {
				words = append(words, cur)
			}
		}
		sb.Reset()
		open = false
	}

	for _, g := range glyphs {
		if isBlank(g.Text) {
			flush()
			continue
		}
		if open {
			gap := g.X - cur.X1
			if gap > wordGap(g) || gap < -sizeOf(g) {
				flush()
			}
		}
		if !open {
			cur = Word{X0: g.X, X1: g.X + g.Width, Top: g.Top, Bottom: g.Bottom}
			open = true
		} else {
			cur.X1 = math.Max(cur.X1, g.X+g.Width)
			cur.Top = math.Min(cur.Top, g.Top)
			cur.Bottom = math.Max(cur.Bottom, g.Bottom)
		}
		sb.WriteString(g.Text)
	}
	flush()
	return words
}

// GroupLines groups words into lines by vertical centre. A tolerance of zero
// uses half of each word's height. Lines are returned top to bottom with
// their words ordered left to right.
func GroupLines(words []Word, tolerance float64) []Line {
	if len(words) == 0 {
		return nil
	}

	var lines []Line
	for _, w := range words {
		tol := tolerance
		if tol <= 0 {
			tol = math.Max(w.Height()*0.5, 1)
		}
		placed := false
		for i := range lines {
			center := (lines[i].Top + lines[i].Bottom) / 2
			if math.Abs(center-w.CenterY()) <= tol {
				lines[i].Words = append(lines[i].Words, w)
				lines[i].Top = math.Min(lines[i].Top, w.Top)
				lines[i].Bottom = math.Max(lines[i].Bottom, w.Bottom)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, Line{Words: []Word{w}, Top: w.Top, Bottom: w.Bottom})
		}
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Top < lines[j].Top })
	for i := range lines {
		ws := lines[i].Words
		sort.SliceStable(ws, func(a, b int) bool { return ws[a].X0 < ws[b].X0 })
	}
	return lines
}

func sizeOf(g Glyph) float64 {
	if g.Size > 0 {
		return g.Size
	}
	if h := g.Bottom - g.Top; h > 0 {
		return h
	}
	return defaultSize
}

func wordGap(g Glyph) float64 {
	return math.Max(sizeOf(g)*wordGapRatio, minWordGap)
}

func isBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
