package releasenote

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	openParenSpace  = regexp.MustCompile(`\(\s+`)
	closeParenSpace = regexp.MustCompile(`\s+\)`)
)

// normalizeCell collapses line breaks and whitespace runs to single spaces
func normalizeCell(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// repair cleans text that PDF layout may have broken: leading bullets, words
// cut by a stray separator, padded parentheses and uneven spacing.
func (l *lexicon) repair(s string) string {
	s = normalizeCell(s)
	s = l.stripBullets(s)
	s = joinSplitWords(s)
	s = openParenSpace.ReplaceAllString(s, "(")
	s = closeParenSpace.ReplaceAllString(s, ")")
	return strings.Join(strings.Fields(s), " ")
}

func (l *lexicon) stripBullets(s string) string {
	for {
		before := s
		for _, b := range l.bullets {
			if b != "" && strings.HasPrefix(s, b) {
				s = strings.TrimLeft(s[len(b):], " ")
			}
		}
		if s == before {
			return s
		}
	}
}

// joinSplitWords rejoins two letters of the same script separated by a stray
// "*", or by a hyphen touching only one side ("Apa- che"). Spaced separators
// between different scripts and real hyphenated words are left alone.
func joinSplitWords(s string) string {
	rs := []rune(s)
	out := make([]rune, 0, len(rs))

	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if r != '*' && r != '-' {
			out = append(out, r)
			continue
		}

		j, before := len(out)-1, 0
		for j >= 0 && out[j] == ' ' {
			j--
			before++
		}
		k, after := i+1, 0
		for k < len(rs) && rs[k] == ' ' {
			k++
			after++
		}

		if j >= 0 && k < len(rs) && sameScript(out[j], rs[k]) {
			if r == '*' || (before == 0) != (after == 0) {
				out = out[:j+1]
				i = k - 1
				continue
			}
		}
		out = append(out, r)
	}
	return string(out)
}

func sameScript(a, b rune) bool {
	if !unicode.IsLetter(a) || !unicode.IsLetter(b) {
		return false
	}
	switch {
	case unicode.Is(unicode.Latin, a):
		return unicode.Is(unicode.Latin, b)
	case unicode.Is(unicode.Hangul, a):
		return unicode.Is(unicode.Hangul, b)
	}
	return false
}

// cleanLabel strips the brackets a type cell is sometimes written with
func cleanLabel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	return strings.TrimSpace(s)
}

// splitTicket removes a trailing "(TICKET)" from a description
func (l *lexicon) splitTicket(desc string) (string, string) {
	m := l.ticket.FindStringSubmatchIndex(desc)
	if m == nil {
		return desc, ""
	}
	ticket := desc[m[2]:m[3]]
	rest := strings.TrimSpace(desc[:m[0]])
	if rest == "" {
		return desc, ""
	}
	return rest, ticket
}
