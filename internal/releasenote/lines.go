package releasenote

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/a3tai/mcp-release-notes/internal/layout"
)

var bracketTag = regexp.MustCompile(`^\[([^\]]+)\]\s*(.*)$`)

// pendingEntry is a text-line entry whose continuation lines are still
// being collected
type pendingEntry struct {
	kind     *compiledKind
	label    string
	category string
	parts    []string
	page     int
	// index of the entry slot reserved when the entry was opened
	slot int
}

// walkPage feeds a page's text lines and table rows through the
// classifiers in reading order. A table runs as soon as the text reaches a
// line at or below its top edge. Lines with no word position keep their
// place in the page text, so on pages without word positions every text
// line, section headers included, runs before the tables.
func (p *parse) walkPage(h harvest, page int) {
	tables := append([]layout.Table(nil), h.tables...)
	sort.SliceStable(tables, func(i, j int) bool { return tables[i].Top < tables[j].Top })
	next := 0
	flush := func(until float64) {
		for next < len(tables) && tables[next].Top <= until {
			p.addTable(tables[next], page)
			next++
		}
	}

	tops := lineTops(h.lines)
	for _, raw := range strings.Split(h.text, "\n") {
		line := normalizeCell(raw)
		if line == "" {
			continue
		}
		if top, ok := tops.take(compact(line)); ok {
			flush(top)
		}
		p.scanLine(h, line, page)
	}
	flush(math.Inf(1))
}

func (p *parse) addTable(t layout.Table, page int) {
	for _, row := range t.Rows {
		p.addTableRow(row, page)
	}
}

// scanLine classifies one plain text line. Lines that only repeat a
// harvested table row are skipped.
func (p *parse) scanLine(h harvest, line string, page int) {
	if p.lex.ignored(line) || p.sectionHeader(line) {
		return
	}
	if h.covers(line) || !p.collecting {
		return
	}
	p.addTextLine(line, page)
}

// linePositions maps the compact text of a positioned line to the tops of
// its occurrences, top to bottom
type linePositions map[string][]float64

func lineTops(lines []layout.Line) linePositions {
	tops := make(linePositions, len(lines))
	for _, l := range lines {
		key := compact(l.Text())
		if key != "" {
			tops[key] = append(tops[key], l.Top)
		}
	}
	return tops
}

// take returns the top of the next unclaimed occurrence of key
func (lp linePositions) take(key string) (float64, bool) {
	q := lp[key]
	if len(q) == 0 {
		return 0, false
	}
	lp[key] = q[1:]
	return q[0], true
}

func (h harvest) covers(line string) bool {
	c := compact(line)
	if c == "" {
		return false
	}
	for _, row := range h.covered {
		if strings.Contains(row, c) {
			return true
		}
	}
	return false
}

// sectionHeader updates the section state when line opens or closes a
// change section
func (p *parse) sectionHeader(line string) bool {
	key := sectionKey(line)
	if key == "" {
		return false
	}

	switch {
	case matchesHeader(key, p.lex.improve):
		p.enterSection(ChangeImprovement)
	case matchesHeader(key, p.lex.issue):
		p.enterSection(ChangeIssueFix)
	case matchesHeader(key, p.lex.stop):
		p.finalizeOpen()
		p.section = ""
		p.active = nil
		p.collecting = false
	default:
		return false
	}
	return true
}

func (p *parse) enterSection(t ChangeType) {
	p.finalizeOpen()
	p.section = t
	p.active = nil
	p.collecting = true
}

// matchesHeader reports whether key is one of headers, optionally followed
// by punctuation such as a parenthesised note. "notes" matches "notes:" but
// not "notesettings".
func matchesHeader(key string, headers []string) bool {
	for _, h := range headers {
		if h == "" || !strings.HasPrefix(key, h) {
			continue
		}
		rest := key[len(h):]
		if rest == "" {
			return true
		}
		r, _ := utf8.DecodeRuneInString(rest)
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// addTextLine decides whether line starts a new entry or continues the open
// one
func (p *parse) addTextLine(line string, page int) {
	start := p.lex.stripBullets(line)

	if m := bracketTag.FindStringSubmatch(start); m != nil {
		if kind := p.lex.kindOf(m[1]); kind != nil {
			p.startEntry(kind, m[1], m[2], page)
			return
		}
	}

	for _, k := range p.lex.kinds {
		if icon := k.icon(start); icon != "" {
			p.startEntry(k, "", strings.TrimSpace(start[len(icon):]), page)
			return
		}
	}

	if _, _, ok := p.lex.leadingCategory(start); ok {
		kind := p.active
		if kind == nil {
			kind = p.lex.kindByType(p.section)
		}
		if kind != nil {
			p.startEntry(kind, "", start, page)
			return
		}
	}

	if p.open != nil {
		p.open.parts = append(p.open.parts, line)
	}
}

// startEntry finalises the open entry and opens a new one. A category
// keyword at the start of rest becomes the entry's category. The entry's
// place in the output is reserved now so rows emitted while it collects
// continuation lines, possibly on later pages, still follow it.
func (p *parse) startEntry(kind *compiledKind, label, rest string, page int) {
	p.finalizeOpen()

	entry := &pendingEntry{kind: kind, label: label, page: page, slot: p.reserve()}
	if cat, tail, ok := p.lex.leadingCategory(rest); ok {
		entry.category = cat
		rest = tail
	}
	if rest != "" {
		entry.parts = append(entry.parts, rest)
	}
	p.open = entry
	p.active = kind
}

// finalizeOpen fills the open entry's slot if its description is long
// enough. A slot left empty is dropped when the parse completes.
func (p *parse) finalizeOpen() {
	open := p.open
	p.open = nil
	if open == nil {
		return
	}

	frag := Fragment{
		Label:       open.label,
		Category:    open.category,
		Description: strings.Join(open.parts, " "),
	}
	entry, ok := p.buildEntry(open.kind, frag, open.page, SourceText)
	if !ok || utf8.RuneCountInString(entry.Description) < p.lex.vocab.MinDescriptionLength {
		return
	}
	p.fill(open.slot, entry)
}
