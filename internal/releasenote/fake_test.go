package releasenote

import (
	"testing"

	"github.com/a3tai/mcp-release-notes/internal/layout"
)

type fakePage struct {
	number int
	text   string
	words  []layout.Word
	width  float64
	tables map[layout.Strategy][]layout.Table
	calls  []layout.TableSettings
}

func (p *fakePage) Number() int          { return p.number }
func (p *fakePage) Text() string         { return p.text }
func (p *fakePage) Words() []layout.Word { return p.words }

func (p *fakePage) Width() float64 {
	if p.width == 0 {
		return 595
	}
	return p.width
}

func (p *fakePage) Tables(settings layout.TableSettings) []layout.Table {
	p.calls = append(p.calls, settings)
	return p.tables[settings.Strategy]
}

type fakeDocument struct {
	pages []Page
}

func (d fakeDocument) Pages() []Page { return d.pages }

func docOf(pages ...*fakePage) fakeDocument {
	doc := fakeDocument{}
	for _, p := range pages {
		doc.pages = append(doc.pages, p)
	}
	return doc
}

// tableOf builds a table; empty strings become nil cells
func tableOf(strategy layout.Strategy, rows ...[]string) layout.Table {
	t := layout.Table{Strategy: strategy}
	for _, r := range rows {
		row := make(layout.Row, len(r))
		for i, c := range r {
			if c != "" {
				text := c
				row[i] = &text
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// ruledPage is a page whose only readable tables come from drawn rules
func ruledPage(number int, rows ...[]string) *fakePage {
	return &fakePage{
		number: number,
		tables: map[layout.Strategy][]layout.Table{
			layout.StrategyLines: {tableOf(layout.StrategyLines, rows...)},
		},
	}
}

func newTestEngine(t testing.TB, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}
