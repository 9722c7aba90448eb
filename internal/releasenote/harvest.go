package releasenote

import (
	"strings"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-release-notes/internal/layout"
)

type harvest struct {
	text     string
	tables   []layout.Table
	strategy layout.Strategy
	// compact row texts of every harvested table row, used to skip text
	// lines the tables already covered
	covered []string
	// positioned text lines, used to interleave text and tables
	lines []layout.Line
}

// harvest reads a page's text and runs the strategy chain until one strategy
// yields enough data rows. A page no strategy can read has no tables.
func (p *parse) harvest(page Page) harvest {
	words := page.Words()
	h := harvest{text: page.Text(), lines: layout.GroupLines(words, 0)}

	if l, ok := p.lex.resolveColumns(words, page.Width()); ok {
		p.layout = l
	}
	current := p.layout
	if current == nil {
		current = p.e.defaultLayout
	}

	for _, settings := range p.e.strategies {
		if settings.Strategy == layout.StrategyExplicit {
			if current == nil {
				continue
			}
			settings = settings.WithLayout(current)
		}

		tables := page.Tables(settings)
		if n := p.dataRows(tables); n >= p.e.minRows {
			h.tables = tables
			h.strategy = settings.Strategy
			break
		}
		p.e.logger.Debug("strategy yielded too few rows",
			zap.Int("page", page.Number()),
			zap.String("strategy", string(settings.Strategy)),
		)
	}

	for _, t := range h.tables {
		for _, row := range t.Rows {
			var sb strings.Builder
			for _, c := range row {
				if c != nil {
					sb.WriteString(compact(*c))
				}
			}
			if sb.Len() > 0 {
				h.covered = append(h.covered, sb.String())
			}
		}
	}
	return h
}

// dataRows counts rows that have at least two columns, some text, and are
// not header rows
func (p *parse) dataRows(tables []layout.Table) int {
	n := 0
	for _, t := range tables {
		for _, row := range t.Rows {
			if len(row) < 2 {
				continue
			}
			cells := cellTexts(row)
			if p.isHeaderRow(cells) {
				continue
			}
			for _, c := range cells {
				if c != "" {
					n++
					break
				}
			}
		}
	}
	return n
}

func cellTexts(row layout.Row) []string {
	cells := make([]string, len(row))
	for i, c := range row {
		if c != nil {
			cells[i] = normalizeCell(*c)
		}
	}
	return cells
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
