package releasenote

import (
	"github.com/a3tai/mcp-release-notes/internal/layout"
)

// Column positions of a change-log table row
const (
	colType = iota
	colCategory
	colDescription
	colTicket
)

func (p *parse) isHeaderRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	_, ok := p.lex.headerRole(cells[0])
	return ok
}

// addTableRow classifies one harvested row and emits an entry for it when
// it names a change. Blank type and category cells inherit the last values
// seen in this parse. Rows after a closing section header are skipped until
// a change section opens again.
func (p *parse) addTableRow(row layout.Row, page int) {
	if !p.collecting {
		return
	}
	cells := cellTexts(row)
	if len(cells) < 2 || p.isHeaderRow(cells) {
		return
	}
	// two-column tables carry type and description only
	if len(cells) == 2 {
		cells = []string{cells[0], "", cells[1]}
	}

	frag := Fragment{
		Label:       cells[colType],
		Category:    cells[colCategory],
		Description: cells[colDescription],
	}
	if len(cells) > colTicket {
		frag.TicketID = cells[colTicket]
	}

	if frag.Label == "" {
		frag.Label = p.lastType
	}
	if frag.Category == "" {
		frag.Category = p.lastCategory
	}
	if frag.Label != "" {
		p.lastType = frag.Label
	}
	if frag.Category != "" {
		p.lastCategory = frag.Category
	}

	if frag.Description == "" {
		return
	}
	kind := p.lex.kindOf(frag.Label)
	if kind == nil {
		kind = p.lex.kindOf(frag.Category)
	}
	if kind == nil {
		return
	}

	if entry, ok := p.buildEntry(kind, frag, page, SourceTable); ok {
		p.emit(entry)
	}
}

// buildEntry repairs a fragment and turns it into an entry. It reports false
// when nothing is left of the description.
func (p *parse) buildEntry(kind *compiledKind, frag Fragment, page int, source Source) (Entry, bool) {
	label := cleanLabel(frag.Label)
	if label == "" || kind.icon(label) != "" {
		label = kind.Label
	}

	category := p.lex.repair(frag.Category)
	desc := p.lex.repair(frag.Description)

	ticket := normalizeCell(frag.TicketID)
	if p.lex.isNone(ticket) {
		ticket = ""
	}
	if ticket == "" {
		desc, ticket = p.lex.splitTicket(desc)
	}
	if ticket == category {
		ticket = ""
	}
	if desc == "" {
		return Entry{}, false
	}

	return Entry{
		Type:        kind.Type,
		Label:       label,
		Category:    category,
		Description: desc,
		TicketID:    ticket,
		Page:        page,
		Source:      source,
	}, true
}
