package releasenote

import (
	"github.com/a3tai/mcp-release-notes/internal/layout"
)

const (
	typeHeaderPad     = 2.0
	categoryHeaderPad = 5.0
	rightMargin       = 5.0
)

// resolveColumns derives column boundaries from the header words of a page.
// It needs category and summary headers on the same line; type and ticket
// headers are optional. The result has four boundaries (type, category,
// summary) or five when a ticket column is present.
func (l *lexicon) resolveColumns(words []layout.Word, width float64) (*layout.ColumnLayout, bool) {
	for _, line := range layout.GroupLines(words, 0) {
		var found [4]*layout.Word
		for i := range line.Words {
			w := &line.Words[i]
			role, ok := l.headerRole(w.Text)
			if ok && found[role] == nil {
				found[role] = w
			}
		}

		typ, cat, sum, ticket := found[roleType], found[roleCategory], found[roleSummary], found[roleTicket]
		if cat == nil || sum == nil || sum.X0 <= cat.X1 {
			continue
		}

		left, typeCat := 0.0, cat.X0-categoryHeaderPad
		if typ != nil && typ.X1 <= cat.X0 {
			left = typ.X0 - typeHeaderPad
			typeCat = (typ.X1 + cat.X0) / 2
		}
		if left < 0 {
			left = 0
		}
		if typeCat <= left {
			typeCat = left + (cat.X0-left)/2
		}

		bounds := []float64{left, typeCat, (cat.X1 + sum.X0) / 2}
		if ticket != nil && ticket.X0 > sum.X1 {
			bounds = append(bounds, (sum.X1+ticket.X0)/2)
		}

		right := width - rightMargin
		if right <= bounds[len(bounds)-1] {
			right = width
		}
		if right <= bounds[len(bounds)-1] {
			continue
		}
		bounds = append(bounds, right)

		return &layout.ColumnLayout{Boundaries: bounds}, true
	}
	return nil, false
}
