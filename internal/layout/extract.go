package layout

import (
	"sort"
	"strings"
)

// ExtractTables builds table candidates for one page under the given
// strategy. It never fails: a page the strategy cannot read yields no tables.
func ExtractTables(words []Word, rules []Rule, width float64, settings TableSettings) []Table {
	settings = settings.withDefaults()

	switch settings.Strategy {
	case StrategyExplicit:
		if t, ok := extractExplicit(words, settings.Layout, settings, StrategyExplicit); ok {
			return []Table{t}
		}
		return nil
	case StrategyLines:
		return extractRuled(words, rules, settings)
	case StrategyText:
		return extractTextGap(words, width, settings)
	default:
		return nil
	}
}

// extractExplicit splits words into columns at fixed x boundaries. Words are
// assigned whole by their horizontal centre, so no word is ever cut in two.
func extractExplicit(words []Word, cols *ColumnLayout, s TableSettings, strategy Strategy) (Table, bool) {
	n := cols.Columns()
	if n == 0 || len(words) == 0 {
		return Table{}, false
	}

	inside := make([]Word, 0, len(words))
	for _, w := range words {
		if cols.ColumnOf(w.CenterX()) >= 0 {
			inside = append(inside, w)
		}
	}
	lines := GroupLines(inside, 0)
	if len(lines) == 0 {
		return Table{}, false
	}

	table := Table{Strategy: strategy, Top: lines[0].Top, Bottom: lines[len(lines)-1].Bottom}
	for _, group := range splitRows(lines, s.RowGap) {
		cells := make([][]string, n)
		for _, line := range group {
			for _, w := range line.Words {
				col := cols.ColumnOf(w.CenterX())
				cells[col] = append(cells[col], w.Text)
			}
		}
		if row, ok := buildRow(cells); ok {
			table.Rows = append(table.Rows, row)
		}
	}
	return table, len(table.Rows) > 0
}

// splitRows starts a new row whenever the vertical gap between two
// consecutive lines exceeds rowGap.
func splitRows(lines []Line, rowGap float64) [][]Line {
	var groups [][]Line
	var cur []Line
	prevBottom := 0.0
	for i, line := range lines {
		if i > 0 && line.Top-prevBottom > rowGap {
			groups = append(groups, cur)
			cur = nil
		}
		cur = append(cur, line)
		if line.Bottom > prevBottom || i == 0 {
			prevBottom = line.Bottom
		}
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

func buildRow(cells [][]string) (Row, bool) {
	row := make(Row, len(cells))
	filled := false
	for i, parts := range cells {
		if len(parts) == 0 {
			continue
		}
		text := strings.Join(parts, " ")
		row[i] = &text
		filled = true
	}
	return row, filled
}

// extractTextGap infers column starts from word left edges that line up
// across several lines, then splits the page at those starts.
func extractTextGap(words []Word, width float64, s TableSettings) []Table {
	lines := GroupLines(words, 0)
	if len(lines) < s.MinAlignedLines {
		return nil
	}

	type edge struct {
		x    float64
		line int
	}
	var edges []edge
	maxX := 0.0
	for i, line := range lines {
		for _, w := range line.Words {
			edges = append(edges, edge{x: w.X0, line: i})
			if w.X1 > maxX {
				maxX = w.X1
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].x < edges[j].x })

	type cluster struct {
		min, center float64
		lines       map[int]bool
	}
	var clusters []*cluster
	for _, e := range edges {
		if len(clusters) > 0 {
			c := clusters[len(clusters)-1]
			if e.x-c.center <= s.SnapTolerance {
				c.center = (c.center + e.x) / 2
				c.lines[e.line] = true
				continue
			}
		}
		clusters = append(clusters, &cluster{min: e.x, center: e.x, lines: map[int]bool{e.line: true}})
	}

	var starts []float64
	for _, c := range clusters {
		if len(c.lines) >= s.MinAlignedLines {
			starts = append(starts, c.min)
		}
	}
	if len(starts) < s.MinColumns {
		return nil
	}

	right := width
	if right <= maxX {
		right = maxX + 1
	}
	bounds := []float64{0}
	for _, x := range starts[1:] {
		bounds = append(bounds, x-0.5)
	}
	bounds = append(bounds, right)

	if t, ok := extractExplicit(words, &ColumnLayout{Boundaries: bounds}, s, StrategyText); ok {
		return []Table{t}
	}
	return nil
}

// clusterValues merges sorted values that lie within tolerance of the
// running cluster centre.
func clusterValues(values []float64, tolerance float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	clustered := []float64{sorted[0]}
	for _, v := range sorted[1:] {
		last := clustered[len(clustered)-1]
		if v-last > tolerance {
			clustered = append(clustered, v)
		} else {
			clustered[len(clustered)-1] = (last + v) / 2
		}
	}
	return clustered
}
