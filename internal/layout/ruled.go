package layout

import (
	"math"
	"sort"
)

// edge is a horizontal or vertical segment derived from a drawn rule.
// For horizontal edges pos is y and the span runs along x; for vertical
// edges pos is x and the span runs along y.
type edge struct {
	horizontal bool
	pos        float64
	from, to   float64
}

func (e edge) bounds() (x0, top, x1, bottom float64) {
	if e.horizontal {
		return e.from, e.pos, e.to, e.pos
	}
	return e.pos, e.from, e.pos, e.to
}

// edgesFromRules turns thin rules into lines and thick rectangles into their
// four borders. Rules that are thin in both directions carry no direction and
// are dropped.
func edgesFromRules(rules []Rule) []edge {
	var edges []edge
	for _, r := range rules {
		w, h := math.Abs(r.Width()), math.Abs(r.Height())
		x0, x1 := math.Min(r.X0, r.X1), math.Max(r.X0, r.X1)
		top, bottom := math.Min(r.Top, r.Bottom), math.Max(r.Top, r.Bottom)

		switch {
		case h <= RuleThickness && w > RuleThickness:
			edges = append(edges, edge{horizontal: true, pos: (top + bottom) / 2, from: x0, to: x1})
		case w <= RuleThickness && h > RuleThickness:
			edges = append(edges, edge{horizontal: false, pos: (x0 + x1) / 2, from: top, to: bottom})
		case w > RuleThickness && h > RuleThickness:
			edges = append(edges,
				edge{horizontal: true, pos: top, from: x0, to: x1},
				edge{horizontal: true, pos: bottom, from: x0, to: x1},
				edge{horizontal: false, pos: x0, from: top, to: bottom},
				edge{horizontal: false, pos: x1, from: top, to: bottom},
			)
		}
	}
	return edges
}

// connectedEdges groups edges whose boxes touch within tolerance. Each group
// is one table candidate.
func connectedEdges(edges []edge, tolerance float64) [][]edge {
	parent := make([]int, len(edges))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := range edges {
		ax0, atop, ax1, abottom := edges[i].bounds()
		for j := i + 1; j < len(edges); j++ {
			bx0, btop, bx1, bbottom := edges[j].bounds()
			if ax0-tolerance <= bx1 && bx0-tolerance <= ax1 &&
				atop-tolerance <= bbottom && btop-tolerance <= abottom {
				if ri, rj := find(i), find(j); ri != rj {
					parent[rj] = ri
				}
			}
		}
	}

	order := []int{}
	groups := map[int][]edge{}
	for i, e := range edges {
		root := find(i)
		if _, seen := groups[root]; !seen {
			order = append(order, root)
		}
		groups[root] = append(groups[root], e)
	}

	result := make([][]edge, 0, len(order))
	for _, root := range order {
		result = append(result, groups[root])
	}
	return result
}

// extractRuled reads tables whose cells are bounded by drawn rules
func extractRuled(words []Word, rules []Rule, s TableSettings) []Table {
	edges := edgesFromRules(rules)
	if len(edges) < 4 {
		return nil
	}

	var tables []Table
	for _, group := range connectedEdges(edges, s.SnapTolerance) {
		var ys, xs []float64
		for _, e := range group {
			if e.horizontal {
				ys = append(ys, e.pos)
			} else {
				xs = append(xs, e.pos)
			}
		}
		ys = clusterValues(ys, s.SnapTolerance)
		xs = clusterValues(xs, s.SnapTolerance)
		if len(ys) < 2 || len(xs) < 2 {
			continue
		}

		table := Table{Strategy: StrategyLines, Top: ys[0], Bottom: ys[len(ys)-1]}
		for r := 0; r+1 < len(ys); r++ {
			cells := make([][]string, len(xs)-1)
			var inRow []Word
			for _, w := range words {
				cy := w.CenterY()
				if cy >= ys[r] && cy < ys[r+1] {
					inRow = append(inRow, w)
				}
			}
			for _, line := range GroupLines(inRow, 0) {
				for _, w := range line.Words {
					cx := w.CenterX()
					for c := 0; c+1 < len(xs); c++ {
						if cx >= xs[c] && cx < xs[c+1] {
							cells[c] = append(cells[c], w.Text)
							break
						}
					}
				}
			}
			if row, ok := buildRow(cells); ok {
				table.Rows = append(table.Rows, row)
			}
		}
		if len(table.Rows) > 0 {
			tables = append(tables, table)
		}
	}

	sort.SliceStable(tables, func(i, j int) bool { return tables[i].Top < tables[j].Top })
	return tables
}
