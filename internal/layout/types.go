package layout

import "strings"

// Strategy names a table extraction strategy
type Strategy string

const (
	// StrategyExplicit splits columns at known x coordinates
	StrategyExplicit Strategy = "explicit"
	// StrategyLines uses drawn rules as row and column boundaries
	StrategyLines Strategy = "lines"
	// StrategyText infers columns from aligned word positions
	StrategyText Strategy = "text"
)

// Default tolerances, in PDF points
const (
	DefaultRowGap          = 3.0
	DefaultSnapTolerance   = 3.0
	DefaultMinAlignedLines = 3
	DefaultMinColumns      = 2
	RuleThickness          = 2.0
)

// Glyph is a single decoded character with its position on the page.
// Coordinates use a top-down frame: Top < Bottom.
type Glyph struct {
	Text   string  `json:"text"`
	X      float64 `json:"x"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Width  float64 `json:"width"`
	Size   float64 `json:"size"`
}

// Word is a run of glyphs on one baseline
type Word struct {
	Text   string  `json:"text"`
	X0     float64 `json:"x0"`
	X1     float64 `json:"x1"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// CenterX returns the horizontal centre of the word
func (w Word) CenterX() float64 { return (w.X0 + w.X1) / 2 }

// CenterY returns the vertical centre of the word
func (w Word) CenterY() float64 { return (w.Top + w.Bottom) / 2 }

// Height returns the word height
func (w Word) Height() float64 { return w.Bottom - w.Top }

// Line is a group of words sharing a baseline, ordered left to right
type Line struct {
	Words  []Word  `json:"words"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// Text joins the words of the line with single spaces
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Words))
	for _, w := range l.Words {
		parts = append(parts, w.Text)
	}
	return strings.Join(parts, " ")
}

// Rule is a drawn rectangle or segment
type Rule struct {
	X0     float64 `json:"x0"`
	Top    float64 `json:"top"`
	X1     float64 `json:"x1"`
	Bottom float64 `json:"bottom"`
}

// Width returns the horizontal extent of the rule
func (r Rule) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent of the rule
func (r Rule) Height() float64 { return r.Bottom - r.Top }

// Cell is optional cell text. A nil cell is a rendering gap, usually the
// tail of a merged cell.
type Cell = *string

// Row is an ordered sequence of cells
type Row = []Cell

// Table is a grid of optional text cells
type Table struct {
	Rows     []Row    `json:"rows"`
	Strategy Strategy `json:"strategy"`
	Top      float64  `json:"top"`
	Bottom   float64  `json:"bottom"`
}

// ColumnLayout partitions a page horizontally. N+1 boundaries make N columns.
type ColumnLayout struct {
	Boundaries []float64 `json:"boundaries"`
}

// Columns returns the number of columns described by the layout
func (c *ColumnLayout) Columns() int {
	if c == nil || len(c.Boundaries) < 2 {
		return 0
	}
	return len(c.Boundaries) - 1
}

// ColumnOf returns the column index containing x, or -1 when x falls outside
// the outer boundaries.
func (c *ColumnLayout) ColumnOf(x float64) int {
	if c.Columns() == 0 {
		return -1
	}
	if x < c.Boundaries[0] || x > c.Boundaries[len(c.Boundaries)-1] {
		return -1
	}
	for i := 1; i < len(c.Boundaries); i++ {
		if x < c.Boundaries[i] {
			return i - 1
		}
	}
	return len(c.Boundaries) - 2
}

// TableSettings configures one extraction strategy
type TableSettings struct {
	Strategy        Strategy      `json:"strategy" yaml:"strategy"`
	Layout          *ColumnLayout `json:"layout,omitempty" yaml:"-"`
	RowGap          float64       `json:"row_gap" yaml:"row_gap"`
	SnapTolerance   float64       `json:"snap_tolerance" yaml:"snap_tolerance"`
	MinAlignedLines int           `json:"min_aligned_lines" yaml:"min_aligned_lines"`
	MinColumns      int           `json:"min_columns" yaml:"min_columns"`
}

// DefaultTableSettings returns the default tolerances for a strategy
func DefaultTableSettings(strategy Strategy) TableSettings {
	return TableSettings{
		Strategy:        strategy,
		RowGap:          DefaultRowGap,
		SnapTolerance:   DefaultSnapTolerance,
		MinAlignedLines: DefaultMinAlignedLines,
		MinColumns:      DefaultMinColumns,
	}
}

// WithLayout returns a copy of the settings bound to a column layout
func (s TableSettings) WithLayout(l *ColumnLayout) TableSettings {
	s.Layout = l
	return s
}

func (s TableSettings) withDefaults() TableSettings {
	if s.RowGap <= 0 {
		s.RowGap = DefaultRowGap
	}
	if s.SnapTolerance <= 0 {
		s.SnapTolerance = DefaultSnapTolerance
	}
	if s.MinAlignedLines <= 0 {
		s.MinAlignedLines = DefaultMinAlignedLines
	}
	if s.MinColumns <= 0 {
		s.MinColumns = DefaultMinColumns
	}
	return s
}
