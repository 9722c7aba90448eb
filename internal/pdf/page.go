package pdf

import (
	"fmt"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-release-notes/internal/layout"
)

const (
	// defaultPageWidth is A4 width in points, used when no MediaBox is found
	defaultPageWidth  = 595.0
	defaultPageHeight = 842.0
	maxInheritDepth   = 32
)

// Page is one decoded PDF page. It implements releasenote.Page. Content is
// decoded on first use; a page the decoder panics on is treated as empty.
type Page struct {
	number int
	reader *pdf.Reader
	logger *zap.Logger

	loaded bool
	text   string
	words  []layout.Word
	rules  []layout.Rule
	width  float64
	height float64
}

func newPage(number int, reader *pdf.Reader, logger *zap.Logger) *Page {
	return &Page{number: number, reader: reader, logger: logger}
}

// Number returns the 1-based page number
func (p *Page) Number() int {
	return p.number
}

// Text returns the plain text of the page
func (p *Page) Text() string {
	p.load()
	return p.text
}

// Words returns the words on the page, top to bottom
func (p *Page) Words() []layout.Word {
	p.load()
	return p.words
}

// Rules returns the drawn rectangles on the page
func (p *Page) Rules() []layout.Rule {
	p.load()
	return p.rules
}

// Width returns the MediaBox width
func (p *Page) Width() float64 {
	p.load()
	return p.width
}

// Tables extracts table candidates under the given strategy settings
func (p *Page) Tables(settings layout.TableSettings) []layout.Table {
	p.load()
	return layout.ExtractTables(p.words, p.rules, p.width, settings)
}

func (p *Page) load() {
	if p.loaded {
		return
	}
	p.loaded = true
	p.width, p.height = defaultPageWidth, defaultPageHeight

	page, err := p.page()
	if err != nil {
		p.logger.Warn("failed to read page", zap.Int("page", p.number), zap.Error(err))
		return
	}

	p.width, p.height = mediaBox(page)
	p.text = p.plainText(page)
	p.words, p.rules = p.geometry(page)
}

func (p *Page) page() (page pdf.Page, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("decoder panic: %v", rec)
		}
	}()

	page = p.reader.Page(p.number)
	if page.V.IsNull() {
		return page, fmt.Errorf("page %d not found", p.number)
	}
	return page, nil
}

func (p *Page) plainText(page pdf.Page) (text string) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Warn("text extraction panicked", zap.Int("page", p.number), zap.Any("panic", rec))
			text = ""
		}
	}()

	text, err := page.GetPlainText(nil)
	if err != nil {
		p.logger.Warn("text extraction failed", zap.Int("page", p.number), zap.Error(err))
		return ""
	}
	return text
}

// geometry converts positioned glyphs and rectangles from the PDF's
// bottom-up coordinates into the top-down frame the layout package uses
func (p *Page) geometry(page pdf.Page) (words []layout.Word, rules []layout.Rule) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Warn("content decoding panicked", zap.Int("page", p.number), zap.Any("panic", rec))
			words, rules = nil, nil
		}
	}()

	content := page.Content()

	glyphs := make([]layout.Glyph, 0, len(content.Text))
	for _, t := range content.Text {
		size := t.FontSize
		glyphs = append(glyphs, layout.Glyph{
			Text:   t.S,
			X:      t.X,
			Top:    p.height - (t.Y + size),
			Bottom: p.height - t.Y,
			Width:  t.W,
			Size:   size,
		})
	}

	for _, r := range content.Rect {
		rules = append(rules, layout.Rule{
			X0:     r.Min.X,
			X1:     r.Max.X,
			Top:    p.height - r.Max.Y,
			Bottom: p.height - r.Min.Y,
		})
	}

	return layout.BuildWords(glyphs), rules
}

// mediaBox reads the page size, following Parent links for inherited boxes
func mediaBox(page pdf.Page) (width, height float64) {
	v := page.V
	for i := 0; i < maxInheritDepth && !v.IsNull(); i++ {
		box := v.Key("MediaBox")
		if box.Len() == 4 {
			w := box.Index(2).Float64() - box.Index(0).Float64()
			h := box.Index(3).Float64() - box.Index(1).Float64()
			if w > 0 && h > 0 {
				return w, h
			}
		}
		v = v.Key("Parent")
	}
	return defaultPageWidth, defaultPageHeight
}
