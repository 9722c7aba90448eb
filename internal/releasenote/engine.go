package releasenote

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-release-notes/internal/layout"
)

// ErrNilDocument is returned when Parse is called without a document
var ErrNilDocument = errors.New("document is nil")

// DefaultStrategies is the default strategy chain: explicit columns first,
// then drawn rules, then text gaps.
func DefaultStrategies() []layout.TableSettings {
	return []layout.TableSettings{
		layout.DefaultTableSettings(layout.StrategyExplicit),
		layout.DefaultTableSettings(layout.StrategyLines),
		layout.DefaultTableSettings(layout.StrategyText),
	}
}

// Engine turns release-note documents into records. An Engine holds only
// configuration and is safe for concurrent use; all per-document state lives
// in the parse started by each Parse call.
type Engine struct {
	vocab         Vocabulary
	lex           *lexicon
	strategies    []layout.TableSettings
	defaultLayout *layout.ColumnLayout
	minRows       int
	logger        *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithVocabulary replaces the built-in vocabulary
func WithVocabulary(v Vocabulary) Option {
	return func(e *Engine) { e.vocab = v }
}

// WithStrategies replaces the strategy chain. Strategies are tried in order.
func WithStrategies(strategies ...layout.TableSettings) Option {
	return func(e *Engine) {
		e.strategies = append([]layout.TableSettings(nil), strategies...)
	}
}

// WithDefaultLayout sets the column layout used before any page has shown
// header words
func WithDefaultLayout(l *layout.ColumnLayout) Option {
	return func(e *Engine) { e.defaultLayout = l }
}

// WithLogger sets the logger used for per-page diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMinRows sets how many data rows a strategy must yield to win
func WithMinRows(n int) Option {
	return func(e *Engine) { e.minRows = n }
}

// NewEngine creates an engine. It fails only when the vocabulary is invalid.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		vocab:      DefaultVocabulary(),
		strategies: DefaultStrategies(),
		minRows:    1,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.minRows < 1 {
		e.minRows = 1
	}

	lex, err := compileVocabulary(e.vocab)
	if err != nil {
		return nil, fmt.Errorf("invalid vocabulary: %w", err)
	}
	e.lex = lex
	return e, nil
}

// Vocabulary returns the vocabulary the engine classifies with
func (e *Engine) Vocabulary() Vocabulary {
	return e.vocab
}

// Parse extracts metadata and the ordered, de-duplicated change-log entries
// of a document. Pages that yield nothing are skipped, never reported as
// errors.
func (e *Engine) Parse(doc Document) (*Record, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}

	p := newParse(e)
	var raw strings.Builder

	for _, page := range doc.Pages() {
		if page == nil {
			continue
		}
		h := p.harvest(page)
		raw.WriteString(h.text)
		raw.WriteString("\n")

		before := len(p.entries)
		p.walkPage(h, page.Number())

		e.logger.Debug("page parsed",
			zap.Int("page", page.Number()),
			zap.String("strategy", string(h.strategy)),
			zap.Int("tables", len(h.tables)),
			zap.Int("slots", len(p.entries)-before),
		)
	}
	p.finalizeOpen()

	text := raw.String()
	meta := e.lex.extractMetadata(text)
	found := p.completed()
	items := Dedup(found)

	rec := &Record{
		Version:  meta.Version,
		Security: meta.Security,
		Entries:  make([]string, 0, len(items)),
		Items:    items,
		RawText:  text,
	}
	for _, item := range items {
		rec.Entries = append(rec.Entries, item.Render())
	}

	e.logger.Debug("document parsed",
		zap.String("version", rec.Version),
		zap.Int("entries", len(rec.Entries)),
		zap.Int("duplicates", len(found)-len(items)),
	)
	return rec, nil
}

// ExtractMetadata runs only the metadata patterns over text
func (e *Engine) ExtractMetadata(text string) Metadata {
	return e.lex.extractMetadata(text)
}

// parse holds the state of one Parse call. It is discarded afterwards so no
// forward-fill value, cached layout or open entry leaks into the next
// document.
type parse struct {
	e   *Engine
	lex *lexicon

	layout *layout.ColumnLayout

	lastType     string
	lastCategory string

	section    ChangeType
	collecting bool
	active     *compiledKind
	open       *pendingEntry

	// entries in document order; a false in filled marks a slot reserved
	// for a text entry that was never completed
	entries []Entry
	filled  []bool
}

func newParse(e *Engine) *parse {
	return &parse{e: e, lex: e.lex, collecting: true}
}

func (p *parse) emit(entry Entry) {
	p.entries = append(p.entries, entry)
	p.filled = append(p.filled, true)
}

func (p *parse) reserve() int {
	p.entries = append(p.entries, Entry{})
	p.filled = append(p.filled, false)
	return len(p.entries) - 1
}

func (p *parse) fill(slot int, entry Entry) {
	p.entries[slot] = entry
	p.filled[slot] = true
}

// completed returns the filled entries in order
func (p *parse) completed() []Entry {
	out := make([]Entry, 0, len(p.entries))
	for i, entry := range p.entries {
		if p.filled[i] {
			out = append(out, entry)
		}
	}
	return out
}
