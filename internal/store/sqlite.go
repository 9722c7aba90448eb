package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/a3tai/mcp-release-notes/internal/releasenote"
)

const schema = `
CREATE TABLE IF NOT EXISTS notes (
    id          TEXT PRIMARY KEY,
    version     TEXT NOT NULL UNIQUE,
    openssl     TEXT NOT NULL,
    openssh     TEXT NOT NULL,
    raw_text    TEXT NOT NULL,
    source_name TEXT NOT NULL,
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
    note_id     TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
    position    INTEGER NOT NULL,
    change_type TEXT NOT NULL,
    label       TEXT NOT NULL,
    category    TEXT NOT NULL,
    description TEXT NOT NULL,
    ticket_id   TEXT NOT NULL,
    page        INTEGER NOT NULL,
    source      TEXT NOT NULL,
    rendered    TEXT NOT NULL,
    PRIMARY KEY (note_id, position)
);

CREATE INDEX IF NOT EXISTS idx_entries_note ON entries(note_id);
`

type options struct {
	busyTimeout int
	synchronous string
	mkdirAll    bool
	logger      *zap.Logger
}

func defaults() options {
	return options{
		busyTimeout: 10_000,
		synchronous: "NORMAL",
		logger:      zap.NewNop(),
	}
}

// Option customises Open
type Option func(*options)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(o *options) { o.busyTimeout = ms } }

// WithSynchronous sets PRAGMA synchronous. Default: "NORMAL".
func WithSynchronous(mode string) Option { return func(o *options) { o.synchronous = mode } }

// WithMkdirAll creates the parent directories of the database file
func WithMkdirAll() Option { return func(o *options) { o.mkdirAll = true } }

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// SQLiteStore is the Store backed by modernc.org/sqlite
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (or creates) the archive database at path and applies the schema
func Open(path string, opts ...Option) (*SQLiteStore, error) {
	cfg := defaults()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	// Connection-scoped pragmas go in the DSN so every pooled connection gets them
	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_pragma=synchronous(%s)",
		path, cfg.busyTimeout, cfg.synchronous)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: journal_mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: exec schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	return &SQLiteStore{db: db, logger: cfg.logger}, nil
}

// OpenMemory opens an in-memory store for tests. A single connection keeps
// every query on the same database.
func OpenMemory(t testing.TB, opts ...Option) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:", opts...)
	if err != nil {
		t.Fatalf("store.OpenMemory: %v", err)
	}
	s.db.SetMaxOpenConns(1)
	t.Cleanup(func() { s.Close() })
	return s
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save archives a parsed record. A record whose version is already archived
// is rejected with ErrDuplicateVersion.
func (s *SQLiteStore) Save(ctx context.Context, rec *releasenote.Record, sourceName string) (*Note, error) {
	if rec == nil {
		return nil, errors.New("store: nil record")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM notes WHERE version = ?`, rec.Version).Scan(&exists)
	if err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateVersion, rec.Version)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: check version: %w", err)
	}

	note := &Note{
		ID:         uuid.NewString(),
		Version:    rec.Version,
		Security:   rec.Security,
		SourceName: sourceName,
		CreatedAt:  time.Now().UTC(),
		EntryCount: len(rec.Items),
		Entries:    make([]string, 0, len(rec.Items)),
		Items:      rec.Items,
		RawText:    rec.RawText,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO notes (id, version, openssl, openssh, raw_text, source_name, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		note.ID, note.Version, note.Security.TLS, note.Security.SSH, note.RawText, note.SourceName,
		note.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("store: insert note: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (note_id, position, change_type, label, category, description, ticket_id, page, source, rendered)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("store: prepare entries: %w", err)
	}
	defer stmt.Close()

	for i, item := range rec.Items {
		rendered := item.Render()
		_, err := stmt.ExecContext(ctx, note.ID, i, string(item.Type), item.Label, item.Category,
			item.Description, item.TicketID, item.Page, string(item.Source), rendered)
		if err != nil {
			return nil, fmt.Errorf("store: insert entry %d: %w", i, err)
		}
		note.Entries = append(note.Entries, rendered)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}

	s.logger.Debug("archived release note",
		zap.String("version", note.Version),
		zap.String("id", note.ID),
		zap.Int("entries", note.EntryCount))
	return note, nil
}

// Get returns the note archived under version, with its entries and raw text
func (s *SQLiteStore) Get(ctx context.Context, version string) (*Note, error) {
	note, err := s.scanNote(s.db.QueryRowContext(ctx, selectNote+` WHERE n.version = ?`, version))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, version)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", version, err)
	}

	if err := s.loadEntries(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// List returns every archived note, newest version first, without entries
// or raw text
func (s *SQLiteStore) List(ctx context.Context) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, selectNote)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	notes := []Note{}
	for rows.Next() {
		note, err := s.scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list: %w", err)
		}
		note.RawText = ""
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}

	sortNewestFirst(notes)
	return notes, nil
}

// Search returns notes whose raw text contains every keyword, newest version
// first. Each hit carries the entries that contain every keyword, compared
// case-insensitively.
func (s *SQLiteStore) Search(ctx context.Context, keywords []string) ([]SearchHit, error) {
	hits := []SearchHit{}
	if len(keywords) == 0 {
		return hits, nil
	}

	clauses := make([]string, len(keywords))
	args := make([]any, len(keywords))
	for i, kw := range keywords {
		clauses[i] = `n.raw_text LIKE ? ESCAPE '\'`
		args[i] = "%" + escapeLike(kw) + "%"
	}

	rows, err := s.db.QueryContext(ctx, selectNote+` WHERE `+strings.Join(clauses, " AND "), args...)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}

	var notes []Note
	for rows.Next() {
		note, err := s.scanNote(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("store: search: %w", err)
		}
		note.RawText = ""
		notes = append(notes, *note)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}

	sortNewestFirst(notes)

	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}

	for i := range notes {
		if err := s.loadEntries(ctx, &notes[i]); err != nil {
			return nil, err
		}
		matches := []string{}
		for _, entry := range notes[i].Entries {
			if containsAll(strings.ToLower(entry), lowered) {
				matches = append(matches, entry)
			}
		}
		notes[i].Items = nil
		hits = append(hits, SearchHit{Note: notes[i], Matches: matches})
	}
	return hits, nil
}

// Delete removes the note archived under version and its entries
func (s *SQLiteStore) Delete(ctx context.Context, version string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE version = ?`, version)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", version, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", version, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, version)
	}

	s.logger.Debug("deleted release note", zap.String("version", version))
	return nil
}

// Count returns the number of archived notes
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

const selectNote = `SELECT n.id, n.version, n.openssl, n.openssh, n.raw_text, n.source_name, n.created_at,
       (SELECT COUNT(*) FROM entries e WHERE e.note_id = n.id)
  FROM notes n`

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanNote(row scanner) (*Note, error) {
	var note Note
	var created string
	err := row.Scan(&note.ID, &note.Version, &note.Security.TLS, &note.Security.SSH,
		&note.RawText, &note.SourceName, &created, &note.EntryCount)
	if err != nil {
		return nil, err
	}

	note.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", created, err)
	}
	return &note, nil
}

func (s *SQLiteStore) loadEntries(ctx context.Context, note *Note) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT change_type, label, category, description, ticket_id, page, source, rendered
		   FROM entries WHERE note_id = ? ORDER BY position`, note.ID)
	if err != nil {
		return fmt.Errorf("store: entries of %s: %w", note.Version, err)
	}
	defer rows.Close()

	note.Entries = []string{}
	note.Items = []releasenote.Entry{}
	for rows.Next() {
		var item releasenote.Entry
		var changeType, source, rendered string
		if err := rows.Scan(&changeType, &item.Label, &item.Category, &item.Description,
			&item.TicketID, &item.Page, &source, &rendered); err != nil {
			return fmt.Errorf("store: entries of %s: %w", note.Version, err)
		}
		item.Type = releasenote.ChangeType(changeType)
		item.Source = releasenote.Source(source)
		note.Items = append(note.Items, item)
		note.Entries = append(note.Entries, rendered)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("store: entries of %s: %w", note.Version, err)
	}
	return nil
}

func sortNewestFirst(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if c := compareVersions(notes[i].Version, notes[j].Version); c != 0 {
			return c > 0
		}
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func containsAll(s string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(s, t) {
			return false
		}
	}
	return true
}
