// Package store persists parsed release notes.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/a3tai/mcp-release-notes/internal/releasenote"
)

var (
	// ErrNotFound is returned when no note exists for a version
	ErrNotFound = errors.New("release note not found")
	// ErrDuplicateVersion is returned when a note for the version is already archived
	ErrDuplicateVersion = errors.New("release note version already archived")
)

// Note is an archived release note
type Note struct {
	ID         string                         `json:"id"`
	Version    string                         `json:"version"`
	Security   releasenote.SecurityComponents `json:"security_components"`
	SourceName string                         `json:"source_name"`
	CreatedAt  time.Time                      `json:"created_at"`
	EntryCount int                            `json:"entry_count"`
	Entries    []string                       `json:"entries,omitempty"`
	Items      []releasenote.Entry            `json:"items,omitempty"`
	RawText    string                         `json:"raw_text,omitempty"`
}

// SearchHit is a note whose text contains every keyword, with the entries
// that do too
type SearchHit struct {
	Note    Note     `json:"note"`
	Matches []string `json:"matches"`
}

// Stats summarises the archive
type Stats struct {
	Notes         int            `json:"notes"`
	Entries       int            `json:"entries"`
	EntriesByType map[string]int `json:"entries_by_type"`
	TLSVersions   map[string]int `json:"tls_versions"`
	SSHVersions   map[string]int `json:"ssh_versions"`
	OldestVersion string         `json:"oldest_version,omitempty"`
	NewestVersion string         `json:"newest_version,omitempty"`
}

// Store is the persistence port used by the archive service
type Store interface {
	Save(ctx context.Context, rec *releasenote.Record, sourceName string) (*Note, error)
	Get(ctx context.Context, version string) (*Note, error)
	List(ctx context.Context) ([]Note, error)
	Search(ctx context.Context, keywords []string) ([]SearchHit, error)
	Delete(ctx context.Context, version string) error
	Count(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}
