package store

import (
	"context"
	"fmt"

	"github.com/a3tai/mcp-release-notes/internal/releasenote"
)

// Stats counts notes and entries and tallies the security component
// versions across the archive
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}

	if err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM notes), (SELECT COUNT(*) FROM entries)`,
	).Scan(&st.Notes, &st.Entries); err != nil {
		return nil, fmt.Errorf("store: stats: %w", err)
	}

	var err error
	if st.EntriesByType, err = s.tally(ctx, `SELECT change_type, COUNT(*) FROM entries GROUP BY change_type`); err != nil {
		return nil, err
	}
	if st.TLSVersions, err = s.tally(ctx, `SELECT openssl, COUNT(*) FROM notes GROUP BY openssl`); err != nil {
		return nil, err
	}
	if st.SSHVersions, err = s.tally(ctx, `SELECT openssh, COUNT(*) FROM notes GROUP BY openssh`); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT version FROM notes WHERE version <> ?`, releasenote.UnknownVersion)
	if err != nil {
		return nil, fmt.Errorf("store: stats versions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("store: stats versions: %w", err)
		}
		if st.OldestVersion == "" || compareVersions(v, st.OldestVersion) < 0 {
			st.OldestVersion = v
		}
		if st.NewestVersion == "" || compareVersions(v, st.NewestVersion) > 0 {
			st.NewestVersion = v
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: stats versions: %w", err)
	}

	return st, nil
}

func (s *SQLiteStore) tally(ctx context.Context, query string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: tally: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("store: tally: %w", err)
		}
		out[key] = n
	}
	return out, rows.Err()
}
