package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-release-notes/internal/releasenote"
)

func TestSQLiteStore_Stats(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	empty, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.Notes)
	assert.Empty(t, empty.EntriesByType)
	assert.Empty(t, empty.OldestVersion)

	notes := []*releasenote.Record{
		record("3.1.10",
			entry(releasenote.ChangeImprovement, "개선", "", "IPSec 터널 재연결 개선", ""),
			entry(releasenote.ChangeIssueFix, "이슈", "", "로그 누락 수정", ""),
		),
		record("3.1.2",
			entry(releasenote.ChangeImprovement, "개선", "", "관리자 UI 응답 속도 개선", ""),
		),
		record(releasenote.UnknownVersion),
	}
	notes[1].Security.TLS = "1.1.1w"
	for i, rec := range notes {
		_, err := s.Save(ctx, rec, "note.pdf")
		require.NoError(t, err, i)
	}

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Notes)
	assert.Equal(t, 3, st.Entries)
	assert.Equal(t, map[string]int{"improvement": 2, "issue-fix": 1}, st.EntriesByType)
	assert.Equal(t, map[string]int{"3.0.13": 2, "1.1.1w": 1}, st.TLSVersions)
	assert.Equal(t, map[string]int{releasenote.NoComponent: 3}, st.SSHVersions)
	assert.Equal(t, "3.1.2", st.OldestVersion)
	assert.Equal(t, "3.1.10", st.NewestVersion)
}
