package releasenote

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultVocabulary(t *testing.T) {
	v := DefaultVocabulary()
	require.NoError(t, v.Validate())

	assert.Equal(t, "TrusGuard", v.ProductName)
	assert.Equal(t, "OpenSSL", v.TLSLibrary)
	assert.Equal(t, "OpenSSH", v.SSHLibrary)
	assert.Equal(t, 5, v.MinDescriptionLength)
	require.Len(t, v.ChangeKinds, 5)
	assert.Equal(t, ChangeImprovement, v.ChangeKinds[0].Type)
	assert.Equal(t, ChangeOther, v.ChangeKinds[4].Type)
}

func TestLoadVocabulary(t *testing.T) {
	dir := t.TempDir()

	t.Run("overrides keep defaults", func(t *testing.T) {
		path := filepath.Join(dir, "vocab.yaml")
		require.NoError(t, os.WriteFile(path, []byte("product_name: SecuOS\nmin_description_length: 3\n"), 0o644))

		v, err := LoadVocabulary(path)
		require.NoError(t, err)
		assert.Equal(t, "SecuOS", v.ProductName)
		assert.Equal(t, 3, v.MinDescriptionLength)
		assert.Equal(t, "OpenSSL", v.TLSLibrary)
		assert.NotEmpty(t, v.ChangeKinds)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("ignore_patterns: ['([']\n"), 0o644))

		_, err := LoadVocabulary(path)
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("change_kinds: [\n"), 0o644))

		_, err := LoadVocabulary(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadVocabulary(filepath.Join(dir, "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestVocabularyValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Vocabulary)
	}{
		{"no product", func(v *Vocabulary) { v.ProductName = " " }},
		{"no tls library", func(v *Vocabulary) { v.TLSLibrary = "" }},
		{"no kinds", func(v *Vocabulary) { v.ChangeKinds = nil }},
		{"unknown type", func(v *Vocabulary) { v.ChangeKinds[0].Type = "refactor" }},
		{"kind without label", func(v *Vocabulary) { v.ChangeKinds[0].Label = "" }},
		{"kind without keywords", func(v *Vocabulary) {
			v.ChangeKinds[2].Keywords = nil
			v.ChangeKinds[2].Icons = nil
		}},
		{"no summary header", func(v *Vocabulary) { v.HeaderLabels.Summary = nil }},
		{"bad ticket pattern", func(v *Vocabulary) { v.TicketPattern = "[A-" }},
		{"negative length", func(v *Vocabulary) { v.MinDescriptionLength = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := DefaultVocabulary()
			tt.mutate(&v)
			assert.Error(t, v.Validate())
		})
	}
}

func TestKindOf(t *testing.T) {
	lex, err := compileVocabulary(DefaultVocabulary())
	require.NoError(t, err)

	tests := []struct {
		in   string
		want ChangeType
	}{
		{"개선", ChangeImprovement},
		{"[개선]", ChangeImprovement},
		{"기능 개선", ChangeImprovement},
		{"Improvements", ChangeImprovement},
		{"↑", ChangeImprovement},
		{"신규", ChangeNewFeature},
		{"New", ChangeNewFeature},
		{"+", ChangeNewFeature},
		{"이슈", ChangeIssueFix},
		{"Issue", ChangeIssueFix},
		{"버그 수정", ChangeBugFix},
		{"Bugfix", ChangeBugFix},
		{"Feature", ChangeOther},
		{"기능", ChangeOther},
	}
	for _, tt := range tests {
		k := lex.kindOf(tt.in)
		require.NotNil(t, k, tt.in)
		assert.Equal(t, tt.want, k.Type, tt.in)
	}

	for _, in := range []string{"", "메모", "prefix list", "renewal", "Network"} {
		assert.Nil(t, lex.kindOf(in), in)
	}
}

func TestLeadingCategory(t *testing.T) {
	lex, err := compileVocabulary(DefaultVocabulary())
	require.NoError(t, err)

	cat, rest, ok := lex.leadingCategory("SSL VPN 접속 안정성 향상")
	require.True(t, ok)
	assert.Equal(t, "SSL VPN", cat)
	assert.Equal(t, "접속 안정성 향상", rest)

	cat, rest, ok = lex.leadingCategory("ips: 룰 업데이트")
	require.True(t, ok)
	assert.Equal(t, "ips", cat)
	assert.Equal(t, "룰 업데이트", rest)

	_, _, ok = lex.leadingCategory("HAS 설정")
	assert.False(t, ok)
}
