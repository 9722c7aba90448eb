package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_ValidateFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0o644))
		return path
	}

	valid := write("valid.pdf", buildPDF(false, "TrusGuard v3.1.0"))
	text := write("notes.txt", []byte("hello"))
	empty := write("empty.pdf", nil)
	garbage := write("garbage.pdf", []byte("not a pdf at all"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.pdf"), 0o755))

	validator := NewValidator(1024 * 1024)

	tests := []struct {
		name    string
		path    string
		wantErr error
		ok      bool
	}{
		{name: "valid pdf", path: valid, ok: true},
		{name: "empty path", path: ""},
		{name: "missing file", path: filepath.Join(dir, "missing.pdf"), wantErr: os.ErrNotExist},
		{name: "wrong extension", path: text, wantErr: ErrNotPDF},
		{name: "empty file", path: empty, wantErr: ErrEmptyFile},
		{name: "directory", path: filepath.Join(dir, "folder.pdf")},
		{name: "garbage", path: garbage, wantErr: ErrInvalidStructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateFile(tt.path)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidator_SizeLimit(t *testing.T) {
	data := buildPDF(false, "TrusGuard v3.1.0")
	validator := NewValidator(int64(len(data) - 1))

	err := validator.ValidateBytes("notes.pdf", data)
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Equal(t, int64(len(data)-1), validator.MaxFileSize())
}

func TestValidator_ValidateBytes(t *testing.T) {
	validator := NewValidator(0)

	assert.NoError(t, validator.ValidateBytes("Notes.PDF", buildPDF(false, "ok")))
	assert.ErrorIs(t, validator.ValidateBytes("notes.docx", []byte("x")), ErrNotPDF)
	assert.ErrorIs(t, validator.ValidateBytes("notes.pdf", nil), ErrEmptyFile)
	assert.ErrorIs(t, validator.ValidateBytes("notes.pdf", []byte("%PDF-1.4 junk")), ErrInvalidStructure)
}
