package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var usage bytes.Buffer
	return Load("mcp-release-notes", args, &usage)
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, ModeStdio, cfg.Mode)
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, int64(DefaultMaxFileSize), cfg.MaxFileSize)
	assert.Empty(t, cfg.VocabularyFile)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, cfg.ArchiveDirectory)
	assert.Equal(t, filepath.Join(wd, DefaultDatabaseName), cfg.DatabasePath)
}

func TestLoad_Flags(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "notes")
	vocab := filepath.Join(t.TempDir(), "vocab.yaml")
	require.NoError(t, os.WriteFile(vocab, []byte("product_name: TrusGuard\n"), 0o644))

	cfg, err := load(t,
		"--mode=server",
		"--host=0.0.0.0",
		"--port=9090",
		"--dir", dir,
		"--db=/tmp/archive.db",
		"--vocab", vocab,
		"--loglevel=DEBUG",
		"--maxfilesize=1024",
	)
	require.NoError(t, err)

	assert.True(t, cfg.IsServerMode())
	assert.Equal(t, "0.0.0.0:9090", cfg.Address())
	assert.Equal(t, dir, cfg.ArchiveDirectory)
	assert.Equal(t, "/tmp/archive.db", cfg.DatabasePath)
	assert.Equal(t, vocab, cfg.VocabularyFile)
	assert.True(t, cfg.IsDebug())
	assert.Equal(t, int64(1024), cfg.MaxFileSize)

	info, err := os.Stat(dir)
	require.NoError(t, err, "archive directory is created")
	assert.True(t, info.IsDir())
}

func TestLoad_DatabaseDefaultsToArchiveDirectory(t *testing.T) {
	dir := t.TempDir()
	cfg, err := load(t, "--dir", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultDatabaseName), cfg.DatabasePath)
}

func TestLoad_Environment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RELNOTES_MODE", "server")
	t.Setenv("RELNOTES_PORT", "7070")
	t.Setenv("RELNOTES_DIR", dir)
	t.Setenv("RELNOTES_LOGLEVEL", "warn")

	cfg, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, ModeServer, cfg.Mode)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, dir, cfg.ArchiveDirectory)
	assert.Equal(t, "warn", cfg.LogLevel)

	cfg, err = load(t, "--port=7171")
	require.NoError(t, err)
	assert.Equal(t, 7171, cfg.Port, "flags win over the environment")
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(t.TempDir(), "relnotes.yaml")
	content := "mode: server\nport: 6060\ndir: " + dir + "\nloglevel: error\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	cfg, err := load(t, "--config", file, "--loglevel=info")
	require.NoError(t, err)
	assert.Equal(t, ModeServer, cfg.Mode)
	assert.Equal(t, 6060, cfg.Port)
	assert.Equal(t, dir, cfg.ArchiveDirectory)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, file, cfg.ConfigFile)

	_, err = load(t, "--config", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := load(t, "--version")
	assert.ErrorIs(t, err, ErrVersionRequested)

	_, err = load(t, "--dir", dir, "--mode=http")
	assert.ErrorContains(t, err, "invalid configuration")

	_, err = load(t, "--dir", dir, "--no-such-flag")
	assert.Error(t, err)

	_, err = load(t, "--dir", dir, "--vocab", filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "vocabulary file")
}
