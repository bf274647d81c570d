package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingExplicit(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadFromXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path := filepath.Join(dir, "kobo-highlights", "config.toml")
	require.Equal(t, path, DefaultPath())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`
db = "/media/KOBOeReader/.kobo/KoboReader.sqlite"
md_dir = "~/notes/kobo"
formats = ["markdown", "html"]
keep_filename_chapter = true
books_dir = "/media/KOBOeReader"
log_level = "debug"
sibling_offsets = [1, 2]
colour = "red"
`), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/media/KOBOeReader/.kobo/KoboReader.sqlite", cfg.DB)
	assert.Equal(t, "~/notes/kobo", cfg.MDDir)
	assert.Equal(t, "html", cfg.HTMLDir, "unset keys keep defaults")
	assert.Equal(t, []string{"markdown", "html"}, cfg.Formats)
	assert.True(t, cfg.KeepFilenameChapter)
	assert.Equal(t, "/media/KOBOeReader", cfg.BooksDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []int{1, 2}, cfg.SiblingOffsets)
	assert.Equal(t, []string{"colour"}, cfg.Unknown)
}

func TestLoadEmptyFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	require.NoError(t, os.WriteFile(path, []byte("formats = []\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"markdown"}, cfg.Formats)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	require.NoError(t, os.WriteFile(path, []byte("db = [unterminated\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
