// Package config loads kobo-highlights settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	appName        = "kobo-highlights"
	configFileName = "config.toml"
)

// Config holds file-level settings. Command-line flags take precedence.
type Config struct {
	DB                  string   `toml:"db"`
	Out                 string   `toml:"out"`
	MDDir               string   `toml:"md_dir"`
	HTMLDir             string   `toml:"html_dir"`
	Formats             []string `toml:"formats"`
	KeepFilenameChapter bool     `toml:"keep_filename_chapter"`
	BooksDir            string   `toml:"books_dir"`
	LogLevel            string   `toml:"log_level"`
	SiblingOffsets      []int    `toml:"sibling_offsets"`

	// Unknown lists keys present in the file that no setting uses.
	Unknown []string `toml:"-"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DB:       "KoboReader.sqlite",
		MDDir:    "notes",
		HTMLDir:  "html",
		Formats:  []string{"markdown"},
		LogLevel: "info",
	}
}

// DefaultPath returns XDG_CONFIG_HOME/kobo-highlights/config.toml or
// ~/.config/kobo-highlights/config.toml.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, configFileName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName, configFileName)
}

// Load reads path over the defaults. An empty path means DefaultPath, and a
// missing default file is not an error; a missing explicit file is.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("failed to load config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		cfg.Unknown = append(cfg.Unknown, key.String())
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = Default().Formats
	}
	return cfg, nil
}
