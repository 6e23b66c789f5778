// Package config loads the .onvoc.yaml project file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/onvoc/internal/vocab"
)

// FileName is the project file looked up in the working directory.
const FileName = ".onvoc.yaml"

// Config holds project settings. Relative paths are resolved against the
// directory of the file they were read from.
type Config struct {
	// Terms is the root of the terms tree.
	Terms string `yaml:"terms"`

	// Vocabulary is the root of the vocabulary tree.
	Vocabulary string `yaml:"vocabulary"`

	// Prefix and Width define identifiers: Prefix:0000001 for width 7.
	Prefix string `yaml:"prefix"`
	Width  int    `yaml:"width"`

	// Journal is the SQLite operation journal. Empty disables journaling.
	Journal string `yaml:"journal,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Prefix:   vocab.DefaultIDScheme.Prefix,
		Width:    vocab.DefaultIDScheme.Width,
		LogLevel: "info",
	}
}

// Load reads path strictly: unknown keys are errors. Keys absent from the
// file keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	base := filepath.Dir(path)
	cfg.Terms = resolve(base, cfg.Terms)
	cfg.Vocabulary = resolve(base, cfg.Vocabulary)
	cfg.Journal = resolve(base, cfg.Journal)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads FileName from dir if it exists. found is false, with
// defaults, when there is no such file.
func Discover(dir string) (cfg Config, found bool, err error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Default(), false, nil
	}
	cfg, err = Load(path)
	if err != nil {
		return Config{}, true, err
	}
	return cfg, true, nil
}

// Validate checks identifier settings and the log level.
func (c Config) Validate() error {
	if err := c.Scheme().Validate(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Scheme returns the identifier scheme.
func (c Config) Scheme() vocab.IDScheme {
	return vocab.IDScheme{Prefix: c.Prefix, Width: c.Width}
}

// Level parses LogLevel. Empty means info.
func (c Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log_level %q", c.LogLevel)
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
