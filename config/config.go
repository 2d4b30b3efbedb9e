// Package config loads codec and logging settings for the toon command
// line tools.
//
// Settings are layered: built-in defaults first, then an optional file
// (YAML, TOML, JSON or TOON), then TOON_* environment variables. Later
// layers override earlier ones key by key.
//
//	cfg, err := config.Resolve("toon.yaml")
//	if err != nil {
//		return err
//	}
//	opts, err := cfg.Encode.Options()
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Neumenon/toon/toon"
)

var (
	// ErrUnsupportedFormat is returned for config files with an unknown extension.
	ErrUnsupportedFormat = errors.New("config: unsupported format")

	// ErrInvalidConfig wraps every semantic configuration error.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Encode presets.
const (
	PresetDefault = "default"
	PresetCompact = "compact"
	PresetVerbose = "verbose"
)

// Log formats.
const (
	LogText = "text"
	LogJSON = "json"
)

// Config holds every setting the command line tools read.
type Config struct {
	Encode EncodeConfig `config:"encode"`
	Decode DecodeConfig `config:"decode"`
	Log    LogConfig    `config:"log"`
}

// EncodeConfig selects a preset and optionally overrides single settings
// on top of it. Zero values leave the preset's choice in place.
type EncodeConfig struct {
	Preset       string           `config:"preset"`
	Indent       int              `config:"indent"`
	Delimiter    toon.Delimiter   `config:"delimiter"`
	KeyFolding   *toon.KeyFolding `config:"key_folding"`
	Flatten      bool             `config:"flatten"`
	FlattenDepth int              `config:"flatten_depth"`
}

// DecodeConfig mirrors toon.DecodeOptions. Lenient is the negation of
// strict mode so that the zero value decodes strictly.
type DecodeConfig struct {
	Indent        int                `config:"indent"`
	Lenient       bool               `config:"lenient"`
	AllowEmpty    bool               `config:"allow_empty"`
	PathExpansion toon.PathExpansion `config:"path_expansion"`
}

type LogConfig struct {
	Level  slog.Level `config:"level"`
	Format string     `config:"format"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Encode: EncodeConfig{Preset: PresetDefault},
		Decode: DecodeConfig{Indent: 2},
		Log:    LogConfig{Level: slog.LevelInfo, Format: LogText},
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Encode.Options(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Decode.Options(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case LogText, LogJSON:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format))
	}
	return errors.Join(errs...)
}

// Options resolves the preset and overrides into encoder options.
func (c EncodeConfig) Options() (toon.EncodeOptions, error) {
	var opts toon.EncodeOptions
	switch strings.ToLower(c.Preset) {
	case PresetDefault, "":
		opts = toon.DefaultEncodeOptions()
	case PresetCompact:
		opts = toon.CompactEncodeOptions()
	case PresetVerbose:
		opts = toon.VerboseEncodeOptions()
	default:
		return opts, fmt.Errorf("%w: unknown encode preset %q", ErrInvalidConfig, c.Preset)
	}
	if c.Indent != 0 {
		opts.Indent = c.Indent
	}
	if c.Delimiter != 0 {
		opts.Delimiter = c.Delimiter
	}
	if c.KeyFolding != nil {
		opts.KeyFolding = *c.KeyFolding
	}
	if c.Flatten {
		opts.Flatten = true
	}
	if c.FlattenDepth != 0 {
		opts.FlattenDepth = c.FlattenDepth
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("%w: encode: %w", ErrInvalidConfig, err)
	}
	return opts, nil
}

// Options converts the settings into decoder options.
func (c DecodeConfig) Options() (toon.DecodeOptions, error) {
	opts := toon.DecodeOptions{
		Indent:        c.Indent,
		Strict:        !c.Lenient,
		AllowEmpty:    c.AllowEmpty,
		PathExpansion: c.PathExpansion,
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("%w: decode: %w", ErrInvalidConfig, err)
	}
	return opts, nil
}

// Logger is shorthand for c.Log.Logger(w).
func (c *Config) Logger(w io.Writer) *slog.Logger {
	return c.Log.Logger(w)
}

// Logger builds a slog logger writing to w in the configured format.
func (c LogConfig) Logger(w io.Writer) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: c.Level}
	if strings.EqualFold(c.Format, LogJSON) {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}
