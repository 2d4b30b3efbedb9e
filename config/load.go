package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
	"github.com/joeshaw/envdecode"

	"github.com/Neumenon/toon/toon"
)

// Format names a config file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
	FormatTOON Format = "toon"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	case ".toon":
		return FormatTOON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}

// Load reads a config file and layers it over the defaults.
func Load(path string) (*Config, error) {
	m, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return build(m)
}

// Parse layers data in the given format over the defaults.
func Parse(data []byte, format Format) (*Config, error) {
	m, err := decodeMap(data, format)
	if err != nil {
		return nil, err
	}
	return build(m)
}

// FromEnv layers TOON_* environment variables over the defaults.
func FromEnv() (*Config, error) {
	env, err := envValues()
	if err != nil {
		return nil, err
	}
	return build(env)
}

// Resolve layers the file at path (skipped when path is empty) and then the
// environment over the defaults.
func Resolve(path string) (*Config, error) {
	var layers []map[string]any
	if path != "" {
		m, err := readFile(path)
		if err != nil {
			return nil, err
		}
		layers = append(layers, m)
	}
	env, err := envValues()
	if err != nil {
		return nil, err
	}
	layers = append(layers, env)
	return build(layers...)
}

func readFile(path string) (map[string]any, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	m, err := decodeMap(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func decodeMap(data []byte, format Format) (map[string]any, error) {
	m := make(map[string]any)
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	case FormatTOML:
		err = toml.Unmarshal(data, &m)
	case FormatJSON:
		err = json.Unmarshal(data, &m)
	case FormatTOON:
		m, err = decodeTOON(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", format, err)
	}
	return m, nil
}

func decodeTOON(data []byte) (map[string]any, error) {
	opts := toon.DefaultDecodeOptions()
	opts.AllowEmpty = true
	v, err := toon.DecodeWithOptions(string(data), opts)
	if err != nil {
		return nil, err
	}
	m, ok := v.Interface().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("root must be an object, got %s", v.Kind())
	}
	return m, nil
}

// build merges the layers in order and decodes the result over Default().
func build(layers ...map[string]any) (*Config, error) {
	merged := make(map[string]any)
	for i, layer := range layers {
		if err := mergo.Map(&merged, normalizeKeys(layer), mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("config: merge layer %d: %w", i, err)
		}
	}

	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "config",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
		),
		Result: cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("config: create decoder: %w", err)
	}
	if err := dec.Decode(merged); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeKeys lowercases keys and maps dashes to underscores, recursively.
// The result never shares maps with m.
func normalizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		key := strings.ReplaceAll(strings.ToLower(k), "-", "_")
		if nested, ok := v.(map[string]any); ok {
			v = normalizeKeys(nested)
		}
		out[key] = v
	}
	return out
}

// envConfig lists the recognised environment variables. Every field is a
// string so that unset variables can be told apart from zero values.
type envConfig struct {
	Preset        string `env:"TOON_PRESET"`
	Indent        string `env:"TOON_INDENT"`
	Delimiter     string `env:"TOON_DELIMITER"`
	KeyFolding    string `env:"TOON_KEY_FOLDING"`
	Flatten       string `env:"TOON_FLATTEN"`
	FlattenDepth  string `env:"TOON_FLATTEN_DEPTH"`
	DecodeIndent  string `env:"TOON_DECODE_INDENT"`
	Lenient       string `env:"TOON_LENIENT"`
	AllowEmpty    string `env:"TOON_ALLOW_EMPTY"`
	PathExpansion string `env:"TOON_PATH_EXPANSION"`
	LogLevel      string `env:"TOON_LOG_LEVEL"`
	LogFormat     string `env:"TOON_LOG_FORMAT"`
}

func envValues() (map[string]any, error) {
	var env envConfig
	if err := envdecode.Decode(&env); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: read environment: %w", err)
	}

	m := make(map[string]any)
	set := func(section, key, val string) {
		if val == "" {
			return
		}
		sec, ok := m[section].(map[string]any)
		if !ok {
			sec = make(map[string]any)
			m[section] = sec
		}
		sec[key] = val
	}
	set("encode", "preset", env.Preset)
	set("encode", "indent", env.Indent)
	set("encode", "delimiter", env.Delimiter)
	set("encode", "key_folding", env.KeyFolding)
	set("encode", "flatten", env.Flatten)
	set("encode", "flatten_depth", env.FlattenDepth)
	set("decode", "indent", env.DecodeIndent)
	set("decode", "lenient", env.Lenient)
	set("decode", "allow_empty", env.AllowEmpty)
	set("decode", "path_expansion", env.PathExpansion)
	set("log", "level", env.LogLevel)
	set("log", "format", env.LogFormat)
	return m, nil
}
