// toon - TOON codec CLI tool
//
// Usage:
//
//	toon encode [options] [file]            Convert JSON to TOON
//	toon decode [options] [file]            Convert TOON to JSON
//	toon validate --schema=S [options] [file] Check TOON against a JSON Schema
//	toon stream [options] [file]            Decode TOON item by item as JSON lines
//	toon version                            Print version info
//
// Settings come from --config (YAML, TOML, JSON or TOON), then TOON_*
// environment variables, then flags.
//
// If no file is given, reads from stdin.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Neumenon/toon/config"
	"github.com/Neumenon/toon/schema"
	"github.com/Neumenon/toon/toon"
)

const (
	libVersion    = "0.1.0"
	formatVersion = "3.0"
)

// errInvalid marks a document that decoded but failed validation.
var errInvalid = errors.New("document is invalid")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type command func(r io.Reader, w io.Writer, e *env) error

var commands = map[string]command{
	"encode":   cmdEncode,
	"decode":   cmdDecode,
	"validate": cmdValidate,
	"stream":   cmdStream,
}

// env carries what every command needs.
type env struct {
	cfg    *config.Config
	log    *slog.Logger
	schema string
	keyed  bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	name := args[0]
	switch name {
	case "version", "-v", "--version":
		fmt.Fprintf(stdout, "toon %s (format %s)\n", libVersion, formatVersion)
		return 0
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command: %s\n", name)
		printUsage(stderr)
		return 2
	}

	f, err := parseFlags(args[1:])
	if err != nil {
		return fail(stderr, "%v", err)
	}
	cfg, err := config.Resolve(f.configPath)
	if err != nil {
		return fail(stderr, "%v", err)
	}
	if err := f.apply(cfg); err != nil {
		return fail(stderr, "%v", err)
	}
	e := &env{cfg: cfg, log: cfg.Logger(stderr), schema: f.schemaPath, keyed: f.keyed}

	input := stdin
	if f.file != "" {
		file, err := os.Open(f.file)
		if err != nil {
			return fail(stderr, "open file: %v", err)
		}
		defer file.Close()
		input = file
	}

	if err := cmd(input, stdout, e); err != nil {
		if errors.Is(err, errInvalid) {
			return 1
		}
		return fail(stderr, "%s: %v", name, err)
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `toon - TOON codec CLI tool

Usage:
  toon encode [options] [file]              Convert JSON to TOON
  toon decode [options] [file]              Convert TOON to JSON
  toon validate --schema=S [options] [file] Check TOON against a JSON Schema
  toon stream [options] [file]              Decode TOON item by item as JSON lines
  toon version                              Print version info

Options:
  --config=PATH       Settings file (.yaml, .yml, .toml, .json, .toon)
  --preset=NAME       Encode preset: default, compact, verbose
  --indent=N          Spaces per level for encoding and decoding
  --delimiter=D       Array delimiter: comma, pipe, tab
  --fold=MODE         Key folding: off, safe, aggressive
  --flatten           Fold every single-key chain
  --lenient           Infer the indentation unit when decoding
  --schema=PATH       JSON Schema document for validate
  --keyed             stream: emit the elements of a leading root array field

Environment:
  TOON_PRESET, TOON_INDENT, TOON_DELIMITER, TOON_KEY_FOLDING, TOON_FLATTEN,
  TOON_FLATTEN_DEPTH, TOON_DECODE_INDENT, TOON_LENIENT, TOON_ALLOW_EMPTY,
  TOON_PATH_EXPANSION, TOON_LOG_LEVEL, TOON_LOG_FORMAT

If no file is given, reads from stdin.

Examples:
  echo '{"users":[{"id":1,"name":"Ada"},{"id":2,"name":"Bob"}]}' | toon encode
  # Output:
  # users[2]{id,name}:
  #   1,Ada
  #   2,Bob

  toon decode --lenient data.toon > data.json
  toon validate --schema=order.schema.json order.toon
`)
}

type flags struct {
	configPath string
	schemaPath string
	file       string
	preset     string
	delimiter  string
	fold       string
	indent     int
	flatten    bool
	lenient    bool
	keyed      bool
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{}
	for _, arg := range args {
		switch {
		case arg == "--flatten":
			f.flatten = true
		case arg == "--lenient":
			f.lenient = true
		case arg == "--keyed":
			f.keyed = true
		case strings.HasPrefix(arg, "--config="):
			f.configPath = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "--schema="):
			f.schemaPath = strings.TrimPrefix(arg, "--schema=")
		case strings.HasPrefix(arg, "--preset="):
			f.preset = strings.TrimPrefix(arg, "--preset=")
		case strings.HasPrefix(arg, "--delimiter="):
			f.delimiter = strings.TrimPrefix(arg, "--delimiter=")
		case strings.HasPrefix(arg, "--fold="):
			f.fold = strings.TrimPrefix(arg, "--fold=")
		case strings.HasPrefix(arg, "--indent="):
			n, err := parseIntArg(arg, "--indent=")
			if err != nil {
				return nil, fmt.Errorf("bad --indent: %w", err)
			}
			f.indent = n
		case arg == "-":
		case strings.HasPrefix(arg, "-"):
			return nil, fmt.Errorf("unknown flag: %s", arg)
		default:
			f.file = arg
		}
	}
	return f, nil
}

// apply layers the flags over cfg and revalidates it.
func (f *flags) apply(cfg *config.Config) error {
	if f.preset != "" {
		cfg.Encode.Preset = f.preset
	}
	if f.indent != 0 {
		cfg.Encode.Indent = f.indent
		cfg.Decode.Indent = f.indent
	}
	if f.delimiter != "" {
		if err := cfg.Encode.Delimiter.UnmarshalText([]byte(f.delimiter)); err != nil {
			return err
		}
	}
	if f.fold != "" {
		var k toon.KeyFolding
		if err := k.UnmarshalText([]byte(f.fold)); err != nil {
			return err
		}
		cfg.Encode.KeyFolding = &k
	}
	if f.flatten {
		cfg.Encode.Flatten = true
	}
	if f.lenient {
		cfg.Decode.Lenient = true
	}
	return cfg.Validate()
}

// cmdEncode: JSON -> TOON
func cmdEncode(r io.Reader, w io.Writer, e *env) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	v, err := toon.FromJSON(data)
	if err != nil {
		return err
	}
	opts, err := e.cfg.Encode.Options()
	if err != nil {
		return err
	}
	if err := toon.EncodeTo(w, v, opts, toon.WithLogger(e.log)); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// cmdDecode: TOON -> indented JSON
func cmdDecode(r io.Reader, w io.Writer, e *env) error {
	v, err := decodeInput(r, e)
	if err != nil {
		return err
	}
	return writeJSON(w, v, "  ")
}

// cmdValidate checks the input against --schema and prints one line per
// failure. The exit status is 1 when anything failed.
func cmdValidate(r io.Reader, w io.Writer, e *env) error {
	if e.schema == "" {
		return errors.New("missing --schema")
	}
	doc, err := os.ReadFile(e.schema)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	js, err := schema.CompileJSONSchema(doc)
	if err != nil {
		return err
	}
	v, err := decodeInput(r, e)
	if err != nil {
		return err
	}

	res := js.Validate(v)
	if res.Valid {
		fmt.Fprintln(w, "ok")
		return nil
	}
	for _, verr := range res.Errors {
		path := verr.Path
		if path == "" {
			path = "(root)"
		}
		fmt.Fprintf(w, "%s: %s\n", path, verr.Message)
	}
	e.log.Info("validation failed", "errors", len(res.Errors))
	return errInvalid
}

// cmdStream decodes the input lazily and writes each item as one JSON line.
func cmdStream(r io.Reader, w io.Writer, e *env) error {
	opts, err := e.cfg.Decode.Options()
	if err != nil {
		return err
	}
	options := []toon.StreamOption{toon.WithLogger(e.log)}
	if e.keyed {
		options = append(options, toon.WithKeyedArray())
	}
	dec, err := toon.NewStreamDecoder(r, opts, options...)
	if err != nil {
		return err
	}
	defer dec.Close()

	n := 0
	for v, err := range dec.All() {
		if err != nil {
			return fmt.Errorf("item %d: %w", n, err)
		}
		if err := writeJSON(w, v, ""); err != nil {
			return err
		}
		n++
	}
	if key, ok := dec.Key(); ok {
		e.log.Debug("streamed keyed array", "key", key, "items", n)
	}
	return nil
}

func decodeInput(r io.Reader, e *env) (*toon.Value, error) {
	opts, err := e.cfg.Decode.Options()
	if err != nil {
		return nil, err
	}
	dec, err := toon.NewDecoder(opts)
	if err != nil {
		return nil, err
	}
	return dec.DecodeReader(r)
}

func writeJSON(w io.Writer, v *toon.Value, indent string) error {
	data, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	if indent != "" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", indent); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func fail(w io.Writer, format string, args ...any) int {
	fmt.Fprintf(w, "toon: "+format+"\n", args...)
	return 1
}

// parseIntArg extracts an integer from a flag like "--indent=4"
func parseIntArg(arg, prefix string) (int, error) {
	return strconv.Atoi(strings.TrimPrefix(arg, prefix))
}
