// bench measures how much smaller TOON is than minified JSON.
//
// Every *.json file in the corpus directory is encoded once per preset and
// compared on two axes: bytes, and a rough token estimate in the style of
// BPE tokenizers.
//
// Usage:
//
//	bench [dir]    corpus directory, toon/testdata/golden when omitted
//
// One CSV row per file and preset goes to stdout, per-preset totals to stderr.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Neumenon/toon/toon"
)

const defaultCorpus = "toon/testdata/golden"

type preset struct {
	name string
	opts toon.EncodeOptions
}

var presets = []preset{
	{"default", toon.DefaultEncodeOptions()},
	{"compact", toon.CompactEncodeOptions()},
	{"tab", toon.EncodeOptions{Indent: 2, Delimiter: toon.Tab}},
}

// CaseResult is one corpus file encoded under one preset.
type CaseResult struct {
	Name       string
	Preset     string
	JSONBytes  int
	TOONBytes  int
	JSONTokens int
	TOONTokens int
}

// BytesPct is the byte reduction relative to JSON, in percent.
func (r CaseResult) BytesPct() float64 { return savedPct(r.JSONBytes, r.TOONBytes) }

// TokensPct is the estimated token reduction relative to JSON, in percent.
func (r CaseResult) TokensPct() float64 { return savedPct(r.JSONTokens, r.TOONTokens) }

func savedPct(before, after int) float64 {
	if before == 0 {
		return 0
	}
	return 100 * float64(before-after) / float64(before)
}

func main() {
	corpus := defaultCorpus
	if len(os.Args) > 1 {
		corpus = os.Args[1]
	}
	results, err := runDir(corpus)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bench: %v\n", err)
		os.Exit(1)
	}
	writeCSV(os.Stdout, results)
	writeSummary(os.Stderr, results)
}

// runDir benchmarks the corpus in file name order. Files that are not
// valid JSON are reported and skipped.
func runDir(dir string) ([]CaseResult, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no *.json files in %s", dir)
	}
	sort.Strings(paths)

	var out []CaseResult
	for _, path := range paths {
		doc, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(path), ".json")
		rows, err := runCase(name, doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "bench: skipping %s: %v\n", name, err)
			continue
		}
		out = append(out, rows...)
	}
	return out, nil
}

// runCase encodes one JSON document under every preset. The baseline is
// the document re-marshalled without whitespace.
func runCase(name string, doc []byte) ([]CaseResult, error) {
	v, err := toon.FromJSON(doc)
	if err != nil {
		return nil, err
	}
	baseline, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if !json.Valid(baseline) {
		return nil, fmt.Errorf("baseline for %s is not valid JSON", name)
	}
	baseTokens := estimateTokens(string(baseline))

	rows := make([]CaseResult, 0, len(presets))
	for _, p := range presets {
		text, err := toon.EncodeWithOptions(v, p.opts)
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", p.name, err)
		}
		rows = append(rows, CaseResult{
			Name:       name,
			Preset:     p.name,
			JSONBytes:  len(baseline),
			TOONBytes:  len(text),
			JSONTokens: baseTokens,
			TOONTokens: estimateTokens(text),
		})
	}
	return rows, nil
}

type charClass uint8

const (
	classSpace charClass = iota
	classDigit
	classWord
	classMark
)

func classify(c byte) charClass {
	switch {
	case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		return classSpace
	case '0' <= c && c <= '9':
		return classDigit
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', c == '_':
		return classWord
	}
	return classMark
}

// estimateTokens approximates a BPE token count. Whitespace is free, each
// mark is one token, and runs of word or number characters cost one token
// per four bytes. Any non-empty input costs at least one token.
func estimateTokens(s string) int {
	if s == "" {
		return 0
	}
	n := 0
	for i := 0; i < len(s); {
		var run int
		switch classify(s[i]) {
		case classSpace:
			i++
			continue
		case classDigit:
			run = runLength(s[i:], inNumber)
		case classWord:
			run = runLength(s[i:], inWord)
		default:
			n++
			i++
			continue
		}
		n += (run + 3) / 4
		i += run
	}
	return max(n, 1)
}

func inNumber(c byte) bool {
	return classify(c) == classDigit || strings.IndexByte(".+-eE", c) >= 0
}

func inWord(c byte) bool {
	k := classify(c)
	return k == classWord || k == classDigit
}

// runLength counts the leading bytes of s accepted by in.
func runLength(s string, in func(byte) bool) int {
	i := 0
	for i < len(s) && in(s[i]) {
		i++
	}
	return i
}

func writeCSV(w io.Writer, results []CaseResult) {
	fmt.Fprintln(w, "name,preset,json_bytes,toon_bytes,bytes_pct,json_tokens,toon_tokens,tokens_pct")
	for _, r := range results {
		fmt.Fprintf(w, "%s,%s,%d,%d,%.1f,%d,%d,%.1f\n",
			r.Name, r.Preset, r.JSONBytes, r.TOONBytes, r.BytesPct(),
			r.JSONTokens, r.TOONTokens, r.TokensPct())
	}
}

// writeSummary prints one line per preset with totals over the corpus.
func writeSummary(w io.Writer, results []CaseResult) {
	sums := make(map[string]CaseResult, len(presets))
	files := make(map[string]int, len(presets))
	for _, r := range results {
		s := sums[r.Preset]
		s.JSONBytes += r.JSONBytes
		s.TOONBytes += r.TOONBytes
		s.JSONTokens += r.JSONTokens
		s.TOONTokens += r.TOONTokens
		sums[r.Preset] = s
		files[r.Preset]++
	}

	fmt.Fprintln(w, "\npreset   files  json bytes -> toon bytes        est. tokens")
	for _, p := range presets {
		n, ok := files[p.name]
		if !ok {
			continue
		}
		s := sums[p.name]
		fmt.Fprintf(w, "%-8s %5d  %d -> %d (%.1f%% smaller)  %d -> %d (%.1f%% fewer)\n",
			p.name, n, s.JSONBytes, s.TOONBytes, s.BytesPct(),
			s.JSONTokens, s.TOONTokens, s.TokensPct())
	}
}
