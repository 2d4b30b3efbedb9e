package toon

import (
	"fmt"
	"strings"
)

// Delimiter separates values in inline arrays and tabular rows.
type Delimiter rune

const (
	Comma Delimiter = ','
	Pipe  Delimiter = '|'
	Tab   Delimiter = '\t'
)

// String returns the delimiter name.
func (d Delimiter) String() string {
	switch d {
	case Comma, 0:
		return "comma"
	case Pipe:
		return "pipe"
	case Tab:
		return "tab"
	}
	return fmt.Sprintf("delimiter(%q)", rune(d))
}

// MarshalText implements encoding.TextMarshaler.
func (d Delimiter) MarshalText() ([]byte, error) {
	if !d.valid() {
		return nil, optionsErrorf("unknown delimiter %q", rune(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText accepts a delimiter name or the literal character.
func (d *Delimiter) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "comma", ",", "":
		*d = Comma
	case "pipe", "|":
		*d = Pipe
	case "tab", "\t", `\t`:
		*d = Tab
	default:
		return optionsErrorf("unknown delimiter %q", string(text))
	}
	return nil
}

func (d Delimiter) valid() bool {
	return d == Comma || d == Pipe || d == Tab || d == 0
}

func (d Delimiter) char() byte {
	if d == 0 {
		return ','
	}
	return byte(d)
}

// marker is the delimiter suffix written inside an array length bracket.
func (d Delimiter) marker() string {
	switch d {
	case Pipe:
		return "|"
	case Tab:
		return "\t"
	}
	return ""
}

// KeyFolding controls collapsing of single-key object chains into dotted paths.
type KeyFolding uint8

const (
	KeyFoldingOff KeyFolding = iota
	KeyFoldingSafe
	KeyFoldingAggressive
)

// String returns the folding mode name.
func (k KeyFolding) String() string {
	switch k {
	case KeyFoldingOff:
		return "off"
	case KeyFoldingSafe:
		return "safe"
	case KeyFoldingAggressive:
		return "aggressive"
	}
	return fmt.Sprintf("keyfolding(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k KeyFolding) MarshalText() ([]byte, error) {
	if k > KeyFoldingAggressive {
		return nil, optionsErrorf("unknown key folding mode %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *KeyFolding) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "off", "none", "":
		*k = KeyFoldingOff
	case "safe":
		*k = KeyFoldingSafe
	case "aggressive", "flatten":
		*k = KeyFoldingAggressive
	default:
		return optionsErrorf("unknown key folding mode %q", string(text))
	}
	return nil
}

// PathExpansion controls how the decoder treats bare dotted keys.
type PathExpansion uint8

const (
	// PathExpansionSafe expands bare dotted keys into nested objects.
	// Quoted keys are always literal.
	PathExpansionSafe PathExpansion = iota
	// PathExpansionOff keeps every key literal.
	PathExpansionOff
)

// String returns the expansion mode name.
func (p PathExpansion) String() string {
	switch p {
	case PathExpansionSafe:
		return "safe"
	case PathExpansionOff:
		return "off"
	}
	return fmt.Sprintf("pathexpansion(%d)", uint8(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p PathExpansion) MarshalText() ([]byte, error) {
	if p > PathExpansionOff {
		return nil, optionsErrorf("unknown path expansion mode %d", uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PathExpansion) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "safe", "":
		*p = PathExpansionSafe
	case "off", "none":
		*p = PathExpansionOff
	default:
		return optionsErrorf("unknown path expansion mode %q", string(text))
	}
	return nil
}

// Replacer is called before each object member and array element is
// rendered. key is the member name or the element index, path holds the
// keys from the root down to and including key. Returning Omit drops the
// pair; any other value is rendered in its place.
type Replacer func(key string, v *Value, path []string) *Value

// ============================================================
// Encode options
// ============================================================

// EncodeOptions configures the encoder.
type EncodeOptions struct {
	// Indent is the number of spaces per nesting level (default: 2)
	Indent int

	// Delimiter for inline arrays and tabular rows (default: Comma)
	Delimiter Delimiter

	// KeyFolding collapses single-key chains into dotted keys
	KeyFolding KeyFolding

	// Flatten forces aggressive folding regardless of KeyFolding
	Flatten bool

	// FlattenDepth caps the number of segments in a folded key; 0 is unlimited
	FlattenDepth int

	Replacer Replacer
}

// DefaultEncodeOptions returns the default encoding configuration.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		Indent:    2,
		Delimiter: Comma,
	}
}

// CompactEncodeOptions minimizes whitespace and folds single-key chains.
func CompactEncodeOptions() EncodeOptions {
	return EncodeOptions{
		Indent:     1,
		Delimiter:  Comma,
		KeyFolding: KeyFoldingSafe,
	}
}

// VerboseEncodeOptions favors readability with wide indentation and no folding.
func VerboseEncodeOptions() EncodeOptions {
	return EncodeOptions{
		Indent:    4,
		Delimiter: Comma,
	}
}

// Validate reports the first invalid setting.
func (o EncodeOptions) Validate() error {
	if o.Indent <= 0 {
		return optionsErrorf("indent must be positive, got %d", o.Indent)
	}
	if !o.Delimiter.valid() {
		return optionsErrorf("unknown delimiter %q", rune(o.Delimiter))
	}
	if o.KeyFolding > KeyFoldingAggressive {
		return optionsErrorf("unknown key folding mode %d", uint8(o.KeyFolding))
	}
	if o.FlattenDepth < 0 {
		return optionsErrorf("flatten depth must not be negative, got %d", o.FlattenDepth)
	}
	return nil
}

func (o EncodeOptions) folding() KeyFolding {
	if o.Flatten {
		return KeyFoldingAggressive
	}
	return o.KeyFolding
}

// ============================================================
// Decode options
// ============================================================

// DecodeOptions configures the decoder.
type DecodeOptions struct {
	// Indent is the expected number of spaces per level (default: 2)
	Indent int

	// Strict requires indentation to be an exact multiple of Indent.
	// When false the unit is inferred from the first indented line.
	Strict bool

	// AllowEmpty decodes empty input as an empty object instead of failing
	AllowEmpty bool

	PathExpansion PathExpansion
}

// DefaultDecodeOptions returns strict decoding with two-space indentation.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{
		Indent: 2,
		Strict: true,
	}
}

// LenientDecodeOptions infers the indentation unit from the input.
func LenientDecodeOptions(indent int) DecodeOptions {
	return DecodeOptions{
		Indent: indent,
		Strict: false,
	}
}

// Validate reports the first invalid setting.
func (o DecodeOptions) Validate() error {
	if o.Indent <= 0 {
		return optionsErrorf("indent must be positive, got %d", o.Indent)
	}
	if o.PathExpansion > PathExpansionOff {
		return optionsErrorf("unknown path expansion mode %d", uint8(o.PathExpansion))
	}
	return nil
}
