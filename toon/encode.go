package toon

import (
	"iter"
	"strconv"
	"strings"
)

// Encoder renders values as TOON text. An Encoder is immutable and safe
// for concurrent use.
type Encoder struct {
	opts EncodeOptions
}

// NewEncoder validates opts and returns an encoder bound to them.
func NewEncoder(opts EncodeOptions) (*Encoder, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = Comma
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Encoder{opts: opts}, nil
}

var defaultEncoder = &Encoder{opts: DefaultEncodeOptions()}

// Encode converts a value to TOON text with the default options.
func Encode(v *Value) string {
	return defaultEncoder.Encode(v)
}

// EncodeCompact converts a value with CompactEncodeOptions.
func EncodeCompact(v *Value) string {
	return (&Encoder{opts: CompactEncodeOptions()}).Encode(v)
}

// EncodeWithOptions validates opts and encodes v.
func EncodeWithOptions(v *Value, opts EncodeOptions) (string, error) {
	enc, err := NewEncoder(opts)
	if err != nil {
		return "", err
	}
	return enc.Encode(v), nil
}

// Options returns the encoder configuration.
func (enc *Encoder) Options() EncodeOptions {
	return enc.opts
}

// Encode converts a value to TOON text. Lines are joined by "\n" with no
// trailing newline. An empty root object encodes to "".
func (enc *Encoder) Encode(v *Value) string {
	var sb strings.Builder
	first := true
	e := newEmitter(enc.opts, func(line string) bool {
		if !first {
			sb.WriteByte('\n')
		}
		first = false
		sb.WriteString(line)
		return true
	})
	e.emitRoot(applyReplacer(v, enc.opts.Replacer))
	return sb.String()
}

// Lines yields the encoded lines of v one at a time without building the
// whole document. Breaking out of the loop stops the encoder.
func (enc *Encoder) Lines(v *Value) iter.Seq[string] {
	return func(yield func(string) bool) {
		e := newEmitter(enc.opts, yield)
		e.emitRoot(applyReplacer(v, enc.opts.Replacer))
	}
}

// ============================================================
// Emitter
// ============================================================

// lineSink receives complete, indented lines. Returning false stops emission.
type lineSink func(line string) bool

type emitter struct {
	opts    EncodeOptions
	folding KeyFolding
	pad     string
	sink    lineSink

	// hyphen marks that the next line opens a list item: it is written one
	// level up behind "- ".
	hyphen  bool
	stopped bool
}

func newEmitter(opts EncodeOptions, sink lineSink) *emitter {
	return &emitter{
		opts:    opts,
		folding: opts.folding(),
		pad:     strings.Repeat(" ", opts.Indent),
		sink:    sink,
	}
}

func (e *emitter) line(depth int, text string) {
	if e.stopped {
		return
	}
	if e.hyphen {
		e.hyphen = false
		depth--
		text = "- " + text
	}
	if !e.sink(strings.Repeat(e.pad, depth) + text) {
		e.stopped = true
	}
}

func (e *emitter) emitRoot(v *Value) {
	switch v.Kind() {
	case KindObject:
		e.emitMembers(v.members, 0)
	case KindArray:
		e.emitArray("", v.items, 0)
	default:
		e.line(0, e.scalar(v))
	}
}

func (e *emitter) emitMembers(members []Member, depth int) {
	for _, m := range members {
		e.emitMember(m.Key, m.Value, depth)
	}
}

func (e *emitter) emitMember(key string, v *Value, depth int) {
	keyText, leaf := foldKey(key, v, e.folding, e.opts.FlattenDepth)
	e.emitField(keyText, leaf, depth)
}

// emitField writes a member whose key text is already formatted.
func (e *emitter) emitField(keyText string, v *Value, depth int) {
	switch v.Kind() {
	case KindObject:
		e.line(depth, keyText+":")
		e.emitMembers(v.members, depth+1)
	case KindArray:
		e.emitArray(keyText, v.items, depth)
	default:
		e.line(depth, keyText+": "+e.scalar(v))
	}
}

func (e *emitter) emitArray(keyText string, items []*Value, depth int) {
	head := e.arrayHead(keyText, len(items))
	if len(items) == 0 {
		e.line(depth, head+":")
		return
	}
	if allScalar(items) {
		e.line(depth, head+": "+e.row(items))
		return
	}
	if cols, ok := tabularColumns(items); ok {
		e.line(depth, head+e.columnList(cols)+":")
		cells := make([]*Value, len(cols))
		for _, it := range items {
			for i, m := range it.members {
				cells[i] = m.Value
			}
			e.line(depth+1, e.row(cells))
		}
		return
	}
	e.line(depth, head+":")
	for _, it := range items {
		e.emitListItem(it, depth+1)
	}
}

func (e *emitter) emitListItem(item *Value, depth int) {
	switch item.Kind() {
	case KindObject:
		if len(item.members) == 0 {
			e.line(depth, "-")
			return
		}
		e.hyphen = true
		e.emitMembers(item.members, depth+1)
	case KindArray:
		e.hyphen = true
		e.emitArray("", item.items, depth+1)
	default:
		e.line(depth, "- "+e.scalar(item))
	}
}

func (e *emitter) arrayHead(keyText string, n int) string {
	return keyText + "[" + strconv.Itoa(n) + e.opts.Delimiter.marker() + "]"
}

func (e *emitter) columnList(cols []string) string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, c := range cols {
		if i > 0 {
			sb.WriteByte(e.opts.Delimiter.char())
		}
		sb.WriteString(formatKey(c))
	}
	sb.WriteByte('}')
	return sb.String()
}

func (e *emitter) row(cells []*Value) string {
	var sb strings.Builder
	for i, c := range cells {
		if i > 0 {
			sb.WriteByte(e.opts.Delimiter.char())
		}
		sb.WriteString(e.scalar(c))
	}
	return sb.String()
}

func (e *emitter) scalar(v *Value) string {
	return formatScalar(v, e.opts.Delimiter)
}

// ============================================================
// Array classification
// ============================================================

func allScalar(items []*Value) bool {
	for _, it := range items {
		if !it.IsScalar() {
			return false
		}
	}
	return true
}

// tabularColumns reports whether items is a non-empty array of non-empty
// objects that share the same keys in the same order and hold only
// scalars. It returns the shared keys.
func tabularColumns(items []*Value) ([]string, bool) {
	if len(items) == 0 || items[0].Kind() != KindObject || len(items[0].members) == 0 {
		return nil, false
	}
	first := items[0].members
	for _, it := range items {
		if it.Kind() != KindObject || len(it.members) != len(first) {
			return nil, false
		}
		for i, m := range it.members {
			if m.Key != first[i].Key || !m.Value.IsScalar() {
				return nil, false
			}
		}
	}
	cols := make([]string, len(first))
	for i, m := range first {
		cols[i] = m.Key
	}
	return cols, true
}
