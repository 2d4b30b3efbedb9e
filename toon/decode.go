package toon

import (
	"errors"
	"io"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Decoder parses TOON text. A Decoder is immutable and safe for concurrent use.
type Decoder struct {
	opts DecodeOptions
}

// NewDecoder validates opts and returns a decoder bound to them.
func NewDecoder(opts DecodeOptions) (*Decoder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{opts: opts}, nil
}

var defaultDecoder = &Decoder{opts: DefaultDecodeOptions()}

// Decode parses TOON text with the default options.
func Decode(text string) (*Value, error) {
	return defaultDecoder.Decode(text)
}

// DecodeWithOptions validates opts and parses text.
func DecodeWithOptions(text string, opts DecodeOptions) (*Value, error) {
	dec, err := NewDecoder(opts)
	if err != nil {
		return nil, err
	}
	return dec.Decode(text)
}

// Options returns the decoder configuration.
func (d *Decoder) Options() DecodeOptions {
	return d.opts
}

// Decode parses a complete TOON document.
func (d *Decoder) Decode(text string) (*Value, error) {
	return d.DecodeReader(strings.NewReader(text))
}

// DecodeReader parses a complete TOON document read from r.
func (d *Decoder) DecodeReader(r io.Reader) (*Value, error) {
	p := newParser(r, d.opts)
	return p.parseDocument()
}

// ============================================================
// Parser
// ============================================================

type parser struct {
	lr   *lineReader
	opts DecodeOptions
}

func newParser(r io.Reader, opts DecodeOptions) *parser {
	return &parser{lr: newLineReader(r, opts), opts: opts}
}

func (p *parser) parseDocument() (*Value, error) {
	first, err := p.lr.peek()
	if err != nil {
		return nil, err
	}
	if first == nil {
		if p.opts.AllowEmpty {
			return Object(), nil
		}
		return nil, parseErrorf(ErrEmptyInput, 1, "empty input")
	}
	if first.depth != 0 {
		return nil, parseErrorf(ErrIndentation, first.num, "unexpected indentation")
	}
	h, err := parseHead(first.text, first.num)
	if err != nil {
		return nil, err
	}

	var v *Value
	switch {
	case h.field && !h.keyed:
		p.lr.next()
		v, err = p.collectArray(h.array, h.rest, first.num, 0)
	case h.field:
		b := newObjectBuilder(p.opts)
		err = p.parseMembers(0, b)
		v = b.value()
	default:
		p.lr.next()
		v, err = parseScalar(first.text, first.num)
	}
	if err != nil {
		return nil, err
	}
	return v, p.expectEnd()
}

// expectEnd fails if any content follows a complete root value.
func (p *parser) expectEnd() error {
	extra, err := p.lr.peek()
	if err != nil {
		return err
	}
	if extra == nil {
		return nil
	}
	if extra.depth > 0 {
		return parseErrorf(ErrIndentation, extra.num, "unexpected indentation")
	}
	return parseErrorf(ErrSyntax, extra.num, "unexpected content after root value")
}

// parseMembers reads fields at depth into b until a shallower line or EOF.
func (p *parser) parseMembers(depth int, b *objectBuilder) error {
	for {
		l, err := p.lr.peek()
		if err != nil {
			return err
		}
		if l == nil || l.depth < depth {
			return nil
		}
		if l.depth > depth {
			return parseErrorf(ErrIndentation, l.num, "unexpected indentation")
		}
		p.lr.next()
		if err := p.parseMember(l.text, l.num, depth, b); err != nil {
			return err
		}
	}
}

func (p *parser) parseMember(text string, num, depth int, b *objectBuilder) error {
	h, err := parseHead(text, num)
	if err != nil {
		return err
	}
	if !h.field || !h.keyed {
		return parseErrorf(ErrSyntax, num, "expected key: value, got %q", text)
	}
	var v *Value
	switch {
	case h.array != nil:
		v, err = p.collectArray(h.array, h.rest, num, depth)
	case h.rest == "":
		child := newObjectBuilder(p.opts)
		err = p.parseMembers(depth+1, child)
		v = child.value()
	default:
		v, err = parseScalar(h.rest, num)
	}
	if err != nil {
		return err
	}
	return b.set(h.key, h.quoted, v, num)
}

// parseListItem decodes the "- ..." line l found at depth d. The content
// after the hyphen behaves like a line at depth d+1.
func (p *parser) parseListItem(l *rawLine, d int) (*Value, error) {
	var content string
	switch {
	case l.text == "-":
		return Object(), nil
	case strings.HasPrefix(l.text, "- "):
		content = strings.TrimLeft(l.text[2:], " ")
	default:
		return nil, parseErrorf(ErrSyntax, l.num, "expected list item, got %q", l.text)
	}
	h, err := parseHead(content, l.num)
	if err != nil {
		return nil, err
	}
	switch {
	case h.field && !h.keyed:
		return p.collectArray(h.array, h.rest, l.num, d+1)
	case h.field:
		b := newObjectBuilder(p.opts)
		if err := p.parseMember(content, l.num, d+1, b); err != nil {
			return nil, err
		}
		if err := p.parseMembers(d+1, b); err != nil {
			return nil, err
		}
		return b.value(), nil
	}
	return parseScalar(content, l.num)
}

func (p *parser) collectArray(hdr *arrayHeader, rest string, num, depth int) (*Value, error) {
	c, err := p.openArray(hdr, rest, num, depth)
	if err != nil {
		return nil, err
	}
	items := make([]*Value, 0, min(hdr.length, 1024))
	for {
		v, err := c.next()
		if errors.Is(err, io.EOF) {
			return Array(items...), nil
		}
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
}

// ============================================================
// Array cursor
// ============================================================

// arrayCursor walks the elements of one array. Elements live on the
// header line (inline form) or on the lines at depth+1.
type arrayCursor struct {
	p      *parser
	hdr    *arrayHeader
	depth  int
	line   int
	inline []string
	i      int
	done   bool
}

func (p *parser) openArray(hdr *arrayHeader, rest string, num, depth int) (*arrayCursor, error) {
	c := &arrayCursor{p: p, hdr: hdr, depth: depth, line: num}
	if rest == "" {
		return c, nil
	}
	if hdr.fields != nil {
		return nil, parseErrorf(ErrSyntax, num, "unexpected values after tabular header")
	}
	cells, err := splitDelimited(rest, hdr.delim, num)
	if err != nil {
		return nil, err
	}
	if len(cells) != hdr.length {
		return nil, parseErrorf(ErrLengthMismatch, num, "array declares %d values, found %d", hdr.length, len(cells))
	}
	c.inline = cells
	return c, nil
}

func (c *arrayCursor) noun() string {
	if c.hdr.fields != nil {
		return "rows"
	}
	return "items"
}

// next returns the next element, or io.EOF once all declared elements
// have been read and nothing else claims to belong to the array.
func (c *arrayCursor) next() (*Value, error) {
	if c.i >= c.hdr.length {
		if !c.done {
			c.done = true
			if err := c.checkTrailing(); err != nil {
				return nil, err
			}
		}
		return nil, io.EOF
	}
	idx := c.i
	c.i++
	if c.inline != nil {
		return parseScalar(c.inline[idx], c.line)
	}

	lr := c.p.lr
	l, err := lr.peek()
	if err != nil {
		return nil, err
	}
	if l == nil || l.depth <= c.depth {
		return nil, parseErrorf(ErrLengthMismatch, lr.lineOf(l),
			"array declares %d %s, found %d", c.hdr.length, c.noun(), idx)
	}
	if l.depth > c.depth+1 {
		return nil, parseErrorf(ErrIndentation, l.num, "unexpected indentation")
	}
	lr.next()
	if c.hdr.fields != nil {
		return c.row(l)
	}
	return c.p.parseListItem(l, c.depth+1)
}

func (c *arrayCursor) row(l *rawLine) (*Value, error) {
	cells, err := splitDelimited(l.text, c.hdr.delim, l.num)
	if err != nil {
		return nil, err
	}
	if len(cells) != len(c.hdr.fields) {
		return nil, parseErrorf(ErrRowWidth, l.num, "row has %d values, header declares %d columns",
			len(cells), len(c.hdr.fields))
	}
	members := make([]Member, len(cells))
	for i, cell := range cells {
		v, err := parseScalar(cell, l.num)
		if err != nil {
			return nil, err
		}
		members[i] = Member{Key: c.hdr.fields[i], Value: v}
	}
	return Object(members...), nil
}

func (c *arrayCursor) checkTrailing() error {
	if c.inline != nil {
		return nil
	}
	l, err := c.p.lr.peek()
	if err != nil {
		return err
	}
	if l != nil && l.depth == c.depth+1 {
		return parseErrorf(ErrLengthMismatch, l.num, "array declares %d %s but more follow", c.hdr.length, c.noun())
	}
	return nil
}

// ============================================================
// Object builder
// ============================================================

// objectBuilder collects members in order, detects key collisions and
// expands bare dotted keys into nested objects.
type objectBuilder struct {
	expand  bool
	entries *orderedmap.OrderedMap[string, *entry]
}

type entry struct {
	value *Value
	// child holds an object that later lines may still extend through
	// dotted paths.
	child *objectBuilder
}

func newObjectBuilder(opts DecodeOptions) *objectBuilder {
	return &objectBuilder{
		expand:  opts.PathExpansion == PathExpansionSafe,
		entries: orderedmap.New[string, *entry](),
	}
}

func (b *objectBuilder) set(key string, quoted bool, v *Value, line int) error {
	if b.expand && !quoted && strings.Contains(key, ".") {
		if segs := strings.Split(key, "."); validPath(segs) {
			cur := b
			for _, seg := range segs[:len(segs)-1] {
				next, err := cur.descend(seg, key, line)
				if err != nil {
					return err
				}
				cur = next
			}
			return cur.put(segs[len(segs)-1], v, true, line)
		}
	}
	return b.put(key, v, false, line)
}

func validPath(segs []string) bool {
	for _, s := range segs {
		if s == "" {
			return false
		}
	}
	return true
}

// put stores v under key. Objects reached through a dotted path merge with
// an existing object; everything else collides.
func (b *objectBuilder) put(key string, v *Value, viaPath bool, line int) error {
	e, ok := b.entries.Get(key)
	if !ok {
		b.entries.Set(key, &entry{value: v})
		return nil
	}
	if v.Kind() == KindObject && (viaPath || e.child != nil) {
		if ch := e.builder(b.expand); ch != nil {
			for _, m := range v.members {
				if err := ch.put(m.Key, m.Value, true, line); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return parseErrorf(ErrDuplicateKey, line, "duplicate key %q", key)
}

func (b *objectBuilder) descend(seg, path string, line int) (*objectBuilder, error) {
	e, ok := b.entries.Get(seg)
	if !ok {
		ch := &objectBuilder{expand: b.expand, entries: orderedmap.New[string, *entry]()}
		b.entries.Set(seg, &entry{child: ch})
		return ch, nil
	}
	if ch := e.builder(b.expand); ch != nil {
		return ch, nil
	}
	return nil, parseErrorf(ErrDuplicateKey, line, "path %q collides with non-object key %q", path, seg)
}

// builder returns the entry as an extendable object, or nil if it holds
// a non-object value.
func (e *entry) builder(expand bool) *objectBuilder {
	if e.child != nil {
		return e.child
	}
	if e.value.Kind() != KindObject {
		return nil
	}
	ch := &objectBuilder{expand: expand, entries: orderedmap.New[string, *entry]()}
	for _, m := range e.value.members {
		ch.entries.Set(m.Key, &entry{value: m.Value})
	}
	e.child, e.value = ch, nil
	return ch
}

func (b *objectBuilder) value() *Value {
	members := make([]Member, 0, b.entries.Len())
	for pair := b.entries.Oldest(); pair != nil; pair = pair.Next() {
		v := pair.Value.value
		if pair.Value.child != nil {
			v = pair.Value.child.value()
		}
		members = append(members, Member{Key: pair.Key, Value: v})
	}
	return Object(members...)
}
