package toon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ============================================================
// Streaming Encoder
// ============================================================
//
// A StreamEncoder writes a document incrementally:
//
//	enc.BeginObject()
//	enc.WriteFieldValue("team", toon.Str("Platform"))
//	enc.WriteField("users")
//	enc.BeginTabularArray(2, "id", "name")
//	enc.WriteTabularRow(toon.Int(1), toon.Str("Alice"))
//	enc.WriteTabularRow(toon.Int(2), toon.Str("Bob"))
//	enc.EndArray()
//	enc.EndObject()
//	enc.Close()
//
// Only the open containers are held in memory. Any call that breaks the
// protocol fails at once with ErrProtocol, and the encoder stays failed.

type frameKind uint8

const (
	frameObject frameKind = iota
	frameTabular
	frameList
)

func (k frameKind) String() string {
	switch k {
	case frameObject:
		return "object"
	case frameTabular:
		return "tabular array"
	}
	return "list array"
}

type frame struct {
	kind    frameKind
	depth   int // depth of the lines this container writes
	name    string
	count   int
	written int
	columns []string
	item    bool
}

type slotKind uint8

const (
	slotRoot slotKind = iota
	slotField
	slotItem
)

// slot says where the next container opens.
type slot struct {
	kind    slotKind
	depth   int
	keyText string
	name    string
}

// StreamEncoder writes TOON text incrementally to an io.Writer.
type StreamEncoder struct {
	sink io.Writer
	w    *bufio.Writer
	opts EncodeOptions
	cfg  streamConfig
	e    *emitter

	stack      []*frame
	pending    string
	hasPending bool
	started    bool
	closed     bool
	replaced   bool
	lines      int
	err        error
}

// NewStreamEncoder validates opts and returns an encoder writing to w.
func NewStreamEncoder(w io.Writer, opts EncodeOptions, options ...StreamOption) (*StreamEncoder, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = Comma
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s := &StreamEncoder{
		sink: w,
		w:    bufio.NewWriter(w),
		opts: opts,
		cfg:  newStreamConfig(options),
	}
	s.e = newEmitter(opts, s.writeLine)
	return s, nil
}

func (s *StreamEncoder) writeLine(line string) bool {
	if s.lines > 0 {
		if err := s.w.WriteByte('\n'); err != nil {
			return s.writeFailed(err)
		}
	}
	s.lines++
	if _, err := s.w.WriteString(line); err != nil {
		return s.writeFailed(err)
	}
	return true
}

func (s *StreamEncoder) writeFailed(err error) bool {
	s.err = fmt.Errorf("toon: write: %w", err)
	s.cfg.logger.Debug("toon: stream encoder write failed", "lines", s.lines, "err", err)
	return false
}

func (s *StreamEncoder) top() *frame {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

func (s *StreamEncoder) push(f *frame) {
	s.stack = append(s.stack, f)
	s.started = true
}

func (s *StreamEncoder) pop() {
	s.stack = s.stack[:len(s.stack)-1]
	if top := s.top(); top != nil && top.kind == frameList {
		top.written++
	}
}

// usable returns the sticky error, if any.
func (s *StreamEncoder) usable(op string) error {
	if s.closed {
		return s.violate("%s after Close", op)
	}
	return s.err
}

func (s *StreamEncoder) violate(format string, args ...any) error {
	err := protocolErrorf(format, args...)
	if s.err == nil {
		s.err = err
	}
	s.cfg.logger.Warn("toon: stream protocol violation", "error", err)
	return err
}

// inObject checks that the innermost container is an object with no
// announced field.
func (s *StreamEncoder) inObject(op string) (*frame, error) {
	top := s.top()
	if top == nil || top.kind != frameObject {
		return nil, s.violate("%s outside of an object", op)
	}
	if s.hasPending {
		return nil, s.violate("%s while field %q awaits its value", op, s.pending)
	}
	return top, nil
}

// place decides where a container opened by op goes.
func (s *StreamEncoder) place(op string) (slot, error) {
	if s.hasPending {
		s.hasPending = false
		return slot{kind: slotField, depth: s.top().depth, keyText: formatKey(s.pending), name: s.pending}, nil
	}
	top := s.top()
	switch {
	case top == nil && !s.started:
		return slot{kind: slotRoot}, nil
	case top == nil:
		return slot{}, s.violate("%s: document already complete", op)
	case top.kind == frameList:
		if top.written >= top.count {
			return slot{}, s.violate("%s: list array declares %d items", op, top.count)
		}
		return slot{kind: slotItem, depth: top.depth, name: strconv.Itoa(top.written)}, nil
	}
	return slot{}, s.violate("%s: call WriteField before opening a nested container", op)
}

func (s *StreamEncoder) path(key string) []string {
	var p []string
	for _, f := range s.stack {
		if f.name != "" {
			p = append(p, f.name)
		}
	}
	return append(p, key)
}

// BeginObject opens the root object, the object value of an announced
// field, or an object item of a list array.
func (s *StreamEncoder) BeginObject() error {
	if err := s.usable("BeginObject"); err != nil {
		return err
	}
	sl, err := s.place("BeginObject")
	if err != nil {
		return err
	}
	switch sl.kind {
	case slotRoot:
		s.push(&frame{kind: frameObject})
	case slotField:
		s.e.line(sl.depth, sl.keyText+":")
		s.push(&frame{kind: frameObject, depth: sl.depth + 1, name: sl.name})
	case slotItem:
		s.e.hyphen = true
		s.push(&frame{kind: frameObject, depth: sl.depth + 1, name: sl.name, item: true})
	}
	return s.err
}

// WriteFieldValue writes key and its complete value in the current object.
// Composite values are rendered in full under the encoder options.
func (s *StreamEncoder) WriteFieldValue(key string, v *Value) error {
	if err := s.usable("WriteFieldValue"); err != nil {
		return err
	}
	top, err := s.inObject("WriteFieldValue")
	if err != nil {
		return err
	}
	if r := s.opts.Replacer; r != nil && !s.replaced {
		p := s.path(key)
		v = r(key, v, p)
		if v == Omit {
			return nil
		}
		if v == nil {
			v = Null()
		}
		v = replaceChildren(v, r, p)
	}
	s.e.emitMember(key, v, top.depth)
	return s.err
}

// WriteField announces key. The next call must open its value with
// BeginObject, BeginTabularArray or BeginListArray.
func (s *StreamEncoder) WriteField(key string) error {
	if err := s.usable("WriteField"); err != nil {
		return err
	}
	if _, err := s.inObject("WriteField"); err != nil {
		return err
	}
	s.pending, s.hasPending = key, true
	return nil
}

// BeginTabularArray opens a tabular array of count rows with the given
// columns.
func (s *StreamEncoder) BeginTabularArray(count int, columns ...string) error {
	if err := s.usable("BeginTabularArray"); err != nil {
		return err
	}
	if count < 0 {
		return s.violate("BeginTabularArray: negative row count %d", count)
	}
	if len(columns) == 0 {
		return s.violate("BeginTabularArray: no columns")
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c]; dup {
			return s.violate("BeginTabularArray: duplicate column %q", c)
		}
		seen[c] = struct{}{}
	}
	sl, err := s.place("BeginTabularArray")
	if err != nil {
		return err
	}
	head := s.e.arrayHead(sl.keyText, count) + s.e.columnList(columns) + ":"
	depth := s.headerLine(sl, head)
	s.push(&frame{kind: frameTabular, depth: depth + 1, name: sl.name, count: count, columns: columns})
	s.cfg.logger.Debug("toon: begin tabular array", "key", sl.name, "rows", count, "columns", len(columns))
	return s.err
}

// BeginListArray opens a list array of count items written with
// WriteListItem or, for object items, BeginObject/EndObject.
func (s *StreamEncoder) BeginListArray(count int) error {
	if err := s.usable("BeginListArray"); err != nil {
		return err
	}
	if count < 0 {
		return s.violate("BeginListArray: negative item count %d", count)
	}
	sl, err := s.place("BeginListArray")
	if err != nil {
		return err
	}
	depth := s.headerLine(sl, s.e.arrayHead(sl.keyText, count)+":")
	s.push(&frame{kind: frameList, depth: depth + 1, name: sl.name, count: count})
	return s.err
}

// headerLine writes an array header for sl and returns its logical depth.
func (s *StreamEncoder) headerLine(sl slot, head string) int {
	depth := sl.depth
	if sl.kind == slotItem {
		s.e.hyphen = true
		depth++
	}
	s.e.line(depth, head)
	return depth
}

// WriteTabularRow writes one row of the open tabular array.
func (s *StreamEncoder) WriteTabularRow(values ...*Value) error {
	if err := s.usable("WriteTabularRow"); err != nil {
		return err
	}
	top := s.top()
	if top == nil || top.kind != frameTabular {
		return s.violate("WriteTabularRow outside of a tabular array")
	}
	if top.written >= top.count {
		return s.violate("WriteTabularRow: array declares %d rows", top.count)
	}
	if len(values) != len(top.columns) {
		return s.violate("WriteTabularRow: row has %d values, header declares %d columns", len(values), len(top.columns))
	}
	for i, v := range values {
		if !v.IsScalar() {
			return s.violate("WriteTabularRow: column %q holds a %s", top.columns[i], v.Kind())
		}
	}
	s.e.line(top.depth, s.e.row(values))
	top.written++
	return s.err
}

// WriteListItem writes one complete item of the open list array.
func (s *StreamEncoder) WriteListItem(v *Value) error {
	if err := s.usable("WriteListItem"); err != nil {
		return err
	}
	top := s.top()
	if top == nil || top.kind != frameList {
		return s.violate("WriteListItem outside of a list array")
	}
	if top.written >= top.count {
		return s.violate("WriteListItem: list array declares %d items", top.count)
	}
	if r := s.opts.Replacer; r != nil && !s.replaced {
		v = replaceChildren(v, r, s.path(strconv.Itoa(top.written)))
	}
	s.e.emitListItem(v, top.depth)
	top.written++
	return s.err
}

// EndArray closes the open tabular or list array. Fewer rows or items
// than declared is a protocol violation.
func (s *StreamEncoder) EndArray() error {
	if err := s.usable("EndArray"); err != nil {
		return err
	}
	top := s.top()
	if top == nil || top.kind == frameObject {
		return s.violate("EndArray without an open array")
	}
	if top.written != top.count {
		return s.violate("EndArray: %s declares %d elements, wrote %d", top.kind, top.count, top.written)
	}
	s.pop()
	return s.err
}

// EndObject closes the open object.
func (s *StreamEncoder) EndObject() error {
	if err := s.usable("EndObject"); err != nil {
		return err
	}
	top, err := s.inObject("EndObject")
	if err != nil {
		return err
	}
	if top.item && s.e.hyphen {
		s.e.hyphen = false
		s.e.line(top.depth-1, "-")
	}
	s.pop()
	return s.err
}

// WriteValue writes v as the whole document.
func (s *StreamEncoder) WriteValue(v *Value) error {
	if err := s.usable("WriteValue"); err != nil {
		return err
	}
	if s.started {
		return s.violate("WriteValue: document already started")
	}
	if !s.replaced {
		v = applyReplacer(v, s.opts.Replacer)
	}
	s.started = true
	s.e.emitRoot(v)
	return s.err
}

// Encode writes v as the whole document using only the protocol calls:
// uniform arrays stream row by row and other arrays item by item.
func (s *StreamEncoder) Encode(v *Value) error {
	if err := s.usable("Encode"); err != nil {
		return err
	}
	if s.started {
		return s.violate("Encode: document already started")
	}
	v = applyReplacer(v, s.opts.Replacer)
	s.replaced = true
	defer func() { s.replaced = false }()

	switch v.Kind() {
	case KindObject:
		if err := s.BeginObject(); err != nil {
			return err
		}
		for _, m := range v.members {
			if err := s.encodeMember(m); err != nil {
				return err
			}
		}
		return s.EndObject()
	case KindArray:
		if len(v.items) == 0 || allScalar(v.items) {
			return s.WriteValue(v)
		}
		return s.encodeArray(v.items)
	}
	return s.WriteValue(v)
}

func (s *StreamEncoder) encodeMember(m Member) error {
	if items := m.Value.Items(); len(items) > 0 && !allScalar(items) {
		if err := s.WriteField(m.Key); err != nil {
			return err
		}
		return s.encodeArray(items)
	}
	return s.WriteFieldValue(m.Key, m.Value)
}

func (s *StreamEncoder) encodeArray(items []*Value) error {
	if cols, ok := tabularColumns(items); ok {
		if err := s.BeginTabularArray(len(items), cols...); err != nil {
			return err
		}
		cells := make([]*Value, len(cols))
		for _, it := range items {
			for i, m := range it.members {
				cells[i] = m.Value
			}
			if err := s.WriteTabularRow(cells...); err != nil {
				return err
			}
		}
		return s.EndArray()
	}
	if err := s.BeginListArray(len(items)); err != nil {
		return err
	}
	for _, it := range items {
		if err := s.WriteListItem(it); err != nil {
			return err
		}
	}
	return s.EndArray()
}

// Close flushes buffered output. It reports containers left open, and
// with WithCloser it also closes the sink. Close is safe to call twice.
func (s *StreamEncoder) Close() error {
	if s.closed {
		return nil
	}
	var errs []error
	if s.err == nil && (len(s.stack) > 0 || s.hasPending) {
		open := "field " + strconv.Quote(s.pending)
		if top := s.top(); top != nil {
			open = top.kind.String()
		}
		errs = append(errs, s.violate("Close with %d open containers (innermost: %s)", len(s.stack), open))
	}
	s.closed = true
	if err := s.w.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("toon: flush: %w", err))
	}
	if s.cfg.closeSelf {
		if err := closeUnderlying(s.sink); err != nil {
			errs = append(errs, fmt.Errorf("toon: close sink: %w", err))
		}
	}
	s.cfg.logger.Debug("toon: stream encoder closed", "lines", s.lines)
	return errors.Join(errs...)
}
