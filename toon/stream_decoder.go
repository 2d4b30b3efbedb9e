package toon

import (
	"errors"
	"io"
	"iter"
)

// ============================================================
// Streaming Decoder
// ============================================================
//
// A StreamDecoder pulls items from a reader one at a time:
//
//	dec, _ := toon.NewStreamDecoder(r, toon.DefaultDecodeOptions())
//	defer dec.Close()
//	for dec.Next() {
//		use(dec.Value())
//	}
//	if err := dec.Err(); err != nil { ... }
//
// A root array yields its elements. Any other document yields a single
// item, the decoded root. With WithKeyedArray, a root object whose first
// line is a keyed array header ("users[3]{id,name}:") yields that array's
// elements and Key reports the key.

// StreamDecoder is a forward-only iterator over the items of a document.
type StreamDecoder struct {
	src io.Reader
	p   *parser
	cfg streamConfig

	started bool
	cursor  *arrayCursor
	keyed   bool
	key     string
	single  *Value
	cur     *Value
	count   int
	err     error
	done    bool
	closed  bool
}

// NewStreamDecoder validates opts and returns a decoder reading from r.
// Nothing is read until the first call to Next.
func NewStreamDecoder(r io.Reader, opts DecodeOptions, options ...StreamOption) (*StreamDecoder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &StreamDecoder{
		src: r,
		p:   newParser(r, opts),
		cfg: newStreamConfig(options),
	}, nil
}

// Next advances to the next item. It returns false at the end of input
// or after an error; check Err to tell them apart.
func (d *StreamDecoder) Next() bool {
	if d.done || d.closed {
		return false
	}
	if !d.started {
		d.started = true
		if err := d.start(); err != nil {
			return d.fail(err)
		}
	}
	if d.cursor == nil {
		if d.single == nil {
			d.done = true
			return false
		}
		d.cur, d.single = d.single, nil
		d.count++
		return true
	}
	v, err := d.cursor.next()
	if errors.Is(err, io.EOF) {
		if err := d.finish(); err != nil {
			return d.fail(err)
		}
		d.done = true
		d.cur = nil
		return false
	}
	if err != nil {
		return d.fail(err)
	}
	d.cur = v
	d.count++
	return true
}

func (d *StreamDecoder) start() error {
	first, err := d.p.lr.peek()
	if err != nil {
		return err
	}
	if first != nil && first.depth == 0 {
		h, err := parseHead(first.text, first.num)
		if err != nil {
			return err
		}
		if h.field && h.array != nil && (!h.keyed || d.cfg.keyedArray) {
			d.p.lr.next()
			c, err := d.p.openArray(h.array, h.rest, first.num, 0)
			if err != nil {
				return err
			}
			d.cursor = c
			d.keyed, d.key = h.keyed, h.key
			d.cfg.logger.Debug("toon: stream decoder opened", "mode", "array", "key", h.key, "declared", h.array.length)
			return nil
		}
	}
	v, err := d.p.parseDocument()
	if err != nil {
		return err
	}
	d.single = v
	d.cfg.logger.Debug("toon: stream decoder opened", "mode", "single")
	return nil
}

func (d *StreamDecoder) finish() error {
	if !d.keyed {
		return d.p.expectEnd()
	}
	extra, err := d.p.lr.peek()
	if err != nil {
		return err
	}
	if extra != nil && extra.depth == 0 {
		return parseErrorf(ErrSyntax, extra.num, "streamed array %q must be the only root field", d.key)
	}
	return d.p.expectEnd()
}

func (d *StreamDecoder) fail(err error) bool {
	d.err = err
	d.done = true
	d.cur = nil
	d.cfg.logger.Debug("toon: stream decoder failed", "error", err, "items", d.count)
	return false
}

// Value returns the current item.
func (d *StreamDecoder) Value() *Value {
	return d.cur
}

// Err returns the error that stopped iteration, if any.
func (d *StreamDecoder) Err() error {
	return d.err
}

// Key returns the root field name when the decoder streams a keyed array.
func (d *StreamDecoder) Key() (string, bool) {
	return d.key, d.keyed
}

// Close stops iteration. With WithCloser it also closes the source.
func (d *StreamDecoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.cur = nil
	d.cfg.logger.Debug("toon: stream decoder closed", "items", d.count)
	if d.cfg.closeSelf {
		return closeUnderlying(d.src)
	}
	return nil
}

// All adapts the decoder to a range-over-func sequence. The decoder is
// closed when the loop ends, including on break.
func (d *StreamDecoder) All() iter.Seq2[*Value, error] {
	return func(yield func(*Value, error) bool) {
		defer d.Close()
		for d.Next() {
			if !yield(d.Value(), nil) {
				return
			}
		}
		if err := d.Err(); err != nil {
			yield(nil, err)
		}
	}
}
