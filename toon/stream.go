package toon

import (
	"errors"
	"io"
	"iter"
	"log/slog"
)

// StreamOption configures a StreamEncoder or StreamDecoder.
type StreamOption func(*streamConfig)

type streamConfig struct {
	logger     *slog.Logger
	closeSelf  bool
	keyedArray bool
}

func newStreamConfig(options []StreamOption) streamConfig {
	cfg := streamConfig{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range options {
		opt(&cfg)
	}
	return cfg
}

// WithLogger sets the logger used for lifecycle and protocol messages.
func WithLogger(l *slog.Logger) StreamOption {
	return func(c *streamConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCloser makes Close also close the underlying sink or source when it
// implements io.Closer.
func WithCloser() StreamOption {
	return func(c *streamConfig) {
		c.closeSelf = true
	}
}

// WithKeyedArray makes a StreamDecoder stream the elements of a root
// object's first field when that field is an array ("users[3]{id,name}:").
// The array must then be the only root field. Without it such a document
// yields one item, the decoded root object.
func WithKeyedArray() StreamOption {
	return func(c *streamConfig) {
		c.keyedArray = true
	}
}

func closeUnderlying(x any) error {
	if c, ok := x.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// WithStreamEncoder opens a StreamEncoder on w, runs fn and closes the
// encoder whether fn succeeds or not. Errors from fn and Close are joined.
func WithStreamEncoder(w io.Writer, opts EncodeOptions, fn func(*StreamEncoder) error, options ...StreamOption) (err error) {
	enc, err := NewStreamEncoder(w, opts, options...)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, enc.Close())
	}()
	return fn(enc)
}

// EncodeTo writes v to w through the streaming protocol. The bytes written
// equal the output of an Encoder with the same options.
func EncodeTo(w io.Writer, v *Value, opts EncodeOptions, options ...StreamOption) error {
	return WithStreamEncoder(w, opts, func(enc *StreamEncoder) error {
		return enc.Encode(v)
	}, options...)
}

// DecodeSeq decodes r lazily and yields its items. It owns r: when r is an
// io.Closer it is closed once iteration ends, early or not.
func DecodeSeq(r io.Reader, opts DecodeOptions, options ...StreamOption) iter.Seq2[*Value, error] {
	return func(yield func(*Value, error) bool) {
		dec, err := NewStreamDecoder(r, opts, append(options, WithCloser())...)
		if err != nil {
			_ = closeUnderlying(r)
			yield(nil, err)
			return
		}
		for v, err := range dec.All() {
			if !yield(v, err) {
				return
			}
		}
	}
}
