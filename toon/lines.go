package toon

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxLineSize bounds a single input line.
const maxLineSize = 64 << 20

// rawLine is a non-blank input line with its indentation resolved to a depth.
type rawLine struct {
	num   int
	depth int
	text  string
}

// lineReader yields lines with one line of lookahead. It never rewinds, so
// the same reader serves whole-document and streaming decodes.
type lineReader struct {
	scanner *bufio.Scanner
	unit    int
	num     int
	peeked  *rawLine
	done    bool
	err     error
}

func newLineReader(r io.Reader, opts DecodeOptions) *lineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lr := &lineReader{scanner: sc}
	if opts.Strict {
		lr.unit = opts.Indent
	}
	return lr
}

// peek returns the next line without consuming it, or nil at end of input.
func (lr *lineReader) peek() (*rawLine, error) {
	if lr.peeked != nil || lr.done {
		return lr.peeked, lr.err
	}
	for lr.scanner.Scan() {
		lr.num++
		text := strings.TrimRight(lr.scanner.Text(), " \r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		indent := 0
		for text[indent] == ' ' {
			indent++
		}
		if text[indent] == '\t' {
			return nil, lr.fail(parseErrorf(ErrIndentation, lr.num, "tab character in indentation"))
		}
		depth := 0
		if indent > 0 {
			// Lenient mode adopts the first indentation it sees as the unit.
			if lr.unit == 0 {
				lr.unit = indent
			}
			if indent%lr.unit != 0 {
				return nil, lr.fail(parseErrorf(ErrIndentation, lr.num,
					"indentation of %d spaces is not a multiple of %d", indent, lr.unit))
			}
			depth = indent / lr.unit
		}
		lr.peeked = &rawLine{num: lr.num, depth: depth, text: text[indent:]}
		return lr.peeked, nil
	}
	lr.done = true
	if err := lr.scanner.Err(); err != nil {
		lr.err = fmt.Errorf("toon: read input: %w", err)
	}
	return nil, lr.err
}

// next consumes and returns the next line.
func (lr *lineReader) next() (*rawLine, error) {
	l, err := lr.peek()
	lr.peeked = nil
	return l, err
}

func (lr *lineReader) fail(err error) error {
	lr.done = true
	lr.err = err
	return err
}

// lineOf reports the number of l, or the last line read when l is nil.
func (lr *lineReader) lineOf(l *rawLine) int {
	if l != nil {
		return l.num
	}
	if lr.num == 0 {
		return 1
	}
	return lr.num
}
