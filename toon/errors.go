package toon

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every *ParseError unwraps to exactly one of the decode
// sentinels, so callers can match the failure class with errors.Is.
var (
	ErrEmptyInput         = errors.New("toon: empty input")
	ErrSyntax             = errors.New("toon: syntax error")
	ErrIndentation        = errors.New("toon: invalid indentation")
	ErrLengthMismatch     = errors.New("toon: array length mismatch")
	ErrRowWidth           = errors.New("toon: row width mismatch")
	ErrUnterminatedString = errors.New("toon: unterminated string")
	ErrInvalidEscape      = errors.New("toon: invalid escape sequence")
	ErrDuplicateKey       = errors.New("toon: key collision")

	ErrInvalidOptions = errors.New("toon: invalid options")
	ErrProtocol       = errors.New("toon: stream protocol violation")
)

// Position represents a source location. Lines and columns are 1-based.
type Position struct {
	Line   int
	Column int
}

// String returns position as "line:column", or "line N" when the column
// is unknown.
func (p Position) String() string {
	if p.Column == 0 {
		return fmt.Sprintf("line %d", p.Line)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// ParseError represents a decoding error with location.
type ParseError struct {
	Message string
	Pos     Position
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("toon: %s at %s", e.Message, e.Pos)
}

// Unwrap returns the sentinel describing the failure class.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Line returns the 1-based line number where decoding failed.
func (e *ParseError) Line() int {
	return e.Pos.Line
}

func parseErrorf(kind error, line int, format string, args ...any) *ParseError {
	return &ParseError{
		Message: fmt.Sprintf(format, args...),
		Pos:     Position{Line: line},
		Err:     kind,
	}
}

func optionsErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOptions, fmt.Sprintf(format, args...))
}

func protocolErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, args...))
}
