package toon

import (
	"math"
	"strconv"
	"strings"
)

// ============================================================
// Quoting
// ============================================================

// quoteString wraps s in double quotes. Only backslash, quote, newline and
// tab are escaped; every other character is written as is.
func quoteString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// needsQuote reports whether s must be quoted to decode back as the same
// string under the active delimiter.
func needsQuote(s string, delim Delimiter) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return true
	}
	switch s {
	case "true", "false", "null":
		return true
	}
	if looksNumeric(s) {
		return true
	}
	switch s[0] {
	case '[', '{', '"':
		return true
	case '-':
		if len(s) == 1 || s[1] == ' ' {
			return true
		}
	}
	if s[len(s)-1] == ':' {
		return true
	}
	d := delim.char()
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\', '\n', '\r', '\t':
			return true
		case ':':
			if i+1 < len(s) && s[i+1] == ' ' {
				return true
			}
		default:
			if c == d {
				return true
			}
		}
	}
	return false
}

func formatString(s string, delim Delimiter) string {
	if needsQuote(s, delim) {
		return quoteString(s)
	}
	return s
}

// isIdentifier reports whether k can be written as a bare key.
func isIdentifier(k string) bool {
	if k == "" {
		return false
	}
	for i := 0; i < len(k); i++ {
		c := k[i]
		switch {
		case c == '_', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// formatKey renders a literal key. Dotted keys are quoted so the decoder
// never mistakes them for folded paths.
func formatKey(k string) string {
	if isIdentifier(k) {
		return k
	}
	return quoteString(k)
}

// ============================================================
// Scalars
// ============================================================

func formatScalar(v *Value, delim Delimiter) string {
	switch v.Kind() {
	case KindBool:
		if v.boolVal {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v)
	case KindString:
		return formatString(v.strVal, delim)
	}
	return "null"
}

// formatNumber writes integers plainly and fractional numbers in their
// shortest round-trip form, keeping a ".0" so the kind survives decoding.
func formatNumber(v *Value) string {
	if v.isInt {
		return strconv.FormatInt(v.intVal, 10)
	}
	f := v.floatVal
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	var s string
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		s = strconv.FormatFloat(f, 'e', -1, 64)
	} else {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// numberLiteral matches -?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?
// and reports whether the literal is integral.
func numberLiteral(s string) (integral, ok bool) {
	i, n := 0, len(s)
	if i < n && s[i] == '-' {
		i++
	}
	if i >= n {
		return false, false
	}
	switch {
	case s[i] == '0':
		i++
	case isDigit(s[i]):
		for i < n && isDigit(s[i]) {
			i++
		}
	default:
		return false, false
	}
	integral = true
	if i < n && s[i] == '.' {
		i++
		start := i
		for i < n && isDigit(s[i]) {
			i++
		}
		if i == start {
			return false, false
		}
		integral = false
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < n && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start := i
		for i < n && isDigit(s[i]) {
			i++
		}
		if i == start {
			return false, false
		}
		integral = false
	}
	return integral, i == n
}

// looksNumeric is a looser test than numberLiteral. It catches strings such
// as "007", "+5" and "1." that other readers might take for numbers.
func looksNumeric(s string) bool {
	i, n := 0, len(s)
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits, dot := 0, false
	for ; i < n; i++ {
		c := s[i]
		if isDigit(c) {
			digits++
		} else if c == '.' && !dot {
			dot = true
		} else {
			break
		}
	}
	if digits == 0 {
		return false
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < n && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start := i
		for i < n && isDigit(s[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == n
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// parseScalar interprets a single value token.
func parseScalar(tok string, line int) (*Value, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return Str(""), nil
	}
	if tok[0] == '"' {
		s, end, err := unquote(tok, line)
		if err != nil {
			return nil, err
		}
		if end != len(tok) {
			return nil, parseErrorf(ErrSyntax, line, "unexpected characters after closing quote: %q", tok[end:])
		}
		return Str(s), nil
	}
	switch tok {
	case "null":
		return Null(), nil
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	}
	if integral, ok := numberLiteral(tok); ok {
		if integral {
			if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
				return Int(n), nil
			}
		}
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			return Float(f), nil
		}
	}
	return Str(tok), nil
}

// unquote decodes the quoted string at the start of s and returns the
// index just past its closing quote.
func unquote(s string, line int) (string, int, error) {
	var sb strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			return sb.String(), i + 1, nil
		case '\\':
			if i+1 >= len(s) {
				return "", 0, parseErrorf(ErrUnterminatedString, line, "unterminated string")
			}
			i++
			switch s[i] {
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				return "", 0, parseErrorf(ErrInvalidEscape, line, "invalid escape sequence \\%c", s[i])
			}
		default:
			sb.WriteByte(c)
		}
	}
	return "", 0, parseErrorf(ErrUnterminatedString, line, "unterminated string")
}

// skipQuoted returns the index just past the quoted string starting at
// s[i], or -1 when it is unterminated.
func skipQuoted(s string, i int) int {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			return j + 1
		}
	}
	return -1
}

// splitDelimited splits s on delim outside of quoted strings.
func splitDelimited(s string, delim Delimiter, line int) ([]string, error) {
	d := delim.char()
	var cells []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			end := skipQuoted(s, i)
			if end < 0 {
				return nil, parseErrorf(ErrUnterminatedString, line, "unterminated string")
			}
			i = end - 1
		case d:
			cells = append(cells, s[start:i])
			start = i + 1
		}
	}
	return append(cells, s[start:]), nil
}
