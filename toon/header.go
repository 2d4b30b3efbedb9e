package toon

import (
	"strconv"
	"strings"
)

// arrayHeader is the parsed "[N]" or "[N]{cols}" part of a line.
type arrayHeader struct {
	length int
	delim  Delimiter
	fields []string // nil unless tabular
}

// lineHead is the classification of one content line. A line is a field
// when it has the form key[...]{...}: followed by end of line or a space;
// keyless array headers are fields without a key.
type lineHead struct {
	key    string
	keyed  bool
	quoted bool
	array  *arrayHeader
	rest   string
	field  bool
}

// parseHead classifies text. Lines that are not fields come back with
// field == false and are treated as scalars by the caller.
func parseHead(text string, line int) (lineHead, error) {
	var h lineHead
	i := 0
	switch text[0] {
	case '"':
		key, end, err := unquote(text, line)
		if err != nil {
			return h, err
		}
		h.key, h.keyed, h.quoted = key, true, true
		i = end
	case '[':
	default:
		j := strings.IndexAny(text, ":[")
		if j <= 0 {
			return lineHead{}, nil
		}
		h.key, h.keyed = text[:j], true
		i = j
	}

	if i < len(text) && text[i] == '[' {
		hdr, end, ok, err := parseArrayHeader(text, i, line)
		if err != nil {
			return lineHead{}, err
		}
		if !ok {
			if !h.keyed {
				return lineHead{}, parseErrorf(ErrSyntax, line, "invalid array header %q", text)
			}
			return lineHead{}, nil
		}
		h.array = hdr
		i = end
	}

	if i >= len(text) || text[i] != ':' || (i+1 < len(text) && text[i+1] != ' ') {
		if !h.keyed {
			return lineHead{}, parseErrorf(ErrSyntax, line, "expected ':' after array header")
		}
		return lineHead{}, nil
	}
	h.rest = strings.TrimLeft(text[i+1:], " ")
	h.field = true
	return h, nil
}

// parseArrayHeader parses the bracket starting at text[i]. ok is false when
// the text at i is not an array header at all.
func parseArrayHeader(text string, i, line int) (*arrayHeader, int, bool, error) {
	j := i + 1
	start := j
	for j < len(text) && isDigit(text[j]) {
		j++
	}
	if j == start {
		return nil, 0, false, nil
	}
	n, err := strconv.Atoi(text[start:j])
	if err != nil {
		return nil, 0, false, parseErrorf(ErrSyntax, line, "invalid array length %q", text[start:j])
	}
	hdr := &arrayHeader{length: n, delim: Comma}
	if j < len(text) && (text[j] == '|' || text[j] == '\t') {
		hdr.delim = Delimiter(text[j])
		j++
	}
	if j >= len(text) || text[j] != ']' {
		return nil, 0, false, nil
	}
	j++

	if j < len(text) && text[j] == '{' {
		end := -1
		for k := j + 1; k < len(text); k++ {
			if text[k] == '"' {
				q := skipQuoted(text, k)
				if q < 0 {
					return nil, 0, false, parseErrorf(ErrUnterminatedString, line, "unterminated string")
				}
				k = q - 1
				continue
			}
			if text[k] == '}' {
				end = k
				break
			}
		}
		if end < 0 {
			return nil, 0, false, parseErrorf(ErrSyntax, line, "unterminated column list")
		}
		fields, err := parseColumns(text[j+1:end], hdr.delim, line)
		if err != nil {
			return nil, 0, false, err
		}
		hdr.fields = fields
		j = end + 1
	}
	return hdr, j, true, nil
}

func parseColumns(inner string, delim Delimiter, line int) ([]string, error) {
	cells, err := splitDelimited(inner, delim, line)
	if err != nil {
		return nil, err
	}
	fields := make([]string, 0, len(cells))
	seen := make(map[string]struct{}, len(cells))
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, parseErrorf(ErrSyntax, line, "empty column name")
		}
		if c[0] == '"' {
			name, end, err := unquote(c, line)
			if err != nil {
				return nil, err
			}
			if end != len(c) {
				return nil, parseErrorf(ErrSyntax, line, "unexpected characters after column name %q", c)
			}
			c = name
		}
		if _, dup := seen[c]; dup {
			return nil, parseErrorf(ErrDuplicateKey, line, "duplicate column %q", c)
		}
		seen[c] = struct{}{}
		fields = append(fields, c)
	}
	return fields, nil
}
