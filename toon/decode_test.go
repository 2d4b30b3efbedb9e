package toon

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *Value
	}{
		{
			name: "tabular users",
			in:   "users[2]{id,name,role}:\n  1,Alice,admin\n  2,Bob,user",
			want: usersTable(),
		},
		{
			name: "nested object",
			in:   "user:\n  id: 123\n  name: Ada",
			want: Object(M("user", Object(M("id", Int(123)), M("name", Str("Ada"))))),
		},
		{
			name: "root scalar",
			in:   "42",
			want: Int(42),
		},
		{
			name: "root quoted scalar",
			in:   `"a: b"`,
			want: Str("a: b"),
		},
		{
			name: "root primitive array",
			in:   "[3]: 1,true,x",
			want: Array(Int(1), Bool(true), Str("x")),
		},
		{
			name: "spaces around delimiters",
			in:   "tags[3]: a, b , c",
			want: Object(M("tags", Array(Str("a"), Str("b"), Str("c")))),
		},
		{
			name: "pipe header",
			in:   "tags[3|]: a|b,c|d",
			want: Object(M("tags", Array(Str("a"), Str("b,c"), Str("d")))),
		},
		{
			name: "tab tabular",
			in:   "users[2\t]{id\tname}:\n  1\tAlice Smith\n  2\tBob",
			want: Object(M("users", Array(
				Object(M("id", Int(1)), M("name", Str("Alice Smith"))),
				Object(M("id", Int(2)), M("name", Str("Bob"))),
			))),
		},
		{
			name: "quoted keys and columns",
			in:   "\"my key\": 1\nrows[1]{\"a b\",c}:\n  x,y",
			want: Object(
				M("my key", Int(1)),
				M("rows", Array(Object(M("a b", Str("x")), M("c", Str("y"))))),
			),
		},
		{
			name: "empty containers",
			in:   "meta:\nitems[0]:\nn: null",
			want: Object(M("meta", Object()), M("items", Array()), M("n", Null())),
		},
		{
			name: "list items",
			in:   "items[4]:\n  - 1\n  - a: 1\n    b: two\n  - [2]: x,y\n  -",
			want: Object(M("items", Array(
				Int(1),
				Object(M("a", Int(1)), M("b", Str("two"))),
				Array(Str("x"), Str("y")),
				Object(),
			))),
		},
		{
			name: "blank lines and CRLF",
			in:   "a: 1\r\n\r\n   \r\nb: 2\r\n",
			want: Object(M("a", Int(1)), M("b", Int(2))),
		},
		{
			name: "unquoted value with colons",
			in:   "at: 2025-01-04T10:30:00Z\nurl: http://x.io/a",
			want: Object(M("at", Str("2025-01-04T10:30:00Z")), M("url", Str("http://x.io/a"))),
		},
		{
			name: "path expansion",
			in:   "a.b.c: 1\na.b.d: 2\n\"x.y\": 3",
			want: Object(
				M("a", Object(M("b", Object(M("c", Int(1)), M("d", Int(2)))))),
				M("x.y", Int(3)),
			),
		},
		{
			name: "path merges into explicit object",
			in:   "a:\n  x: 1\na.y: 2",
			want: Object(M("a", Object(M("x", Int(1)), M("y", Int(2))))),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.in)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got:\n%s", Encode(got))
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind error
		line int
	}{
		{"empty", "", ErrEmptyInput, 1},
		{"whitespace only", "  \n\t\n", ErrEmptyInput, 1},
		{"inline length", "items[3]: a,b", ErrLengthMismatch, 1},
		{"too few rows", "users[3]{id,name}:\n  1,A\n  2,B", ErrLengthMismatch, 3},
		{"too many rows", "users[1]{id}:\n  1\n  2", ErrLengthMismatch, 3},
		{"too few items", "items[2]:\n  - a\nnext: 1", ErrLengthMismatch, 3},
		{"row width", "users[2]{id,name}:\n  1,Alice\n  2", ErrRowWidth, 3},
		{"unterminated", "name: \"abc", ErrUnterminatedString, 1},
		{"invalid escape", `name: "a\x"`, ErrInvalidEscape, 1},
		{"odd indentation", "user:\n   id: 1", ErrIndentation, 2},
		{"tab indentation", "user:\n\tid: 1", ErrIndentation, 2},
		{"indent under scalar", "a: 1\n  b: 2", ErrIndentation, 2},
		{"leading indentation", "  a: 1", ErrIndentation, 1},
		{"duplicate key", "a: 1\na: 2", ErrDuplicateKey, 2},
		{"path collision", "a: 1\na.b: 2", ErrDuplicateKey, 2},
		{"duplicate column", "rows[1]{a,a}:\n  1,2", ErrDuplicateKey, 1},
		{"content after root scalar", "hello\nworld", ErrSyntax, 2},
		{"missing key", "user:\n  justtext", ErrSyntax, 2},
		{"list item expected", "items[1]:\n  a: 1", ErrSyntax, 2},
		{"values after tabular header", "rows[1]{a}: 1", ErrSyntax, 1},
		{"bad root header", "[x]: 1", ErrSyntax, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.line, pe.Line())
			assert.Equal(t, Position{Line: tt.line}, pe.Pos)
			assert.True(t, strings.HasSuffix(err.Error(), " at line "+strconv.Itoa(tt.line)), err.Error())
		})
	}
}

func TestDecodeLenientIndentation(t *testing.T) {
	in := "user:\n    id: 1\n    tags[2]:\n        - a\n        - b"
	want := Object(M("user", Object(M("id", Int(1)), M("tags", Array(Str("a"), Str("b"))))))

	_, err := Decode(in)
	assert.ErrorIs(t, err, ErrIndentation)

	got, err := DecodeWithOptions(in, LenientDecodeOptions(2))
	require.NoError(t, err)
	assert.True(t, Equal(want, got))

	got, err = DecodeWithOptions(in, DecodeOptions{Indent: 4, Strict: true})
	require.NoError(t, err)
	assert.True(t, Equal(want, got))

	_, err = DecodeWithOptions("a:\n    b:\n      c: 1", LenientDecodeOptions(2))
	assert.ErrorIs(t, err, ErrIndentation)
}

func TestDecodeOptionVariants(t *testing.T) {
	got, err := DecodeWithOptions("", DecodeOptions{Indent: 2, Strict: true, AllowEmpty: true})
	require.NoError(t, err)
	assert.True(t, Equal(Object(), got))

	got, err = DecodeWithOptions("a.b: 1", DecodeOptions{Indent: 2, Strict: true, PathExpansion: PathExpansionOff})
	require.NoError(t, err)
	assert.True(t, Equal(Object(M("a.b", Int(1))), got))

	_, err = NewDecoder(DecodeOptions{})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestDecodeNumbers(t *testing.T) {
	got, err := Decode("a: 007\nb: 1e3\nc: -0\nd: 2.50\ne: \"5\"")
	require.NoError(t, err)
	assert.True(t, Equal(Object(
		M("a", Str("007")),
		M("b", Float(1000)),
		M("c", Int(0)),
		M("d", Float(2.5)),
		M("e", Str("5")),
	), got))
}

func TestParseErrorMessage(t *testing.T) {
	_, err := Decode("items[3]: a,b")
	require.Error(t, err)
	assert.Equal(t, "toon: array declares 3 values, found 2 at line 1", err.Error())
}
