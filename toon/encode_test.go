package toon

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usersTable() *Value {
	return Object(M("users", Array(
		Object(M("id", Int(1)), M("name", Str("Alice")), M("role", Str("admin"))),
		Object(M("id", Int(2)), M("name", Str("Bob")), M("role", Str("user"))),
	)))
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		v    *Value
		want string
	}{
		{
			name: "nested object",
			v:    Object(M("user", Object(M("id", Int(123)), M("name", Str("Ada"))))),
			want: "user:\n  id: 123\n  name: Ada",
		},
		{
			name: "primitive array",
			v:    Object(M("tags", Array(Str("admin"), Str("ops"), Str("dev")))),
			want: "tags[3]: admin,ops,dev",
		},
		{
			name: "tabular array",
			v:    usersTable(),
			want: "users[2]{id,name,role}:\n  1,Alice,admin\n  2,Bob,user",
		},
		{
			name: "empty array",
			v:    Object(M("items", Array())),
			want: "items[0]:",
		},
		{
			name: "empty nested object",
			v:    Object(M("meta", Object()), M("n", Int(1))),
			want: "meta:\nn: 1",
		},
		{
			name: "empty root object",
			v:    Object(),
			want: "",
		},
		{
			name: "root string",
			v:    Str("hello"),
			want: "hello",
		},
		{
			name: "root string that looks like a literal",
			v:    Str("true"),
			want: `"true"`,
		},
		{
			name: "root primitive array",
			v:    Array(Int(1), Int(2), Int(3)),
			want: "[3]: 1,2,3",
		},
		{
			name: "root empty array",
			v:    Array(),
			want: "[0]:",
		},
		{
			name: "mixed list",
			v:    Object(M("items", Array(Int(1), Object(M("a", Int(1))), Array(Int(1), Int(2))))),
			want: "items[3]:\n  - 1\n  - a: 1\n  - [2]: 1,2",
		},
		{
			name: "list of objects with differing keys",
			v: Object(M("items", Array(
				Object(M("id", Int(1)), M("tags", Array(Str("a"), Str("b")))),
				Object(M("id", Int(2)), M("extra", Bool(true))),
			))),
			want: "items[2]:\n  - id: 1\n    tags[2]: a,b\n  - id: 2\n    extra: true",
		},
		{
			name: "reordered keys fall back to list form",
			v: Object(M("rows", Array(
				Object(M("a", Int(1)), M("b", Int(2))),
				Object(M("b", Int(2)), M("a", Int(1))),
			))),
			want: "rows[2]:\n  - a: 1\n    b: 2\n  - b: 2\n    a: 1",
		},
		{
			name: "nested values fall back to list form",
			v:    Object(M("rows", Array(Object(M("a", Object(M("x", Int(1)))))))),
			want: "rows[1]:\n  - a:\n      x: 1",
		},
		{
			name: "empty object items",
			v:    Array(Object(), Object(M("a", Int(1)))),
			want: "[2]:\n  -\n  - a: 1",
		},
		{
			name: "array of arrays of objects",
			v:    Array(Array(Object(M("a", Int(1))), Object(M("b", Int(2))))),
			want: "[1]:\n  - [2]:\n      - a: 1\n      - b: 2",
		},
		{
			name: "tabular array inside list item",
			v: Object(M("groups", Array(
				Object(M("users", Array(Object(M("id", Int(1))), Object(M("id", Int(2))))), M("name", Str("g"))),
				Object(M("x", Int(1))),
			))),
			want: "groups[2]:\n  - users[2]{id}:\n      1\n      2\n    name: g\n  - x: 1",
		},
		{
			name: "quoting",
			v: Object(
				M("note", Str("a: b")),
				M("num", Str("42")),
				M("empty", Str("")),
				M("sp", Str(" x")),
				M("nl", Str("line1\nline2")),
				M("csv", Str("a,b")),
			),
			want: "note: \"a: b\"\nnum: \"42\"\nempty: \"\"\nsp: \" x\"\nnl: \"line1\\nline2\"\ncsv: \"a,b\"",
		},
		{
			name: "key quoting",
			v:    Object(M("my key", Int(1)), M("a.b", Int(2)), M("ok_key", Int(3))),
			want: "\"my key\": 1\n\"a.b\": 2\nok_key: 3",
		},
		{
			name: "numbers",
			v: Object(
				M("i", Int(-7)),
				M("f", Float(42)),
				M("pi", Float(3.14)),
				M("big", Float(1e21)),
				M("nan", Float(math.NaN())),
			),
			want: "i: -7\nf: 42.0\npi: 3.14\nbig: 1e+21\nnan: null",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.v))
		})
	}
}

func TestEncodeDelimiters(t *testing.T) {
	enc, err := NewEncoder(EncodeOptions{Indent: 2, Delimiter: Pipe})
	require.NoError(t, err)
	assert.Equal(t, "tags[2|]: a,b|c", enc.Encode(Object(M("tags", Array(Str("a,b"), Str("c"))))))
	assert.Equal(t, "tags[1|]: \"a|b\"", enc.Encode(Object(M("tags", Array(Str("a|b"))))))

	enc, err = NewEncoder(EncodeOptions{Indent: 2, Delimiter: Tab})
	require.NoError(t, err)
	v := Object(M("users", Array(
		Object(M("id", Int(1)), M("name", Str("Alice"))),
		Object(M("id", Int(2)), M("name", Str("Bob"))),
	)))
	assert.Equal(t, "users[2\t]{id\tname}:\n  1\tAlice\n  2\tBob", enc.Encode(v))
}

func TestEncodeIndent(t *testing.T) {
	v := Object(M("a", Object(M("b", Object(M("c", Int(1)))))))

	enc, err := NewEncoder(VerboseEncodeOptions())
	require.NoError(t, err)
	assert.Equal(t, "a:\n    b:\n        c: 1", enc.Encode(v))

	assert.Equal(t, "a.b.c: 1", EncodeCompact(v))
}

func TestEncodeDoesNotTrailNewline(t *testing.T) {
	out := Encode(usersTable())
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestEncoderLines(t *testing.T) {
	v := usersTable()
	var lines []string
	for line := range defaultEncoder.Lines(v) {
		lines = append(lines, line)
	}
	assert.Equal(t, strings.Split(Encode(v), "\n"), lines)

	// breaking out stops the encoder
	var first []string
	for line := range defaultEncoder.Lines(v) {
		first = append(first, line)
		break
	}
	assert.Equal(t, []string{"users[2]{id,name,role}:"}, first)
}

func TestEncodeWithOptionsRejectsInvalidConfig(t *testing.T) {
	_, err := EncodeWithOptions(Null(), EncodeOptions{Indent: 0})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "tags[2]: a,b", Object(M("tags", Array(Str("a"), Str("b")))).String())
}
