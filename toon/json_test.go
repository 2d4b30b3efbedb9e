package toon

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSON(t *testing.T) {
	v, err := FromJSON([]byte(`{"z":1,"a":[1,2.5,"x",true,null],"m":{"k\"q":"v\nw"},"big":12345678901234567890}`))
	require.NoError(t, err)

	want := Object(
		M("z", Int(1)),
		M("a", Array(Int(1), Float(2.5), Str("x"), Bool(true), Null())),
		M("m", Object(M(`k"q`, Str("v\nw")))),
		M("big", Float(12345678901234567890)),
	)
	assert.True(t, Equal(want, v), "got:\n%s", Encode(v))
}

func TestFromJSONDuplicateKeys(t *testing.T) {
	v, err := FromJSON([]byte(`{"a":1,"b":2,"a":{"c":3}}`))
	require.NoError(t, err)

	want := Object(M("a", Object(M("c", Int(3)))), M("b", Int(2)))
	assert.True(t, Equal(want, v), "got:\n%s", Encode(v))

	back, err := Decode(Encode(v))
	require.NoError(t, err)
	assert.True(t, Equal(v, back))
}

func TestFromJSONScalarsAndEmpties(t *testing.T) {
	tests := []struct {
		in   string
		want *Value
	}{
		{`42`, Int(42)},
		{`-1.5e2`, Float(-150)},
		{`1.0`, Float(1)},
		{`"hi"`, Str("hi")},
		{`false`, Bool(false)},
		{`null`, Null()},
		{`{}`, Object()},
		{`[]`, Array()},
		{"  [ {} , [] ]  ", Array(Object(), Array())},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := FromJSON([]byte(tt.in))
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, v))
		})
	}
}

func TestFromJSONErrors(t *testing.T) {
	for _, in := range []string{``, `{"a":1} {"b":2}`, `[1,2`, `{"a":}`} {
		t.Run(in, func(t *testing.T) {
			_, err := FromJSON([]byte(in))
			assert.Error(t, err)
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	v := Object(
		M("b", Int(2)),
		M("a", Float(3)),
		M("s", Str("q\"/")),
		M("n", Float(math.Inf(-1))),
		M("l", Array(Null(), Bool(false), Object())),
	)
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"b":2,"a":3.0,"s":"q\"/","n":null,"l":[null,false,{}]}`, string(data))

	var back Value
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, Equal(Object(
		M("b", Int(2)),
		M("a", Float(3)),
		M("s", Str("q\"/")),
		M("n", Null()),
		M("l", Array(Null(), Bool(false), Object())),
	), &back))
}

func TestFromAny(t *testing.T) {
	type user struct {
		ID    int      `json:"id"`
		Name  string   `json:"name"`
		Score float64  `json:"score"`
		Tags  []string `json:"tags"`
	}
	v, err := FromAny(map[string]any{"users": []user{
		{ID: 1, Name: "Alice", Score: 9.5, Tags: []string{"a"}},
		{ID: 2, Name: "Bob", Score: 7, Tags: nil},
	}})
	require.NoError(t, err)
	assert.Equal(t, "users[2]:\n  - id: 1\n    name: Alice\n    score: 9.5\n    tags[1]: a\n  - id: 2\n    name: Bob\n    score: 7\n    tags: null", Encode(v))

	v, err = FromAny(nil)
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	same := Int(1)
	v, err = FromAny(same)
	require.NoError(t, err)
	assert.Same(t, same, v)

	_, err = FromAny(make(chan int))
	assert.Error(t, err)
}

func TestInterface(t *testing.T) {
	v := Object(M("a", Array(Int(1), Float(1.5), Str("x"), Null())), M("b", Bool(true)))
	assert.Equal(t, map[string]any{
		"a": []any{int64(1), 1.5, "x", nil},
		"b": true,
	}, v.Interface())
}

func TestJSONToTOON(t *testing.T) {
	v, err := FromJSON([]byte(`{"users":[{"id":1,"name":"Alice","role":"admin"},{"id":2,"name":"Bob","role":"user"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "users[2]{id,name,role}:\n  1,Alice,admin\n  2,Bob,user", Encode(v))
}
