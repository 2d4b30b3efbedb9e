package toon

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsAndAccessors(t *testing.T) {
	b, err := Bool(true).AsBool()
	require.NoError(t, err)
	assert.True(t, b)

	n, err := Int(42).AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	f, err := Int(42).AsFloat()
	require.NoError(t, err)
	assert.Equal(t, 42.0, f)

	_, err = Float(1.5).AsInt()
	assert.Error(t, err)

	s, err := Str("hi").AsString()
	require.NoError(t, err)
	assert.Equal(t, "hi", s)

	_, err = Str("hi").AsBool()
	assert.EqualError(t, err, "toon: expected bool, got string")

	var nilValue *Value
	assert.True(t, nilValue.IsNull())
	assert.Equal(t, KindNull, nilValue.Kind())
}

func TestIntegralKindIsKept(t *testing.T) {
	assert.True(t, Int(1).IsInt())
	assert.False(t, Float(1).IsInt())
	assert.False(t, Equal(Int(1), Float(1)))
	assert.True(t, Equal(Float(1), Float(1)))
	assert.True(t, Equal(Float(math.NaN()), Float(math.NaN())))
}

func TestObjectAccess(t *testing.T) {
	obj := Object(M("id", Int(1)), M("name", Str("Ada")))
	assert.Equal(t, 2, obj.Len())
	assert.True(t, obj.Has("name"))
	assert.False(t, obj.Has("missing"))
	assert.Nil(t, obj.Get("missing"))
	assert.True(t, Equal(Str("Ada"), obj.Get("name")))
	assert.Nil(t, Str("x").Members())

	arr := Array(Int(1), Int(2))
	v, err := arr.Index(1)
	require.NoError(t, err)
	assert.True(t, Equal(Int(2), v))
	_, err = arr.Index(2)
	assert.Error(t, err)
}

func TestEqualIsOrdered(t *testing.T) {
	a := Object(M("a", Int(1)), M("b", Int(2)))
	b := Object(M("b", Int(2)), M("a", Int(1)))
	assert.False(t, Equal(a, b))
	assert.True(t, Equal(a, Object(M("a", Int(1)), M("b", Int(2)))))
	assert.False(t, Equal(Array(Int(1)), Array(Int(1), Int(2))))
	assert.True(t, Equal(nil, Null()))
}

func TestKindString(t *testing.T) {
	for k, want := range map[Kind]string{
		KindNull:   "null",
		KindBool:   "bool",
		KindNumber: "number",
		KindString: "string",
		KindObject: "object",
		KindArray:  "array",
	} {
		assert.Equal(t, want, k.String())
	}
}
