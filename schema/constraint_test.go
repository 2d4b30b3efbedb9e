package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Neumenon/toon/toon"
)

func TestConstraints(t *testing.T) {
	tests := []struct {
		c    Constraint
		v    *toon.Value
		want bool
	}{
		{Min(1), toon.Int(1), true},
		{Min(1), toon.Float(0.5), false},
		{Min(1), toon.Str("5"), false},
		{Max(10), toon.Int(10), true},
		{Max(10), toon.Float(10.01), false},
		{Range(18, 120), toon.Int(30), true},
		{Range(18, 120), toon.Int(121), false},
		{MinLen(5), toon.Str("héllo"), true},
		{MaxLen(4), toon.Str("héllo"), false},
		{MinLen(1), toon.Array(), false},
		{MaxLen(2), toon.Object(toon.M("a", toon.Int(1))), true},
		{MinLen(1), toon.Int(9), false},
		{Pattern(`^[A-Z]{2}\d$`), toon.Str("AB1"), true},
		{Pattern(`^[A-Z]{2}\d$`), toon.Str("ab1"), false},
		{OneOf("admin", "user"), toon.Str("user"), true},
		{OneOf("admin", "user"), toon.Str("guest"), false},
		{Tag("email"), toon.Str("ada@example.com"), true},
		{Tag("email"), toon.Str("ada"), false},
		{Tag("gte=18,lte=120"), toon.Int(42), true},
		{Tag("gte=18,lte=120"), toon.Int(7), false},
		{Tag("min=2"), toon.Array(toon.Str("a"), toon.Str("b")), true},
		{Predicate("even", func(v *toon.Value) bool {
			n, err := v.AsInt()
			return err == nil && n%2 == 0
		}), toon.Int(4), true},
	}
	for _, tt := range tests {
		t.Run(tt.c.Name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Check(tt.v))
		})
	}
}

func TestConstraintNames(t *testing.T) {
	assert.Equal(t, "min(0.5)", Min(0.5).String())
	assert.Equal(t, "max(100)", Max(100).Name)
	assert.Equal(t, "range(1..2.5)", Range(1, 2.5).Name)
	assert.Equal(t, "maxlen(3)", MaxLen(3).Name)
	assert.Equal(t, "oneof(a|b)", OneOf("a", "b").Name)
	assert.Equal(t, "tag(email)", Tag("email").Name)
}

func TestTagUnknownToValidator(t *testing.T) {
	c := Tag("emial")
	assert.Equal(t, "tag(emial)", c.Name)
	assert.Nil(t, c.Check)
	assert.Nil(t, Tag("gte=x").Check)
	assert.NotNil(t, Tag("required").Check)
}

func TestPatternPanicsOnBadExpression(t *testing.T) {
	assert.Panics(t, func() { Pattern("(") })
}
