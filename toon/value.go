package toon

import (
	"fmt"
	"math"
)

// Kind represents TOON value kinds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is a node of the TOON data model. Values are immutable once built;
// the encoder and the replacer pass never modify the tree they are given.
type Value struct {
	kind Kind

	boolVal  bool
	isInt    bool
	intVal   int64
	floatVal float64
	strVal   string

	members []Member
	items   []*Value
}

// Member is a key/value pair of an object. Objects keep members in insertion order.
type Member struct {
	Key   string
	Value *Value
}

// Omit is returned by a Replacer to drop the pair it was called for.
var Omit = &Value{kind: KindNull}

// ============================================================
// Constructors
// ============================================================

// Null creates a null value.
func Null() *Value {
	return &Value{kind: KindNull}
}

// Bool creates a boolean value.
func Bool(b bool) *Value {
	return &Value{kind: KindBool, boolVal: b}
}

// Int creates an integral number.
func Int(n int64) *Value {
	return &Value{kind: KindNumber, isInt: true, intVal: n}
}

// Float creates a fractional number. The value keeps its fractional kind
// even when f has no fractional part.
func Float(f float64) *Value {
	return &Value{kind: KindNumber, floatVal: f}
}

// Str creates a string value.
func Str(s string) *Value {
	return &Value{kind: KindString, strVal: s}
}

// Object creates an object from members in order.
func Object(members ...Member) *Value {
	return &Value{kind: KindObject, members: members}
}

// Array creates an array value.
func Array(items ...*Value) *Value {
	return &Value{kind: KindArray, items: items}
}

// M is shorthand for building a Member.
func M(key string, v *Value) Member {
	return Member{Key: key, Value: v}
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the value kind. A nil value is null.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether v is null.
func (v *Value) IsNull() bool {
	return v == nil || v.kind == KindNull
}

// IsScalar reports whether v is null, a boolean, a number or a string.
func (v *Value) IsScalar() bool {
	switch v.Kind() {
	case KindObject, KindArray:
		return false
	}
	return true
}

// IsInt reports whether v is an integral number.
func (v *Value) IsInt() bool {
	return v.Kind() == KindNumber && v.isInt
}

// AsBool returns the boolean value.
func (v *Value) AsBool() (bool, error) {
	if v.Kind() != KindBool {
		return false, fmt.Errorf("toon: expected bool, got %s", v.Kind())
	}
	return v.boolVal, nil
}

// AsInt returns the integer value. Fractional numbers are rejected.
func (v *Value) AsInt() (int64, error) {
	if v.Kind() != KindNumber {
		return 0, fmt.Errorf("toon: expected number, got %s", v.Kind())
	}
	if !v.isInt {
		return 0, fmt.Errorf("toon: expected integral number, got %v", v.floatVal)
	}
	return v.intVal, nil
}

// AsFloat returns the number as a float64, converting integral numbers.
func (v *Value) AsFloat() (float64, error) {
	if v.Kind() != KindNumber {
		return 0, fmt.Errorf("toon: expected number, got %s", v.Kind())
	}
	if v.isInt {
		return float64(v.intVal), nil
	}
	return v.floatVal, nil
}

// AsString returns the string value.
func (v *Value) AsString() (string, error) {
	if v.Kind() != KindString {
		return "", fmt.Errorf("toon: expected string, got %s", v.Kind())
	}
	return v.strVal, nil
}

// Members returns object members in order, or nil for non-objects.
func (v *Value) Members() []Member {
	if v.Kind() != KindObject {
		return nil
	}
	return v.members
}

// Items returns array elements, or nil for non-arrays.
func (v *Value) Items() []*Value {
	if v.Kind() != KindArray {
		return nil
	}
	return v.items
}

// Len returns the number of members or elements.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindObject:
		return len(v.members)
	case KindArray:
		return len(v.items)
	}
	return 0
}

// Get returns the member value for key, or nil.
func (v *Value) Get(key string) *Value {
	for _, m := range v.Members() {
		if m.Key == key {
			return m.Value
		}
	}
	return nil
}

// Has reports whether an object has a member named key.
func (v *Value) Has(key string) bool {
	for _, m := range v.Members() {
		if m.Key == key {
			return true
		}
	}
	return false
}

// Index returns the i-th element of an array.
func (v *Value) Index(i int) (*Value, error) {
	if v.Kind() != KindArray {
		return nil, fmt.Errorf("toon: not an array")
	}
	if i < 0 || i >= len(v.items) {
		return nil, fmt.Errorf("toon: index %d out of bounds (len=%d)", i, len(v.items))
	}
	return v.items[i], nil
}

// String renders v with the default encoder.
func (v *Value) String() string {
	return Encode(v)
}

// ============================================================
// Equality
// ============================================================

// Equal reports deep equality. Objects compare in member order and numbers
// compare by kind first, so Int(1) and Float(1) differ.
func Equal(a, b *Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindNull:
		return true
	case KindBool:
		return a.boolVal == b.boolVal
	case KindNumber:
		if a.isInt != b.isInt {
			return false
		}
		if a.isInt {
			return a.intVal == b.intVal
		}
		if math.IsNaN(a.floatVal) && math.IsNaN(b.floatVal) {
			return true
		}
		return a.floatVal == b.floatVal
	case KindString:
		return a.strVal == b.strVal
	case KindObject:
		if len(a.members) != len(b.members) {
			return false
		}
		for i := range a.members {
			if a.members[i].Key != b.members[i].Key || !Equal(a.members[i].Value, b.members[i].Value) {
				return false
			}
		}
		return true
	case KindArray:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	}
	return false
}
