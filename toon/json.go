package toon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/buger/jsonparser"
)

// ============================================================
// JSON Bridge
// ============================================================
//
// TOON shares the JSON data model, so JSON is the natural way in and out
// of the value tree. FromJSON walks the raw document with jsonparser so
// object keys keep their source order.

// FromJSON converts a JSON document to a Value.
func FromJSON(data []byte) (*Value, error) {
	raw, typ, offset, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("toon: json parse error: %w", err)
	}
	if rest := bytes.TrimSpace(data[offset:]); len(rest) > 0 {
		return nil, fmt.Errorf("toon: json parse error: unexpected data after value: %q", truncate(rest, 16))
	}
	return fromJSONRaw(raw, typ)
}

func fromJSONRaw(raw []byte, typ jsonparser.ValueType) (*Value, error) {
	switch typ {
	case jsonparser.Null:
		return Null(), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(raw)
		if err != nil {
			return nil, fmt.Errorf("toon: json boolean: %w", err)
		}
		return Bool(b), nil
	case jsonparser.Number:
		return jsonNumber(string(raw))
	case jsonparser.String:
		s, err := jsonparser.ParseString(raw)
		if err != nil {
			return nil, fmt.Errorf("toon: json string: %w", err)
		}
		return Str(s), nil
	case jsonparser.Object:
		var members []Member
		var index map[string]int
		// ObjectEach hands over keys already unescaped. A repeated key keeps
		// its first position and takes the last value.
		err := jsonparser.ObjectEach(raw, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
			v, err := fromJSONRaw(value, dt)
			if err != nil {
				return err
			}
			k := string(key)
			if i, ok := index[k]; ok {
				members[i].Value = v
				return nil
			}
			if index == nil {
				index = make(map[string]int)
			}
			index[k] = len(members)
			members = append(members, Member{Key: k, Value: v})
			return nil
		})
		if err != nil {
			return nil, err
		}
		return Object(members...), nil
	case jsonparser.Array:
		items := []*Value{}
		var inner error
		_, err := jsonparser.ArrayEach(raw, func(value []byte, dt jsonparser.ValueType, _ int, err error) {
			if inner != nil {
				return
			}
			if err != nil {
				inner = err
				return
			}
			v, err := fromJSONRaw(value, dt)
			if err != nil {
				inner = err
				return
			}
			items = append(items, v)
		})
		if inner != nil {
			return nil, inner
		}
		if err != nil {
			return nil, fmt.Errorf("toon: json array: %w", err)
		}
		return Array(items...), nil
	}
	return nil, fmt.Errorf("toon: json parse error: unexpected value %q", truncate(raw, 16))
}

func jsonNumber(s string) (*Value, error) {
	integral, ok := numberLiteral(s)
	if !ok {
		return nil, fmt.Errorf("toon: json number %q is malformed", s)
	}
	if integral {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(n), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("toon: json number %q: %w", s, err)
	}
	return Float(f), nil
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

// FromAny converts a Go value to a Value through its encoding/json form.
// Structs keep their field order; map keys come out sorted.
func FromAny(x any) (*Value, error) {
	switch val := x.(type) {
	case *Value:
		return val, nil
	case nil:
		return Null(), nil
	case json.Number:
		return jsonNumber(val.String())
	}
	data, err := json.Marshal(x)
	if err != nil {
		return nil, fmt.Errorf("toon: convert %T: %w", x, err)
	}
	return FromJSON(data)
}

// ============================================================
// Value → JSON
// ============================================================

// MarshalJSON implements json.Marshaler. Member order is preserved and
// fractional numbers keep a fractional part.
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	*v = *parsed
	return nil
}

func writeJSON(buf *bytes.Buffer, v *Value) error {
	switch v.Kind() {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.boolVal))
	case KindNumber:
		if !v.isInt && (math.IsNaN(v.floatVal) || math.IsInf(v.floatVal, 0)) {
			buf.WriteString("null")
			return nil
		}
		buf.WriteString(formatNumber(v))
	case KindString:
		b, err := json.Marshal(v.strVal)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := writeJSON(buf, m.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}
	return nil
}

// Interface converts v to plain Go values: nil, bool, int64, float64,
// string, []any and map[string]any.
func (v *Value) Interface() any {
	switch v.Kind() {
	case KindBool:
		return v.boolVal
	case KindNumber:
		if v.isInt {
			return v.intVal
		}
		return v.floatVal
	case KindString:
		return v.strVal
	case KindObject:
		m := make(map[string]any, len(v.members))
		for _, mem := range v.members {
			m[mem.Key] = mem.Value.Interface()
		}
		return m
	case KindArray:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	}
	return nil
}
