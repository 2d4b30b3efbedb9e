// Package schema validates decoded TOON values against declared field
// shapes.
//
// A Schema is an ordered list of fields. Each field names a type, whether it
// is required, optional constraints, and for object and array fields a
// nested schema. Validation accumulates every violation in one pass:
//
//	s, err := schema.NewBuilder("User").
//		Field("id", schema.Integer, true, schema.Min(1)).
//		Field("email", schema.String, true, schema.Tag("email")).
//		ArrayField("roles", false, nil).
//		Build()
//
//	res := schema.Validate(v, s)
//	for _, e := range res.Errors {
//		fmt.Println(e.Path, e.Message)
//	}
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSchema is returned by Builder.Build for malformed schemas.
var ErrInvalidSchema = errors.New("schema: invalid schema")

// Type is the declared type of a field.
type Type uint8

const (
	Integer Type = iota
	Double
	String
	Boolean
	Object
	Array
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case Integer:
		return "integer"
	case Double:
		return "double"
	case String:
		return "string"
	case Boolean:
		return "boolean"
	case Object:
		return "object"
	case Array:
		return "array"
	default:
		return "unknown"
	}
}

// composite reports whether fields of type t may carry a nested schema.
func (t Type) composite() bool {
	return t == Object || t == Array
}

// Field is one declared member of a schema.
type Field struct {
	Name        string
	Type        Type
	Required    bool
	Schema      *Schema // nested schema for Object fields and Array elements
	Constraints []Constraint
}

// Schema is a named, ordered set of fields.
type Schema struct {
	Name   string
	Fields []*Field
}

// Field returns the field called name, or nil.
func (s *Schema) Field(name string) *Field {
	if s == nil {
		return nil
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// String returns a one-line description such as
// "User{id: integer [min(1)], tags?: array<Tag{name: string}>}".
func (s *Schema) String() string {
	var sb strings.Builder
	writeSchema(&sb, s)
	return sb.String()
}

func writeSchema(sb *strings.Builder, s *Schema) {
	sb.WriteString(s.Name)
	sb.WriteByte('{')
	for i, f := range s.Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f.Name)
		if !f.Required {
			sb.WriteByte('?')
		}
		sb.WriteString(": ")
		switch {
		case f.Type == Array && f.Schema != nil:
			sb.WriteString("array<")
			writeSchema(sb, f.Schema)
			sb.WriteByte('>')
		case f.Schema != nil:
			writeSchema(sb, f.Schema)
		default:
			sb.WriteString(f.Type.String())
		}
		for _, c := range f.Constraints {
			sb.WriteString(" [")
			sb.WriteString(c.Name)
			sb.WriteByte(']')
		}
	}
	sb.WriteByte('}')
}

// ============================================================
// Builder
// ============================================================

// Builder assembles a Schema. Configuration mistakes are collected and
// reported together by Build.
type Builder struct {
	name   string
	fields []*Field
}

// NewBuilder starts a schema called name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// Field declares a scalar, object or array field without a nested schema.
func (b *Builder) Field(name string, typ Type, required bool, constraints ...Constraint) *Builder {
	return b.Add(&Field{Name: name, Type: typ, Required: required, Constraints: constraints})
}

// ObjectField declares an object field validated against nested.
func (b *Builder) ObjectField(name string, required bool, nested *Schema, constraints ...Constraint) *Builder {
	return b.Add(&Field{Name: name, Type: Object, Required: required, Schema: nested, Constraints: constraints})
}

// ArrayField declares an array field whose elements are objects validated
// against nested. A nil nested schema leaves the elements unchecked.
func (b *Builder) ArrayField(name string, required bool, nested *Schema, constraints ...Constraint) *Builder {
	return b.Add(&Field{Name: name, Type: Array, Required: required, Schema: nested, Constraints: constraints})
}

// Add appends a prepared field.
func (b *Builder) Add(f *Field) *Builder {
	b.fields = append(b.fields, f)
	return b
}

// Build checks the declared fields and returns the schema.
func (b *Builder) Build() (*Schema, error) {
	var errs []error
	seen := make(map[string]struct{}, len(b.fields))
	for i, f := range b.fields {
		switch {
		case f == nil:
			errs = append(errs, fmt.Errorf("%w: field %d is nil", ErrInvalidSchema, i))
			continue
		case f.Name == "":
			errs = append(errs, fmt.Errorf("%w: field %d has no name", ErrInvalidSchema, i))
		case f.Type > Array:
			errs = append(errs, fmt.Errorf("%w: field %q has unknown type %d", ErrInvalidSchema, f.Name, f.Type))
		case f.Schema != nil && !f.Type.composite():
			errs = append(errs, fmt.Errorf("%w: %s field %q cannot have a nested schema", ErrInvalidSchema, f.Type, f.Name))
		}
		if _, dup := seen[f.Name]; dup && f.Name != "" {
			errs = append(errs, fmt.Errorf("%w: duplicate field %q", ErrInvalidSchema, f.Name))
		}
		seen[f.Name] = struct{}{}
		for _, c := range f.Constraints {
			if c.Check == nil {
				errs = append(errs, fmt.Errorf("%w: constraint %q on field %q has no check", ErrInvalidSchema, c.Name, f.Name))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	fields := make([]*Field, len(b.fields))
	copy(fields, b.fields)
	return &Schema{Name: b.name, Fields: fields}, nil
}

// MustBuild is like Build but panics on a malformed schema.
func (b *Builder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
