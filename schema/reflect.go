package schema

import (
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// FromType derives a schema from the struct type T. Every exported field
// becomes a required field named after its json tag. Nested structs and
// slices of structs get nested schemas; fields of interface type are left
// out because they carry no declared shape.
func FromType[T any]() (*Schema, error) {
	return fromReflectType(reflect.TypeFor[T]())
}

// FromValue derives a schema from the dynamic type of x, which must be a
// struct or a pointer to one.
func FromValue(x any) (*Schema, error) {
	if x == nil {
		return nil, fmt.Errorf("%w: cannot derive a schema from nil", ErrInvalidSchema)
	}
	return fromReflectType(reflect.TypeOf(x))
}

func fromReflectType(t reflect.Type) (*Schema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct type", ErrInvalidSchema, t)
	}
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	js := r.ReflectFromType(t)
	return fromJSONSchema(t.Name(), js)
}

// fromJSONSchema converts a reflected object schema into a Schema.
func fromJSONSchema(name string, js *jsonschema.Schema) (*Schema, error) {
	b := NewBuilder(name)
	if js.Properties != nil {
		for el := js.Properties.Oldest(); el != nil; el = el.Next() {
			f, ok, err := fieldFromProperty(el.Key, el.Value)
			if err != nil {
				return nil, err
			}
			if ok {
				b.Add(f)
			}
		}
	}
	return b.Build()
}

func fieldFromProperty(name string, prop *jsonschema.Schema) (*Field, bool, error) {
	f := &Field{Name: name, Required: true}
	switch prop.Type {
	case "integer":
		f.Type = Integer
	case "number":
		f.Type = Double
	case "string":
		f.Type = String
	case "boolean":
		f.Type = Boolean
	case "object":
		f.Type = Object
		if prop.Properties != nil && prop.Properties.Len() > 0 {
			nested, err := fromJSONSchema(name, prop)
			if err != nil {
				return nil, false, err
			}
			f.Schema = nested
		}
	case "array":
		f.Type = Array
		if it := prop.Items; it != nil && it.Type == "object" && it.Properties != nil && it.Properties.Len() > 0 {
			nested, err := fromJSONSchema(name, it)
			if err != nil {
				return nil, false, err
			}
			f.Schema = nested
		}
	default:
		return nil, false, nil
	}
	return f, true, nil
}
