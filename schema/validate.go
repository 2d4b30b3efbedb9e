package schema

import (
	"errors"
	"fmt"
	"math"

	"github.com/Neumenon/toon/toon"
)

// Error codes carried by ValidationError.Code.
const (
	CodeMissingField     = "missing_field"
	CodeTypeMismatch     = "type_mismatch"
	CodeConstraintFailed = "constraint_failed"
	CodeSchemaViolation  = "schema_violation"
)

// ValidationError represents a validation failure.
type ValidationError struct {
	Path    string // field path such as "user.address.zip" or "items[2].price"
	Code    string // machine-readable error code
	Message string // human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Result contains every violation found by one validation pass.
type Result struct {
	Valid  bool
	Errors []ValidationError
}

// Err returns nil for a valid result and otherwise the joined errors.
func (r *Result) Err() error {
	if r.Valid {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i := range r.Errors {
		errs[i] = &r.Errors[i]
	}
	return errors.Join(errs...)
}

// Validate checks v against s. It never stops at the first failure: every
// missing field, type mismatch and failed constraint is reported.
func Validate(v *toon.Value, s *Schema) *Result {
	var c checker
	if v.Kind() != toon.KindObject {
		c.addError("", CodeTypeMismatch, "type mismatch: %s", s.Name)
	} else {
		c.object(v, s, "")
	}
	return &Result{Valid: len(c.errors) == 0, Errors: c.errors}
}

// IsValid reports whether v passes validation against s.
func IsValid(v *toon.Value, s *Schema) bool {
	return Validate(v, s).Valid
}

// ValidateText decodes text with opts and validates the result. A decode
// failure is returned as the error; validation failures are in the Result.
func ValidateText(text string, s *Schema, opts toon.DecodeOptions) (*Result, error) {
	dec, err := toon.NewDecoder(opts)
	if err != nil {
		return nil, err
	}
	v, err := dec.Decode(text)
	if err != nil {
		return nil, err
	}
	return Validate(v, s), nil
}

type checker struct {
	errors []ValidationError
}

func (c *checker) object(v *toon.Value, s *Schema, path string) {
	for _, f := range s.Fields {
		fieldPath := joinPath(path, f.Name)
		fv := v.Get(f.Name)

		// Null counts as absent
		if fv.IsNull() {
			if f.Required {
				c.addError(fieldPath, CodeMissingField, "missing field: %s", f.Name)
			}
			continue
		}
		if !matches(fv, f.Type) {
			c.addError(fieldPath, CodeTypeMismatch, "type mismatch: %s", f.Name)
			continue
		}
		for _, con := range f.Constraints {
			if !con.Check(fv) {
				c.addError(fieldPath, CodeConstraintFailed, "constraint failed: %s (%s)", f.Name, con.Name)
			}
		}
		if f.Schema == nil {
			continue
		}
		switch f.Type {
		case Object:
			c.object(fv, f.Schema, fieldPath)
		case Array:
			for i, item := range fv.Items() {
				itemPath := fmt.Sprintf("%s[%d]", fieldPath, i)
				if item.Kind() != toon.KindObject {
					c.addError(itemPath, CodeTypeMismatch, "type mismatch: %s[%d]", f.Name, i)
					continue
				}
				c.object(item, f.Schema, itemPath)
			}
		}
	}
}

func (c *checker) addError(path, code, format string, args ...any) {
	c.errors = append(c.errors, ValidationError{
		Path:    path,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}

// matches reports whether v has the kind declared by t. Integer accepts
// fractional numbers whose value is integral.
func matches(v *toon.Value, t Type) bool {
	switch t {
	case Integer:
		if v.IsInt() {
			return true
		}
		f, err := v.AsFloat()
		return err == nil && !math.IsInf(f, 0) && f == math.Trunc(f)
	case Double:
		return v.Kind() == toon.KindNumber
	case String:
		return v.Kind() == toon.KindString
	case Boolean:
		return v.Kind() == toon.KindBool
	case Object:
		return v.Kind() == toon.KindObject
	case Array:
		return v.Kind() == toon.KindArray
	}
	return false
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}
