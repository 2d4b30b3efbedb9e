package schema

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/Neumenon/toon/toon"
)

// Constraint is a named predicate over a field value. Constraints run only
// after the value matched the declared type.
type Constraint struct {
	Name  string
	Check func(v *toon.Value) bool
}

// Predicate wraps an arbitrary check.
func Predicate(name string, check func(v *toon.Value) bool) Constraint {
	return Constraint{Name: name, Check: check}
}

// Min holds for numbers greater than or equal to n.
func Min(n float64) Constraint {
	return Constraint{
		Name: "min(" + formatFloat(n) + ")",
		Check: func(v *toon.Value) bool {
			f, err := v.AsFloat()
			return err == nil && f >= n
		},
	}
}

// Max holds for numbers less than or equal to n.
func Max(n float64) Constraint {
	return Constraint{
		Name: "max(" + formatFloat(n) + ")",
		Check: func(v *toon.Value) bool {
			f, err := v.AsFloat()
			return err == nil && f <= n
		},
	}
}

// Range holds for numbers in [lo, hi].
func Range(lo, hi float64) Constraint {
	return Constraint{
		Name: "range(" + formatFloat(lo) + ".." + formatFloat(hi) + ")",
		Check: func(v *toon.Value) bool {
			f, err := v.AsFloat()
			return err == nil && f >= lo && f <= hi
		},
	}
}

// MinLen holds for strings of at least n characters and for arrays and
// objects with at least n elements.
func MinLen(n int) Constraint {
	return Constraint{
		Name: "minlen(" + strconv.Itoa(n) + ")",
		Check: func(v *toon.Value) bool {
			l, ok := length(v)
			return ok && l >= n
		},
	}
}

// MaxLen is the upper bound counterpart of MinLen.
func MaxLen(n int) Constraint {
	return Constraint{
		Name: "maxlen(" + strconv.Itoa(n) + ")",
		Check: func(v *toon.Value) bool {
			l, ok := length(v)
			return ok && l <= n
		},
	}
}

// Pattern holds for strings matching expr. It panics if expr does not
// compile.
func Pattern(expr string) Constraint {
	re := regexp.MustCompile(expr)
	return Constraint{
		Name: "pattern(" + expr + ")",
		Check: func(v *toon.Value) bool {
			s, err := v.AsString()
			return err == nil && re.MatchString(s)
		},
	}
}

// OneOf holds for strings equal to one of values.
func OneOf(values ...string) Constraint {
	allowed := slices.Clone(values)
	return Constraint{
		Name: "oneof(" + strings.Join(allowed, "|") + ")",
		Check: func(v *toon.Value) bool {
			s, err := v.AsString()
			return err == nil && slices.Contains(allowed, s)
		},
	}
}

var tagValidator = validator.New(validator.WithRequiredStructEnabled())

// Tag evaluates a validator tag such as "email" or "gte=18,lte=120"
// against the plain Go form of the value. A tag the validator does not
// know yields a constraint without a Check, which Build rejects.
func Tag(tag string) Constraint {
	c := Constraint{Name: "tag(" + tag + ")"}
	if _, ok := varTag("", tag); !ok {
		return c
	}
	c.Check = func(v *toon.Value) bool {
		passed, ok := varTag(v.Interface(), tag)
		return ok && passed
	}
	return c
}

// varTag runs the validator on x. ok is false when the validator panicked,
// which it does for undefined tags and malformed parameters.
func varTag(x any, tag string) (passed, ok bool) {
	defer func() {
		if recover() != nil {
			passed, ok = false, false
		}
	}()
	return tagValidator.Var(x, tag) == nil, true
}

func length(v *toon.Value) (int, bool) {
	switch v.Kind() {
	case toon.KindString:
		s, _ := v.AsString()
		return utf8.RuneCountInString(s), true
	case toon.KindArray, toon.KindObject:
		return v.Len(), true
	}
	return 0, false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// String returns the constraint name.
func (c Constraint) String() string {
	if c.Name == "" {
		return fmt.Sprintf("constraint(%p)", c.Check)
	}
	return c.Name
}
