package schema

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Neumenon/toon/toon"
)

const jsonSchemaURL = "toon-schema.json"

var messagePrinter = message.NewPrinter(language.English)

// JSONSchema is a compiled JSON Schema document used to validate value
// trees decoded from TOON.
type JSONSchema struct {
	schema *jsonschema.Schema
}

// CompileJSONSchema compiles a JSON Schema document. Format assertions are
// enabled.
func CompileJSONSchema(doc []byte) (*JSONSchema, error) {
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schema JSON: %w", ErrInvalidSchema, err)
	}
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(jsonSchemaURL, parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to add schema resource: %w", ErrInvalidSchema, err)
	}
	s, err := c.Compile(jsonSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to compile schema: %w", ErrInvalidSchema, err)
	}
	return &JSONSchema{schema: s}, nil
}

// Validate checks v against the compiled document. Each leaf failure of the
// JSON Schema error tree becomes one ValidationError.
func (s *JSONSchema) Validate(v *toon.Value) *Result {
	data, err := v.MarshalJSON()
	if err != nil {
		return failed("", CodeSchemaViolation, err.Error())
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return failed("", CodeSchemaViolation, err.Error())
	}
	err = s.schema.Validate(inst)
	if err == nil {
		return &Result{Valid: true}
	}
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return failed("", CodeSchemaViolation, err.Error())
	}
	res := &Result{}
	collectSchemaErrors(verr, res)
	return res
}

func failed(path, code, msg string) *Result {
	return &Result{Errors: []ValidationError{{Path: path, Code: code, Message: msg}}}
}

func collectSchemaErrors(verr *jsonschema.ValidationError, res *Result) {
	if len(verr.Causes) == 0 {
		res.Errors = append(res.Errors, ValidationError{
			Path:    instancePath(verr.InstanceLocation),
			Code:    CodeSchemaViolation,
			Message: verr.ErrorKind.LocalizedString(messagePrinter),
		})
		return
	}
	for _, cause := range verr.Causes {
		collectSchemaErrors(cause, res)
	}
}

// instancePath renders a JSON pointer token list in validator path form:
// ["items", "2", "price"] becomes "items[2].price". A numeric token is read
// as an array index.
func instancePath(tokens []string) string {
	var sb strings.Builder
	for _, tok := range tokens {
		if _, err := strconv.Atoi(tok); err == nil && sb.Len() > 0 {
			sb.WriteString("[" + tok + "]")
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(tok)
	}
	return sb.String()
}
