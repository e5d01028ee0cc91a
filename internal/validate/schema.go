package validate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"

	"github.com/ckwokli/pws/internal/errs"
)

// OutputSchema is a compiled JSON Schema constraining a task output
type OutputSchema struct {
	raw    json.RawMessage
	schema *jsonschema.Schema
}

// CompileOutputSchema parses and compiles a caller-supplied schema. Blank
// input yields (nil, nil). Anything that is not a JSON object or does not
// compile is rejected as invalid input.
func CompileOutputSchema(raw string) (*OutputSchema, error) {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) == 0 {
		return nil, nil
	}

	var probe map[string]any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errs.Wrap(errs.KindInvalidInput, err, "output_schema must be a JSON object")
	}

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(data)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidInput, err, "output_schema is not a valid JSON Schema")
	}

	return &OutputSchema{raw: json.RawMessage(data), schema: schema}, nil
}

// MustCompileOutputSchema is CompileOutputSchema for built-in schemas
func MustCompileOutputSchema(raw string) *OutputSchema {
	s, err := CompileOutputSchema(raw)
	if err != nil || s == nil {
		panic(fmt.Sprintf("compile built-in schema: %v", err))
	}
	return s
}

// Raw returns the schema document
func (s *OutputSchema) Raw() json.RawMessage {
	if s == nil {
		return nil
	}
	return s.raw
}

// Validate checks a JSON document against the schema
func (s *OutputSchema) Validate(data []byte) error {
	result := s.schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("schema validation failed: %v", result.Errors)
}
