package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaViolation is one failed constraint. Path is a JSON pointer into the record.
type SchemaViolation struct {
	Path    string
	Message string
}

// Key returns the top-level record key the violation points at, if any.
func (v SchemaViolation) Key() string {
	p := strings.TrimPrefix(v.Path, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return p
}

func (v SchemaViolation) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// ValidateAgainstSchema checks record against schemaMap and returns every
// violated constraint. A non-nil error means the schema itself could not be compiled.
func ValidateAgainstSchema(schemaMap map[string]any, record map[string]string) ([]SchemaViolation, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	doc := make(map[string]any, len(record))
	for k, v := range record {
		doc[k] = v
	}
	err = schema.Validate(doc)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("validate record: %w", err)
	}
	var out []SchemaViolation
	collectViolations(ve, &out)
	return out, nil
}

func collectViolations(ve *jsonschema.ValidationError, out *[]SchemaViolation) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, SchemaViolation{Path: loc, Message: ve.Message})
		return
	}
	for _, c := range ve.Causes {
		collectViolations(c, out)
	}
}
