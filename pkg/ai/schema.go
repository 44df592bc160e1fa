package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaVariant names a deployment's canonical evaluation shape.
type SchemaVariant string

const (
	SchemaV1 SchemaVariant = "v1"
	SchemaV2 SchemaVariant = "v2"
	SchemaV3 SchemaVariant = "v3"
)

const evaluationSchemaURL = "evaluation.schema.json"

var coreFields = []string{"score", "swotAnalysis", "mvpSuggestions", "businessModelIdeas"}

// RequiredFields returns the required top-level fields for a schema variant.
func RequiredFields(variant SchemaVariant) ([]string, error) {
	fields := append([]string(nil), coreFields...)
	switch SchemaVariant(strings.ToLower(strings.TrimSpace(string(variant)))) {
	case SchemaV1:
		return fields, nil
	case SchemaV2, "":
		return append(fields, "marketAnalysis"), nil
	case SchemaV3:
		return append(fields, "marketAnalysis", "isGibberish"), nil
	default:
		return nil, fmt.Errorf("unknown schema variant %q", variant)
	}
}

// SchemaValidator checks that a candidate is a JSON object carrying every
// required top-level field. Field values are not type checked.
type SchemaValidator struct {
	required []string
	schema   *jsonschema.Schema
}

// NewSchemaValidator compiles a presence-only schema for the given fields.
func NewSchemaValidator(required []string) (*SchemaValidator, error) {
	fields := make([]string, 0, len(required))
	seen := make(map[string]struct{}, len(required))
	for _, field := range required {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		fields = append(fields, field)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("at least one required field must be configured")
	}

	document, err := json.Marshal(map[string]interface{}{
		"type":     "object",
		"required": fields,
	})
	if err != nil {
		return nil, fmt.Errorf("encode evaluation schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(evaluationSchemaURL, bytes.NewReader(document)); err != nil {
		return nil, fmt.Errorf("add evaluation schema: %w", err)
	}
	schema, err := compiler.Compile(evaluationSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile evaluation schema: %w", err)
	}

	return &SchemaValidator{required: fields, schema: schema}, nil
}

// Validate reports whether candidate passes the presence-only check.
func (v *SchemaValidator) Validate(candidate interface{}) bool {
	if v == nil || v.schema == nil {
		return false
	}
	if _, ok := candidate.(map[string]interface{}); !ok {
		return false
	}
	return v.schema.Validate(candidate) == nil
}

// Fields returns a copy of the required field set.
func (v *SchemaValidator) Fields() []string {
	return append([]string(nil), v.required...)
}
