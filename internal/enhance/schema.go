package enhance

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

// analysisSchema describes the JSON object the service must return.
// health_score and flags are required but later recomputed locally.
const analysisSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "required": ["health_score", "summary", "breakdown", "flags"],
  "properties": {
    "health_score": {"type": "integer", "minimum": 0, "maximum": 100},
    "summary": {"type": "string"},
    "breakdown": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["ingredient", "classification", "severity", "reason"],
        "properties": {
          "ingredient": {"type": "string", "minLength": 1},
          "classification": {"enum": ["Healthy", "Moderately Harmful", "Harmful"]},
          "severity": {"type": "integer", "minimum": 0, "maximum": 5},
          "reason": {"type": "string"}
        }
      }
    },
    "flags": {"type": "array", "items": {"type": "string"}}
  }
}`

// compiledSchema compiles analysisSchema once per process.
var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	schema, err := jsonschema.NewCompiler().Compile([]byte(analysisSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile analysis schema: %w", err)
	}
	return schema, nil
})

// validateContent checks raw completion content against analysisSchema.
func validateContent(content []byte) error {
	var value any
	if err := json.Unmarshal(content, &value); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	result := schema.Validate(value)
	if !result.Valid {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, result.Errors)
	}
	return nil
}
