package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Validate checks that args carry every required key and that each declared
// property has the declared primitive kind. Unknown keys are ignored.
func (s Schema) Validate(args map[string]any) error {
	for _, field := range s.Required {
		if _, ok := args[field]; !ok {
			return fmt.Errorf("missing required field %q", field)
		}
	}

	// Deterministic error reporting.
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		prop, ok := s.Properties[key]
		if !ok || prop.Type == "" {
			continue
		}
		if err := checkKind(args[key], prop.Type); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}
	return nil
}

func checkKind(value any, expected string) error {
	ok := false
	switch expected {
	case "string":
		_, ok = value.(string)
	case "number":
		ok = isNumber(value)
	case "integer":
		ok = isInteger(value)
	case "boolean":
		_, ok = value.(bool)
	case "object":
		_, ok = value.(map[string]any)
	case "array":
		_, ok = value.([]any)
	case "null":
		ok = value == nil
	default:
		return fmt.Errorf("unsupported schema type %q", expected)
	}
	if !ok {
		return fmt.Errorf("expected %s but got %s", expected, kindOf(value))
	}
	return nil
}

func isNumber(value any) bool {
	switch v := value.(type) {
	case float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return math.Trunc(float64(v)) == float64(v)
	case float64:
		return math.Trunc(v) == v
	case json.Number:
		_, err := v.Int64()
		return err == nil
	}
	return false
}

func kindOf(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if isNumber(value) {
		return "number"
	}
	return fmt.Sprintf("%T", value)
}
