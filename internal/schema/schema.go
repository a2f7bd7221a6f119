// Package schema derives tool input schemas from Go structs and validates
// decoded tool arguments against them.
package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema is the object schema of a tool's input.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a single input field.
type Property struct {
	Type        string              `json:"type,omitempty"`
	Description string              `json:"description,omitempty"`
	Enum        []any               `json:"enum,omitempty"`
	Default     any                 `json:"default,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

// Generate produces a Schema from a Go struct type T.
// It uses struct tags (json, jsonschema) to derive the JSON Schema.
func Generate[T any]() Schema {
	var zero T
	r := &jsonschema.Reflector{DoNotReference: true}
	s := r.Reflect(&zero)

	root := extractRoot(s)

	return Schema{
		Type:       "object",
		Properties: schemaProperties(root),
		Required:   root.Required,
	}
}

// extractRoot resolves the root schema, following $ref to $defs if needed.
func extractRoot(s *jsonschema.Schema) *jsonschema.Schema {
	if s.Ref != "" && s.Definitions != nil {
		for _, def := range s.Definitions {
			if def.Type == "object" {
				return def
			}
		}
	}
	return s
}

// schemaProperties converts invopop's ordered property map into a plain map.
func schemaProperties(s *jsonschema.Schema) map[string]Property {
	if s.Properties == nil {
		return nil
	}
	props := make(map[string]Property)
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		props[pair.Key] = propertySchema(pair.Value)
	}
	return props
}

func propertySchema(s *jsonschema.Schema) Property {
	p := Property{
		Type:        s.Type,
		Description: s.Description,
		Default:     s.Default,
		Enum:        s.Enum,
	}

	// Pointer types come back as anyOf [T, null].
	if p.Type == "" {
		for _, sub := range s.AnyOf {
			if sub.Type != "null" && sub.Type != "" {
				p.Type = sub.Type
				break
			}
		}
	}

	if s.Properties != nil {
		p.Type = "object"
		p.Properties = schemaProperties(s)
		p.Required = s.Required
	}

	if s.Items != nil {
		items := propertySchema(s.Items)
		p.Items = &items
	}

	return p
}

// Map returns the schema as a generic JSON object, the shape vendor SDKs
// accept for tool parameters.
func (s Schema) Map() map[string]any {
	b, err := json.Marshal(s)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]any{"type": "object"}
	}
	return m
}

// PropertiesMap returns only the properties as a generic JSON object.
func (s Schema) PropertiesMap() map[string]any {
	m := s.Map()
	props, _ := m["properties"].(map[string]any)
	if props == nil {
		props = map[string]any{}
	}
	return props
}
