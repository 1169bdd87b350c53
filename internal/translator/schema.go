package translator

import (
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// maxSchemaDepth bounds the recursion depth while walking a tool's
// JSON-Schema document; deeper nodes are replaced with null.
const maxSchemaDepth = 100

// geminiAllowedSchemaFields is the subset of JSON-Schema keywords Gemini's
// Schema type understands. Anything else is dropped silently per the
// "Gemini's subset of JSON Schema is honored by dropping unsupported
// keywords" rule.
var geminiAllowedSchemaFields = map[string]struct{}{
	"anyOf": {}, "default": {}, "description": {}, "enum": {}, "example": {},
	"format": {}, "items": {}, "maxItems": {}, "maxLength": {}, "maxProperties": {},
	"maximum": {}, "minItems": {}, "minLength": {}, "minProperties": {}, "minimum": {},
	"nullable": {}, "pattern": {}, "properties": {}, "propertyOrdering": {},
	"required": {}, "title": {}, "type": {},
}

// jsonSchemaToGeminiSchema converts an arbitrary JSON-Schema document (as
// carried on a canonical.ToolSchema) into a *genai.Schema, dropping
// keywords Gemini's dialect does not support (additionalProperties, $ref,
// etc). $ref targets are not resolved; a $ref keyword is simply dropped.
func jsonSchemaToGeminiSchema(raw json.RawMessage) (*genai.Schema, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("tool input_schema is not a JSON object: %w", err)
	}
	filtered := filterSchemaFields(doc, 0)
	b, err := json.Marshal(filtered)
	if err != nil {
		return nil, fmt.Errorf("re-marshal filtered schema: %w", err)
	}
	var schema genai.Schema
	if err := json.Unmarshal(b, &schema); err != nil {
		return nil, fmt.Errorf("unmarshal into genai.Schema: %w", err)
	}
	return &schema, nil
}

// filterSchemaFields recursively drops keywords not in
// geminiAllowedSchemaFields and normalizes the handful of keyword shapes
// Gemini's dialect differs on (nullable union types, allOf-of-one).
func filterSchemaFields(node any, depth int) any {
	if depth > maxSchemaDepth {
		return nil
	}
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))

		// JSON-Schema allows "type": ["string", "null"]; Gemini instead
		// wants "type": "string", "nullable": true.
		if t, ok := v["type"].([]any); ok {
			var nullable bool
			var typ any
			for _, e := range t {
				if s, ok := e.(string); ok && s == "null" {
					nullable = true
					continue
				}
				typ = e
			}
			if typ != nil {
				out["type"] = typ
			}
			if nullable {
				out["nullable"] = true
			}
		}

		// allOf with a single member is commonly used to attach a
		// description to a $ref; inline it.
		if all, ok := v["allOf"].([]any); ok && len(all) == 1 {
			if m, ok := all[0].(map[string]any); ok {
				for k, val := range m {
					if _, exists := v[k]; !exists {
						v[k] = val
					}
				}
			}
		}

		for k, val := range v {
			if k == "type" {
				if _, already := out["type"]; already {
					continue
				}
			}
			if _, allowed := geminiAllowedSchemaFields[k]; !allowed {
				continue
			}
			// "properties" maps property names to sub-schemas; the names are
			// not keywords, so only each sub-schema is filtered.
			if props, ok := val.(map[string]any); ok && k == "properties" {
				kept := make(map[string]any, len(props))
				for name, sub := range props {
					kept[name] = filterSchemaFields(sub, depth+1)
				}
				out[k] = kept
				continue
			}
			out[k] = filterSchemaFields(val, depth+1)
		}
		return out
	case []any:
		out := make([]any, 0, len(v))
		for _, e := range v {
			out = append(out, filterSchemaFields(e, depth+1))
		}
		return out
	default:
		return v
	}
}
