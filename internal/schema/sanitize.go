// Package schema prepares tool parameter schemas for providers that enforce
// strict JSON Schema conformance.
package schema

import (
	"strconv"
	"strings"
)

var validTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
	"array":   true,
	"object":  true,
	"null":    true,
}

// Meta keys that strict providers reject.
var strippedKeys = []string{"$schema", "$id", "definitions", "$defs"}

// Constraints that some callers send as strings.
var numericKeys = []string{"minItems", "maxItems", "minLength", "maxLength"}

// Sanitize returns a cleaned copy of a parameter schema. The input is never
// modified. A nil or empty root becomes an object without properties. Any
// other root whose type is not "object" is wrapped as
//
//	{"type":"object","properties":{"value":<root>},"required":["value"]}
func Sanitize(in map[string]any) map[string]any {
	if in == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}
	root := sanitizeNode(in)
	if isEmptySchema(root) {
		root["type"] = "object"
		root["properties"] = map[string]any{}
		return root
	}
	if t, _ := root["type"].(string); t != "object" {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{"value": root},
			"required":   []any{"value"},
		}
	}
	return root
}

// isEmptySchema reports whether a root carries no constraints, only
// annotations. Such a root describes a tool without parameters.
func isEmptySchema(root map[string]any) bool {
	for k := range root {
		if k != "description" && k != "title" {
			return false
		}
	}
	return true
}

func sanitizeNode(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	for _, k := range strippedKeys {
		delete(out, k)
	}

	if raw, ok := out["type"]; ok {
		out["type"] = normalizeType(raw)
	} else if _, hasProps := out["properties"]; hasProps {
		out["type"] = "object"
	}

	for _, k := range numericKeys {
		if s, ok := out[k].(string); ok {
			if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				if n == float64(int64(n)) {
					out[k] = int64(n)
				} else {
					out[k] = n
				}
			}
		}
	}

	if props, ok := out["properties"].(map[string]any); ok {
		cleaned := make(map[string]any, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				cleaned[name] = sanitizeNode(pm)
			} else {
				cleaned[name] = p
			}
		}
		out["properties"] = cleaned
	}

	if items, ok := out["items"].(map[string]any); ok {
		out["items"] = sanitizeNode(items)
	}
	if ap, ok := out["additionalProperties"].(map[string]any); ok {
		out["additionalProperties"] = sanitizeNode(ap)
	}

	for _, k := range []string{"anyOf", "oneOf", "allOf"} {
		list, ok := out[k].([]any)
		if !ok {
			continue
		}
		cleaned := make([]any, len(list))
		for i, item := range list {
			if m, ok := item.(map[string]any); ok {
				cleaned[i] = sanitizeNode(m)
			} else {
				cleaned[i] = item
			}
		}
		out[k] = cleaned
	}

	return out
}

// normalizeType collapses nested type objects and type unions to a single
// lower-case scalar from the supported set, defaulting to "object".
func normalizeType(raw any) string {
	switch v := raw.(type) {
	case string:
		t := strings.ToLower(strings.TrimSpace(v))
		if validTypes[t] {
			return t
		}
		return "object"
	case map[string]any:
		if inner, ok := v["type"]; ok {
			return normalizeType(inner)
		}
		return "object"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && !strings.EqualFold(s, "null") {
				return normalizeType(s)
			}
		}
		if len(v) > 0 {
			return "null"
		}
		return "object"
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return normalizeType(items)
	default:
		return "object"
	}
}
