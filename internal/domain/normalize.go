package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NormalizeContents converts caller-supplied conversation history into
// complete turns. Accepted shapes:
//
//   - string: one user turn with a single text part
//   - Content, *Content, []Content: passed through
//   - Part, []Part: one user turn holding the parts
//   - map with "role" and "parts" keys: decoded as a turn
//   - []any: each element normalized on its own
//   - anything else: serialized to JSON and wrapped as a user turn
//
// Turns that lack a role or parts are discarded, so every returned turn is
// complete.
func NormalizeContents(v any) []Content {
	var out []Content
	for _, c := range normalize(v) {
		if c.Role == "" || len(c.Parts) == 0 {
			continue
		}
		out = append(out, c)
	}
	return out
}

func normalize(v any) []Content {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return []Content{UserText(val)}
	case Content:
		return []Content{val}
	case *Content:
		if val == nil {
			return nil
		}
		return []Content{*val}
	case []Content:
		return val
	case Part:
		return []Content{{Role: RoleUser, Parts: []Part{val}}}
	case []Part:
		return []Content{{Role: RoleUser, Parts: val}}
	case []any:
		var out []Content
		for _, item := range val {
			out = append(out, normalizeItem(item))
		}
		return out
	default:
		return []Content{normalizeItem(val)}
	}
}

func normalizeItem(v any) Content {
	switch val := v.(type) {
	case string:
		return UserText(val)
	case Content:
		return val
	case *Content:
		if val != nil {
			return *val
		}
		return Content{}
	case Part:
		return Content{Role: RoleUser, Parts: []Part{val}}
	case map[string]any:
		if c, ok := decodeTurn(val); ok {
			return c
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return UserText(fmt.Sprint(v))
	}
	return UserText(string(b))
}

// decodeTurn converts a JSON-shaped turn such as one decoded from a request
// body into Content.
func decodeTurn(m map[string]any) (Content, bool) {
	if _, ok := m["role"]; !ok {
		return Content{}, false
	}
	if _, ok := m["parts"]; !ok {
		return Content{}, false
	}
	b, err := json.Marshal(m)
	if err != nil {
		return Content{}, false
	}
	var c Content
	if err := json.Unmarshal(b, &c); err != nil {
		return Content{}, false
	}
	return c, true
}

// ExtractText concatenates every text part across all turns. Parts within a
// turn are joined with a space and turns with a newline.
func ExtractText(contents []Content) string {
	var turns []string
	for _, c := range contents {
		var parts []string
		for _, p := range c.Parts {
			if p.IsText() {
				parts = append(parts, p.Text)
			}
		}
		if len(parts) > 0 {
			turns = append(turns, strings.Join(parts, " "))
		}
	}
	return strings.Join(turns, "\n")
}
