package domain

import "encoding/json"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// WireRole returns the role name used by chat-completion style wire formats.
// The canonical "model" role is always sent as "assistant".
func (r Role) WireRole() string {
	if r == RoleModel {
		return "assistant"
	}
	return string(r)
}

// RoleFromWire maps a provider role back to the canonical role.
func RoleFromWire(role string) Role {
	if role == "assistant" {
		return RoleModel
	}
	return Role(role)
}

// FunctionCall is a tool invocation requested by the model.
type FunctionCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// FunctionResponse carries the result of a tool invocation back to the model.
// ID is optional; when present it links the response to the originating call.
type FunctionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// Part is a single piece of a conversation turn. Exactly one of Text,
// FunctionCall or FunctionResponse is meaningful.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// IsText reports whether the part carries plain text.
func (p Part) IsText() bool {
	return p.FunctionCall == nil && p.FunctionResponse == nil && p.Text != ""
}

// Recognized reports whether the part is one of the supported kinds.
func (p Part) Recognized() bool {
	return p.IsText() || p.FunctionCall != nil || p.FunctionResponse != nil
}

// TextPart creates a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// FunctionCallPart creates a function call part.
func FunctionCallPart(id, name string, args map[string]any) Part {
	return Part{FunctionCall: &FunctionCall{ID: id, Name: name, Args: args}}
}

// FunctionResponsePart creates a function response part.
func FunctionResponsePart(id, name string, response map[string]any) Part {
	return Part{FunctionResponse: &FunctionResponse{ID: id, Name: name, Response: response}}
}

// Content is one conversation turn.
type Content struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// UserText creates a user turn holding a single text part.
func UserText(text string) Content {
	return Content{Role: RoleUser, Parts: []Part{TextPart(text)}}
}

// HasRecognizedParts reports whether the turn has at least one supported part.
// Turns without one are never sent to a provider.
func (c Content) HasRecognizedParts() bool {
	for _, p := range c.Parts {
		if p.Recognized() {
			return true
		}
	}
	return false
}

// Text concatenates the text parts of the turn.
func (c Content) Text() string {
	var result string
	for _, p := range c.Parts {
		if p.IsText() {
			result += p.Text
		}
	}
	return result
}

// FunctionResponses returns the function response parts of the turn.
func (c Content) FunctionResponses() []*FunctionResponse {
	var out []*FunctionResponse
	for _, p := range c.Parts {
		if p.FunctionResponse != nil {
			out = append(out, p.FunctionResponse)
		}
	}
	return out
}

// MarshalArgs serializes function call arguments, using "{}" for nil maps.
func MarshalArgs(args map[string]any) string {
	if args == nil {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ParseArgs parses a JSON argument string. Malformed or non-object input
// yields an empty map rather than an error.
func ParseArgs(raw string) map[string]any {
	args := map[string]any{}
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}
