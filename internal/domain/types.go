package domain

import "time"

// FinishReason explains why generation stopped. Values other than the
// constants below are provider-specific and passed through verbatim.
type FinishReason string

const (
	FinishReasonStop      FinishReason = "STOP"
	FinishReasonToolCalls FinishReason = "TOOL_CALLS"
	FinishReasonMaxTokens FinishReason = "MAX_TOKENS"
)

// FunctionDeclaration describes a callable tool.
type FunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"` // JSON Schema
}

// Tool groups function declarations with optional provider directives.
// GoogleSearch, CodeExecution and URLContext are opaque and only understood
// by providers that support them natively.
type Tool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
	GoogleSearch         map[string]any        `json:"googleSearch,omitempty"`
	CodeExecution        map[string]any        `json:"codeExecution,omitempty"`
	URLContext           map[string]any        `json:"urlContext,omitempty"`
}

// GenerationConfig controls sampling, output shape and tool use.
type GenerationConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	TopP            *float32 `json:"topP,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`

	// ResponseMIMEType set to "application/json" together with a
	// ResponseSchema enables forced-JSON mode.
	ResponseMIMEType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`

	Tools             []Tool   `json:"tools,omitempty"`
	SystemInstruction *Content `json:"systemInstruction,omitempty"`

	// Timeout bounds the whole provider call when non-zero.
	Timeout time.Duration `json:"-"`
}

// ForcedJSON reports whether the request asks for schema-conformant JSON.
func (c GenerationConfig) ForcedJSON() bool {
	return c.ResponseMIMEType == "application/json" && c.ResponseSchema != nil
}

// FunctionDeclarations flattens the function declarations of all tools.
func (c GenerationConfig) FunctionDeclarations() []FunctionDeclaration {
	var out []FunctionDeclaration
	for _, t := range c.Tools {
		out = append(out, t.FunctionDeclarations...)
	}
	return out
}

// GenerateRequest is the canonical generation request.
// Contents are kept in conversation order.
type GenerateRequest struct {
	Model    string           `json:"model"`
	Contents []Content        `json:"contents"`
	Config   GenerationConfig `json:"config"`
}

// Usage reports token consumption.
type Usage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// NewUsage builds a Usage whose total is always prompt + candidates.
// Negative inputs are clamped to zero.
func NewUsage(prompt, candidates int) Usage {
	prompt = max(prompt, 0)
	candidates = max(candidates, 0)
	return Usage{
		PromptTokenCount:     prompt,
		CandidatesTokenCount: candidates,
		TotalTokenCount:      prompt + candidates,
	}
}

// GenerateResponse is the canonical generation result. Streaming calls yield
// a sequence of partial responses of the same shape.
type GenerateResponse struct {
	Text          string         `json:"text"`
	FunctionCalls []FunctionCall `json:"functionCalls,omitempty"`
	FinishReason  FinishReason   `json:"finishReason,omitempty"`
	Usage         Usage          `json:"usageMetadata"`
}

// StreamEvent is one element of a streaming response: either a partial
// response or a terminal error.
type StreamEvent struct {
	Response *GenerateResponse
	Err      error
}

// CountTokensRequest asks for the token count of a conversation.
type CountTokensRequest struct {
	Model    string    `json:"model"`
	Contents []Content `json:"contents"`
}

// CountTokensResponse is an approximate token count.
type CountTokensResponse struct {
	TotalTokens int `json:"totalTokens"`
}

// EmbedRequest asks for an embedding of the text in Contents.
type EmbedRequest struct {
	Model    string    `json:"model"`
	Contents []Content `json:"contents"`
}

// Embedding is a single embedding vector.
type Embedding struct {
	Values []float64 `json:"values"`
}

// EmbedResponse holds the returned embeddings.
type EmbedResponse struct {
	Embeddings []Embedding `json:"embeddings"`
}
