package openai

import (
	"slices"
	"strings"
)

// DefaultTemperature is sent when the caller does not set one.
const DefaultTemperature float32 = 0.7

// ModelRules holds the model-name substrings that change request shape.
// Matching is case-insensitive.
type ModelRules struct {
	// CompletionTokenModels take max_completion_tokens instead of max_tokens.
	CompletionTokenModels []string
	// ThinkingModels only accept temperature 1.
	ThinkingModels []string
}

// DefaultModelRules returns the rules for current OpenAI model families.
func DefaultModelRules() ModelRules {
	return ModelRules{
		CompletionTokenModels: []string{"gpt-4o", "o1", "o3", "chatgpt-4o-latest"},
		ThinkingModels:        []string{"o1", "o3"},
	}
}

// UsesCompletionTokens reports whether model takes max_completion_tokens.
func (r ModelRules) UsesCompletionTokens(model string) bool {
	return containsAny(model, r.CompletionTokenModels)
}

// IsThinking reports whether model is a reasoning model with a fixed
// temperature.
func (r ModelRules) IsThinking(model string) bool {
	return containsAny(model, r.ThinkingModels)
}

func containsAny(model string, substrings []string) bool {
	model = strings.ToLower(model)
	return slices.ContainsFunc(substrings, func(s string) bool {
		return s != "" && strings.Contains(model, strings.ToLower(s))
	})
}

// Dialect adjusts the translator for relays that speak a variant of the
// chat-completions protocol. The zero value is plain OpenAI.
type Dialect struct {
	// Name is used in errors and span names. Defaults to "openai".
	Name string

	// MapModel rewrites the model name sent on the wire.
	MapModel func(model string) string

	// PassthroughDirectives forwards non-function tool directives
	// (googleSearch, codeExecution, urlContext) as opaque tool objects.
	PassthroughDirectives bool

	// CompletionTokens, when set, replaces ModelRules in choosing
	// max_completion_tokens over max_tokens.
	CompletionTokens func(model string) bool

	// OmitTemperature leaves temperature unset for matching models.
	OmitTemperature func(model string) bool

	// NewCallID enables the legacy single function_call encoding and
	// supplies ids for calls received that way.
	NewCallID func() string
}

func (d Dialect) name() string {
	if d.Name == "" {
		return ProviderType
	}
	return d.Name
}

func (d Dialect) wireModel(model string) string {
	if d.MapModel == nil {
		return model
	}
	return d.MapModel(model)
}

func (d Dialect) legacyFunctionCall() bool {
	return d.NewCallID != nil
}
