// Package gemini reaches Gemini models through a relay that speaks the
// OpenAI chat-completions protocol. It reuses the OpenAI translator with a
// dialect that routes model names, forwards Gemini tool directives and
// understands the legacy function_call encoding.
package gemini

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/tjfontaine/polyglot-agent/internal/config"
	"github.com/tjfontaine/polyglot-agent/internal/provider/openai"
)

// DefaultRoutingPrefix is prepended to model names the relay must route to
// Google.
const DefaultRoutingPrefix = "google/"

// DefaultUnprefixedModels are families the relay serves under their bare
// names.
var DefaultUnprefixedModels = []string{"gpt-", "claude-", "o1", "o3"}

// DefaultReasoningFamilies take max_completion_tokens and reject an explicit
// temperature.
var DefaultReasoningFamilies = []string{"gemini-2.5", "gemini-3"}

// Routing decides how model names are presented to the relay.
type Routing struct {
	Prefix            string
	Unprefixed        []string
	ReasoningFamilies []string
}

// RoutingFromConfig fills unset relay settings with the defaults.
func RoutingFromConfig(cfg config.RelayConfig) Routing {
	r := Routing{
		Prefix:            cfg.RoutingPrefix,
		Unprefixed:        cfg.UnprefixedModels,
		ReasoningFamilies: cfg.ReasoningFamilies,
	}
	if r.Prefix == "" {
		r.Prefix = DefaultRoutingPrefix
	}
	if len(r.Unprefixed) == 0 {
		r.Unprefixed = DefaultUnprefixedModels
	}
	if len(r.ReasoningFamilies) == 0 {
		r.ReasoningFamilies = DefaultReasoningFamilies
	}
	return r
}

// MapModel adds the routing prefix unless the name already names a route
// or belongs to an unprefixed family.
func (r Routing) MapModel(model string) string {
	if model == "" || strings.Contains(model, "/") || hasFamily(model, r.Unprefixed) {
		return model
	}
	return r.Prefix + model
}

// IsReasoning reports whether model belongs to a reasoning family. A
// routing prefix on the name is ignored.
func (r Routing) IsReasoning(model string) bool {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	return hasFamily(model, r.ReasoningFamilies)
}

func hasFamily(model string, families []string) bool {
	model = strings.ToLower(model)
	return slices.ContainsFunc(families, func(f string) bool {
		return f != "" && strings.HasPrefix(model, strings.ToLower(f))
	})
}

// NewDialect returns the OpenAI dialect spoken by the relay.
func NewDialect(r Routing) openai.Dialect {
	return openai.Dialect{
		Name:                  ProviderType,
		MapModel:              r.MapModel,
		PassthroughDirectives: true,
		CompletionTokens:      r.IsReasoning,
		OmitTemperature:       r.IsReasoning,
		NewCallID:             uuid.NewString,
	}
}
