// Package provider selects and builds the translator for a configuration.
//
// # Adding a New Provider
//
// Implement domain.ContentGenerator in a package under internal/provider,
// expose an explicit registration function that calls
// registry.RegisterFactory, and call it from RegisterBuiltins. There are no
// init() side effects; hosts and tests register what they need.
package provider

import (
	"github.com/tjfontaine/polyglot-agent/internal/provider/anthropic"
	"github.com/tjfontaine/polyglot-agent/internal/provider/gemini"
	"github.com/tjfontaine/polyglot-agent/internal/provider/openai"
	"github.com/tjfontaine/polyglot-agent/internal/provider/registry"
)

// Re-export types from registry for convenience
type ProviderFactory = registry.ProviderFactory

// RegisterFactory registers a provider factory (delegated to registry).
var RegisterFactory = registry.RegisterFactory

// GetFactory returns the factory for an auth mode (delegated to registry).
var GetFactory = registry.GetFactory

// ListFactories returns all registered provider factories (delegated to registry).
var ListFactories = registry.ListFactories

// ListProviderTypes returns all registered auth modes (delegated to registry).
var ListProviderTypes = registry.ListProviderTypes

// IsRegistered returns true if an auth mode is registered (delegated to registry).
var IsRegistered = registry.IsRegistered

// ClearFactories removes all registered factories (for testing only).
var ClearFactories = registry.ClearFactories

// RegisterBuiltins registers the OpenAI, Anthropic and Gemini relay
// translators. It is safe to call more than once.
func RegisterBuiltins() {
	openai.RegisterProviderFactory()
	anthropic.RegisterProviderFactory()
	gemini.RegisterProviderFactory()
}
