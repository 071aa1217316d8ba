package openai

import (
	"github.com/tjfontaine/polyglot-agent/internal/config"
	"github.com/tjfontaine/polyglot-agent/internal/domain"
	"github.com/tjfontaine/polyglot-agent/internal/provider/registry"
)

// ProviderType is the auth mode that selects this translator.
const ProviderType = config.AuthModeOpenAI

// RegisterProviderFactory registers the OpenAI-compatible translator.
func RegisterProviderFactory() {
	if registry.IsRegistered(ProviderType) {
		return
	}
	registry.RegisterFactory(registry.ProviderFactory{
		Type:           ProviderType,
		Description:    "OpenAI and OpenAI-compatible chat completions",
		Create:         CreateFromConfig,
		ValidateConfig: ValidateConfig,
	})
}

// CreateFromConfig creates a new OpenAI provider from configuration.
func CreateFromConfig(cfg config.ProviderConfig) (domain.ContentGenerator, error) {
	return New(cfg.APIKey, OptionsFromConfig(cfg)...), nil
}

// OptionsFromConfig returns the options shared by every OpenAI-protocol
// translator: endpoint, headers and model rules.
func OptionsFromConfig(cfg config.ProviderConfig) []ProviderOption {
	var opts []ProviderOption
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, WithHeaders(cfg.Headers))
	}

	rules := DefaultModelRules()
	if len(cfg.ModelRules.CompletionTokenModels) > 0 {
		rules.CompletionTokenModels = cfg.ModelRules.CompletionTokenModels
	}
	if len(cfg.ModelRules.ThinkingModels) > 0 {
		rules.ThinkingModels = cfg.ModelRules.ThinkingModels
	}
	opts = append(opts, WithModelRules(rules))

	return opts
}

// ValidateConfig validates the provider configuration.
func ValidateConfig(cfg config.ProviderConfig) error {
	// API key is optional for OpenAI-compatible providers (some local models don't need it)
	return nil
}
