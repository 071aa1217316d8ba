package anthropic

import (
	"errors"

	"github.com/tjfontaine/polyglot-agent/internal/config"
	"github.com/tjfontaine/polyglot-agent/internal/domain"
	"github.com/tjfontaine/polyglot-agent/internal/provider/registry"
)

// ProviderType is the auth mode that selects this translator.
const ProviderType = config.AuthModeAnthropic

// RegisterProviderFactory registers the Anthropic translator.
func RegisterProviderFactory() {
	if registry.IsRegistered(ProviderType) {
		return
	}
	registry.RegisterFactory(registry.ProviderFactory{
		Type:           ProviderType,
		Description:    "Anthropic Messages API",
		Create:         CreateFromConfig,
		ValidateConfig: ValidateConfig,
	})
}

// CreateFromConfig creates a new Anthropic provider from configuration.
func CreateFromConfig(cfg config.ProviderConfig) (domain.ContentGenerator, error) {
	var opts []ProviderOption
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, WithHeaders(cfg.Headers))
	}
	return New(cfg.APIKey, opts...), nil
}

// ValidateConfig validates the provider configuration.
func ValidateConfig(cfg config.ProviderConfig) error {
	if cfg.APIKey == "" {
		return errors.New("api_key is required")
	}
	return nil
}
