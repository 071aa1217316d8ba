package gemini

import (
	"errors"

	"github.com/tjfontaine/polyglot-agent/internal/config"
	"github.com/tjfontaine/polyglot-agent/internal/domain"
	"github.com/tjfontaine/polyglot-agent/internal/provider/openai"
	"github.com/tjfontaine/polyglot-agent/internal/provider/registry"
)

// ProviderType is the auth mode that selects this translator.
const ProviderType = config.AuthModeGeminiRelay

// New creates a relay translator. Options are applied after the dialect, so
// a caller-supplied openai.WithDialect wins.
func New(apiKey string, r Routing, opts ...openai.ProviderOption) *openai.Provider {
	all := append([]openai.ProviderOption{openai.WithDialect(NewDialect(r))}, opts...)
	return openai.New(apiKey, all...)
}

// RegisterProviderFactory registers the Gemini relay translator.
func RegisterProviderFactory() {
	if registry.IsRegistered(ProviderType) {
		return
	}
	registry.RegisterFactory(registry.ProviderFactory{
		Type:           ProviderType,
		Description:    "Gemini models through an OpenAI-compatible relay",
		Create:         CreateFromConfig,
		ValidateConfig: ValidateConfig,
	})
}

// CreateFromConfig creates a relay translator from configuration.
func CreateFromConfig(cfg config.ProviderConfig) (domain.ContentGenerator, error) {
	return New(cfg.APIKey, RoutingFromConfig(cfg.Relay), openai.OptionsFromConfig(cfg)...), nil
}

// ValidateConfig requires an explicit relay endpoint.
func ValidateConfig(cfg config.ProviderConfig) error {
	if cfg.BaseURL == "" {
		return errors.New("base_url is required for the gemini relay")
	}
	return nil
}
