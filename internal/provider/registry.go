package provider

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tjfontaine/polyglot-agent/internal/config"
	"github.com/tjfontaine/polyglot-agent/internal/domain"
	"github.com/tjfontaine/polyglot-agent/internal/provider/registry"
)

// ResolveAuthMode returns the concrete auth mode for mode. The auto mode
// picks by model name: claude* models go to Anthropic, gemini* models to
// the Gemini relay, and everything else to the OpenAI translator.
func ResolveAuthMode(mode, model string) string {
	if mode != "" && mode != config.AuthModeAuto {
		return mode
	}

	name := strings.ToLower(model)
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	switch {
	case strings.HasPrefix(name, "claude"):
		return config.AuthModeAnthropic
	case strings.HasPrefix(name, "gemini"):
		return config.AuthModeGeminiRelay
	default:
		return config.AuthModeOpenAI
	}
}

// Registry creates translators from configuration using the registered
// factories.
type Registry struct {
	logger *slog.Logger
}

// NewRegistry creates a new provider registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// CreateProvider resolves the auth mode for cfg and builds its translator.
// When cfg names a model it becomes the default for requests without one.
func (r *Registry) CreateProvider(cfg config.ProviderConfig) (domain.ContentGenerator, error) {
	mode := ResolveAuthMode(cfg.AuthMode, cfg.Model)

	gen, err := registry.CreateFromFactory(mode, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider %s: %w", mode, err)
	}

	r.logger.Debug("provider created",
		slog.String("auth_mode", mode),
		slog.String("model", cfg.Model),
		slog.String("base_url", cfg.BaseURL),
	)

	if cfg.Model != "" {
		return NewDefaultModelGenerator(gen, cfg.Model), nil
	}
	return gen, nil
}

// New registers the built-in translators and creates one for cfg.
func New(cfg config.ProviderConfig, logger *slog.Logger) (domain.ContentGenerator, error) {
	RegisterBuiltins()
	return NewRegistry(logger).CreateProvider(cfg)
}
