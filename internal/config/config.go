// Package config loads agent settings from a YAML or JSON file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tjfontaine/polyglot-agent/internal/hooks"
)

// EnvPrefix is the prefix of environment variables that override settings.
// AGENT_PROVIDER__BASE_URL sets provider.base_url.
const EnvPrefix = "AGENT_"

// DefaultPath is the settings file read when no path is given.
const DefaultPath = "settings.yaml"

// Auth modes select the provider translator.
const (
	AuthModeAuto        = "auto"
	AuthModeOpenAI      = "openai"
	AuthModeAnthropic   = "anthropic"
	AuthModeGeminiRelay = "gemini-relay"
)

type Config struct {
	Provider ProviderConfig `koanf:"provider"`
	Session  SessionConfig  `koanf:"session"`
	Hooks    hooks.Settings `koanf:"hooks"`
	Debug    bool           `koanf:"debug"`
}

type ProviderConfig struct {
	AuthMode string            `koanf:"auth_mode"` // auto, openai, anthropic, gemini-relay
	APIKey   string            `koanf:"api_key"`
	BaseURL  string            `koanf:"base_url"`
	Model    string            `koanf:"model"`
	Headers  map[string]string `koanf:"headers"`
	Timeout  string            `koanf:"timeout"` // Duration string like "30s"

	ModelRules ModelRulesConfig `koanf:"model_rules"`
	Relay      RelayConfig      `koanf:"relay"`
}

// ModelRulesConfig overrides the model-name substrings that change how
// OpenAI-compatible requests are built. Empty lists keep the defaults.
type ModelRulesConfig struct {
	CompletionTokenModels []string `koanf:"completion_token_models"`
	ThinkingModels        []string `koanf:"thinking_models"`
}

// RelayConfig tunes the Gemini relay dialect. Empty values keep the defaults.
type RelayConfig struct {
	RoutingPrefix     string   `koanf:"routing_prefix"`
	UnprefixedModels  []string `koanf:"unprefixed_models"`
	ReasoningFamilies []string `koanf:"reasoning_families"`
}

type SessionConfig struct {
	ID             string `koanf:"id"`
	TranscriptPath string `koanf:"transcript_path"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads settings from path (DefaultPath when empty), then applies
// AGENT_ environment overrides. A missing default file is not an error; a
// missing explicit path is.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	// JSON settings files are valid YAML, so one parser covers both.
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	// Load environment variables (can override file config)
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("provider.auth_mode") {
		k.Set("provider.auth_mode", AuthModeAuto)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.Provider.APIKey = substituteEnvVars(cfg.Provider.APIKey)
	cfg.Provider.BaseURL = substituteEnvVars(cfg.Provider.BaseURL)
	for name, v := range cfg.Provider.Headers {
		cfg.Provider.Headers[name] = substituteEnvVars(v)
	}
	cfg.Session.TranscriptPath = substituteEnvVars(cfg.Session.TranscriptPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the provider auth mode and the hook settings.
func (c *Config) Validate() error {
	switch c.Provider.AuthMode {
	case AuthModeAuto, AuthModeOpenAI, AuthModeAnthropic, AuthModeGeminiRelay:
	default:
		return fmt.Errorf("unknown auth_mode %q", c.Provider.AuthMode)
	}
	if _, err := c.Provider.TimeoutDuration(); err != nil {
		return err
	}
	if err := c.Hooks.Validate(); err != nil {
		return fmt.Errorf("invalid hooks: %w", err)
	}
	return nil
}

// TimeoutDuration parses Timeout. An empty value means no timeout.
func (p ProviderConfig) TimeoutDuration() (time.Duration, error) {
	if p.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid provider timeout %q: %w", p.Timeout, err)
	}
	return d, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
