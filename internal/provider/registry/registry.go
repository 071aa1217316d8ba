// Package registry maps auth modes to translator constructors.
//
// Translator packages register themselves through an explicit function that
// provider.RegisterBuiltins calls at startup:
//
//	func RegisterProviderFactory() {
//	    if registry.IsRegistered(ProviderType) {
//	        return
//	    }
//	    registry.RegisterFactory(registry.ProviderFactory{
//	        Type:           ProviderType,
//	        Description:    "Google Gemini over an OpenAI-compatible relay",
//	        Create:         CreateFromConfig,
//	        ValidateConfig: ValidateConfig,
//	    })
//	}
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tjfontaine/polyglot-agent/internal/config"
	"github.com/tjfontaine/polyglot-agent/internal/domain"
)

// ProviderFactory builds the translator for one auth mode.
type ProviderFactory struct {
	// Type is the auth_mode value that selects this factory.
	Type string

	// Description is a one-line summary for listings.
	Description string

	Create func(cfg config.ProviderConfig) (domain.ContentGenerator, error)

	// ValidateConfig runs before Create when set.
	ValidateConfig func(cfg config.ProviderConfig) error
}

var (
	factoryMu   sync.RWMutex
	factoryMap  = make(map[string]ProviderFactory)
	factoryList []ProviderFactory
)

// RegisterFactory adds f. It panics on an empty type, a missing Create or a
// duplicate type.
func RegisterFactory(f ProviderFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if f.Type == "" {
		panic("registry: empty auth mode")
	}
	if f.Create == nil {
		panic(fmt.Sprintf("registry: %q has no Create", f.Type))
	}

	if _, exists := factoryMap[f.Type]; exists {
		panic(fmt.Sprintf("registry: %q registered twice", f.Type))
	}

	factoryMap[f.Type] = f
	factoryList = append(factoryList, f)
}

// GetFactory looks up the factory for an auth mode.
func GetFactory(authMode string) (ProviderFactory, bool) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factoryMap[authMode]
	return f, ok
}

// ListFactories returns a snapshot ordered by auth mode.
func ListFactories() []ProviderFactory {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	result := make([]ProviderFactory, len(factoryList))
	copy(result, factoryList)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Type < result[j].Type
	})
	return result
}

// ListProviderTypes returns the registered auth modes in order.
func ListProviderTypes() []string {
	factories := ListFactories()
	types := make([]string, len(factories))
	for i, f := range factories {
		types[i] = f.Type
	}
	return types
}

func IsRegistered(authMode string) bool {
	_, ok := GetFactory(authMode)
	return ok
}

// CreateFromFactory validates cfg and creates a translator for authMode.
func CreateFromFactory(authMode string, cfg config.ProviderConfig) (domain.ContentGenerator, error) {
	f, ok := GetFactory(authMode)
	if !ok {
		return nil, fmt.Errorf("unknown auth mode %q (registered: %v)", authMode, ListProviderTypes())
	}

	if f.ValidateConfig != nil {
		if err := f.ValidateConfig(cfg); err != nil {
			return nil, fmt.Errorf("%s config: %w", authMode, err)
		}
	}

	return f.Create(cfg)
}

// ClearFactories empties the registry. Tests use it to start clean.
func ClearFactories() {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	factoryMap = make(map[string]ProviderFactory)
	factoryList = nil
}
