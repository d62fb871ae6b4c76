package providers

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/providers/bolretail"
	"github.com/custodia-labs/factura-cli/internal/providers/gmail"
	"github.com/custodia-labs/factura-cli/internal/providers/mollie"
	"github.com/custodia-labs/factura-cli/internal/providers/portal"
	"github.com/custodia-labs/factura-cli/internal/providers/transip"
)

// Ensure Factory implements the interface.
var _ driven.ProviderFactory = (*Factory)(nil)

// Factory maps provider keys to builders.
type Factory struct {
	mu       sync.RWMutex
	order    []string
	types    map[string]domain.ProviderType
	builders map[string]driven.ProviderBuilder
}

// NewFactory creates a factory with every built-in provider registered.
func NewFactory() *Factory {
	f := NewEmptyFactory()
	f.registerBuiltins()
	return f
}

// NewEmptyFactory creates a factory without providers.
func NewEmptyFactory() *Factory {
	return &Factory{
		types:    make(map[string]domain.ProviderType),
		builders: make(map[string]driven.ProviderBuilder),
	}
}

func (f *Factory) registerBuiltins() {
	f.Register(mollie.Type(), mollie.New)
	f.Register(bolretail.Type(), bolretail.New)
	f.Register(transip.Type(), transip.New)
	f.Register(gmail.Type(), gmail.New)
	for _, preset := range portal.Presets() {
		f.Register(preset.Type(), preset.Builder())
	}
}

// Create returns a Provider for env.Site.
func (f *Factory) Create(env driven.ProviderEnv) (driven.Provider, error) {
	f.mu.RLock()
	builder, ok := f.builders[env.Site.ProviderKey]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotSupported, env.Site.ProviderKey)
	}
	return builder(env)
}

// Register adds a provider type and its builder. Registering a key twice
// replaces the builder and keeps the original position.
func (f *Factory) Register(providerType domain.ProviderType, builder driven.ProviderBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.types[providerType.Key]; !exists {
		f.order = append(f.order, providerType.Key)
	}
	f.types[providerType.Key] = providerType
	f.builders[providerType.Key] = builder
}

// Supports returns true if a builder is registered for key.
func (f *Factory) Supports(key string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.builders[key]
	return ok
}

// Type returns the catalogue entry for key.
func (f *Factory) Type(key string) (domain.ProviderType, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	pt, ok := f.types[key]
	return pt, ok
}

// Types returns all registered provider types in registration order.
func (f *Factory) Types() []domain.ProviderType {
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]domain.ProviderType, 0, len(f.order))
	for _, key := range f.order {
		result = append(result, f.types[key])
	}
	return result
}
