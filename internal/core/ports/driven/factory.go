package driven

import "github.com/custodia-labs/factura-cli/internal/core/domain"

// ProviderBuilder creates a Provider for one site run.
type ProviderBuilder func(env ProviderEnv) (Provider, error)

// ProviderFactory creates providers from site configuration.
// It maintains a registry of provider types and their builders.
type ProviderFactory interface {
	// Create returns a Provider for env.Site.
	// Returns domain.ErrNotSupported if the provider key is unknown.
	Create(env ProviderEnv) (Provider, error)

	// Register adds a provider type and its builder.
	Register(providerType domain.ProviderType, builder ProviderBuilder)

	// Supports returns true if a builder is registered for key.
	Supports(key string) bool

	// Type returns the catalogue entry for key.
	Type(key string) (domain.ProviderType, bool)

	// Types returns all registered provider types in registration order.
	Types() []domain.ProviderType
}
