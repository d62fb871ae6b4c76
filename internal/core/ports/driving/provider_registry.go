package driving

import "github.com/custodia-labs/factura-cli/internal/core/domain"

// ProviderRegistry provides information about supported providers.
type ProviderRegistry interface {
	// List returns all supported provider types.
	List() []domain.ProviderType

	// Get returns the provider type for key.
	// Returns domain.ErrNotSupported if the key is unknown.
	Get(key string) (domain.ProviderType, error)

	// Find resolves a key, name or name prefix (case-insensitive) to a provider type.
	Find(query string) (domain.ProviderType, error)

	// ValidateCredentials checks credentials against a provider's required fields.
	ValidateCredentials(key string, credentials domain.Credentials) error
}
