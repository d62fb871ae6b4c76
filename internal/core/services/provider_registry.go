package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driving"
)

// Ensure ProviderRegistry implements the interface.
var _ driving.ProviderRegistry = (*ProviderRegistry)(nil)

// ProviderRegistry exposes the provider catalogue of a factory.
type ProviderRegistry struct {
	factory driven.ProviderFactory
}

// NewProviderRegistry creates a new ProviderRegistry.
func NewProviderRegistry(factory driven.ProviderFactory) *ProviderRegistry {
	return &ProviderRegistry{factory: factory}
}

// List returns all supported provider types in registration order.
func (r *ProviderRegistry) List() []domain.ProviderType {
	return r.factory.Types()
}

// Get returns the provider type for key.
func (r *ProviderRegistry) Get(key string) (domain.ProviderType, error) {
	pt, ok := r.factory.Type(key)
	if !ok {
		return domain.ProviderType{}, fmt.Errorf("%w: %s", domain.ErrNotSupported, key)
	}
	return pt, nil
}

// Find resolves an exact key, a display name or a unique name prefix.
// Matching ignores case.
func (r *ProviderRegistry) Find(query string) (domain.ProviderType, error) {
	query = strings.TrimSpace(query)
	if pt, ok := r.factory.Type(query); ok {
		return pt, nil
	}

	q := strings.ToLower(query)
	if q == "" {
		return domain.ProviderType{}, fmt.Errorf("%w: empty provider", domain.ErrInvalidInput)
	}

	var matches []domain.ProviderType
	for _, pt := range r.factory.Types() {
		name := strings.ToLower(pt.Name)
		if name == q || strings.ToLower(pt.Key) == q {
			return pt, nil
		}
		if strings.HasPrefix(name, q) {
			matches = append(matches, pt)
		}
	}

	switch len(matches) {
	case 0:
		return domain.ProviderType{}, fmt.Errorf("%w: %s", domain.ErrNotSupported, query)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		return domain.ProviderType{}, fmt.Errorf("%w: %q matches %s", domain.ErrInvalidInput, query, strings.Join(names, ", "))
	}
}

// ValidateCredentials checks credentials against a provider's required fields.
func (r *ProviderRegistry) ValidateCredentials(key string, credentials domain.Credentials) error {
	pt, err := r.Get(key)
	if err != nil {
		return err
	}
	return pt.Validate(credentials)
}
