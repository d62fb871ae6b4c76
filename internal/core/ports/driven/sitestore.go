package driven

import (
	"context"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// SiteStore persists site configurations.
type SiteStore interface {
	// Save stores or updates a site.
	Save(ctx context.Context, site domain.Site) error

	// Get retrieves a site by ID.
	Get(ctx context.Context, id string) (*domain.Site, error)

	// Delete removes a site.
	Delete(ctx context.Context, id string) error

	// List returns all sites in configuration order.
	List(ctx context.Context) ([]domain.Site, error)

	// UpdateFlags sets the sticky failure flags of a site.
	UpdateFlags(ctx context.Context, id string, authFailed, fetchFailed bool) error
}
