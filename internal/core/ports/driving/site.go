package driving

import (
	"context"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// SiteService manages configured sites.
type SiteService interface {
	// Add validates and stores a new site, assigning its ID and position.
	Add(ctx context.Context, site domain.Site) (*domain.Site, error)

	// Get retrieves a site by ID.
	Get(ctx context.Context, id string) (*domain.Site, error)

	// List returns all sites in configuration order.
	List(ctx context.Context) ([]domain.Site, error)

	// Update replaces a site's name and credentials.
	Update(ctx context.Context, site domain.Site) error

	// Remove deletes a site.
	Remove(ctx context.Context, id string) error

	// ResetFlags clears both failure flags of a site.
	ResetFlags(ctx context.Context, id string) error
}
