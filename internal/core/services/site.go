package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driving"
)

// Ensure SiteService implements the interface.
var _ driving.SiteService = (*SiteService)(nil)

// SiteService manages configured sites.
type SiteService struct {
	siteStore driven.SiteStore
	registry  driving.ProviderRegistry
}

// NewSiteService creates a new site service.
func NewSiteService(siteStore driven.SiteStore, registry driving.ProviderRegistry) *SiteService {
	return &SiteService{
		siteStore: siteStore,
		registry:  registry,
	}
}

// Add validates and stores a new site. The site is appended to the
// configuration order.
func (s *SiteService) Add(ctx context.Context, site domain.Site) (*domain.Site, error) {
	if err := s.validate(site); err != nil {
		return nil, err
	}

	existing, err := s.siteStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	position := 0
	for _, e := range existing {
		if strings.EqualFold(e.Name, site.Name) {
			return nil, fmt.Errorf("%w: site %q", domain.ErrAlreadyExists, site.Name)
		}
		if e.Position >= position {
			position = e.Position + 1
		}
	}

	now := time.Now()
	site.ID = uuid.New().String()
	site.Position = position
	site.AuthFailed = false
	site.FetchFailed = false
	site.CreatedAt = now
	site.UpdatedAt = now

	if err := s.siteStore.Save(ctx, site); err != nil {
		return nil, fmt.Errorf("save site: %w", err)
	}
	return &site, nil
}

// Get retrieves a site by ID.
func (s *SiteService) Get(ctx context.Context, id string) (*domain.Site, error) {
	return s.siteStore.Get(ctx, id)
}

// List returns all sites in configuration order.
func (s *SiteService) List(ctx context.Context) ([]domain.Site, error) {
	return s.siteStore.List(ctx)
}

// Update replaces a site's name and credentials. Failure flags, position
// and provider are kept.
func (s *SiteService) Update(ctx context.Context, site domain.Site) error {
	current, err := s.siteStore.Get(ctx, site.ID)
	if err != nil {
		return err
	}

	site.ProviderKey = current.ProviderKey
	if err := s.validate(site); err != nil {
		return err
	}

	current.Name = site.Name
	current.Credentials = site.Credentials
	current.UpdatedAt = time.Now()
	return s.siteStore.Save(ctx, *current)
}

// Remove deletes a site.
func (s *SiteService) Remove(ctx context.Context, id string) error {
	if _, err := s.siteStore.Get(ctx, id); err != nil {
		return err
	}
	return s.siteStore.Delete(ctx, id)
}

// ResetFlags clears both failure flags of a site.
func (s *SiteService) ResetFlags(ctx context.Context, id string) error {
	return s.siteStore.UpdateFlags(ctx, id, false, false)
}

func (s *SiteService) validate(site domain.Site) error {
	if strings.TrimSpace(site.Name) == "" {
		return fmt.Errorf("%w: site name is required", domain.ErrInvalidInput)
	}
	if site.ProviderKey == "" {
		return fmt.Errorf("%w: provider is required", domain.ErrInvalidInput)
	}
	if s.registry == nil {
		return nil
	}
	return s.registry.ValidateCredentials(site.ProviderKey, site.Credentials)
}
