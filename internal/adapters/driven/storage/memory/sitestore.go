package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
)

// Ensure SiteStore implements the interface.
var _ driven.SiteStore = (*SiteStore)(nil)

// SiteStore is an in-memory implementation of driven.SiteStore.
type SiteStore struct {
	mu    sync.RWMutex
	sites map[string]domain.Site
	seq   map[string]int
	next  int
}

// NewSiteStore creates a new in-memory site store.
func NewSiteStore() *SiteStore {
	return &SiteStore{
		sites: make(map[string]domain.Site),
		seq:   make(map[string]int),
	}
}

// Save stores or updates a site.
func (s *SiteStore) Save(_ context.Context, site domain.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seq[site.ID]; !ok {
		s.seq[site.ID] = s.next
		s.next++
	}
	s.sites[site.ID] = site
	return nil
}

// Get retrieves a site by ID.
func (s *SiteStore) Get(_ context.Context, id string) (*domain.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	site, ok := s.sites[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &site, nil
}

// Delete removes a site.
func (s *SiteStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sites, id)
	delete(s.seq, id)
	return nil
}

// List returns all sites ordered by position, then insertion order.
func (s *SiteStore) List(_ context.Context) ([]domain.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Site, 0, len(s.sites))
	for _, site := range s.sites {
		result = append(result, site)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Position != result[j].Position {
			return result[i].Position < result[j].Position
		}
		return s.seq[result[i].ID] < s.seq[result[j].ID]
	})
	return result, nil
}

// UpdateFlags sets the sticky failure flags of a site.
func (s *SiteStore) UpdateFlags(_ context.Context, id string, authFailed, fetchFailed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	site, ok := s.sites[id]
	if !ok {
		return domain.ErrNotFound
	}
	site.AuthFailed = authFailed
	site.FetchFailed = fetchFailed
	s.sites[id] = site
	return nil
}
