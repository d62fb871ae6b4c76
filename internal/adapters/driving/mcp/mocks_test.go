package mcp

import (
	"context"
	"sync"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// mockSiteService is a mock implementation of driving.SiteService.
type mockSiteService struct {
	sites []domain.Site
	err   error
}

func (m *mockSiteService) Add(_ context.Context, site domain.Site) (*domain.Site, error) {
	return &site, m.err
}

func (m *mockSiteService) Get(_ context.Context, id string) (*domain.Site, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.sites {
		if m.sites[i].ID == id {
			return &m.sites[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockSiteService) List(_ context.Context) ([]domain.Site, error) {
	return m.sites, m.err
}

func (m *mockSiteService) Update(_ context.Context, _ domain.Site) error {
	return m.err
}

func (m *mockSiteService) Remove(_ context.Context, _ string) error {
	return m.err
}

func (m *mockSiteService) ResetFlags(_ context.Context, _ string) error {
	return m.err
}

// mockInvoiceService is a mock implementation of driving.InvoiceService.
type mockInvoiceService struct {
	invoices []domain.Invoice
	savedIn  string
	err      error
}

func (m *mockInvoiceService) List(_ context.Context) ([]domain.Invoice, error) {
	return m.invoices, m.err
}

func (m *mockInvoiceService) ListBySite(_ context.Context, siteID string) ([]domain.Invoice, error) {
	if m.err != nil {
		return nil, m.err
	}
	result := []domain.Invoice{}
	for _, inv := range m.invoices {
		if inv.SiteID == siteID {
			result = append(result, inv)
		}
	}
	return result, nil
}

func (m *mockInvoiceService) Get(_ context.Context, id string) (*domain.Invoice, error) {
	for i := range m.invoices {
		if m.invoices[i].ID == id {
			return &m.invoices[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockInvoiceService) FileName(inv domain.Invoice) (string, error) {
	return inv.SiteName + " " + inv.Description + ".pdf", nil
}

func (m *mockInvoiceService) Save(_ context.Context, id, dir string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.savedIn = dir
	return dir + "/" + id + ".pdf", nil
}

func (m *mockInvoiceService) ExportAll(_ context.Context, _ string) ([]string, error) {
	return nil, m.err
}

func (m *mockInvoiceService) Attachment(_ context.Context, _ string) (string, []byte, error) {
	return "", nil, m.err
}

// mockFetchService is a mock implementation of driving.FetchService.
type mockFetchService struct {
	mu         sync.Mutex
	result     *domain.RunResult
	err        error
	request    domain.FetchRequest
	statuses   []domain.SiteStatus
	challenges []domain.Challenge
	resolved   map[string]string
	skipped    []string
}

func (m *mockFetchService) Run(_ context.Context, req domain.FetchRequest) (*domain.RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.request = req
	return m.result, m.err
}

func (m *mockFetchService) Status() []domain.SiteStatus { return m.statuses }

func (m *mockFetchService) Running() bool { return len(m.challenges) > 0 }

func (m *mockFetchService) PendingChallenges() []domain.Challenge { return m.challenges }

func (m *mockFetchService) ResolveChallenge(siteID, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resolved == nil {
		m.resolved = make(map[string]string)
	}
	m.resolved[siteID] = response
}

func (m *mockFetchService) SkipChallenge(siteID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipped = append(m.skipped, siteID)
}

// mockProviderRegistry is a mock implementation of driving.ProviderRegistry.
type mockProviderRegistry struct {
	types []domain.ProviderType
}

func (m *mockProviderRegistry) List() []domain.ProviderType { return m.types }

func (m *mockProviderRegistry) Get(key string) (domain.ProviderType, error) {
	for _, pt := range m.types {
		if pt.Key == key {
			return pt, nil
		}
	}
	return domain.ProviderType{}, domain.ErrNotSupported
}

func (m *mockProviderRegistry) Find(query string) (domain.ProviderType, error) {
	return m.Get(query)
}

func (m *mockProviderRegistry) ValidateCredentials(_ string, _ domain.Credentials) error {
	return nil
}

func newTestPorts() *Ports {
	return &Ports{
		Sites:    &mockSiteService{},
		Invoices: &mockInvoiceService{},
	}
}
