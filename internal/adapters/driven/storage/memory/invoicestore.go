package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
)

// Ensure InvoiceStore implements the interface.
var _ driven.InvoiceStore = (*InvoiceStore)(nil)

// InvoiceStore is an in-memory implementation of driven.InvoiceStore.
// Records are returned in storage order.
type InvoiceStore struct {
	mu       sync.RWMutex
	invoices []domain.Invoice
}

// NewInvoiceStore creates a new in-memory invoice store.
func NewInvoiceStore() *InvoiceStore {
	return &InvoiceStore{}
}

// Save stores an invoice record, replacing one with the same ID.
func (s *InvoiceStore) Save(_ context.Context, invoice domain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.invoices {
		if s.invoices[i].ID == invoice.ID {
			s.invoices[i] = invoice
			return nil
		}
	}
	s.invoices = append(s.invoices, invoice)
	return nil
}

// Get retrieves an invoice by ID.
func (s *InvoiceStore) Get(_ context.Context, id string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invoices {
		if inv.ID == id {
			return &inv, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns all invoices.
func (s *InvoiceStore) List(_ context.Context) ([]domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Invoice, len(s.invoices))
	copy(result, s.invoices)
	return result, nil
}

// ListBySite returns the invoices of one site.
func (s *InvoiceStore) ListBySite(_ context.Context, siteID string) ([]domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Invoice
	for _, inv := range s.invoices {
		if inv.SiteID == siteID {
			result = append(result, inv)
		}
	}
	return result, nil
}

// DeleteAll removes every invoice record.
func (s *InvoiceStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices = nil
	return nil
}
