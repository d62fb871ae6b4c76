package driven

import (
	"context"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// InvoiceStore persists invoice records.
type InvoiceStore interface {
	// Save stores an invoice record.
	Save(ctx context.Context, invoice domain.Invoice) error

	// Get retrieves an invoice by ID.
	Get(ctx context.Context, id string) (*domain.Invoice, error)

	// List returns all invoices ordered by site position then storage order.
	List(ctx context.Context) ([]domain.Invoice, error)

	// ListBySite returns the invoices of one site.
	ListBySite(ctx context.Context, siteID string) ([]domain.Invoice, error)

	// DeleteAll removes every invoice record.
	DeleteAll(ctx context.Context) error
}

// ContentCache keeps materialised document bytes resident for the session.
type ContentCache interface {
	// Put stores data under id.
	Put(id string, data []byte)

	// Get returns the bytes stored under id.
	Get(id string) ([]byte, bool)

	// Clear drops every entry.
	Clear()
}
