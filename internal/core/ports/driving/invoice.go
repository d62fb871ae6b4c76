package driving

import (
	"context"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// InvoiceService exposes stored invoices and their resident documents.
type InvoiceService interface {
	// List returns all stored invoices.
	List(ctx context.Context) ([]domain.Invoice, error)

	// ListBySite returns the invoices of one site.
	ListBySite(ctx context.Context, siteID string) ([]domain.Invoice, error)

	// Get retrieves an invoice by ID.
	Get(ctx context.Context, id string) (*domain.Invoice, error)

	// FileName renders the configured output name for an invoice.
	FileName(invoice domain.Invoice) (string, error)

	// Save writes one invoice into dir and returns the written path.
	// Returns domain.ErrDownloadUnavailable if its bytes are not resident.
	Save(ctx context.Context, id, dir string) (string, error)

	// ExportAll writes every resident invoice into dir.
	ExportAll(ctx context.Context, dir string) ([]string, error)

	// Attachment returns a mail-ready file name and the document bytes.
	Attachment(ctx context.Context, id string) (string, []byte, error)
}
