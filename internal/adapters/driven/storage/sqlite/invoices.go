package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
)

// ==================== Invoice Store ====================

// invoiceStore implements driven.InvoiceStore.
type invoiceStore struct {
	store *Store
}

var _ driven.InvoiceStore = (*invoiceStore)(nil)

const invoiceColumns = `id, site_id, site_name, description, date, file_name, mime_type, size, created_at`

// Save stores an invoice record, replacing one with the same ID in place.
func (s *invoiceStore) Save(ctx context.Context, inv domain.Invoice) error {
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}

	var date sql.NullTime
	if inv.Date != nil {
		date = sql.NullTime{Time: *inv.Date, Valid: true}
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			site_id = excluded.site_id,
			site_name = excluded.site_name,
			description = excluded.description,
			date = excluded.date,
			file_name = excluded.file_name,
			mime_type = excluded.mime_type,
			size = excluded.size
	`, inv.ID, inv.SiteID, inv.SiteName, inv.Description, date,
		inv.FileName, inv.MIMEType, inv.Size, inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving invoice: %w", err)
	}
	return nil
}

// Get retrieves an invoice by ID.
func (s *invoiceStore) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning invoice: %w", err)
	}
	return inv, nil
}

// List returns all invoices in storage order.
func (s *invoiceStore) List(ctx context.Context) ([]domain.Invoice, error) {
	return s.query(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY seq`)
}

// ListBySite returns the invoices of one site.
func (s *invoiceStore) ListBySite(ctx context.Context, siteID string) ([]domain.Invoice, error) {
	return s.query(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE site_id = ? ORDER BY seq`, siteID)
}

// DeleteAll removes every invoice record.
func (s *invoiceStore) DeleteAll(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM invoices"); err != nil {
		return fmt.Errorf("deleting invoices: %w", err)
	}
	return nil
}

func (s *invoiceStore) query(ctx context.Context, query string, args ...any) ([]domain.Invoice, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying invoices: %w", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice //nolint:prealloc // size unknown from query
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoices: %w", err)
	}
	return invoices, nil
}

func scanInvoice(row scanner) (*domain.Invoice, error) {
	var inv domain.Invoice
	var date, createdAt sql.NullTime
	if err := row.Scan(&inv.ID, &inv.SiteID, &inv.SiteName, &inv.Description, &date,
		&inv.FileName, &inv.MIMEType, &inv.Size, &createdAt); err != nil {
		return nil, err
	}
	if date.Valid {
		d := date.Time
		inv.Date = &d
	}
	if createdAt.Valid {
		inv.CreatedAt = createdAt.Time
	}
	return &inv, nil
}
