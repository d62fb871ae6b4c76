package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driving"
	"github.com/custodia-labs/factura-cli/internal/logger"
	"github.com/custodia-labs/factura-cli/internal/normalise"
)

// Ensure InvoiceService implements the interface.
var _ driving.InvoiceService = (*InvoiceService)(nil)

// InvoiceService exposes stored invoices and writes their documents out.
type InvoiceService struct {
	invoiceStore driven.InvoiceStore
	cache        driven.ContentCache
	materializer driven.Materializer
	settings     SettingsReader
}

// NewInvoiceService creates a new invoice service.
// settings may be nil, in which case defaults apply.
func NewInvoiceService(
	invoiceStore driven.InvoiceStore,
	cache driven.ContentCache,
	materializer driven.Materializer,
	settings SettingsReader,
) *InvoiceService {
	return &InvoiceService{
		invoiceStore: invoiceStore,
		cache:        cache,
		materializer: materializer,
		settings:     settings,
	}
}

// List returns all stored invoices.
func (s *InvoiceService) List(ctx context.Context) ([]domain.Invoice, error) {
	return s.invoiceStore.List(ctx)
}

// ListBySite returns the invoices of one site.
func (s *InvoiceService) ListBySite(ctx context.Context, siteID string) ([]domain.Invoice, error) {
	return s.invoiceStore.ListBySite(ctx, siteID)
}

// Get retrieves an invoice by ID.
func (s *InvoiceService) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	return s.invoiceStore.Get(ctx, id)
}

// FileName renders the configured output name for an invoice.
func (s *InvoiceService) FileName(invoice domain.Invoice) (string, error) {
	output := s.output()

	var date string
	if invoice.Date != nil {
		date = normalise.NormalizeDate(output.Language, normalise.FormatDate(*invoice.Date, output.DateFormat))
	}

	suggested := invoice.FileName
	if suggested == "" {
		suggested = invoice.Description
	}

	return normalise.RenderFileName(output.Format, normalise.FileNameFields{
		SuggestedFileName: suggested,
		Description:       invoice.Description,
		Date:              date,
		WebsiteName:       invoice.SiteName,
	}), nil
}

// Save writes one invoice into dir and returns the written path.
// An empty dir uses the configured output directory.
func (s *InvoiceService) Save(ctx context.Context, id, dir string) (string, error) {
	inv, err := s.invoiceStore.Get(ctx, id)
	if err != nil {
		return "", err
	}
	dir, err = s.outputDir(dir)
	if err != nil {
		return "", err
	}
	return s.write(*inv, dir, map[string]bool{})
}

// ExportAll writes every resident invoice into dir. Invoices whose bytes
// are gone are skipped; their errors are joined into the result.
func (s *InvoiceService) ExportAll(ctx context.Context, dir string) ([]string, error) {
	invoices, err := s.invoiceStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	dir, err = s.outputDir(dir)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(invoices))
	paths := make([]string, 0, len(invoices))
	var errs []error
	for _, inv := range invoices {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		path, err := s.write(inv, dir, taken)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		paths = append(paths, path)
	}
	return paths, errors.Join(errs...)
}

// Attachment returns "<site> - <file name>" and the document bytes, for
// handing an invoice to a mail client.
func (s *InvoiceService) Attachment(ctx context.Context, id string) (string, []byte, error) {
	inv, err := s.invoiceStore.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}
	data, ok := s.cache.Get(inv.ID)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", domain.ErrDownloadUnavailable, inv.Description)
	}
	name, err := s.FileName(*inv)
	if err != nil {
		return "", nil, err
	}
	return normalise.SanitizeFileName(inv.SiteName) + " - " + name, data, nil
}

// write persists inv under a name not yet in taken.
func (s *InvoiceService) write(inv domain.Invoice, dir string, taken map[string]bool) (string, error) {
	data, ok := s.cache.Get(inv.ID)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrDownloadUnavailable, inv.Description)
	}

	name, err := s.FileName(inv)
	if err != nil {
		return "", err
	}
	path := uniquePath(dir, name, taken)

	if err := s.materializer.Persist(data, path); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	logger.Debug("saved %s (%d bytes)", path, len(data))
	return path, nil
}

// uniquePath appends " (n)" before the extension until the name is neither
// taken in this batch nor present on disk.
func uniquePath(dir, name string, taken map[string]bool) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := filepath.Join(dir, name)
	for n := 2; ; n++ {
		if !taken[candidate] {
			if _, err := os.Stat(candidate); os.IsNotExist(err) {
				break
			}
		}
		candidate = filepath.Join(dir, base+" ("+strconv.Itoa(n)+")"+ext)
	}
	taken[candidate] = true
	return candidate
}

func (s *InvoiceService) outputDir(dir string) (string, error) {
	if dir == "" {
		dir = s.output().Directory
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return "", fmt.Errorf("%w: output directory %q: %w", domain.ErrInvalidInput, dir, err)
	}
	return expanded, nil
}

func (s *InvoiceService) output() domain.OutputSettings {
	if s.settings == nil {
		return domain.DefaultSettings().Output
	}
	settings, err := s.settings.Get()
	if err != nil || settings == nil {
		return domain.DefaultSettings().Output
	}
	return settings.Output
}
