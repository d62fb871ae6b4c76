package mcp

import (
	"github.com/custodia-labs/factura-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Sites lists configured websites.
	Sites driving.SiteService

	// Invoices exposes fetched invoices.
	Invoices driving.InvoiceService

	// Fetch runs fetch sessions. Optional; fetch tools fail without it.
	Fetch driving.FetchService

	// Providers describes supported providers. Optional.
	Providers driving.ProviderRegistry
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Sites == nil {
		return ErrMissingSiteService
	}
	if p.Invoices == nil {
		return ErrMissingInvoiceService
	}
	return nil
}
