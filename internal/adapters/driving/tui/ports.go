// Package tui provides an interactive terminal user interface for factura.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/factura-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Fetch runs fetch sessions and answers challenges.
	Fetch driving.FetchService

	// Sites lists and resets configured websites.
	Sites driving.SiteService

	// Invoices lists and exports fetched invoices. Optional.
	Invoices driving.InvoiceService

	// Settings selects the display language. Optional.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Fetch == nil {
		return ErrMissingFetchService
	}
	if p.Sites == nil {
		return ErrMissingSiteService
	}
	return nil
}
