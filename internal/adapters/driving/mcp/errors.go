// Package mcp provides an MCP (Model Context Protocol) server adapter for Factura.
// It lets AI assistants list websites, run fetch sessions and save invoices.
package mcp

import "errors"

// ErrMissingSiteService is returned when the site service is not provided.
var ErrMissingSiteService = errors.New("mcp: site service is required")

// ErrMissingInvoiceService is returned when the invoice service is not provided.
var ErrMissingInvoiceService = errors.New("mcp: invoice service is required")

// errFetchUnavailable is returned by fetch tools when no fetch service is wired.
var errFetchUnavailable = errors.New("fetching is not available")
