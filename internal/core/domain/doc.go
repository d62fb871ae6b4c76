// Package domain defines the core business entities for factura.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Site: A configured invoice source with credentials and failure flags
//   - InvoiceDescriptor: A normalised invoice produced by a provider
//   - Invoice: A stored invoice record
//   - DownloadHandle: A way to obtain the bytes of one document
//   - DateRange: The inclusive day-granularity filter of a fetch run
//   - Challenge: An interactive authentication step awaiting input
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
