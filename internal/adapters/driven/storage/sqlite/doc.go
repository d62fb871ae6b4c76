// Package sqlite provides a SQLite-based implementation of the site and
// invoice stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Both stores share one database connection:
//
//   - SiteStore: site configuration and failure flags
//   - InvoiceStore: invoice records of the last fetch run
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.factura/data/factura.db
package sqlite
