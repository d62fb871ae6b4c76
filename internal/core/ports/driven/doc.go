// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Provider: Fetches invoices from one site
//   - ProviderFactory: Creates providers from site configuration
//   - SiteStore: Site configuration persistence
//   - InvoiceStore: Invoice record persistence
//   - ContentCache: Session-lifetime document bytes
//   - Materializer: Resolves download handles into bytes
//   - ConfigStore: Application configuration
//   - EventSink: Progress, notification and challenge events
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SessionProvider: Per-site HTTP sessions. Without it providers use a default client.
//   - SecretResolver: Credential reference resolution. Without it credentials are used as stored.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or provider package
package driven
