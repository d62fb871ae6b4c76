// Package providers holds the invoice provider catalogue and the factory
// that builds a provider for a site run.
//
// Each provider lives in its own subpackage and exposes its catalogue entry
// (Type) and a builder (New). NewFactory registers all of them.
package providers
