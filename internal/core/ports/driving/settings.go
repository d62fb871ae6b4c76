package driving

import "github.com/custodia-labs/factura-cli/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings, with defaults for unset keys.
	Get() (*domain.Settings, error)

	// Save persists settings.
	Save(settings *domain.Settings) error

	// Set updates one setting by key, validating the value.
	Set(key, value string) error

	// Keys lists the settable keys.
	Keys() []string
}
