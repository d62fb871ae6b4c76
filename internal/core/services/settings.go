package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyOutputFormat        = "output.format"
	keyOutputDateFormat    = "output.date_format"
	keyOutputLanguage      = "output.language"
	keyOutputDirectory     = "output.directory"
	keyDebug               = "debug"
	keyDownloadConcurrency = "fetch.download_concurrency"
	keyMaxRetries          = "fetch.max_retries"
	keyRateLimitMargin     = "fetch.rate_limit_margin_seconds"
	keyRateLimitRemaining  = "fetch.rate_limit_min_remaining"
	keyRequestTimeout      = "fetch.request_timeout_seconds"
	keyChallengeTimeout    = "fetch.challenge_timeout_seconds"
	keyValidatePDF         = "download.validate_pdf"
)

// settingKind is the value type stored under a key.
type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindBool
)

var settingKinds = map[string]settingKind{
	keyOutputFormat:        kindString,
	keyOutputDateFormat:    kindString,
	keyOutputLanguage:      kindString,
	keyOutputDirectory:     kindString,
	keyDebug:               kindBool,
	keyDownloadConcurrency: kindInt,
	keyMaxRetries:          kindInt,
	keyRateLimitMargin:     kindInt,
	keyRateLimitRemaining:  kindInt,
	keyRequestTimeout:      kindInt,
	keyChallengeTimeout:    kindInt,
	keyValidatePDF:         kindBool,
}

// settingKeys is the display order of Keys.
var settingKeys = []string{
	keyOutputFormat,
	keyOutputDateFormat,
	keyOutputLanguage,
	keyOutputDirectory,
	keyDebug,
	keyDownloadConcurrency,
	keyMaxRetries,
	keyRateLimitMargin,
	keyRateLimitRemaining,
	keyRequestTimeout,
	keyChallengeTimeout,
	keyValidatePDF,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	settings := &domain.Settings{
		Output: domain.OutputSettings{
			Format:     s.getString(keyOutputFormat, defaults.Output.Format),
			DateFormat: s.getString(keyOutputDateFormat, defaults.Output.DateFormat),
			Language:   s.getLanguage(defaults.Output.Language),
			Directory:  s.getString(keyOutputDirectory, defaults.Output.Directory),
		},
		Fetch: domain.FetchSettings{
			DownloadConcurrency:   s.getInt(keyDownloadConcurrency, defaults.Fetch.DownloadConcurrency),
			MaxRetries:            s.getInt(keyMaxRetries, defaults.Fetch.MaxRetries),
			RateLimitMargin:       s.getSeconds(keyRateLimitMargin, defaults.Fetch.RateLimitMargin),
			RateLimitMinRemaining: s.getInt(keyRateLimitRemaining, defaults.Fetch.RateLimitMinRemaining),
			RequestTimeout:        s.getSeconds(keyRequestTimeout, defaults.Fetch.RequestTimeout),
			ChallengeTimeout:      s.getSeconds(keyChallengeTimeout, defaults.Fetch.ChallengeTimeout),
			ValidatePDF:           s.getBool(keyValidatePDF, defaults.Fetch.ValidatePDF),
		},
		Debug: s.getBool(keyDebug, defaults.Debug),
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if err := validateSettings(settings); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyOutputFormat, settings.Output.Format},
		{keyOutputDateFormat, settings.Output.DateFormat},
		{keyOutputLanguage, settings.Output.Language.String()},
		{keyOutputDirectory, settings.Output.Directory},
		{keyDebug, settings.Debug},
		{keyDownloadConcurrency, settings.Fetch.DownloadConcurrency},
		{keyMaxRetries, settings.Fetch.MaxRetries},
		{keyRateLimitMargin, int(settings.Fetch.RateLimitMargin / time.Second)},
		{keyRateLimitRemaining, settings.Fetch.RateLimitMinRemaining},
		{keyRequestTimeout, int(settings.Fetch.RequestTimeout / time.Second)},
		{keyChallengeTimeout, int(settings.Fetch.ChallengeTimeout / time.Second)},
		{keyValidatePDF, settings.Fetch.ValidatePDF},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set updates one setting from its string form.
// An empty value removes the key so its default applies again.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return s.configStore.Unset(key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		if n < 0 {
			return fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		parsed = b
	default:
		if key == keyOutputLanguage && !domain.Language(value).IsValid() {
			return fmt.Errorf("%w: unsupported language %q", domain.ErrInvalidInput, value)
		}
		parsed = value
	}

	return s.configStore.Set(key, parsed)
}

// Keys lists the settable keys.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingKeys))
	copy(keys, settingKeys)
	return keys
}

func validateSettings(settings *domain.Settings) error {
	if !settings.Output.Language.IsValid() {
		return fmt.Errorf("%w: unsupported language %q", domain.ErrInvalidInput, settings.Output.Language)
	}
	if strings.TrimSpace(settings.Output.Format) == "" {
		return fmt.Errorf("%w: output format must not be empty", domain.ErrInvalidInput)
	}
	if settings.Fetch.DownloadConcurrency < 0 || settings.Fetch.MaxRetries < 0 {
		return fmt.Errorf("%w: fetch limits must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

// Helper methods for reading config with defaults

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	if val := s.configStore.GetInt(key); val >= 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return time.Duration(s.getInt(key, int(defaultVal/time.Second))) * time.Second
}

func (s *SettingsService) getLanguage(defaultVal domain.Language) domain.Language {
	lang := domain.Language(s.configStore.GetString(keyOutputLanguage))
	if !lang.IsValid() {
		return defaultVal
	}
	return lang
}
