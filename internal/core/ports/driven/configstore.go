package driven

// ConfigStore holds the user's configuration as flat dot-separated keys
// ("output.format", "fetch.max_retries"). Typed getters return the zero
// value for missing keys and for values of another type.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool

	// Set stores value and persists it.
	Set(key string, value any) error

	// Unset removes key so its default applies again.
	Unset(key string) error

	// Keys returns every set key in sorted order.
	Keys() []string
}
