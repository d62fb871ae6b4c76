package domain

import "time"

// Language selects the locale used for month names in file names.
type Language string

// Supported languages.
const (
	LanguageEnglish Language = "en"
	LanguageDutch   Language = "nl"
)

// IsValid returns true if the language is supported.
func (l Language) IsValid() bool {
	return l == LanguageEnglish || l == LanguageDutch
}

// String returns the string representation.
func (l Language) String() string {
	return string(l)
}

// Output file name placeholders.
const (
	PlaceholderSuggestedFileName = "[suggested-filename]"
	PlaceholderDescription       = "[description]"
	PlaceholderDate              = "[date]"
	PlaceholderWebsiteName       = "[website-name]"
)

// OutputSettings controls how stored invoices are named and where they go.
type OutputSettings struct {
	// Format is the file name template built from placeholders.
	Format string
	// DateFormat uses date-fns style tokens (d, dd, M, MM, MMM, MMMM, yy, yyyy).
	DateFormat string
	// Language for month names.
	Language Language
	// Directory is the default export directory.
	Directory string
}

// FetchSettings holds the tunable constants of a fetch run.
type FetchSettings struct {
	// DownloadConcurrency caps in-flight downloads for providers that allow parallelism.
	DownloadConcurrency int
	// MaxRetries bounds rate-limit retries before the call counts as a fetch failure.
	MaxRetries int
	// RateLimitMargin is added to every rate-limit reset wait.
	RateLimitMargin time.Duration
	// RateLimitMinRemaining is the quota below which callers wait for the reset.
	RateLimitMinRemaining int
	// RequestTimeout bounds a single HTTP request.
	RequestTimeout time.Duration
	// ChallengeTimeout bounds the wait for challenge input. Zero waits forever.
	ChallengeTimeout time.Duration
	// ValidatePDF rejects downloads that are not well-formed PDF documents.
	ValidatePDF bool
}

// Settings holds application configuration.
type Settings struct {
	Output OutputSettings
	Fetch  FetchSettings
	// Debug enables verbose logging to a file in the data directory.
	Debug bool
}

// DefaultSettings returns settings with sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		Output: OutputSettings{
			Format:     PlaceholderSuggestedFileName,
			DateFormat: "d-M-yyyy",
			Language:   LanguageEnglish,
			Directory:  "~/Documents/Factura",
		},
		Fetch: FetchSettings{
			DownloadConcurrency:   4,
			MaxRetries:            3,
			RateLimitMargin:       3 * time.Second,
			RateLimitMinRemaining: 5,
			RequestTimeout:        60 * time.Second,
			ChallengeTimeout:      0,
			ValidatePDF:           true,
		},
	}
}
