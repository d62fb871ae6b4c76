package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFetchInProgress indicates a fetch run is already active.
	ErrFetchInProgress = errors.New("fetch in progress")

	// ErrChallengePending indicates a challenge is already outstanding for a site.
	// Sites are processed one at a time so this signals a programming error.
	ErrChallengePending = errors.New("challenge already pending")

	// ErrDownloadUnavailable indicates the bytes of an invoice are not
	// resident in this process (they only live for the fetch session).
	ErrDownloadUnavailable = errors.New("download is not available")

	// Fetch Errors.

	// ErrAuthenticationFailed indicates bad credentials, a rejected login,
	// an expired session or a skipped challenge.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrFetchFailed indicates a network, markup or API error unrelated to auth.
	ErrFetchFailed = errors.New("failed to fetch invoices")

	// ErrRateLimited indicates an explicit quota signal (HTTP 429 or exhausted headers).
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidConfiguration indicates a site is missing required settings.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNotSupported indicates no provider matches the site's provider key.
	ErrNotSupported = errors.New("website is not supported")

	// ErrMaterializationFailed indicates one invoice's bytes could not be obtained.
	ErrMaterializationFailed = errors.New("download materialization failed")
)

// ErrorKind classifies a fetch failure.
type ErrorKind string

// Error kinds of the fetch taxonomy.
const (
	KindNone                  ErrorKind = ""
	KindAuthenticationFailed  ErrorKind = "authentication_failed"
	KindFetchFailed           ErrorKind = "fetch_failed"
	KindRateLimited           ErrorKind = "rate_limited"
	KindInvalidConfiguration  ErrorKind = "invalid_configuration"
	KindNotSupported          ErrorKind = "not_supported"
	KindMaterializationFailed ErrorKind = "download_materialization_failed"
)

// Sentinel returns the sentinel error for the kind.
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindAuthenticationFailed:
		return ErrAuthenticationFailed
	case KindRateLimited:
		return ErrRateLimited
	case KindInvalidConfiguration:
		return ErrInvalidConfiguration
	case KindNotSupported:
		return ErrNotSupported
	case KindMaterializationFailed:
		return ErrMaterializationFailed
	case KindNone:
		return nil
	default:
		return ErrFetchFailed
	}
}

// MessageKey returns the localisation key sinks use to describe the kind.
func (k ErrorKind) MessageKey() string {
	switch k {
	case KindAuthenticationFailed:
		return MsgAuthenticationFailed
	case KindRateLimited:
		return MsgRateLimit
	case KindInvalidConfiguration:
		return MsgInvalidConfiguration
	case KindNotSupported:
		return MsgNotSupported
	case KindMaterializationFailed:
		return MsgDownloadFailed
	default:
		return MsgFetchFailed
	}
}

// String returns the string representation.
func (k ErrorKind) String() string {
	return string(k)
}

// Classify maps any error onto the fetch taxonomy.
// The outermost ProviderError wins; unrecognised errors are fetch failures.
func Classify(err error) ErrorKind {
	var pe *ProviderError
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, &pe):
		return pe.Kind
	case errors.Is(err, ErrNotSupported):
		return KindNotSupported
	case errors.Is(err, ErrInvalidConfiguration):
		return KindInvalidConfiguration
	case errors.Is(err, ErrAuthenticationFailed):
		return KindAuthenticationFailed
	case errors.Is(err, ErrMaterializationFailed):
		return KindMaterializationFailed
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	default:
		return KindFetchFailed
	}
}

// ProviderError is a classified failure raised by a provider.
type ProviderError struct {
	// Kind is the taxonomy entry.
	Kind ErrorKind
	// Op names the step that failed (e.g. "login", "list invoices").
	Op string
	// Err is the underlying cause. May be nil.
	Err error
}

// NewProviderError creates a classified provider error.
func NewProviderError(kind ErrorKind, op string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Op: op, Err: err}
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	msg := e.Kind.Sentinel().Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches the sentinel of the error's kind.
func (e *ProviderError) Is(target error) bool {
	return target == e.Kind.Sentinel()
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// AuthError wraps err as an authentication failure.
func AuthError(op string, err error) error {
	return NewProviderError(KindAuthenticationFailed, op, err)
}

// FetchError wraps err as a fetch failure.
func FetchError(op string, err error) error {
	return NewProviderError(KindFetchFailed, op, err)
}

// ConfigError reports a missing or malformed site setting.
func ConfigError(format string, args ...any) error {
	return NewProviderError(KindInvalidConfiguration, "", fmt.Errorf(format, args...))
}

// RateLimitError carries the backoff hint of a rate-limited response.
type RateLimitError struct {
	// RetryAfter is how long to wait before retrying. Zero when unknown.
	RetryAfter time.Duration
	// Remaining is the quota left when known, otherwise -1.
	Remaining int
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// Is matches ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}
