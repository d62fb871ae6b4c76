package domain

import (
	"strings"
	"time"
)

// Site represents a configured invoice source.
// Each site is served by the provider registered under its ProviderKey.
type Site struct {
	// ID is the unique identifier for the site.
	ID string

	// Name is the human-readable name shown in progress and notifications.
	Name string

	// ProviderKey selects the provider implementation (e.g. "https://api.mollie.com/v2/invoices").
	ProviderKey string

	// Credentials are opaque to the core; their meaning is provider-defined.
	Credentials Credentials

	// AuthFailed is set when the last run failed to authenticate.
	AuthFailed bool

	// FetchFailed is set when the last run failed for any other reason.
	FetchFailed bool

	// Position orders sites within a fetch run.
	Position int

	// CreatedAt is when the site was created.
	CreatedAt time.Time

	// UpdatedAt is when the site was last updated.
	UpdatedAt time.Time
}

// Credentials holds the opaque credential fields of a site.
type Credentials struct {
	Username  string
	Password  string
	AccountID string
}

// Get returns the value of the named credential field.
func (c Credentials) Get(field CredentialField) string {
	switch field {
	case FieldUsername:
		return c.Username
	case FieldPassword:
		return c.Password
	case FieldAccountID:
		return c.AccountID
	default:
		return ""
	}
}

// Set stores value into the named credential field.
func (c *Credentials) Set(field CredentialField, value string) {
	switch field {
	case FieldUsername:
		c.Username = value
	case FieldPassword:
		c.Password = value
	case FieldAccountID:
		c.AccountID = value
	}
}

// HasFailure returns true if either sticky failure flag is set.
func (s *Site) HasFailure() bool {
	return s.AuthFailed || s.FetchFailed
}

// ClearFlags resets both failure flags.
func (s *Site) ClearFlags() {
	s.AuthFailed = false
	s.FetchFailed = false
}

// MarkFailed sets the flag matching kind. Authentication failures set
// AuthFailed, everything else sets FetchFailed.
func (s *Site) MarkFailed(kind ErrorKind) {
	if kind == KindAuthenticationFailed {
		s.AuthFailed = true
		return
	}
	s.FetchFailed = true
}

// Mask hides all but the last four characters of a secret for display.
func Mask(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
