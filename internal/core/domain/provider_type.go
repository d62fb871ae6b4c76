package domain

import (
	"fmt"
	"strings"
)

// CredentialField names one of the opaque credential slots of a site.
type CredentialField string

// Credential fields.
const (
	FieldUsername  CredentialField = "username"
	FieldPassword  CredentialField = "password"
	FieldAccountID CredentialField = "account_id"
)

// CredentialKey describes how a provider uses a credential field.
type CredentialKey struct {
	// Field is the credential slot.
	Field CredentialField
	// Label is the human-readable label for UI display (e.g. "API key").
	Label string
	// Description explains what this field is for.
	Description string
	// Required indicates whether this field must be provided.
	Required bool
	// Secret indicates whether this field should be masked in UI.
	Secret bool
}

// ProviderType describes a supported provider.
type ProviderType struct {
	// Key is the stable provider key stored on sites.
	Key string
	// Name is the human-readable display name.
	Name string
	// Description provides a brief explanation of the provider.
	Description string
	// Credentials lists the credential fields the provider reads.
	Credentials []CredentialKey
	// Dateless is true when the provider cannot date its invoices.
	Dateless bool
	// ChallengeKind is set when the provider asks for interactive input.
	ChallengeKind ChallengeKind
}

// RequiresChallenge returns true if the provider may pause for input.
func (p *ProviderType) RequiresChallenge() bool {
	return p.ChallengeKind != ChallengeNone
}

// Validate checks that every required credential field is present.
func (p *ProviderType) Validate(c Credentials) error {
	var missing []string
	for _, key := range p.Credentials {
		if key.Required && strings.TrimSpace(c.Get(key.Field)) == "" {
			missing = append(missing, key.Label)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s requires %s", ErrInvalidConfiguration, p.Name, strings.Join(missing, ", "))
	}
	return nil
}
