package domain

import "time"

// ChallengeKind distinguishes the two styles of interactive authentication.
type ChallengeKind string

const (
	// ChallengeNone means the provider never asks for input.
	ChallengeNone ChallengeKind = ""
	// ChallengeCode asks for a one-time code with a fixed prompt.
	ChallengeCode ChallengeKind = "code"
	// ChallengeSecurityQuestion asks a question chosen by the site.
	ChallengeSecurityQuestion ChallengeKind = "security-question"
)

// DefaultCodePrompt is shown for code challenges without a site-specific prompt.
const DefaultCodePrompt = "Enter the verification code"

// Challenge is a suspended authentication step awaiting external input.
type Challenge struct {
	// SiteID identifies the pending slot. At most one challenge exists per site.
	SiteID string

	// SiteName is the display name for the prompt.
	SiteName string

	// Kind is the challenge style.
	Kind ChallengeKind

	// Prompt is the fixed code prompt or the security question text.
	Prompt string

	// CreatedAt is when the challenge was raised.
	CreatedAt time.Time
}

// ChallengePrompt is what a provider asks for. The broker turns it into a Challenge.
type ChallengePrompt struct {
	Kind   ChallengeKind
	Prompt string
}

// Text returns the prompt, falling back to the default code prompt.
func (p ChallengePrompt) Text() string {
	if p.Prompt == "" {
		return DefaultCodePrompt
	}
	return p.Prompt
}
