package driven

import (
	"context"
	"net/http"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// Provider fetches invoices from one site.
// Each provider key (mollie, bol.com, a portal preset, etc.) maps to one implementation.
type Provider interface {
	// Key returns the provider key this instance serves.
	Key() string

	// Capabilities returns what this provider supports.
	Capabilities() ProviderCapabilities

	// Fetch runs the whole site workflow: authenticate if not already
	// authenticated, enumerate invoices within the run's date range and
	// return descriptors with download handles attached.
	// Failures must be classified (see domain.Classify).
	Fetch(ctx context.Context) ([]domain.InvoiceDescriptor, error)

	// Close releases resources.
	Close() error
}

// Authenticator is implemented by providers whose login flow is naturally
// split in two: credentials first, then an interactive challenge.
type Authenticator interface {
	// Authenticate submits credentials and returns a continuation.
	Authenticate(ctx context.Context) (*Continuation, error)
}

// Continuation resumes a split authentication flow.
type Continuation struct {
	// Challenge is the input the site asks for.
	// Nil when the session was authenticated without input.
	Challenge *domain.ChallengePrompt

	// Resume completes authentication with response and lists invoices.
	// An empty response means the challenge was skipped and must fail
	// with domain.ErrAuthenticationFailed.
	Resume func(ctx context.Context, response string) ([]domain.InvoiceDescriptor, error)
}

// ProviderCapabilities describes what a provider supports.
type ProviderCapabilities struct {
	// === Authentication ===

	// RequiresChallenge indicates the provider may pause for external input.
	RequiresChallenge bool

	// ChallengeKind is the style of input requested.
	ChallengeKind domain.ChallengeKind

	// === Listing ===

	// Dateless indicates invoices carry no date and are never filtered out.
	Dateless bool

	// FiltersByDate indicates the provider narrows listing server-side.
	// Informational; the orchestrator filters dated descriptors regardless.
	FiltersByDate bool

	// === Downloads ===

	// DownloadConcurrency caps in-flight downloads.
	// 1 is strictly sequential; 0 uses the configured default.
	DownloadConcurrency int
}

// ChallengeRequester lets a provider pause mid-fetch for external input.
// The requester is bound to the site being fetched.
type ChallengeRequester interface {
	// RequestInput suspends until the user answers prompt.
	// An empty response means the user skipped the challenge.
	RequestInput(ctx context.Context, prompt domain.ChallengePrompt) (string, error)
}

// ProviderEnv is the per-run execution context handed to a provider.
type ProviderEnv struct {
	// Site is the site being fetched, credentials already resolved.
	Site domain.Site

	// Range filters invoices by date.
	Range domain.DateRange

	// Settings are the tunable fetch constants.
	Settings domain.FetchSettings

	// HTTPClient is a fresh session owned by this site for the run.
	HTTPClient *http.Client

	// Challenges asks the user for input. May be nil outside a fetch run.
	Challenges ChallengeRequester

	// OnAuthenticated is called by providers once login succeeded.
	// May be nil.
	OnAuthenticated func()
}

// Authenticated reports that login succeeded and listing begins.
func (e ProviderEnv) Authenticated() {
	if e.OnAuthenticated != nil {
		e.OnAuthenticated()
	}
}

// RequestInput asks for challenge input, failing authentication when no
// requester is wired.
func (e ProviderEnv) RequestInput(ctx context.Context, prompt domain.ChallengePrompt) (string, error) {
	if e.Challenges == nil {
		return "", domain.AuthError("challenge", domain.ErrInvalidInput)
	}
	return e.Challenges.RequestInput(ctx, prompt)
}

// Client returns the session client, falling back to http.DefaultClient.
func (e ProviderEnv) Client() *http.Client {
	if e.HTTPClient != nil {
		return e.HTTPClient
	}
	return http.DefaultClient
}
