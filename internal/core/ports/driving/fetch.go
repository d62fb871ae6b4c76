package driving

import (
	"context"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// FetchService runs fetch sessions across configured sites.
type FetchService interface {
	// Run fetches invoices for every configured site (or req.SiteIDs).
	// Previously stored invoices are cleared first. Per-site failures are
	// reported in the result, never returned as an error.
	// Returns domain.ErrFetchInProgress if a run is already active.
	Run(ctx context.Context, req domain.FetchRequest) (*domain.RunResult, error)

	// Status returns the per-site state of the active or last run.
	Status() []domain.SiteStatus

	// Running returns true while a run is active.
	Running() bool

	// PendingChallenges returns the challenges awaiting input.
	PendingChallenges() []domain.Challenge

	// ResolveChallenge supplies input for a pending challenge.
	// Unknown or already resolved site IDs are ignored.
	ResolveChallenge(siteID, response string)

	// SkipChallenge declines a pending challenge. The site fails authentication.
	SkipChallenge(siteID string)
}
