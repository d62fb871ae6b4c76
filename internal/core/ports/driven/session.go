package driven

import (
	"context"
	"net/http"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// SessionProvider supplies a fresh HTTP session per site.
// The session (cookie jar included) is owned by one site workflow for a run.
type SessionProvider interface {
	NewSession(ctx context.Context, site domain.Site) (*http.Client, error)
}

// SecretResolver turns stored credential references into plain values.
type SecretResolver interface {
	// Resolve returns credentials with every reference replaced by its value.
	Resolve(ctx context.Context, credentials domain.Credentials) (domain.Credentials, error)
}
