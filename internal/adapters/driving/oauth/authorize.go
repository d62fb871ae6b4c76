package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/logger"
	"github.com/custodia-labs/factura-cli/internal/providers/gmail"
)

// DefaultTimeout bounds the wait for the browser.
const DefaultTimeout = 5 * time.Minute

// ErrNoRefreshToken is returned when the exchange yields no refresh token.
var ErrNoRefreshToken = errors.New("authorization returned no refresh token")

// Flow performs one authorization code exchange with PKCE.
type Flow struct {
	Config  *oauth2.Config
	Open    func(url string) error
	Timeout time.Duration
	Port    int
}

// Token runs the flow. show receives the authorization URL before the
// browser is opened, so it can be printed when no browser is available.
func (f *Flow) Token(ctx context.Context, show func(url string)) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	srv := NewCallbackServer(f.Port, state)
	if err := srv.Start(); err != nil {
		return nil, err
	}
	defer srv.Stop()

	cfg := *f.Config
	cfg.RedirectURL = srv.RedirectURI()
	verifier := oauth2.GenerateVerifier()
	url := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)

	if show != nil {
		show(url)
	}
	if f.Open != nil {
		if err := f.Open(url); err != nil {
			logger.Debug("opening browser: %v", err)
		}
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	code, err := srv.Wait(wctx)
	if err != nil {
		return nil, err
	}
	token, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return token, nil
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GmailAuthorizer obtains the refresh token of a Gmail site.
type GmailAuthorizer struct {
	Secrets  driven.SecretResolver
	Open     func(url string) error
	Timeout  time.Duration
	TokenURL string
}

// NewGmailAuthorizer creates an authorizer opening the system browser.
func NewGmailAuthorizer(secrets driven.SecretResolver) *GmailAuthorizer {
	return &GmailAuthorizer{Secrets: secrets, Open: OpenBrowser}
}

// Authorize signs the user in with the site's client ID and secret and
// returns a refresh token with read-only mailbox access.
func (a *GmailAuthorizer) Authorize(ctx context.Context, site domain.Site, show func(url string)) (string, error) {
	if site.ProviderKey != gmail.Key {
		return "", fmt.Errorf("%w: %s does not use browser authorization", domain.ErrNotSupported, site.Name)
	}

	creds := site.Credentials
	if a.Secrets != nil {
		resolved, err := a.Secrets.Resolve(ctx, creds)
		if err != nil {
			return "", err
		}
		creds = resolved
	}
	if creds.Username == "" || creds.Password == "" {
		return "", fmt.Errorf("%w: %s needs a client ID and secret", domain.ErrInvalidConfiguration, site.Name)
	}

	flow := &Flow{
		Config:  gmail.OAuthConfig(creds.Username, creds.Password, a.TokenURL),
		Open:    a.Open,
		Timeout: a.Timeout,
	}
	token, err := flow.Token(ctx, show)
	if err != nil {
		return "", err
	}
	if token.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}
	return token.RefreshToken, nil
}
