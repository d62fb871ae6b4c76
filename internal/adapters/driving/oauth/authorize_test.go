//nolint:noctx // Test file uses http.Get for convenience; context not required in tests
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/providers/gmail"
)

// tokenServer issues tokens and records the exchange form.
func tokenServer(t *testing.T, refresh string, form *url.Values) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		*form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access",
			"refresh_token": refresh,
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// browser simulates the user consenting: it follows the redirect with the
// request's state and a fixed code.
func browser(t *testing.T, seen *url.Values) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		*seen = u.Query()
		redirect := fmt.Sprintf("%s?code=the-code&state=%s",
			u.Query().Get("redirect_uri"), url.QueryEscape(u.Query().Get("state")))
		go func() {
			res, err := http.Get(redirect)
			if err == nil {
				res.Body.Close()
			}
		}()
		return nil
	}
}

func TestFlow_Token(t *testing.T) {
	var form, auth url.Values
	tokens := tokenServer(t, "refresh-1", &form)

	flow := &Flow{
		Config: &oauth2.Config{
			ClientID:     "client",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{AuthURL: "https://auth.example.com/o", TokenURL: tokens.URL},
		},
		Open:    browser(t, &auth),
		Timeout: 5 * time.Second,
	}

	var shown string
	token, err := flow.Token(context.Background(), func(u string) { shown = u })
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", token.RefreshToken)

	assert.Contains(t, shown, "https://auth.example.com/o")
	assert.Equal(t, "S256", auth.Get("code_challenge_method"))
	assert.NotEmpty(t, auth.Get("code_challenge"))
	assert.Equal(t, "offline", auth.Get("access_type"))

	assert.Equal(t, "the-code", form.Get("code"))
	assert.NotEmpty(t, form.Get("code_verifier"))
	assert.Equal(t, auth.Get("redirect_uri"), form.Get("redirect_uri"))
}

func TestFlow_Timeout(t *testing.T) {
	flow := &Flow{
		Config:  &oauth2.Config{Endpoint: oauth2.Endpoint{AuthURL: "https://auth.example.com/o"}},
		Timeout: 50 * time.Millisecond,
	}
	_, err := flow.Token(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type staticResolver struct{}

func (staticResolver) Resolve(_ context.Context, c domain.Credentials) (domain.Credentials, error) {
	if c.Password == "env:SECRET" {
		c.Password = "resolved"
	}
	return c, nil
}

func TestGmailAuthorizer_Authorize(t *testing.T) {
	var form, auth url.Values
	tokens := tokenServer(t, "refresh-2", &form)

	a := &GmailAuthorizer{
		Secrets:  staticResolver{},
		Open:     browser(t, &auth),
		Timeout:  5 * time.Second,
		TokenURL: tokens.URL,
	}
	site := domain.Site{
		Name:        "Mail",
		ProviderKey: gmail.Key,
		Credentials: domain.Credentials{Username: "client", Password: "env:SECRET"},
	}

	refresh, err := a.Authorize(context.Background(), site, nil)
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", refresh)
	assert.Equal(t, "client", auth.Get("client_id"))
	assert.Contains(t, auth.Get("scope"), "gmail.readonly")
}

func TestGmailAuthorizer_NoRefreshToken(t *testing.T) {
	var form, auth url.Values
	tokens := tokenServer(t, "", &form)

	a := &GmailAuthorizer{Open: browser(t, &auth), Timeout: 5 * time.Second, TokenURL: tokens.URL}
	site := domain.Site{ProviderKey: gmail.Key, Credentials: domain.Credentials{Username: "c", Password: "s"}}

	_, err := a.Authorize(context.Background(), site, nil)
	assert.ErrorIs(t, err, ErrNoRefreshToken)
}

func TestGmailAuthorizer_OtherProvider(t *testing.T) {
	a := NewGmailAuthorizer(nil)
	_, err := a.Authorize(context.Background(), domain.Site{Name: "Mollie", ProviderKey: "https://api.mollie.com"}, nil)
	assert.ErrorIs(t, err, domain.ErrNotSupported)
}

func TestGmailAuthorizer_MissingClient(t *testing.T) {
	a := NewGmailAuthorizer(nil)
	_, err := a.Authorize(context.Background(), domain.Site{ProviderKey: gmail.Key}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}
