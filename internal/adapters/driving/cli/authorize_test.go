package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

type mockAuthorizer struct {
	token string
	err   error
	site  domain.Site
}

func (m *mockAuthorizer) Authorize(_ context.Context, site domain.Site, show func(string)) (string, error) {
	m.site = site
	show("https://accounts.example.com/consent")
	return m.token, m.err
}

func TestSiteAuthorize_StoresToken(t *testing.T) {
	sites := newSiteFixture(t)
	auth := &mockAuthorizer{token: "refresh-token"}
	withServices(t, Services{Sites: sites, Providers: providerRegistry, Authorizer: auth})

	out, err := execute(t, "", "site", "authorize", "My host")
	require.NoError(t, err)

	assert.Equal(t, "s2", auth.site.ID)
	assert.Contains(t, out, "https://accounts.example.com/consent")
	assert.Contains(t, out, "Authorized My host")
	assert.Equal(t, "refresh-token", sites.sites[1].Credentials.AccountID)
	assert.Equal(t, []string{"s2"}, sites.resets, "auth failure flag is cleared")
}

func TestSiteAuthorize_KeepsFlagsOfHealthySite(t *testing.T) {
	sites := newSiteFixture(t)
	withServices(t, Services{Sites: sites, Authorizer: &mockAuthorizer{token: "t"}})

	_, err := execute(t, "", "site", "authorize", "s1")
	require.NoError(t, err)
	assert.Empty(t, sites.resets)
}

func TestSiteAuthorize_Error(t *testing.T) {
	sites := newSiteFixture(t)
	withServices(t, Services{Sites: sites, Authorizer: &mockAuthorizer{err: errors.New("denied")}})

	_, err := execute(t, "", "site", "authorize", "s2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authorize My host: denied")
	assert.Equal(t, "hunter22", sites.sites[1].Credentials.Password)
}

func TestSiteAuthorize_NotConfigured(t *testing.T) {
	newSiteFixture(t)

	_, err := execute(t, "", "site", "authorize", "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
