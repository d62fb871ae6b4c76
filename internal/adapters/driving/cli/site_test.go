package cli

import (
	"bufio"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

func newSiteFixture(t *testing.T) *mockSiteService {
	t.Helper()
	sites := &mockSiteService{sites: []domain.Site{
		{ID: "s1", Name: "Mollie", ProviderKey: testProviders[0].Key,
			Credentials: domain.Credentials{Password: "env:MOLLIE_KEY"}},
		{ID: "s2", Name: "My host", ProviderKey: testProviders[1].Key, AuthFailed: true,
			Credentials: domain.Credentials{Username: "me@example.com", Password: "hunter22"}},
	}}
	withServices(t, Services{Sites: sites, Providers: &mockProviderRegistry{types: testProviders}})
	return sites
}

func TestSiteCmd_Exists(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"site"})
	require.NoError(t, err)
	assert.Equal(t, "site", cmd.Name())
	assert.Contains(t, cmd.Aliases, "sites")

	for _, name := range []string{"list", "show", "add", "update", "remove", "reset", "authorize"} {
		sub, _, err := rootCmd.Find([]string{"site", name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestSiteList_Table(t *testing.T) {
	newSiteFixture(t)

	out, err := execute(t, "", "site", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Mollie")
	assert.Contains(t, out, "My host")
	assert.Contains(t, out, "WHMCS")
	assert.Contains(t, out, "auth failed")
}

func TestSiteList_Empty(t *testing.T) {
	withServices(t, Services{Sites: &mockSiteService{}})

	out, err := execute(t, "", "site")
	require.NoError(t, err)
	assert.Contains(t, out, "No websites configured")
}

func TestSiteList_NotConfigured(t *testing.T) {
	withServices(t, Services{})

	_, err := execute(t, "", "site", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "site service not configured")
}

func TestSiteShow_ByName(t *testing.T) {
	newSiteFixture(t)

	out, err := execute(t, "", "site", "show", "my HOST")
	require.NoError(t, err)
	assert.Contains(t, out, "ID:          s2")
	assert.Contains(t, out, "me@example.com")
	assert.NotContains(t, out, "hunter22")
	assert.Contains(t, out, "auth failed")
}

func TestSiteShow_ReferenceShown(t *testing.T) {
	newSiteFixture(t)

	out, err := execute(t, "", "site", "show", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "env:MOLLIE_KEY")
}

func TestSiteShow_NotFound(t *testing.T) {
	newSiteFixture(t)

	_, err := execute(t, "", "site", "show", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSiteAdd_WithFlags(t *testing.T) {
	sites := newSiteFixture(t)

	out, err := execute(t, "", "site", "add", "--provider", "mollie", "--password", "env:KEY")
	require.NoError(t, err)
	assert.Contains(t, out, "Added website Mollie (site-3)")

	require.Len(t, sites.sites, 3)
	added := sites.sites[2]
	assert.Equal(t, testProviders[0].Key, added.ProviderKey)
	assert.Equal(t, "env:KEY", added.Credentials.Password)
}

func TestSiteAdd_PromptsForMissing(t *testing.T) {
	sites := newSiteFixture(t)

	var asked []string
	prev := readCredential
	readCredential = func(_ *cobra.Command, _ *bufio.Reader, key domain.CredentialKey) (string, error) {
		asked = append(asked, key.Label)
		return "typed-" + string(key.Field), nil
	}
	t.Cleanup(func() { readCredential = prev })

	_, err := execute(t, "", "site", "add", "--provider", "WHMCS", "--name", "Second host", "--username", "me")
	require.NoError(t, err)

	assert.Equal(t, []string{"Password"}, asked)
	added := sites.sites[2]
	assert.Equal(t, "Second host", added.Name)
	assert.Equal(t, "me", added.Credentials.Username)
	assert.Equal(t, "typed-password", added.Credentials.Password)
	assert.Empty(t, added.Credentials.AccountID)
}

func TestSiteAdd_ReadsStdin(t *testing.T) {
	sites := newSiteFixture(t)

	_, err := execute(t, "secret-key\n", "site", "add", "--provider", "mollie", "--name", "Mollie 2")
	require.NoError(t, err)
	assert.Equal(t, "secret-key", sites.sites[2].Credentials.Password)
}

func TestSiteAdd_UnknownProvider(t *testing.T) {
	newSiteFixture(t)

	_, err := execute(t, "", "site", "add", "--provider", "acme")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotSupported)
}

func TestSiteAdd_ProviderRequired(t *testing.T) {
	newSiteFixture(t)

	_, err := execute(t, "", "site", "add", "--name", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider")
}

func TestSiteUpdate_OnlyChangedFlags(t *testing.T) {
	sites := newSiteFixture(t)

	out, err := execute(t, "", "site", "update", "s2", "--password", "new-pass")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated website My host")

	site := sites.sites[1]
	assert.Equal(t, "My host", site.Name)
	assert.Equal(t, "me@example.com", site.Credentials.Username)
	assert.Equal(t, "new-pass", site.Credentials.Password)
}

func TestSiteRemove(t *testing.T) {
	sites := newSiteFixture(t)

	out, err := execute(t, "", "site", "rm", "Mollie")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed website Mollie")
	assert.Equal(t, []string{"s1"}, sites.removed)
}

func TestSiteReset(t *testing.T) {
	sites := newSiteFixture(t)

	out, err := execute(t, "", "site", "reset", "My host")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared failure flags of My host")
	assert.Equal(t, []string{"s2"}, sites.resets)
}

func TestSiteStatus(t *testing.T) {
	assert.Equal(t, "ok", siteStatus(domain.Site{}))
	assert.Equal(t, "auth failed", siteStatus(domain.Site{AuthFailed: true}))
	assert.Equal(t, "fetch failed", siteStatus(domain.Site{FetchFailed: true}))
	assert.Equal(t, "auth + fetch failed", siteStatus(domain.Site{AuthFailed: true, FetchFailed: true}))
}

func TestDisplaySecret(t *testing.T) {
	assert.Equal(t, "env:TOKEN", displaySecret("env:TOKEN"))
	assert.Equal(t, "file:/run/key", displaySecret("file:/run/key"))
	assert.NotEqual(t, "hunter22", displaySecret("hunter22"))
}
