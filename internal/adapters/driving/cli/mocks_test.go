package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
)

// mockFetchService implements driving.FetchService and sinkSubscriber.
type mockFetchService struct {
	mu      sync.Mutex
	sink    driven.EventSink
	RunFunc func(ctx context.Context, req domain.FetchRequest) (*domain.RunResult, error)
	answers chan string
	request domain.FetchRequest
}

func newMockFetchService() *mockFetchService {
	return &mockFetchService{answers: make(chan string, 4)}
}

func (m *mockFetchService) SetSink(sink driven.EventSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = sink
}

func (m *mockFetchService) Sink() driven.EventSink {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sink == nil {
		return driven.NopSink{}
	}
	return m.sink
}

func (m *mockFetchService) Run(ctx context.Context, req domain.FetchRequest) (*domain.RunResult, error) {
	m.request = req
	if m.RunFunc != nil {
		return m.RunFunc(ctx, req)
	}
	return &domain.RunResult{}, nil
}

func (m *mockFetchService) Status() []domain.SiteStatus           { return nil }
func (m *mockFetchService) Running() bool                         { return false }
func (m *mockFetchService) PendingChallenges() []domain.Challenge { return nil }
func (m *mockFetchService) ResolveChallenge(_, response string)   { m.answers <- response }
func (m *mockFetchService) SkipChallenge(_ string)                { m.answers <- "" }

// mockSiteService keeps sites in memory.
type mockSiteService struct {
	sites   []domain.Site
	addErr  error
	resets  []string
	removed []string
}

func (m *mockSiteService) Add(_ context.Context, site domain.Site) (*domain.Site, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	site.ID = fmt.Sprintf("site-%d", len(m.sites)+1)
	site.Position = len(m.sites)
	m.sites = append(m.sites, site)
	return &site, nil
}

func (m *mockSiteService) Get(_ context.Context, id string) (*domain.Site, error) {
	for i := range m.sites {
		if m.sites[i].ID == id {
			s := m.sites[i]
			return &s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockSiteService) List(_ context.Context) ([]domain.Site, error) {
	out := make([]domain.Site, len(m.sites))
	copy(out, m.sites)
	return out, nil
}

func (m *mockSiteService) Update(_ context.Context, site domain.Site) error {
	for i := range m.sites {
		if m.sites[i].ID == site.ID {
			m.sites[i] = site
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockSiteService) Remove(_ context.Context, id string) error {
	m.removed = append(m.removed, id)
	return nil
}

func (m *mockSiteService) ResetFlags(_ context.Context, id string) error {
	m.resets = append(m.resets, id)
	return nil
}

// mockInvoiceService serves fixed invoices.
type mockInvoiceService struct {
	invoices []domain.Invoice
	saveErr  error
	savedDir string
	exported []string
}

func (m *mockInvoiceService) List(_ context.Context) ([]domain.Invoice, error) {
	return m.invoices, nil
}

func (m *mockInvoiceService) ListBySite(_ context.Context, siteID string) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for _, inv := range m.invoices {
		if inv.SiteID == siteID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *mockInvoiceService) Get(_ context.Context, id string) (*domain.Invoice, error) {
	for i := range m.invoices {
		if m.invoices[i].ID == id {
			return &m.invoices[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockInvoiceService) FileName(inv domain.Invoice) (string, error) {
	return inv.Description + ".pdf", nil
}

func (m *mockInvoiceService) Save(_ context.Context, id, dir string) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.savedDir = dir
	return dir + "/" + id + ".pdf", nil
}

func (m *mockInvoiceService) ExportAll(_ context.Context, _ string) ([]string, error) {
	return m.exported, nil
}

func (m *mockInvoiceService) Attachment(_ context.Context, _ string) (string, []byte, error) {
	return "", nil, nil
}

// mockProviderRegistry serves a fixed catalogue.
type mockProviderRegistry struct {
	types []domain.ProviderType
}

func (m *mockProviderRegistry) List() []domain.ProviderType { return m.types }

func (m *mockProviderRegistry) Get(key string) (domain.ProviderType, error) {
	for _, pt := range m.types {
		if pt.Key == key {
			return pt, nil
		}
	}
	return domain.ProviderType{}, domain.ErrNotSupported
}

func (m *mockProviderRegistry) Find(query string) (domain.ProviderType, error) {
	for _, pt := range m.types {
		if pt.Key == query || strings.EqualFold(pt.Name, query) {
			return pt, nil
		}
	}
	return domain.ProviderType{}, domain.ErrNotSupported
}

func (m *mockProviderRegistry) ValidateCredentials(key string, creds domain.Credentials) error {
	pt, err := m.Get(key)
	if err != nil {
		return err
	}
	return pt.Validate(creds)
}

// mockSettingsService keeps raw values per key.
type mockSettingsService struct {
	settings domain.Settings
	set      map[string]string
	setErr   error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultSettings(), set: make(map[string]string)}
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.Settings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"output.format", "output.language"}
}

var testProviders = []domain.ProviderType{
	{
		Key:         "https://api.mollie.com/v2/invoices",
		Name:        "Mollie",
		Description: "Mollie payment invoices",
		Credentials: []domain.CredentialKey{
			{Field: domain.FieldPassword, Label: "API key", Required: true, Secret: true},
		},
	},
	{
		Key:           "https://www.whmcs.com/members/clientarea.php?action=invoices",
		Name:          "WHMCS",
		Description:   "WHMCS client area",
		ChallengeKind: domain.ChallengeCode,
		Credentials: []domain.CredentialKey{
			{Field: domain.FieldUsername, Label: "Email", Required: true},
			{Field: domain.FieldPassword, Label: "Password", Required: true, Secret: true},
			{Field: domain.FieldAccountID, Label: "Portal URL", Description: "Self-hosted client area"},
		},
	},
}

// withServices installs s for the duration of the test.
func withServices(t *testing.T, s Services) {
	t.Helper()
	prev := Services{
		Fetch:      fetchService,
		Sites:      siteService,
		Invoices:   invoiceService,
		Providers:  providerRegistry,
		Settings:   settingsService,
		Authorizer: siteAuthorizer,
		Watcher:    configWatcher,
	}
	SetServices(s)
	t.Cleanup(func() { SetServices(prev) })
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and stdin, returning all output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}
