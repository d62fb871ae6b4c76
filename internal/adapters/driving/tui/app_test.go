package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/factura-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/factura-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

func newTestPorts() *Ports {
	return &Ports{
		Fetch: &MockFetchService{},
		Sites: &MockSiteService{Sites: []domain.Site{
			{ID: "s1", Name: "Mollie"},
			{ID: "s2", Name: "My host", FetchFailed: true},
		}},
		Invoices: &MockInvoiceService{},
	}
}

func newTestApp(t *testing.T, ports *Ports) *App {
	t.Helper()
	app, err := NewApp(ports)
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and feeds its message back into the app.
func run(app *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		app.Update(msg)
	}
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(newTestPorts())

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewSites, app.CurrentView())
	assert.False(t, app.Ready())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Sites: &MockSiteService{}})

	assert.ErrorIs(t, err, ErrMissingFetchService)
	assert.Nil(t, app)
}

func TestNewApp_UsesConfiguredLanguage(t *testing.T) {
	ports := newTestPorts()
	settings := domain.DefaultSettings()
	settings.Output.Language = domain.LanguageDutch
	ports.Settings = &MockSettingsService{Settings: settings}

	app := newTestApp(t, ports)

	assert.Equal(t, domain.LanguageDutch, app.catalog.Language())
}

func TestApp_WithContext(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")
	result := app.WithContext(ctx)

	assert.Equal(t, app, result)
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_ViewBeforeReady(t *testing.T) {
	app, err := NewApp(newTestPorts())
	require.NoError(t, err)

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_LoadSites(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	run(app, app.loadSites())

	view := app.View()
	assert.Contains(t, view, "Mollie")
	assert.Contains(t, view, "fetch failed")
}

func TestApp_LoadSitesError(t *testing.T) {
	ports := newTestPorts()
	ports.Sites = &MockSiteService{ListErr: errors.New("database locked")}
	app := newTestApp(t, ports)

	run(app, app.loadSites())

	require.Error(t, app.Err())
	assert.Contains(t, app.View(), "database locked")
}

func TestApp_FetchRun(t *testing.T) {
	ports := newTestPorts()
	fetch := ports.Fetch.(*MockFetchService)
	fetch.RunFunc = func(_ context.Context, req domain.FetchRequest) (*domain.RunResult, error) {
		assert.Empty(t, req.SiteIDs)
		return &domain.RunResult{
			Invoices: []domain.Invoice{{ID: "i1"}, {ID: "i2"}},
			Outcomes: []domain.SiteOutcome{
				{SiteID: "s1", State: domain.StateSucceeded},
				{SiteID: "s2", State: domain.StateFailed, Failure: domain.KindFetchFailed},
			},
		}, nil
	}
	app := newTestApp(t, ports)

	_, cmd := app.Update(keyRunes("f"))
	require.NotNil(t, cmd)
	assert.True(t, app.Fetching())
	assert.Equal(t, status.StateFetching, app.statusBar.State())

	_, again := app.Update(keyRunes("f"))
	assert.Nil(t, again, "second fetch while running is ignored")

	app.Update(cmd())

	assert.False(t, app.Fetching())
	assert.Equal(t, status.StateDone, app.statusBar.State())
	assert.Contains(t, app.View(), "2 invoices from 2 websites, 1 failed")
}

func TestApp_FetchInProgress(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	app.Update(messages.FetchCompleted{Err: domain.ErrFetchInProgress})

	require.Error(t, app.Err())
	assert.Contains(t, app.View(), "A fetch is already running")
}

func TestApp_ProgressUpdatesSiteAndStatus(t *testing.T) {
	ports := newTestPorts()
	fetch := ports.Fetch.(*MockFetchService)
	app := newTestApp(t, ports)
	run(app, app.loadSites())
	app.startFetch()

	fetch.setStatuses([]domain.SiteStatus{{SiteID: "s1", State: domain.StateDownloading, Done: 1, Total: 4}})
	pct := 25
	app.Update(messages.ProgressReceived{Event: domain.ProgressEvent{
		SiteID: "s1", SiteName: "Mollie", MessageKey: domain.MsgFetchingInvoices, Percent: &pct,
	}})

	view := app.View()
	assert.Contains(t, view, "downloading 1/4")
	assert.Contains(t, view, "Mollie: Fetching invoices 25%")
}

func TestApp_NotificationLogIsBounded(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	for i := 0; i < maxLogLines+3; i++ {
		app.Update(messages.NotificationReceived{Notification: domain.Notification{
			SiteName: "Bol", MessageKey: domain.MsgDownloadFailed, Severity: domain.SeverityWarning,
		}})
	}

	assert.Len(t, app.log, maxLogLines)
	assert.Contains(t, app.View(), "Bol: An invoice could not be downloaded")
}

func TestApp_ChallengeSubmit(t *testing.T) {
	ports := newTestPorts()
	fetch := ports.Fetch.(*MockFetchService)
	app := newTestApp(t, ports)
	app.startFetch()

	app.Update(messages.ChallengeReceived{Challenge: domain.Challenge{
		SiteID: "s2", SiteName: "My host", Kind: domain.ChallengeCode,
	}})
	assert.Equal(t, status.StateChallenge, app.statusBar.State())
	assert.Contains(t, app.View(), "Verification code for My host")

	for _, r := range "424242" {
		app.Update(keyRunes(string(r)))
	}
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "424242", fetch.Resolved["s2"])
	assert.False(t, app.input.Active())
	assert.Equal(t, status.StateFetching, app.statusBar.State())
}

func TestApp_ChallengeSkipAndQueue(t *testing.T) {
	ports := newTestPorts()
	fetch := ports.Fetch.(*MockFetchService)
	app := newTestApp(t, ports)
	app.startFetch()

	app.Update(messages.ChallengeReceived{Challenge: domain.Challenge{SiteID: "s1", SiteName: "Mollie", Kind: domain.ChallengeCode}})
	app.Update(messages.ChallengeReceived{Challenge: domain.Challenge{
		SiteID: "s2", SiteName: "My host", Kind: domain.ChallengeSecurityQuestion, Prompt: "First pet?",
	}})

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, []string{"s1"}, fetch.Skipped)
	require.True(t, app.input.Active())
	assert.Equal(t, "s2", app.input.Challenge().SiteID)
	assert.Contains(t, app.View(), "My host asks: First pet?")
}

func TestApp_ChallengeDroppedWhenSiteFails(t *testing.T) {
	ports := newTestPorts()
	fetch := ports.Fetch.(*MockFetchService)
	app := newTestApp(t, ports)
	app.startFetch()
	app.Update(messages.ChallengeReceived{Challenge: domain.Challenge{SiteID: "s1", SiteName: "Mollie"}})

	fetch.setStatuses([]domain.SiteStatus{{SiteID: "s1", State: domain.StateFailed, Failure: domain.KindAuthenticationFailed}})
	app.Update(messages.NotificationReceived{Notification: domain.Notification{SiteID: "s1", MessageKey: domain.MsgAuthenticationFailed}})

	assert.False(t, app.input.Active())
}

func TestApp_RecoversChallengeWithoutEvent(t *testing.T) {
	ports := newTestPorts()
	fetch := ports.Fetch.(*MockFetchService)
	app := newTestApp(t, ports)
	app.startFetch()

	fetch.setPending(domain.Challenge{SiteID: "s2", SiteName: "My host", Kind: domain.ChallengeCode})
	fetch.setStatuses([]domain.SiteStatus{{SiteID: "s2", State: domain.StateChallengePending}})
	app.Update(messages.ProgressReceived{Event: domain.ProgressEvent{SiteID: "s1", MessageKey: domain.MsgFetchingInvoices}})

	require.True(t, app.input.Active())
	assert.Equal(t, "s2", app.input.Challenge().SiteID)

	// The late event for the same challenge is not queued a second time.
	app.Update(messages.ChallengeReceived{Challenge: domain.Challenge{SiteID: "s2", SiteName: "My host"}})
	assert.Empty(t, app.queue)

	for _, r := range "777" {
		app.Update(keyRunes(string(r)))
	}
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app.Update(messages.ProgressReceived{Event: domain.ProgressEvent{SiteID: "s2", MessageKey: domain.MsgFetchingInvoices}})

	assert.Equal(t, "777", fetch.Resolved["s2"])
	assert.False(t, app.input.Active())
}

func TestApp_QueuedChallengeDroppedWhenSiteFails(t *testing.T) {
	ports := newTestPorts()
	fetch := ports.Fetch.(*MockFetchService)
	app := newTestApp(t, ports)
	app.startFetch()
	app.Update(messages.ChallengeReceived{Challenge: domain.Challenge{SiteID: "s1", SiteName: "Mollie"}})
	app.Update(messages.ChallengeReceived{Challenge: domain.Challenge{SiteID: "s2", SiteName: "My host"}})

	fetch.setStatuses([]domain.SiteStatus{{SiteID: "s2", State: domain.StateFailed, Failure: domain.KindAuthenticationFailed}})
	app.Update(messages.NotificationReceived{Notification: domain.Notification{SiteID: "s2", MessageKey: domain.MsgAuthenticationFailed}})

	assert.Empty(t, app.queue)
	assert.Equal(t, "s1", app.input.Challenge().SiteID)
}

func TestApp_ResetFlags(t *testing.T) {
	ports := newTestPorts()
	sites := ports.Sites.(*MockSiteService)
	app := newTestApp(t, ports)
	run(app, app.loadSites())

	_, cmd := app.Update(keyRunes("r"))
	assert.Nil(t, cmd, "selected site has no failure")

	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd = app.Update(keyRunes("r"))
	require.NotNil(t, cmd)
	run(app, cmd)

	assert.Equal(t, []string{"s2"}, sites.ResetCalls)
}

func TestApp_InvoicesViewAndExport(t *testing.T) {
	ports := newTestPorts()
	ports.Invoices = &MockInvoiceService{
		Invoices: []domain.Invoice{{ID: "i1", SiteName: "Mollie", Description: "INV-001", Size: 2048}},
		Exported: []string{"/tmp/out/INV-001.pdf"},
	}
	app := newTestApp(t, ports)

	_, cmd := app.Update(keyRunes("i"))
	run(app, cmd)
	assert.Equal(t, messages.ViewInvoices, app.CurrentView())

	_, cmd = app.Update(messages.ViewChanged{View: messages.ViewInvoices})
	run(app, cmd)
	assert.Contains(t, app.View(), "INV-001")

	_, cmd = app.Update(keyRunes("e"))
	run(app, cmd)
	assert.Contains(t, app.View(), "Saved 1 invoices to /tmp/out")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewSites, app.CurrentView())
}

func TestApp_HelpToggle(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	app.Update(keyRunes("?"))
	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	assert.Contains(t, app.View(), "fetch")

	app.Update(keyRunes("?"))
	assert.Equal(t, messages.ViewSites, app.CurrentView())
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t, newTestPorts())

	_, cmd := app.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_WindowSize(t *testing.T) {
	app, err := NewApp(newTestPorts())
	require.NoError(t, err)

	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.True(t, app.Ready())
	assert.Equal(t, 120, app.statusBar.Width())
}

func TestApp_SettingsChangedReloadsLanguage(t *testing.T) {
	settings := &MockSettingsService{Settings: domain.DefaultSettings()}
	ports := newTestPorts()
	ports.Settings = settings
	app := newTestApp(t, ports)
	assert.Equal(t, domain.LanguageEnglish, app.catalog.Language())

	settings.Settings.Output.Language = domain.LanguageDutch
	app.Update(messages.SettingsChanged{})
	assert.Equal(t, domain.LanguageDutch, app.catalog.Language())
}
