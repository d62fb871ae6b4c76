package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/custodia-labs/factura-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/factura-cli/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/factura-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/factura-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/factura-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/factura-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/i18n"
)

// maxLogLines bounds the notification log.
const maxLogLines = 6

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles  *styles.Styles
	keymap  *keymap.KeyMap
	catalog *i18n.Catalogue

	siteList  *list.SiteList
	input     *input.ChallengeInput
	statusBar *status.Bar
	spinner   spinner.Model
	help      help.Model

	// queue holds challenges raised while another one is being answered.
	queue []domain.Challenge

	// log holds the most recent notifications, oldest first.
	log []domain.Notification

	invoices []domain.Invoice

	currentView messages.ViewType
	fetching    bool

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// language returns the configured output language.
func language(ports *Ports) domain.Language {
	if ports.Settings == nil {
		return domain.LanguageEnglish
	}
	settings, err := ports.Settings.Get()
	if err != nil {
		return domain.LanguageEnglish
	}
	return settings.Output.Language
}

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		catalog:     i18n.New(language(ports)),
		siteList:    list.NewSiteList(s),
		input:       input.NewChallengeInput(s),
		statusBar:   status.NewBar(s, km),
		spinner:     sp,
		help:        help.New(),
		currentView: messages.ViewSites,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("factura"),
		a.loadSites(),
		a.spinner.Tick,
	)
}

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		a.siteList.SetSpinner(a.spinner.View())
		return a, cmd

	case messages.SitesLoaded:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.siteList.SetSites(msg.Sites)
		return a, nil

	case messages.InvoicesLoaded:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		a.invoices = msg.Invoices
		a.statusBar.SetInvoiceCount(len(msg.Invoices))
		return a, nil

	case messages.ProgressReceived:
		e := msg.Event
		text := a.catalog.T(e.MessageKey)
		if e.Percent != nil {
			text = fmt.Sprintf("%s %d%%", text, *e.Percent)
		}
		a.siteList.SetMessage(e.SiteID, text)
		if a.statusBar.State() == status.StateFetching {
			a.statusBar.SetMessage(e.SiteName + ": " + text)
		}
		return a, a.refreshStatuses()

	case messages.NotificationReceived:
		a.log = append(a.log, msg.Notification)
		if len(a.log) > maxLogLines {
			a.log = a.log[len(a.log)-maxLogLines:]
		}
		return a, a.refreshStatuses()

	case messages.ChallengeReceived:
		if a.awaiting(msg.Challenge.SiteID) {
			return a, nil
		}
		if a.input.Active() {
			a.queue = append(a.queue, msg.Challenge)
			return a, nil
		}
		return a, a.activate(msg.Challenge)

	case messages.FetchCompleted:
		a.fetching = false
		a.queue = nil
		a.input.Deactivate()
		if msg.Err != nil {
			if errors.Is(msg.Err, domain.ErrFetchInProgress) {
				a.setError(errors.New(a.catalog.T(i18n.KeyFetchInProgress)))
			} else {
				a.setError(msg.Err)
			}
			return a, nil
		}
		a.refreshStatuses()
		result := msg.Result
		a.statusBar.SetState(status.StateDone)
		a.statusBar.SetInvoiceCount(len(result.Invoices))
		a.statusBar.SetMessage(a.catalog.T(i18n.KeyRunSummary,
			len(result.Invoices), len(result.Outcomes), len(result.Failed())))
		return a, tea.Batch(a.loadSites(), a.loadInvoices())

	case messages.FlagsReset:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		return a, a.loadSites()

	case messages.ExportCompleted:
		if msg.Err != nil {
			a.setError(msg.Err)
			return a, nil
		}
		text := a.catalog.T(i18n.KeyNoInvoices)
		if len(msg.Paths) > 0 {
			text = a.catalog.T(i18n.KeyInvoicesSaved, len(msg.Paths), filepath.Dir(msg.Paths[0]))
		}
		a.statusBar.SetState(status.StateDone)
		a.statusBar.SetMessage(text)
		return a, nil

	case messages.ViewChanged:
		a.currentView = msg.View
		if msg.View == messages.ViewInvoices {
			return a, a.loadInvoices()
		}
		return a, nil

	case messages.SettingsChanged:
		a.catalog = i18n.New(language(a.ports))
		return a, nil

	case messages.ErrorOccurred:
		a.setError(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	if a.input.Active() {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}

	if a.input.Active() {
		switch {
		case keymap.Matches(msg.String(), a.keymap.Submit):
			return a.answer(a.input.Value())
		case keymap.Matches(msg.String(), a.keymap.Skip):
			return a.answer("")
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return cmd
	}

	key := msg.String()
	switch a.currentView {
	case messages.ViewHelp:
		if keymap.Matches(key, a.keymap.Back) || keymap.Matches(key, a.keymap.Help) {
			a.currentView = messages.ViewSites
		}
		return nil

	case messages.ViewInvoices:
		switch {
		case keymap.Matches(key, a.keymap.Back), keymap.Matches(key, a.keymap.Invoices):
			a.currentView = messages.ViewSites
		case keymap.Matches(key, a.keymap.Export):
			return a.export()
		case keymap.Matches(key, a.keymap.Quit):
			return tea.Quit
		}
		return nil
	}

	switch {
	case keymap.Matches(key, a.keymap.Quit):
		return tea.Quit
	case keymap.Matches(key, a.keymap.Help):
		a.currentView = messages.ViewHelp
		return nil
	case keymap.Matches(key, a.keymap.Fetch):
		return a.startFetch()
	case keymap.Matches(key, a.keymap.Invoices):
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewInvoices} }
	case keymap.Matches(key, a.keymap.Export):
		return a.export()
	case keymap.Matches(key, a.keymap.Reset):
		return a.resetSelected()
	}

	var cmd tea.Cmd
	a.siteList, cmd = a.siteList.Update(msg)
	return cmd
}

// activate shows the input for c.
func (a *App) activate(c domain.Challenge) tea.Cmd {
	prompt := a.catalog.T(i18n.KeyEnterCode, c.SiteName)
	if c.Kind == domain.ChallengeSecurityQuestion {
		prompt = a.catalog.T(i18n.KeyAnswerQuestion, c.SiteName, c.Prompt)
	}
	a.statusBar.SetState(status.StateChallenge)
	a.siteList.SetStatuses(a.ports.Fetch.Status())
	return a.input.Activate(c, prompt)
}

// answer resolves the active challenge and moves on to the next queued one.
// An empty answer skips the website.
func (a *App) answer(response string) tea.Cmd {
	c := a.input.Deactivate()
	if c != nil {
		if response == "" {
			a.ports.Fetch.SkipChallenge(c.SiteID)
		} else {
			a.ports.Fetch.ResolveChallenge(c.SiteID, response)
		}
	}
	return a.next()
}

func (a *App) next() tea.Cmd {
	if len(a.queue) == 0 {
		if a.fetching {
			a.statusBar.SetState(status.StateFetching)
		}
		return nil
	}
	c := a.queue[0]
	a.queue = a.queue[1:]
	return a.activate(c)
}

// refreshStatuses pulls the run state, drops challenges the broker gave up
// on and queues pending ones whose event never arrived.
func (a *App) refreshStatuses() tea.Cmd {
	statuses := a.ports.Fetch.Status()
	a.siteList.SetStatuses(statuses)

	terminal := make(map[string]bool)
	for _, st := range statuses {
		if st.State.IsTerminal() {
			terminal[st.SiteID] = true
		}
	}
	queue := a.queue[:0]
	for _, c := range a.queue {
		if !terminal[c.SiteID] {
			queue = append(queue, c)
		}
	}
	a.queue = queue

	if a.fetching {
		for _, c := range a.ports.Fetch.PendingChallenges() {
			if !a.awaiting(c.SiteID) && !terminal[c.SiteID] {
				a.queue = append(a.queue, c)
			}
		}
	}

	if c := a.input.Challenge(); c != nil {
		if !terminal[c.SiteID] {
			return nil
		}
		a.input.Deactivate()
		return a.next()
	}
	if len(a.queue) > 0 {
		return a.next()
	}
	return nil
}

// awaiting reports whether a challenge for siteID is shown or queued.
func (a *App) awaiting(siteID string) bool {
	if c := a.input.Challenge(); c != nil && c.SiteID == siteID {
		return true
	}
	for _, c := range a.queue {
		if c.SiteID == siteID {
			return true
		}
	}
	return false
}

func (a *App) setError(err error) {
	a.err = err
	a.statusBar.SetState(status.StateError)
	a.statusBar.SetMessage(err.Error())
}

func (a *App) startFetch() tea.Cmd {
	if a.fetching {
		return nil
	}
	a.fetching = true
	a.err = nil
	a.log = nil
	a.siteList.ClearMessages()
	a.statusBar.SetState(status.StateFetching)
	a.statusBar.SetMessage("")

	ctx, fetch := a.ctx, a.ports.Fetch
	return func() tea.Msg {
		result, err := fetch.Run(ctx, domain.FetchRequest{})
		return messages.FetchCompleted{Result: result, Err: err}
	}
}

func (a *App) loadSites() tea.Cmd {
	ctx, sites := a.ctx, a.ports.Sites
	return func() tea.Msg {
		result, err := sites.List(ctx)
		return messages.SitesLoaded{Sites: result, Err: err}
	}
}

func (a *App) loadInvoices() tea.Cmd {
	if a.ports.Invoices == nil {
		return nil
	}
	ctx, invoices := a.ctx, a.ports.Invoices
	return func() tea.Msg {
		result, err := invoices.List(ctx)
		return messages.InvoicesLoaded{Invoices: result, Err: err}
	}
}

func (a *App) export() tea.Cmd {
	if a.ports.Invoices == nil || a.fetching {
		return nil
	}
	ctx, invoices := a.ctx, a.ports.Invoices
	return func() tea.Msg {
		paths, err := invoices.ExportAll(ctx, "")
		return messages.ExportCompleted{Paths: paths, Err: err}
	}
}

func (a *App) resetSelected() tea.Cmd {
	site := a.siteList.Selected()
	if site == nil || !site.HasFailure() {
		return nil
	}
	ctx, sites, id := a.ctx, a.ports.Sites, site.ID
	return func() tea.Msg {
		return messages.FlagsReset{SiteID: id, Err: sites.ResetFlags(ctx, id)}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewHelp:
		body = a.viewHelp()
	case messages.ViewInvoices:
		body = a.viewInvoices()
	default:
		body = a.viewSites()
	}

	return strings.Join([]string{
		a.styles.Title.Render("Factura"),
		"",
		body,
		"",
		a.statusBar.View(),
	}, "\n")
}

func (a *App) viewSites() string {
	parts := []string{a.siteList.View()}
	if a.input.Active() {
		parts = append(parts, "", a.input.View(),
			a.styles.Help.Render(a.catalog.T(i18n.KeySkipHint)))
	}
	if len(a.log) > 0 {
		parts = append(parts, "")
		for _, n := range a.log {
			parts = append(parts, a.renderNotification(n))
		}
	}
	return strings.Join(parts, "\n")
}

func (a *App) renderNotification(n domain.Notification) string {
	text := a.catalog.T(n.MessageKey)
	if n.SiteName != "" {
		text = n.SiteName + ": " + text
	}
	return a.styles.ForSeverity(n.Severity).Render(text)
}

func (a *App) viewInvoices() string {
	if len(a.invoices) == 0 {
		return a.styles.Muted.Render(a.catalog.T(i18n.KeyNoInvoices))
	}
	lines := []string{a.styles.Subtitle.Render(fmt.Sprintf("Invoices (%d)", len(a.invoices))), ""}
	for _, inv := range a.invoices {
		date := "          "
		if inv.Date != nil {
			date = inv.Date.Format(domain.DateLayout)
		}
		lines = append(lines, fmt.Sprintf("%s  %-20s  %-30s  %s",
			date, inv.SiteName, inv.Description, a.styles.Muted.Render(humanize.Bytes(uint64(inv.Size)))))
	}
	lines = append(lines, "", a.styles.Help.Render("e: export all | esc: back"))
	return strings.Join(lines, "\n")
}

func (a *App) viewHelp() string {
	return a.styles.Subtitle.Render("Help") + "\n\n" + a.help.FullHelpView(a.keymap.FullHelp())
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// Fetching returns whether a fetch run is active.
func (a *App) Fetching() bool {
	return a.fetching
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.statusBar.SetWidth(width)
	a.input.SetWidth(width)
	a.help.Width = width
	// Title, spacing, status bar and the notification log.
	a.siteList.SetSize(width, height-6-maxLogLines)
}
