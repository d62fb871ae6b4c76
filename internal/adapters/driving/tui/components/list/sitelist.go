// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/factura-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// SiteList displays websites with their fetch state in a navigable list.
type SiteList struct {
	sites    []domain.Site
	statuses map[string]domain.SiteStatus
	messages map[string]string
	spinner  string
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSiteList creates a new site list component.
func NewSiteList(s *styles.Styles) *SiteList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SiteList{
		statuses: make(map[string]domain.SiteStatus),
		messages: make(map[string]string),
		styles:   s,
		width:    80,
		height:   10,
	}
}

// Init initialises the site list.
func (l *SiteList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *SiteList) Update(msg tea.Msg) (*SiteList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the site list.
func (l *SiteList) View() string {
	if len(l.sites) == 0 {
		return l.styles.Muted.Render("No websites configured")
	}

	lines := make([]string, 0, len(l.sites)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Websites (%d)", len(l.sites))), "")

	visible := l.height - 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.sites) {
		end = len(l.sites)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderSite(i, &l.sites[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *SiteList) renderSite(index int, site *domain.Site) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	name := site.Name
	maxName := 24
	if len(name) > maxName {
		name = name[:maxName-3] + "..."
	}

	status, running := l.statuses[site.ID]
	state := l.stateLabel(*site, status, running)

	line := fmt.Sprintf("%s%-24s  %s", indicator, name, state)
	if msg := l.messages[site.ID]; msg != "" {
		line += "  " + l.styles.Muted.Render(msg)
	}
	if index == l.selected {
		return l.styles.Selected.Render(line)
	}
	return line
}

func (l *SiteList) stateLabel(site domain.Site, status domain.SiteStatus, tracked bool) string {
	if !tracked {
		switch {
		case site.AuthFailed:
			return l.styles.Error.Render("auth failed")
		case site.FetchFailed:
			return l.styles.Error.Render("fetch failed")
		default:
			return l.styles.Muted.Render("idle")
		}
	}

	style := l.styles.ForState(status.State)
	switch status.State {
	case domain.StateFailed:
		return style.Render(strings.ReplaceAll(status.Failure.String(), "_", " "))
	case domain.StateDownloading:
		return style.Render(fmt.Sprintf("%s downloading %d/%d", l.spinner, status.Done, status.Total))
	case domain.StateAuthenticating, domain.StateListing:
		return style.Render(fmt.Sprintf("%s %s", l.spinner, status.State))
	case domain.StateChallengePending:
		return style.Render("waiting for code")
	default:
		return style.Render(status.State.String())
	}
}

// SetSites replaces the websites, keeping the selection in range.
func (l *SiteList) SetSites(sites []domain.Site) {
	l.sites = sites
	if l.selected >= len(sites) {
		l.selected = len(sites) - 1
	}
	if l.selected < 0 {
		l.selected = 0
	}
}

// Sites returns the websites.
func (l *SiteList) Sites() []domain.Site {
	return l.sites
}

// SetStatuses replaces the per-site run state.
func (l *SiteList) SetStatuses(statuses []domain.SiteStatus) {
	l.statuses = make(map[string]domain.SiteStatus, len(statuses))
	for _, s := range statuses {
		l.statuses[s.SiteID] = s
	}
}

// SetMessage sets the latest message shown next to a website.
func (l *SiteList) SetMessage(siteID, message string) {
	l.messages[siteID] = message
}

// ClearMessages removes all per-site messages.
func (l *SiteList) ClearMessages() {
	l.messages = make(map[string]string)
}

// SetSpinner sets the frame drawn for websites in progress.
func (l *SiteList) SetSpinner(frame string) {
	l.spinner = frame
}

// Selected returns the selected website, or nil when the list is empty.
func (l *SiteList) Selected() *domain.Site {
	if len(l.sites) == 0 {
		return nil
	}
	return &l.sites[l.selected]
}

// SelectedIndex returns the index of the selected website.
func (l *SiteList) SelectedIndex() int {
	return l.selected
}

// MoveUp moves the selection up.
func (l *SiteList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves the selection down.
func (l *SiteList) MoveDown() {
	if l.selected < len(l.sites)-1 {
		l.selected++
	}
}

// SetSize sets the list dimensions.
func (l *SiteList) SetSize(width, height int) {
	l.width = width
	l.height = height
}
