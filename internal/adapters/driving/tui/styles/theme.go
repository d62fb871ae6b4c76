// Package styles holds the colours and lipgloss styles of the dashboard.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// Theme is the colour palette.
type Theme struct {
	Accent    lipgloss.Color
	AccentAlt lipgloss.Color
	Text      lipgloss.Color
	Faint     lipgloss.Color
	Panel     lipgloss.Color
	Good      lipgloss.Color
	Attention lipgloss.Color
	Bad       lipgloss.Color
	Highlight lipgloss.Color
}

// DefaultTheme is a dark palette in ledger blues.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:    lipgloss.Color("#2563EB"),
		AccentAlt: lipgloss.Color("#14B8A6"),
		Text:      lipgloss.Color("#E2E8F0"),
		Faint:     lipgloss.Color("#64748B"),
		Panel:     lipgloss.Color("#0F172A"),
		Good:      lipgloss.Color("#4ADE80"),
		Attention: lipgloss.Color("#FACC15"),
		Bad:       lipgloss.Color("#F87171"),
		Highlight: lipgloss.Color("#1D4ED8"),
	}
}

// Styles are the rendered styles derived from a Theme.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Help     lipgloss.Style

	// Selected marks the website under the cursor.
	Selected lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	// Pending marks a website waiting for a verification code.
	Pending lipgloss.Style

	// InputField frames the verification code prompt.
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
}

// NewStyles derives styles from theme. A nil theme uses DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

	return &Styles{
		theme:    theme,
		Title:    fg(theme.Accent).Bold(true),
		Subtitle: fg(theme.AccentAlt).Bold(true),
		Normal:   fg(theme.Text),
		Muted:    fg(theme.Faint),
		Help:     fg(theme.Faint).Italic(true),
		Selected: fg(theme.Text).Background(theme.Highlight).Bold(true),
		Success:  fg(theme.Good),
		Warning:  fg(theme.Attention),
		Error:    fg(theme.Bad),
		Pending:  fg(theme.Attention).Bold(true),
		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Attention).
			Padding(0, 1),
		StatusBar: fg(theme.Faint).Background(theme.Panel).Padding(0, 1),
	}
}

// DefaultStyles returns styles of the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// ForState returns the style of a website in state.
func (s *Styles) ForState(state domain.SiteState) lipgloss.Style {
	switch state {
	case domain.StateSucceeded:
		return s.Success
	case domain.StateFailed:
		return s.Error
	case domain.StateChallengePending:
		return s.Pending
	case domain.StateIdle:
		return s.Muted
	default:
		return s.Normal
	}
}

// ForSeverity returns the style of a notification.
func (s *Styles) ForSeverity(sev domain.Severity) lipgloss.Style {
	switch sev {
	case domain.SeverityError:
		return s.Error
	case domain.SeverityWarning:
		return s.Warning
	case domain.SeveritySuccess:
		return s.Success
	default:
		return s.Muted
	}
}
