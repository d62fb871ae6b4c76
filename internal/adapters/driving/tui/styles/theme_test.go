package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

func TestDefaultTheme_SignalColoursDistinct(t *testing.T) {
	theme := DefaultTheme()

	seen := make(map[lipgloss.Color]bool)
	for _, c := range []lipgloss.Color{theme.Accent, theme.AccentAlt, theme.Good, theme.Attention, theme.Bad} {
		assert.NotEmpty(t, string(c))
		assert.False(t, seen[c], "duplicate colour %s", c)
		seen[c] = true
	}
}

func TestNewStyles_NilThemeUsesDefault(t *testing.T) {
	s := NewStyles(nil)
	require.NotNil(t, s.Theme())
	assert.Equal(t, DefaultTheme().Accent, s.Theme().Accent)
}

func TestNewStyles_KeepsTheme(t *testing.T) {
	theme := DefaultTheme()
	theme.Accent = lipgloss.Color("#000000")
	assert.Same(t, theme, NewStyles(theme).Theme())
}

func TestStyles_Render(t *testing.T) {
	s := DefaultStyles()
	for name, style := range map[string]lipgloss.Style{
		"title":    s.Title,
		"selected": s.Selected,
		"pending":  s.Pending,
		"input":    s.InputField,
		"status":   s.StatusBar,
	} {
		assert.Contains(t, style.Render("Mollie"), "Mollie", name)
	}
}

func TestForState(t *testing.T) {
	s := DefaultStyles()
	tests := []struct {
		state    domain.SiteState
		expected lipgloss.Style
	}{
		{domain.StateSucceeded, s.Success},
		{domain.StateFailed, s.Error},
		{domain.StateChallengePending, s.Pending},
		{domain.StateIdle, s.Muted},
		{domain.StateDownloading, s.Normal},
		{domain.StateListing, s.Normal},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected.GetForeground(), s.ForState(tt.state).GetForeground())
			assert.Equal(t, tt.expected.GetBold(), s.ForState(tt.state).GetBold())
		})
	}
}

func TestForSeverity(t *testing.T) {
	s := DefaultStyles()
	assert.Equal(t, s.Error.GetForeground(), s.ForSeverity(domain.SeverityError).GetForeground())
	assert.Equal(t, s.Warning.GetForeground(), s.ForSeverity(domain.SeverityWarning).GetForeground())
	assert.Equal(t, s.Success.GetForeground(), s.ForSeverity(domain.SeveritySuccess).GetForeground())
	assert.Equal(t, s.Muted.GetForeground(), s.ForSeverity(domain.SeverityInfo).GetForeground())
}
