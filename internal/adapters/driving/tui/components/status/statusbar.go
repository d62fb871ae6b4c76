// Package status renders the one-line bar at the bottom of the dashboard.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/factura-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/factura-cli/internal/adapters/driving/tui/styles"
)

// State is what the dashboard is doing.
type State string

const (
	StateReady     State = "ready"
	StateFetching  State = "fetching"
	StateChallenge State = "challenge"
	StateError     State = "error"
	StateDone      State = "done"
)

// Bar shows the run state on the left and key hints on the right.
type Bar struct {
	styles   *styles.Styles
	keys     *keymap.KeyMap
	state    State
	message  string
	invoices int
	width    int
}

// NewBar creates a bar. Nil arguments fall back to the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keys: km, state: StateReady, width: 80}
}

// SetState switches state. The message is kept.
func (b *Bar) SetState(state State) { b.state = state }

// State returns the current state.
func (b *Bar) State() State { return b.state }

// SetMessage replaces the left-hand text for states that show one.
func (b *Bar) SetMessage(message string) { b.message = message }

// SetInvoiceCount records how many invoices the last run produced.
func (b *Bar) SetInvoiceCount(n int) { b.invoices = n }

// SetWidth sets the rendered width.
func (b *Bar) SetWidth(width int) { b.width = width }

// Width returns the rendered width.
func (b *Bar) Width() int { return b.width }

// View renders the bar padded to its width.
func (b *Bar) View() string {
	left, right := b.left(), b.hints()
	gap := max(b.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) left() string {
	counted := fmt.Sprintf("%d invoices", b.invoices)

	switch b.state {
	case StateFetching:
		return b.orDefault(b.styles.Normal, b.styles.Muted, "Fetching...")
	case StateChallenge:
		return b.styles.Pending.Render("Waiting for verification")
	case StateError:
		if b.message == "" {
			return b.styles.Error.Render("Error")
		}
		return b.styles.Error.Render("Error: " + b.message)
	case StateDone:
		return b.orDefault(b.styles.Success, b.styles.Success, counted)
	}
	if b.invoices > 0 {
		return b.styles.Normal.Render(counted)
	}
	return b.styles.Muted.Render("Ready")
}

// orDefault renders the message when set, fallback otherwise.
func (b *Bar) orDefault(withMsg, without lipgloss.Style, fallback string) string {
	if b.message != "" {
		return withMsg.Render(b.message)
	}
	return without.Render(fallback)
}

func (b *Bar) hints() string {
	var bindings []key.Binding
	if b.state == StateChallenge {
		bindings = b.keys.ChallengeHelp()
	} else {
		bindings = b.keys.ShortHelp()
	}

	parts := make([]string, len(bindings))
	for i, binding := range bindings {
		parts[i] = binding.Help().Key + ": " + binding.Help().Desc
	}
	return b.styles.Muted.Render(strings.Join(parts, " | "))
}
