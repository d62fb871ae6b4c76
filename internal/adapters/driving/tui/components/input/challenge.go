// Package input provides text input components for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/factura-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// ChallengeInput asks for a verification code or a security answer.
type ChallengeInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	challenge *domain.Challenge
	prompt    string
	width     int
}

// NewChallengeInput creates an inactive challenge input.
func NewChallengeInput(s *styles.Styles) *ChallengeInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.CharLimit = 128
	ti.Width = 30

	return &ChallengeInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init initialises the input.
func (c *ChallengeInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (c *ChallengeInput) Update(msg tea.Msg) (*ChallengeInput, tea.Cmd) {
	var cmd tea.Cmd
	c.textinput, cmd = c.textinput.Update(msg)
	return c, cmd
}

// View renders the prompt and input. Empty while inactive.
func (c *ChallengeInput) View() string {
	if c.challenge == nil {
		return ""
	}
	label := c.styles.Pending.Render(c.prompt + ": ")
	input := c.styles.InputField.Render(c.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, input)
}

// Activate shows the input for a challenge with the rendered prompt.
func (c *ChallengeInput) Activate(challenge domain.Challenge, prompt string) tea.Cmd {
	c.challenge = &challenge
	c.prompt = prompt
	c.textinput.Reset()
	if challenge.Kind == domain.ChallengeCode {
		c.textinput.Placeholder = "123456"
	} else {
		c.textinput.Placeholder = "answer"
	}
	return c.textinput.Focus()
}

// Deactivate hides the input and returns the challenge it served.
func (c *ChallengeInput) Deactivate() *domain.Challenge {
	challenge := c.challenge
	c.challenge = nil
	c.prompt = ""
	c.textinput.Blur()
	c.textinput.Reset()
	return challenge
}

// Active returns whether a challenge is being answered.
func (c *ChallengeInput) Active() bool {
	return c.challenge != nil
}

// Challenge returns the challenge being answered, or nil.
func (c *ChallengeInput) Challenge() *domain.Challenge {
	return c.challenge
}

// Value returns the trimmed input value.
func (c *ChallengeInput) Value() string {
	return strings.TrimSpace(c.textinput.Value())
}

// SetValue sets the input value.
func (c *ChallengeInput) SetValue(value string) {
	c.textinput.SetValue(value)
}

// SetWidth sets the width of the input.
func (c *ChallengeInput) SetWidth(width int) {
	c.width = width
	inputWidth := width / 3
	if inputWidth < 12 {
		inputWidth = 12
	}
	c.textinput.Width = inputWidth
}
