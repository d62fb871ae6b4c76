package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/factura-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/factura-cli/internal/adapters/driving/tui/styles"
)

func TestNewBar_Defaults(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keys)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, 80, bar.Width())
}

func TestBar_View(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		count   int
		want    []string
		absent  []string
	}{
		{name: "ready", state: StateReady, want: []string{"Ready", "f: fetch"}},
		{name: "ready after run", state: StateReady, count: 3, want: []string{"3 invoices"}, absent: []string{"Ready"}},
		{name: "fetching without message", state: StateFetching, want: []string{"Fetching..."}},
		{name: "fetching", state: StateFetching, message: "Mollie: Fetching invoices", want: []string{"Mollie: Fetching invoices"}},
		{name: "challenge", state: StateChallenge, message: "ignored", want: []string{"Waiting for verification", "enter: submit", "esc: skip"}, absent: []string{"ignored"}},
		{name: "error", state: StateError, message: "boom", want: []string{"Error: boom"}},
		{name: "bare error", state: StateError, want: []string{"Error"}},
		{name: "done", state: StateDone, count: 7, want: []string{"7 invoices"}},
		{name: "done with summary", state: StateDone, count: 7, message: "7 invoices from 2 sites", want: []string{"from 2 sites"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())
			bar.SetWidth(120)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)
			bar.SetInvoiceCount(tt.count)

			view := bar.View()
			for _, want := range tt.want {
				assert.Contains(t, view, want)
			}
			for _, absent := range tt.absent {
				assert.NotContains(t, view, absent)
			}
		})
	}
}

func TestBar_NarrowWidthStillRenders(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(10)

	assert.Contains(t, bar.View(), "Ready")
}
