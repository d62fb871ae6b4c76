package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/factura-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/factura-cli/internal/adapters/driving/tui/messages"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for Factura.

The TUI shows the configured websites, runs fetch sessions with live
progress and asks for verification codes inline.

Controls:
  ↑/k, ↓/j - Navigate websites
  f        - Fetch all websites
  Enter    - Submit verification code
  Esc      - Skip verification code
  ?        - Toggle help
  q        - Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if fetchService == nil || siteService == nil {
		return errors.New("fetch service not configured")
	}

	ports := &tui.Ports{
		Fetch:    fetchService,
		Sites:    siteService,
		Invoices: invoiceService,
		Settings: settingsService,
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	app.WithContext(ctx)

	p := tea.NewProgram(app, tea.WithAltScreen())
	watchConfig(ctx, func() { p.Send(messages.SettingsChanged{}) })

	// Events reach the model through the program; the sink never blocks.
	if sub, ok := fetchService.(sinkSubscriber); ok {
		sink := tui.NewProgramSink(p)
		sub.SetSink(sink)
		defer func() {
			sub.SetSink(nil)
			sink.Close()
		}()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
