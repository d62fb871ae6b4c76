// Package cli provides the factura command line.
package cli

import (
	"context"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driving"
	"github.com/custodia-labs/factura-cli/internal/i18n"
	"github.com/custodia-labs/factura-cli/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services wired by main.
var (
	fetchService     driving.FetchService
	siteService      driving.SiteService
	invoiceService   driving.InvoiceService
	providerRegistry driving.ProviderRegistry
	settingsService  driving.SettingsService
	siteAuthorizer   Authorizer
	configWatcher    ConfigWatcher
)

// Services groups the driving ports the commands use.
type Services struct {
	Fetch     driving.FetchService
	Sites     driving.SiteService
	Invoices  driving.InvoiceService
	Providers driving.ProviderRegistry
	Settings  driving.SettingsService

	// Authorizer runs browser sign-in for sites that need it. Optional.
	Authorizer Authorizer
	// Watcher reloads configuration edited on disk. Optional.
	Watcher ConfigWatcher
}

// ConfigWatcher reloads configuration edited outside the process.
type ConfigWatcher interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Authorizer obtains a long-lived token for a site through the browser.
type Authorizer interface {
	Authorize(ctx context.Context, site domain.Site, show func(url string)) (string, error)
}

// SetServices wires the commands to the core.
func SetServices(s Services) {
	fetchService = s.Fetch
	siteService = s.Sites
	invoiceService = s.Invoices
	providerRegistry = s.Providers
	settingsService = s.Settings
	siteAuthorizer = s.Authorizer
	configWatcher = s.Watcher
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// sinkSubscriber is implemented by fetch services that emit events.
type sinkSubscriber interface {
	SetSink(sink driven.EventSink)
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "factura",
	Short: "Collect invoices from your suppliers",
	Long: `Factura signs in to the websites and APIs of your suppliers, downloads
their invoices and names them the way you like.

Configure websites with 'factura site add', then run 'factura fetch'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// watchConfig keeps configuration in sync with the file until ctx ends and
// calls onReload after every reload. onReload may be nil.
func watchConfig(ctx context.Context, onReload func()) {
	if configWatcher == nil {
		return
	}
	reloaded, err := configWatcher.Watch(ctx)
	if err != nil {
		logger.Warn("configuration changes will not be picked up: %v", err)
		return
	}
	go func() {
		for range reloaded {
			if onReload != nil {
				onReload()
			}
		}
	}()
}

// catalogue returns the message catalogue of the configured language.
func catalogue() *i18n.Catalogue {
	if settingsService == nil {
		return i18n.New(domain.LanguageEnglish)
	}
	settings, err := settingsService.Get()
	if err != nil {
		return i18n.New(domain.LanguageEnglish)
	}
	return i18n.New(settings.Output.Language)
}

// newTable creates a table writing to the command's output.
func newTable(cmd *cobra.Command) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleRounded)
	return t
}
