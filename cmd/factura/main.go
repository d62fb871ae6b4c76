// Command factura collects invoices from supplier websites and APIs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/factura-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/factura-cli/internal/adapters/driven/secrets"
	"github.com/custodia-labs/factura-cli/internal/adapters/driven/session"
	"github.com/custodia-labs/factura-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/factura-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/factura-cli/internal/adapters/driving/oauth"
	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/services"
	"github.com/custodia-labs/factura-cli/internal/download"
	"github.com/custodia-labs/factura-cli/internal/logger"
	"github.com/custodia-labs/factura-cli/internal/providers"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	dataDir, err := file.DataDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	configStore, err := file.NewConfigStore(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading configuration: %v\n", err)
		return 1
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		logger.Warn("invalid settings, using defaults: %v", err)
		defaults := domain.DefaultSettings()
		settings = &defaults
	}

	if settings.Debug {
		closeLog, err := openDebugLog(dataDir)
		if err != nil {
			logger.Warn("debug log unavailable: %v", err)
		} else {
			defer closeLog()
		}
	}

	store, err := sqlite.NewStore(filepath.Join(dataDir, "data"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening database: %v\n", err)
		return 1
	}
	defer store.Close()

	factory := providers.NewFactory()
	registry := services.NewProviderRegistry(factory)
	cache := download.NewCache()
	materializer := download.NewMaterializer(download.OptionsFromSettings(settings.Fetch))
	sessions := session.NewProvider(session.WithTimeout(settings.Fetch.RequestTimeout))

	resolver := secrets.NewResolver()
	fetch := services.NewFetchOrchestrator(
		store.SiteStore(),
		store.InvoiceStore(),
		cache,
		factory,
		materializer,
		sessions,
		resolver,
		settingsService,
	)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Fetch:      fetch,
		Sites:      services.NewSiteService(store.SiteStore(), registry),
		Invoices:   services.NewInvoiceService(store.InvoiceStore(), cache, materializer, settingsService),
		Providers:  registry,
		Settings:   settingsService,
		Authorizer: oauth.NewGmailAuthorizer(resolver),
		Watcher:    configStore,
	})

	if err := cli.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// openDebugLog sends verbose logging to <data dir>/factura.log.
func openDebugLog(dataDir string) (func(), error) {
	f, err := os.OpenFile(filepath.Join(dataDir, "factura.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}
	logger.SetOutput(f)
	logger.SetVerbose(true)
	return func() {
		logger.SetOutput(os.Stderr)
		f.Close()
	}, nil
}
