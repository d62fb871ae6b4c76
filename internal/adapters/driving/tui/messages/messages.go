// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewSites is the website list with live fetch progress.
	ViewSites ViewType = iota
	// ViewInvoices lists the invoices of the last fetch.
	ViewInvoices
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewSites:
		return "sites"
	case ViewInvoices:
		return "invoices"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// SitesLoaded carries the configured websites.
type SitesLoaded struct {
	Sites []domain.Site
	Err   error
}

// InvoicesLoaded carries the stored invoices.
type InvoicesLoaded struct {
	Invoices []domain.Invoice
	Err      error
}

// ProgressReceived wraps a progress event of the running fetch.
type ProgressReceived struct {
	Event domain.ProgressEvent
}

// NotificationReceived wraps a notification of the running fetch.
type NotificationReceived struct {
	Notification domain.Notification
}

// ChallengeReceived is sent when a website waits for a code or answer.
type ChallengeReceived struct {
	Challenge domain.Challenge
}

// FetchStarted signals a fetch run was requested.
type FetchStarted struct{}

// FetchCompleted carries the result of a fetch run.
type FetchCompleted struct {
	Result *domain.RunResult
	Err    error
}

// FlagsReset signals the failure flags of a website were cleared.
type FlagsReset struct {
	SiteID string
	Err    error
}

// SettingsChanged is sent when the configuration was edited on disk.
type SettingsChanged struct{}

// ExportCompleted carries the paths written by an export.
type ExportCompleted struct {
	Paths []string
	Err   error
}
