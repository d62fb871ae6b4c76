package domain

import "time"

// Message keys emitted to sinks. Sinks localise them; the core never
// renders user-facing text itself.
const (
	MsgLoadingWebsite        = "loadingWebsite"
	MsgFetchingInvoices      = "fetchingInvoicesFromWebsite"
	MsgFetchCompleted        = "fetchingInvoicesFromWebsiteCompleted"
	MsgWaitingForChallenge   = "waitingForVerificationCode"
	MsgNotSupported          = "websiteIsNotSupported"
	MsgAuthenticationFailed  = "authenticationFailed"
	MsgFetchFailed           = "failedToFetchInvoicesFromWebsite"
	MsgRateLimit             = "rateLimit"
	MsgInvalidConfiguration  = "invalidConfiguration"
	MsgDownloadFailed        = "downloadFailed"
	MsgDownloadUnavailable   = "downloadIsNotAvailable"
	MsgFetchSessionCompleted = "fetchSessionCompleted"
)

// Severity grades a notification.
type Severity string

// Notification severities.
const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ProgressEvent reports where a site is in its run.
type ProgressEvent struct {
	SiteID     string
	SiteName   string
	MessageKey string
	// Percent is nil while the total amount of work is unknown.
	Percent *int
	Time    time.Time
}

// Notification is a one-off message for the user.
type Notification struct {
	MessageKey string
	// SiteID and SiteName are empty for run-wide notifications.
	SiteID   string
	SiteName string
	Severity Severity
	// Detail carries the underlying error text, if any.
	Detail string
	Time   time.Time
}

// Percent computes a rounded "done of total" percentage.
func Percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return (done*100 + total/2) / total
}
