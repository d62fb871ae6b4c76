package driven

import "github.com/custodia-labs/factura-cli/internal/core/domain"

// EventSink receives the events a fetch run emits for the user.
// Implementations must not block; the run waits for each call to return.
type EventSink interface {
	// Progress reports per-site progress.
	Progress(event domain.ProgressEvent)

	// Notify delivers a notification.
	Notify(notification domain.Notification)

	// Challenge asks the user to answer a pending challenge.
	// The answer comes back through FetchService.ResolveChallenge.
	Challenge(challenge domain.Challenge)
}

// NopSink discards all events.
type NopSink struct{}

// Progress implements EventSink.
func (NopSink) Progress(domain.ProgressEvent) {}

// Notify implements EventSink.
func (NopSink) Notify(domain.Notification) {}

// Challenge implements EventSink.
func (NopSink) Challenge(domain.Challenge) {}

// MultiSink fans events out to several sinks.
type MultiSink []EventSink

// Progress implements EventSink.
func (m MultiSink) Progress(event domain.ProgressEvent) {
	for _, s := range m {
		s.Progress(event)
	}
}

// Notify implements EventSink.
func (m MultiSink) Notify(notification domain.Notification) {
	for _, s := range m {
		s.Notify(notification)
	}
}

// Challenge implements EventSink.
func (m MultiSink) Challenge(challenge domain.Challenge) {
	for _, s := range m {
		s.Challenge(challenge)
	}
}
