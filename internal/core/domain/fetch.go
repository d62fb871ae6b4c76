package domain

import "time"

// SiteState is a site's position in the fetch state machine:
//
//	Idle -> Authenticating -> (ChallengePending <-> Authenticating) -> Listing -> Downloading -> Succeeded
//
// Any non-terminal state may move to Failed.
type SiteState string

// Site states.
const (
	StateIdle             SiteState = "idle"
	StateAuthenticating   SiteState = "authenticating"
	StateChallengePending SiteState = "challenge_pending"
	StateListing          SiteState = "listing"
	StateDownloading      SiteState = "downloading"
	StateSucceeded        SiteState = "succeeded"
	StateFailed           SiteState = "failed"
)

var transitions = map[SiteState][]SiteState{
	StateIdle:             {StateAuthenticating, StateFailed},
	StateAuthenticating:   {StateChallengePending, StateListing, StateFailed},
	StateChallengePending: {StateAuthenticating, StateFailed},
	StateListing:          {StateDownloading, StateFailed},
	StateDownloading:      {StateSucceeded, StateFailed},
}

// CanTransition reports whether the state machine allows s -> next.
func (s SiteState) CanTransition(next SiteState) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal returns true for Succeeded and Failed.
func (s SiteState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// String returns the string representation.
func (s SiteState) String() string {
	return string(s)
}

// SiteStatus is a point-in-time view of one site within a run.
type SiteStatus struct {
	SiteID   string
	SiteName string
	State    SiteState
	// Failure is set when State is Failed.
	Failure ErrorKind
	// Done and Total count materialised downloads.
	Done  int
	Total int
	// Challenge is set while State is ChallengePending.
	Challenge *Challenge
}

// FetchRequest describes a fetch run.
type FetchRequest struct {
	// Range filters invoices by date. Zero value is unbounded.
	Range DateRange
	// SiteIDs restricts the run to the given sites. Empty means all sites.
	SiteIDs []string
}

// SiteOutcome is the terminal result of one site.
type SiteOutcome struct {
	SiteID   string
	SiteName string
	// State is Succeeded or Failed. Unsupported sites end Failed with KindNotSupported.
	State   SiteState
	Failure ErrorKind
	Err     error
	// Invoices counts materialised invoices.
	Invoices int
	// Dropped counts descriptors whose download failed.
	Dropped int
}

// RunResult aggregates a whole fetch run.
type RunResult struct {
	Invoices      []Invoice
	Notifications []Notification
	Outcomes      []SiteOutcome
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Failed returns the outcomes that did not succeed.
func (r *RunResult) Failed() []SiteOutcome {
	var failed []SiteOutcome
	for _, o := range r.Outcomes {
		if o.State != StateSucceeded {
			failed = append(failed, o)
		}
	}
	return failed
}
