package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driving"
	"github.com/custodia-labs/factura-cli/internal/governor"
	"github.com/custodia-labs/factura-cli/internal/logger"
	"github.com/custodia-labs/factura-cli/internal/normalise"
)

// Ensure FetchOrchestrator implements the interface.
var _ driving.FetchService = (*FetchOrchestrator)(nil)

// SettingsReader yields the current settings.
type SettingsReader interface {
	Get() (*domain.Settings, error)
}

// FetchOrchestrator runs fetch sessions: every configured site in
// configuration order, one at a time, each through its provider.
type FetchOrchestrator struct {
	siteStore    driven.SiteStore
	invoiceStore driven.InvoiceStore
	cache        driven.ContentCache
	factory      driven.ProviderFactory
	materializer driven.Materializer
	sessions     driven.SessionProvider
	secrets      driven.SecretResolver
	settings     SettingsReader
	broker       *ChallengeBroker

	// Status tracking
	mu       sync.RWMutex
	sink     driven.EventSink
	running  bool
	statuses []domain.SiteStatus
	index    map[string]int
}

// NewFetchOrchestrator creates a new fetch orchestrator.
// sessions, secrets and settings are optional: without them providers get a
// default HTTP client, credentials are used as stored and defaults apply.
func NewFetchOrchestrator(
	siteStore driven.SiteStore,
	invoiceStore driven.InvoiceStore,
	cache driven.ContentCache,
	factory driven.ProviderFactory,
	materializer driven.Materializer,
	sessions driven.SessionProvider,
	secrets driven.SecretResolver,
	settings SettingsReader,
) *FetchOrchestrator {
	o := &FetchOrchestrator{
		siteStore:    siteStore,
		invoiceStore: invoiceStore,
		cache:        cache,
		factory:      factory,
		materializer: materializer,
		sessions:     sessions,
		secrets:      secrets,
		settings:     settings,
		sink:         driven.NopSink{},
		index:        make(map[string]int),
	}
	o.broker = NewChallengeBroker(relay{o}, o.loadSettings().Fetch.ChallengeTimeout)
	return o
}

// SetSink replaces the event sink. Safe to call while a run is active.
func (o *FetchOrchestrator) SetSink(sink driven.EventSink) {
	if sink == nil {
		sink = driven.NopSink{}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sink = sink
}

func (o *FetchOrchestrator) currentSink() driven.EventSink {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.sink
}

// relay forwards broker events to whatever sink is current.
type relay struct{ o *FetchOrchestrator }

func (r relay) Progress(e domain.ProgressEvent) { r.o.currentSink().Progress(e) }
func (r relay) Notify(n domain.Notification)    { r.o.currentSink().Notify(n) }
func (r relay) Challenge(c domain.Challenge)    { r.o.currentSink().Challenge(c) }

// run holds the per-session state of one Run call.
type run struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

// materialized is one downloaded invoice awaiting persistence.
type materialized struct {
	invoice domain.Invoice
	data    []byte
}

// Run fetches invoices for all configured sites (or req.SiteIDs).
// A failing site never aborts the run; its outcome and notification are
// recorded and the next site proceeds.
func (o *FetchOrchestrator) Run(ctx context.Context, req domain.FetchRequest) (*domain.RunResult, error) {
	if !o.begin() {
		return nil, domain.ErrFetchInProgress
	}
	defer o.end()

	settings := o.loadSettings()
	o.broker.SetTimeout(settings.Fetch.ChallengeTimeout)
	result := &domain.RunResult{StartedAt: time.Now()}
	state := &run{}

	// 1. Each run is a full refresh
	if err := o.invoiceStore.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("clear invoices: %w", err)
	}
	o.cache.Clear()

	// 2. Sites in configuration order
	sites, err := o.selectSites(ctx, req.SiteIDs)
	if err != nil {
		return nil, err
	}
	o.resetStatuses(sites)

	logger.Section("Fetch")
	logger.Info("Fetching invoices from %d sites (range %s)", len(sites), req.Range)

	// 3. One site at a time: only one challenge can be shown to the user
	var items []materialized
	for _, site := range sites {
		if err := ctx.Err(); err != nil {
			result.Notifications = state.notifications
			result.FinishedAt = time.Now()
			return result, err
		}
		outcome, siteItems := o.fetchSite(ctx, site, req.Range, settings, state)
		result.Outcomes = append(result.Outcomes, outcome)
		items = append(items, siteItems...)
	}

	// 4. Hand results to persistence, bytes stay resident
	persistCtx := context.WithoutCancel(ctx)
	now := time.Now()
	for _, item := range items {
		inv := item.invoice
		inv.ID = uuid.New().String()
		inv.CreatedAt = now
		if err := o.invoiceStore.Save(persistCtx, inv); err != nil {
			logger.Error("save invoice %s of %s: %v", inv.Description, inv.SiteName, err)
			continue
		}
		o.cache.Put(inv.ID, item.data)
		result.Invoices = append(result.Invoices, inv)
	}

	result.Notifications = state.notifications
	result.FinishedAt = time.Now()
	logger.Info("Fetch finished: %d invoices, %d notifications in %s",
		len(result.Invoices), len(result.Notifications), result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	return result, nil
}

// fetchSite drives one site through the state machine.
func (o *FetchOrchestrator) fetchSite(
	ctx context.Context,
	site domain.Site,
	dateRange domain.DateRange,
	settings domain.Settings,
	state *run,
) (domain.SiteOutcome, []materialized) {
	log := logger.WithSite(site.Name, site.ProviderKey)
	o.progress(site, domain.MsgLoadingWebsite, nil)

	if !o.factory.Supports(site.ProviderKey) {
		return o.unsupported(site, state), nil
	}

	o.transition(site.ID, domain.StateAuthenticating)

	env, err := o.buildEnv(ctx, site, dateRange, settings)
	if err != nil {
		return o.fail(ctx, site, err, state), nil
	}

	provider, err := o.factory.Create(env)
	if errors.Is(err, domain.ErrNotSupported) {
		return o.unsupported(site, state), nil
	}
	if err != nil {
		return o.fail(ctx, site, err, state), nil
	}
	defer func() {
		if err := provider.Close(); err != nil {
			log.Debugf("close provider: %v", err)
		}
	}()

	log.Info("authenticating")
	descriptors, err := o.invoke(ctx, provider, env)
	if err != nil {
		log.Warnf("fetch failed: %v", err)
		return o.fail(ctx, site, err, state), nil
	}
	o.transition(site.ID, domain.StateListing)

	caps := provider.Capabilities()
	listed := len(descriptors)
	if !caps.Dateless {
		descriptors = normalise.FilterByDate(dateRange, descriptors)
	}
	log.Infof("listed %d invoices, %d within range", listed, len(descriptors))

	o.transition(site.ID, domain.StateDownloading)
	items, dropped := o.materializeAll(ctx, site, caps, settings.Fetch, descriptors, state)

	// Success clears stale failure flags
	if err := o.siteStore.UpdateFlags(context.WithoutCancel(ctx), site.ID, false, false); err != nil {
		log.Warnf("clear failure flags: %v", err)
	}
	o.transition(site.ID, domain.StateSucceeded)
	full := 100
	o.progress(site, domain.MsgFetchCompleted, &full)

	return domain.SiteOutcome{
		SiteID:   site.ID,
		SiteName: site.Name,
		State:    domain.StateSucceeded,
		Invoices: len(items),
		Dropped:  dropped,
	}, items
}

// invoke runs the provider, using the split flow when it has one.
func (o *FetchOrchestrator) invoke(ctx context.Context, p driven.Provider, env driven.ProviderEnv) ([]domain.InvoiceDescriptor, error) {
	auth, ok := p.(driven.Authenticator)
	if !ok || !p.Capabilities().RequiresChallenge {
		return p.Fetch(ctx)
	}

	cont, err := auth.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if cont == nil || cont.Resume == nil {
		return nil, domain.AuthError("authenticate", fmt.Errorf("provider returned no continuation"))
	}

	var response string
	if cont.Challenge != nil {
		response, err = env.RequestInput(ctx, *cont.Challenge)
		if err != nil {
			return nil, err
		}
		if response == "" {
			return nil, domain.AuthError("challenge", fmt.Errorf("challenge skipped"))
		}
	}
	return cont.Resume(ctx, response)
}

func (o *FetchOrchestrator) buildEnv(
	ctx context.Context,
	site domain.Site,
	dateRange domain.DateRange,
	settings domain.Settings,
) (driven.ProviderEnv, error) {
	if o.secrets != nil {
		creds, err := o.secrets.Resolve(ctx, site.Credentials)
		if err != nil {
			return driven.ProviderEnv{}, err
		}
		site.Credentials = creds
	}

	env := driven.ProviderEnv{
		Site:       site,
		Range:      dateRange,
		Settings:   settings.Fetch,
		Challenges: siteChallenges{o: o, site: site},
		OnAuthenticated: func() {
			o.transition(site.ID, domain.StateListing)
		},
	}

	if o.sessions != nil {
		client, err := o.sessions.NewSession(ctx, site)
		if err != nil {
			return driven.ProviderEnv{}, domain.FetchError("open session", err)
		}
		env.HTTPClient = client
	}
	return env, nil
}

// materializeAll downloads every descriptor under the provider's concurrency
// policy. Failed items are dropped with a notification.
func (o *FetchOrchestrator) materializeAll(
	ctx context.Context,
	site domain.Site,
	caps driven.ProviderCapabilities,
	fetch domain.FetchSettings,
	descriptors []domain.InvoiceDescriptor,
	state *run,
) ([]materialized, int) {
	total := len(descriptors)
	if total == 0 {
		return nil, 0
	}

	limit := caps.DownloadConcurrency
	if limit == 0 {
		limit = fetch.DownloadConcurrency
	}

	var (
		mu   sync.Mutex
		done int
	)
	tasks := make([]governor.Task[materialized], total)
	for i := range descriptors {
		d := descriptors[i]
		tasks[i] = func(ctx context.Context) (materialized, error) {
			data, err := o.materializer.Materialize(ctx, &d)

			mu.Lock()
			done++
			pct := domain.Percent(done, total)
			o.setCounts(site.ID, done, total)
			o.progress(site, domain.MsgFetchingInvoices, &pct)
			mu.Unlock()

			if err != nil {
				logger.WithSite(site.Name, site.ProviderKey).Warnf("download %q: %v", d.Description, err)
				o.notify(state, domain.Notification{
					MessageKey: domain.MsgDownloadFailed,
					SiteID:     site.ID,
					SiteName:   site.Name,
					Severity:   domain.SeverityWarning,
					Detail:     err.Error(),
				})
				return materialized{}, err
			}
			return materialized{invoice: newInvoice(site, d, data), data: data}, nil
		}
	}

	items, _ := governor.RunBounded(ctx, limit, tasks, governor.CollectErrors)
	return items, total - len(items)
}

func newInvoice(site domain.Site, d domain.InvoiceDescriptor, data []byte) domain.Invoice {
	siteName := d.SiteName
	if siteName == "" {
		siteName = site.Name
	}
	return domain.Invoice{
		SiteID:      site.ID,
		SiteName:    siteName,
		Description: d.Description,
		Date:        d.Date,
		FileName:    d.FileName,
		MIMEType:    d.ContentType(),
		Size:        len(data),
	}
}

// fail classifies err, updates the site's sticky flags and notifies.
func (o *FetchOrchestrator) fail(ctx context.Context, site domain.Site, err error, state *run) domain.SiteOutcome {
	// The notification names the cause; the site records a fetch failure.
	cause := domain.Classify(err)
	kind := cause
	if kind == domain.KindRateLimited || kind == domain.KindMaterializationFailed {
		kind = domain.KindFetchFailed
	}

	site.MarkFailed(kind)
	if uerr := o.siteStore.UpdateFlags(context.WithoutCancel(ctx), site.ID, site.AuthFailed, site.FetchFailed); uerr != nil {
		logger.Warn("update failure flags of %s: %v", site.Name, uerr)
	}
	o.setFailed(site.ID, kind)
	o.notify(state, domain.Notification{
		MessageKey: cause.MessageKey(),
		SiteID:     site.ID,
		SiteName:   site.Name,
		Severity:   domain.SeverityError,
		Detail:     err.Error(),
	})

	return domain.SiteOutcome{
		SiteID:   site.ID,
		SiteName: site.Name,
		State:    domain.StateFailed,
		Failure:  kind,
		Err:      err,
	}
}

// unsupported skips a site no provider matches. Its flags stay untouched.
func (o *FetchOrchestrator) unsupported(site domain.Site, state *run) domain.SiteOutcome {
	logger.Warn("site %s: no provider for %q", site.Name, site.ProviderKey)
	o.setFailed(site.ID, domain.KindNotSupported)
	o.notify(state, domain.Notification{
		MessageKey: domain.MsgNotSupported,
		SiteID:     site.ID,
		SiteName:   site.Name,
		Severity:   domain.SeverityError,
	})
	return domain.SiteOutcome{
		SiteID:   site.ID,
		SiteName: site.Name,
		State:    domain.StateFailed,
		Failure:  domain.KindNotSupported,
		Err:      fmt.Errorf("%w: %s", domain.ErrNotSupported, site.ProviderKey),
	}
}

func (o *FetchOrchestrator) selectSites(ctx context.Context, ids []string) ([]domain.Site, error) {
	sites, err := o.siteStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	if len(ids) == 0 {
		return sites, nil
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	selected := make([]domain.Site, 0, len(ids))
	for _, s := range sites {
		if wanted[s.ID] {
			selected = append(selected, s)
			delete(wanted, s.ID)
		}
	}
	if len(wanted) > 0 {
		for _, id := range ids {
			if wanted[id] {
				return nil, fmt.Errorf("site %s: %w", id, domain.ErrNotFound)
			}
		}
	}
	return selected, nil
}

func (o *FetchOrchestrator) loadSettings() domain.Settings {
	if o.settings == nil {
		return domain.DefaultSettings()
	}
	s, err := o.settings.Get()
	if err != nil || s == nil {
		logger.Warn("load settings, using defaults: %v", err)
		return domain.DefaultSettings()
	}
	return *s
}

// === Events ===

func (o *FetchOrchestrator) progress(site domain.Site, key string, percent *int) {
	o.currentSink().Progress(domain.ProgressEvent{
		SiteID:     site.ID,
		SiteName:   site.Name,
		MessageKey: key,
		Percent:    percent,
		Time:       time.Now(),
	})
}

func (o *FetchOrchestrator) notify(state *run, n domain.Notification) {
	n.Time = time.Now()
	state.mu.Lock()
	state.notifications = append(state.notifications, n)
	state.mu.Unlock()
	o.currentSink().Notify(n)
}

// === Status tracking ===

func (o *FetchOrchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return false
	}
	o.running = true
	return true
}

func (o *FetchOrchestrator) end() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running = false
}

func (o *FetchOrchestrator) resetStatuses(sites []domain.Site) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = make([]domain.SiteStatus, len(sites))
	o.index = make(map[string]int, len(sites))
	for i, s := range sites {
		o.statuses[i] = domain.SiteStatus{SiteID: s.ID, SiteName: s.Name, State: domain.StateIdle}
		o.index[s.ID] = i
	}
}

// transition applies next if the state machine allows it.
func (o *FetchOrchestrator) transition(siteID string, next domain.SiteState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	i, ok := o.index[siteID]
	if !ok {
		return
	}
	st := &o.statuses[i]
	if st.State == next {
		return
	}
	if !st.State.CanTransition(next) {
		logger.Debug("site %s: ignoring transition %s -> %s", st.SiteName, st.State, next)
		return
	}
	st.State = next
	if next != domain.StateChallengePending {
		st.Challenge = nil
	}
}

func (o *FetchOrchestrator) setChallenge(siteID string, c *domain.Challenge) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if i, ok := o.index[siteID]; ok {
		o.statuses[i].Challenge = c
	}
}

func (o *FetchOrchestrator) setCounts(siteID string, done, total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if i, ok := o.index[siteID]; ok {
		o.statuses[i].Done = done
		o.statuses[i].Total = total
	}
}

func (o *FetchOrchestrator) setFailed(siteID string, kind domain.ErrorKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if i, ok := o.index[siteID]; ok {
		o.statuses[i].State = domain.StateFailed
		o.statuses[i].Failure = kind
		o.statuses[i].Challenge = nil
	}
}

// Status returns a copy of the per-site state of the active or last run.
func (o *FetchOrchestrator) Status() []domain.SiteStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]domain.SiteStatus, len(o.statuses))
	copy(out, o.statuses)
	return out
}

// Running returns true while a run is active.
func (o *FetchOrchestrator) Running() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.running
}

// === Challenges ===

// PendingChallenges returns the challenges awaiting input.
func (o *FetchOrchestrator) PendingChallenges() []domain.Challenge {
	return o.broker.Pending()
}

// ResolveChallenge supplies input for a pending challenge.
func (o *FetchOrchestrator) ResolveChallenge(siteID, response string) {
	o.broker.Resolve(siteID, response)
}

// SkipChallenge declines a pending challenge.
func (o *FetchOrchestrator) SkipChallenge(siteID string) {
	o.broker.Skip(siteID)
}

// siteChallenges binds the broker to one site and tracks its state.
type siteChallenges struct {
	o    *FetchOrchestrator
	site domain.Site
}

func (s siteChallenges) RequestInput(ctx context.Context, prompt domain.ChallengePrompt) (string, error) {
	s.o.transition(s.site.ID, domain.StateChallengePending)
	s.o.setChallenge(s.site.ID, &domain.Challenge{
		SiteID:    s.site.ID,
		SiteName:  s.site.Name,
		Kind:      prompt.Kind,
		Prompt:    prompt.Text(),
		CreatedAt: time.Now(),
	})
	s.o.progress(s.site, domain.MsgWaitingForChallenge, nil)

	response, err := s.o.broker.RequestInput(ctx, s.site.ID, s.site.Name, prompt)

	s.o.transition(s.site.ID, domain.StateAuthenticating)
	return response, err
}
