package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/logger"
)

// ChallengeBroker mediates interactive authentication pauses between a
// provider workflow and the user. Each pending challenge is a single-use
// slot keyed by site ID: set once, resolved once, then removed.
type ChallengeBroker struct {
	sink driven.EventSink

	mu      sync.Mutex
	timeout time.Duration
	pending map[string]*pendingChallenge
}

type pendingChallenge struct {
	challenge domain.Challenge
	reply     chan string
}

// NewChallengeBroker creates a broker that announces challenges to sink.
// A zero timeout waits for input indefinitely.
func NewChallengeBroker(sink driven.EventSink, timeout time.Duration) *ChallengeBroker {
	if sink == nil {
		sink = driven.NopSink{}
	}
	return &ChallengeBroker{
		sink:    sink,
		timeout: timeout,
		pending: make(map[string]*pendingChallenge),
	}
}

// RequestInput registers a challenge for the site, announces it and suspends
// until Resolve is called, ctx is done or the timeout elapses. Cancellation
// and timeouts surface as authentication failures.
func (b *ChallengeBroker) RequestInput(ctx context.Context, siteID, siteName string, prompt domain.ChallengePrompt) (string, error) {
	p := &pendingChallenge{
		challenge: domain.Challenge{
			SiteID:    siteID,
			SiteName:  siteName,
			Kind:      prompt.Kind,
			Prompt:    prompt.Text(),
			CreatedAt: time.Now(),
		},
		reply: make(chan string, 1),
	}

	b.mu.Lock()
	if _, exists := b.pending[siteID]; exists {
		b.mu.Unlock()
		return "", fmt.Errorf("%w: site %s", domain.ErrChallengePending, siteID)
	}
	b.pending[siteID] = p
	wait := b.timeout
	b.mu.Unlock()

	logger.Debug("challenge pending for site %s (%s)", siteName, prompt.Kind)
	b.sink.Challenge(p.challenge)

	var timeout <-chan time.Time
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case response := <-p.reply:
		return response, nil
	case <-ctx.Done():
		b.discard(siteID, p)
		return "", domain.AuthError("challenge", ctx.Err())
	case <-timeout:
		b.discard(siteID, p)
		return "", domain.AuthError("challenge", fmt.Errorf("no input within %s", wait))
	}
}

// SetTimeout changes how long later requests wait for input. Challenges
// already pending keep their deadline.
func (b *ChallengeBroker) SetTimeout(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timeout = d
}

// Resolve supplies the response for a site's pending challenge.
// Unknown or already resolved site IDs are ignored.
func (b *ChallengeBroker) Resolve(siteID, response string) {
	b.mu.Lock()
	p, ok := b.pending[siteID]
	if ok {
		delete(b.pending, siteID)
	}
	b.mu.Unlock()

	if !ok {
		logger.Debug("ignoring challenge response for site %s: nothing pending", siteID)
		return
	}
	p.reply <- response
}

// Skip declines a pending challenge by resolving it with an empty response.
func (b *ChallengeBroker) Skip(siteID string) {
	b.Resolve(siteID, "")
}

// Pending returns the outstanding challenges, oldest first.
func (b *ChallengeBroker) Pending() []domain.Challenge {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]domain.Challenge, 0, len(b.pending))
	for _, p := range b.pending {
		result = append(result, p.challenge)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// discard removes p if it is still the slot registered for siteID.
func (b *ChallengeBroker) discard(siteID string, p *pendingChallenge) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending[siteID] == p {
		delete(b.pending, siteID)
	}
}
