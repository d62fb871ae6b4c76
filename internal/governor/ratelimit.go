package governor

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/logger"
)

const (
	// HeaderRateRemaining is the remaining requests header.
	HeaderRateRemaining = "X-RateLimit-Remaining"

	// HeaderRateReset is the reset header, either seconds until reset or a Unix timestamp.
	HeaderRateReset = "X-RateLimit-Reset"

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"

	// DefaultBackoff is used when a 429 carries no hint.
	DefaultBackoff = 60 * time.Second

	// resets above this value are Unix timestamps rather than deltas.
	epochThreshold = 1_000_000_000
)

// Config tunes a RateLimiter.
type Config struct {
	// RequestsPerSecond throttles proactively. Zero disables the token bucket.
	RequestsPerSecond float64
	// Burst is the token bucket size.
	Burst int
	// MinRemaining is the quota below which calls wait for the reset.
	MinRemaining int
	// Margin is added to every reset wait.
	Margin time.Duration
	// MaxRetries bounds retries of rate-limited calls in Do.
	MaxRetries int
}

// ConfigFromSettings builds a Config from the fetch settings.
func ConfigFromSettings(s domain.FetchSettings, requestsPerSecond float64, burst int) Config {
	return Config{
		RequestsPerSecond: requestsPerSecond,
		Burst:             burst,
		MinRemaining:      s.RateLimitMinRemaining,
		Margin:            s.RateLimitMargin,
		MaxRetries:        s.MaxRetries,
	}
}

// RateLimiter combines proactive token-bucket throttling with the quota
// a provider reports in its response headers.
type RateLimiter struct {
	mu        sync.Mutex
	remaining int       // From API header
	known     bool      // remaining/resetAt came from a response
	resetAt   time.Time // From API header
	retryAt   time.Time // Backoff after a 429
	bucket    *rate.Limiter
	cfg       Config

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter creates a rate limiter.
func NewRateLimiter(cfg Config) *RateLimiter {
	r := &RateLimiter{
		cfg:   cfg,
		now:   time.Now,
		sleep: sleepContext,
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		r.bucket = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return r
}

// Observe records the quota headers of a response.
func (r *RateLimiter) Observe(h http.Header) {
	if h == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v := h.Get(HeaderRateRemaining); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			r.remaining = n
			r.known = true
		}
	}
	if v := h.Get(HeaderRateReset); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			r.resetAt = r.resetTime(n)
		}
	}
}

func (r *RateLimiter) resetTime(v int64) time.Time {
	if v > epochThreshold {
		return time.Unix(v, 0)
	}
	return r.now().Add(time.Duration(v) * time.Second)
}

// CheckRateLimit suspends the caller until the reset time plus the safety
// margin when the last observed quota is below the minimum.
func (r *RateLimiter) CheckRateLimit(ctx context.Context) error {
	r.mu.Lock()
	wait := time.Duration(0)
	if r.known && r.remaining < r.cfg.MinRemaining {
		if until := r.resetAt.Sub(r.now()); until > 0 {
			wait = until + r.cfg.Margin
		}
		// The quota is restored once the reset passes.
		r.known = false
	}
	r.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	logger.Debug("rate limit: %d remaining, waiting %s", r.Remaining(), wait)
	return r.sleep(ctx, wait)
}

// Wait blocks until it's safe to make a request: any 429 backoff first,
// then the token bucket, then the header quota.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	backoff := r.retryAt.Sub(r.now())
	r.mu.Unlock()

	if backoff > 0 {
		if err := r.sleep(ctx, backoff); err != nil {
			return err
		}
	}

	if r.bucket != nil {
		if err := r.bucket.Wait(ctx); err != nil {
			return err
		}
	}

	return r.CheckRateLimit(ctx)
}

// RecordRateLimit sets a backoff period after a rate-limited response.
func (r *RateLimiter) RecordRateLimit(retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = DefaultBackoff
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryAt = r.now().Add(retryAfter + r.cfg.Margin)
}

// CheckResponse observes the headers and turns a 429 into a RateLimitError.
func (r *RateLimiter) CheckResponse(status int, h http.Header) error {
	r.Observe(h)
	if status != http.StatusTooManyRequests {
		return nil
	}

	r.mu.Lock()
	retryAfter := r.resetAt.Sub(r.now())
	remaining := r.remaining
	r.mu.Unlock()

	if d, ok := RetryAfter(h); ok {
		retryAfter = d
	}
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &domain.RateLimitError{RetryAfter: retryAfter, Remaining: remaining}
}

// RetryAfter reads the Retry-After header, in seconds.
func RetryAfter(h http.Header) (time.Duration, bool) {
	v := h.Get(HeaderRetryAfter)
	if v == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

// Do runs fn under the limiter, retrying rate-limited attempts after the
// advertised backoff. Exhausting the retries yields a fetch failure.
func (r *RateLimiter) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if werr := r.Wait(ctx); werr != nil {
			return werr
		}

		err = fn(ctx)
		if err == nil || !errors.Is(err, domain.ErrRateLimited) {
			return err
		}

		var rle *domain.RateLimitError
		retryAfter := time.Duration(0)
		if errors.As(err, &rle) {
			retryAfter = rle.RetryAfter
		}
		r.RecordRateLimit(retryAfter)
		logger.Debug("rate limited (attempt %d/%d), backing off", attempt+1, r.cfg.MaxRetries+1)
	}
	return domain.FetchError("rate limit retries exhausted", err)
}

// Remaining returns the last observed remaining quota.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// ResetAt returns the last observed reset time.
func (r *RateLimiter) ResetAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetAt
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
