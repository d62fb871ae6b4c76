// Package session hands every site a fresh HTTP session for a fetch run.
package session

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.SessionProvider = (*Provider)(nil)

// Provider creates cookie-jar backed clients.
type Provider struct {
	timeout   time.Duration
	transport http.RoundTripper
}

// Option configures a Provider.
type Option func(*Provider)

// WithTimeout bounds every request of a session.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.timeout = d }
}

// WithTransport replaces the default transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Provider) { p.transport = rt }
}

// NewProvider creates a session provider.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewSession returns a client with an empty cookie jar. Sessions are never
// shared between sites.
func (p *Provider) NewSession(_ context.Context, _ domain.Site) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Jar:       jar,
		Timeout:   p.timeout,
		Transport: p.transport,
	}, nil
}
