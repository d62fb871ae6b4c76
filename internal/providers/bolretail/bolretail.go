// Package bolretail lists invoices of a bol.com seller account through the
// Retailer API.
//
// The API allows listing at most 31 days at a time and reports its quota in
// x-ratelimit headers, so listing walks 30-day periods and every call goes
// through a governor.RateLimiter. Downloads are strictly sequential.
package bolretail

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/download"
	"github.com/custodia-labs/factura-cli/internal/governor"
	"github.com/custodia-labs/factura-cli/internal/logger"
	"github.com/custodia-labs/factura-cli/internal/normalise"
	"github.com/custodia-labs/factura-cli/internal/providers/rest"
)

// Key is the provider key stored on sites.
const Key = "https://api.bol.com/retailer/invoices"

// Endpoints of the public API.
const (
	DefaultBaseURL  = "https://api.bol.com/retailer"
	DefaultTokenURL = "https://login.bol.com/token"
)

const (
	acceptJSON = "application/vnd.retailer.v10+json"
	acceptPDF  = "application/vnd.retailer.v10+pdf"

	// periodDays is the listing window.
	periodDays = 30
)

// Ensure Provider implements the interface.
var _ driven.Provider = (*Provider)(nil)

// Type returns the catalogue entry.
func Type() domain.ProviderType {
	return domain.ProviderType{
		Key:         Key,
		Name:        "Bol.com Retailer",
		Description: "Seller invoices from the bol.com Retailer API",
		Credentials: []domain.CredentialKey{
			{Field: domain.FieldUsername, Label: "Client ID", Required: true},
			{Field: domain.FieldPassword, Label: "Client secret", Required: true, Secret: true},
		},
	}
}

// Config points the provider at the API.
type Config struct {
	BaseURL  string
	TokenURL string
	// Now is the clock used for open-ended ranges.
	Now func() time.Time
}

// DefaultConfig returns the public endpoints.
func DefaultConfig() Config {
	return Config{BaseURL: DefaultBaseURL, TokenURL: DefaultTokenURL, Now: time.Now}
}

// Provider fetches bol.com invoices.
type Provider struct {
	env     driven.ProviderEnv
	cfg     Config
	oauth   clientcredentials.Config
	limiter *governor.RateLimiter
	http    *resty.Client
}

// New builds a provider against the public API.
func New(env driven.ProviderEnv) (driven.Provider, error) {
	return NewWithConfig(env, DefaultConfig())
}

// NewWithConfig builds a provider against cfg.
func NewWithConfig(env driven.ProviderEnv, cfg Config) (*Provider, error) {
	pt := Type()
	if err := pt.Validate(env.Site.Credentials); err != nil {
		return nil, err
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Provider{
		env: env,
		cfg: cfg,
		oauth: clientcredentials.Config{
			ClientID:     env.Site.Credentials.Username,
			ClientSecret: env.Site.Credentials.Password,
			TokenURL:     cfg.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		limiter: governor.NewRateLimiter(governor.ConfigFromSettings(env.Settings, 0, 0)),
	}, nil
}

// Key returns the provider key.
func (p *Provider) Key() string { return Key }

// Capabilities describes the provider.
func (p *Provider) Capabilities() driven.ProviderCapabilities {
	return driven.ProviderCapabilities{
		FiltersByDate:       true,
		DownloadConcurrency: 1,
	}
}

// Fetch authenticates, then lists invoices period by period.
func (p *Provider) Fetch(ctx context.Context) ([]domain.InvoiceDescriptor, error) {
	if err := p.authenticate(ctx); err != nil {
		return nil, err
	}
	p.env.Authenticated()

	log := logger.WithSite(p.env.Site.Name, Key)
	periods := normalise.Periods(p.env.Range, periodDays, p.cfg.Now())

	var descriptors []domain.InvoiceDescriptor
	for _, period := range periods {
		items, err := p.listPeriod(ctx, period)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, items...)
	}

	log.Debugf("listed %d invoices over %d periods", len(descriptors), len(periods))
	return descriptors, nil
}

// authenticate obtains a client-credentials token. The token source
// refreshes it for later calls.
func (p *Provider) authenticate(ctx context.Context) error {
	// Token requests go through the site session.
	tokenCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, p.env.Client())
	source := oauth2.ReuseTokenSource(nil, p.oauth.TokenSource(tokenCtx))
	if _, err := source.Token(); err != nil {
		return domain.AuthError("client credentials", err)
	}

	base := p.env.Client()
	client := &http.Client{
		Transport: &oauth2.Transport{Source: source, Base: base.Transport},
		Jar:       base.Jar,
		Timeout:   base.Timeout,
	}
	p.http = resty.NewWithClient(client).SetHeader("User-Agent", rest.UserAgent)
	if p.env.Settings.RequestTimeout > 0 {
		p.http.SetTimeout(p.env.Settings.RequestTimeout)
	}
	return nil
}

func (p *Provider) listPeriod(ctx context.Context, period domain.DateRange) ([]domain.InvoiceDescriptor, error) {
	var body []byte
	err := p.limiter.Do(ctx, func(ctx context.Context) error {
		res, err := p.http.R().
			SetContext(ctx).
			SetHeader("Accept", acceptJSON).
			SetQueryParams(map[string]string{
				"period-start-date": period.From.Format(domain.DateLayout),
				"period-end-date":   period.To.Format(domain.DateLayout),
			}).
			Get(rest.BaseURL(p.cfg.BaseURL, "invoices"))
		if err != nil {
			return domain.FetchError("list invoices", err)
		}
		if err := p.limiter.CheckResponse(res.StatusCode(), res.Header()); err != nil {
			return err
		}
		if err := rest.Check("list invoices", res); err != nil {
			return err
		}
		body = res.Body()
		return nil
	})
	if err != nil {
		return nil, err
	}

	var descriptors []domain.InvoiceDescriptor
	for _, item := range gjson.GetBytes(body, "invoiceListItems").Array() {
		id := item.Get("invoiceId").String()
		if id == "" {
			continue
		}
		descriptors = append(descriptors, domain.InvoiceDescriptor{
			Description: id,
			Date:        normalise.ParseDatePtr(item.Get("issueDate").String()),
			SiteName:    p.env.Site.Name,
			FileName:    id + ".pdf",
			MIMEType:    domain.MIMETypePDF,
			Handle:      download.Func{Name: id, Fn: p.opener(id)},
		})
	}
	return descriptors, nil
}

// opener downloads one invoice PDF under the rate limiter.
func (p *Provider) opener(id string) func(ctx context.Context) (io.ReadCloser, error) {
	return func(ctx context.Context) (io.ReadCloser, error) {
		var data []byte
		err := p.limiter.Do(ctx, func(ctx context.Context) error {
			res, err := p.http.R().
				SetContext(ctx).
				SetHeader("Accept", acceptPDF).
				Get(rest.BaseURL(p.cfg.BaseURL, "invoices/"+id))
			if err != nil {
				return domain.FetchError("download invoice", err)
			}
			if err := p.limiter.CheckResponse(res.StatusCode(), res.Header()); err != nil {
				return err
			}
			if err := rest.Check("download invoice", res); err != nil {
				return err
			}
			data = res.Body()
			return nil
		})
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

// Close releases nothing; the session belongs to the run.
func (p *Provider) Close() error { return nil }
