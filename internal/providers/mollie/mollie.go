// Package mollie lists invoices through the Mollie v2 REST API.
package mollie

import (
	"context"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/download"
	"github.com/custodia-labs/factura-cli/internal/logger"
	"github.com/custodia-labs/factura-cli/internal/normalise"
	"github.com/custodia-labs/factura-cli/internal/providers/rest"
)

// Key is the provider key stored on sites.
const Key = "https://api.mollie.com/v2/invoices"

// DefaultBaseURL is the Mollie API root.
const DefaultBaseURL = "https://api.mollie.com/v2"

// pageSize is the largest page Mollie serves.
const pageSize = "250"

// Ensure Provider implements the interface.
var _ driven.Provider = (*Provider)(nil)

// Type returns the catalogue entry.
func Type() domain.ProviderType {
	return domain.ProviderType{
		Key:         Key,
		Name:        "Mollie",
		Description: "Invoices from the Mollie API",
		Credentials: []domain.CredentialKey{
			{
				Field:       domain.FieldPassword,
				Label:       "API key",
				Description: "Organization access token or live API key",
				Required:    true,
				Secret:      true,
			},
		},
	}
}

// Config points the provider at an API root.
type Config struct {
	BaseURL string
}

// Provider fetches Mollie invoices.
type Provider struct {
	env  driven.ProviderEnv
	cfg  Config
	http *resty.Client
}

// New builds a provider against the public API.
func New(env driven.ProviderEnv) (driven.Provider, error) {
	return NewWithConfig(env, Config{BaseURL: DefaultBaseURL})
}

// NewWithConfig builds a provider against cfg.BaseURL.
func NewWithConfig(env driven.ProviderEnv, cfg Config) (*Provider, error) {
	pt := Type()
	if err := pt.Validate(env.Site.Credentials); err != nil {
		return nil, err
	}

	client := rest.NewClient(env)
	client.SetAuthToken(env.Site.Credentials.Password)

	return &Provider{env: env, cfg: cfg, http: client}, nil
}

// Key returns the provider key.
func (p *Provider) Key() string { return Key }

// Capabilities describes the provider.
func (p *Provider) Capabilities() driven.ProviderCapabilities {
	return driven.ProviderCapabilities{}
}

// Fetch lists every invoice, following the pagination links.
func (p *Provider) Fetch(ctx context.Context) ([]domain.InvoiceDescriptor, error) {
	log := logger.WithSite(p.env.Site.Name, Key)

	var descriptors []domain.InvoiceDescriptor
	next := rest.BaseURL(p.cfg.BaseURL, "invoices") + "?limit=" + pageSize
	for page := 0; next != ""; page++ {
		res, err := p.http.R().SetContext(ctx).Get(next)
		if err != nil {
			return nil, domain.FetchError("list invoices", err)
		}
		if err := rest.Check("list invoices", res); err != nil {
			return nil, err
		}
		if page == 0 {
			p.env.Authenticated()
		}

		body := res.Body()
		for _, inv := range gjson.GetBytes(body, "_embedded.invoices").Array() {
			reference := inv.Get("reference").String()
			href := inv.Get("_links.pdf.href").String()
			if href == "" {
				log.Warnf("invoice %s has no pdf link", reference)
				continue
			}
			descriptors = append(descriptors, domain.InvoiceDescriptor{
				Description: reference,
				Date:        normalise.ParseDatePtr(inv.Get("issuedAt").String()),
				SiteName:    p.env.Site.Name,
				FileName:    reference + ".pdf",
				MIMEType:    domain.MIMETypePDF,
				// PDF links are pre-signed; the API key stays with the API host.
				Handle: download.Request{URL: href, Client: p.env.Client()},
			})
		}
		next = gjson.GetBytes(body, "_links.next.href").String()
	}

	log.Debugf("listed %d invoices", len(descriptors))
	return descriptors, nil
}

// Close releases nothing; the session belongs to the run.
func (p *Provider) Close() error { return nil }
