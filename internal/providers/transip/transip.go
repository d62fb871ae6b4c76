// Package transip lists invoices through the TransIP v6 REST API.
package transip

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/download"
	"github.com/custodia-labs/factura-cli/internal/logger"
	"github.com/custodia-labs/factura-cli/internal/normalise"
	"github.com/custodia-labs/factura-cli/internal/providers/rest"
)

// Key is the provider key stored on sites.
const Key = "https://api.transip.nl/v6/invoices"

// DefaultBaseURL is the TransIP API root.
const DefaultBaseURL = "https://api.transip.nl/v6"

// tokenLifetime is requested for the access token.
const tokenLifetime = "30 minutes"

// Ensure Provider implements the interface.
var _ driven.Provider = (*Provider)(nil)

// Type returns the catalogue entry.
func Type() domain.ProviderType {
	return domain.ProviderType{
		Key:         Key,
		Name:        "TransIP",
		Description: "Invoices from the TransIP API, signed with an API key pair",
		Credentials: []domain.CredentialKey{
			{Field: domain.FieldUsername, Label: "Login", Description: "TransIP account name", Required: true},
			{Field: domain.FieldPassword, Label: "Private key", Description: "PEM private key of the API key pair", Required: true, Secret: true},
		},
	}
}

// Config points the provider at an API root.
type Config struct {
	BaseURL string
}

// Provider fetches TransIP invoices.
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
	return &Provider{env: env, cfg: cfg, http: rest.NewClient(env)}, nil
}

// Key returns the provider key.
func (p *Provider) Key() string { return Key }

// Capabilities describes the provider.
func (p *Provider) Capabilities() driven.ProviderCapabilities {
	return driven.ProviderCapabilities{}
}

// authRequest is the body TransIP expects at /auth. Field order matters:
// the signature covers the exact bytes sent.
type authRequest struct {
	Login          string `json:"login"`
	Nonce          string `json:"nonce"`
	ReadOnly       bool   `json:"read_only"`
	ExpirationTime string `json:"expiration_time"`
	Label          string `json:"label"`
	GlobalKey      bool   `json:"global_key"`
}

// Fetch authenticates and lists all invoices.
func (p *Provider) Fetch(ctx context.Context) ([]domain.InvoiceDescriptor, error) {
	token, err := p.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	p.http.SetAuthToken(token)
	p.env.Authenticated()

	res, err := p.http.R().SetContext(ctx).Get(rest.BaseURL(p.cfg.BaseURL, "invoices"))
	if err != nil {
		return nil, domain.FetchError("list invoices", err)
	}
	if err := rest.Check("list invoices", res); err != nil {
		return nil, err
	}

	var descriptors []domain.InvoiceDescriptor
	for _, inv := range gjson.GetBytes(res.Body(), "invoices").Array() {
		number := inv.Get("invoiceNumber").String()
		if number == "" {
			continue
		}
		descriptors = append(descriptors, domain.InvoiceDescriptor{
			Description: number,
			Date:        normalise.ParseDatePtr(inv.Get("creationDate").String()),
			SiteName:    p.env.Site.Name,
			FileName:    number + ".pdf",
			MIMEType:    domain.MIMETypePDF,
			Handle:      download.Func{Name: number, Fn: p.opener(number)},
		})
	}

	logger.WithSite(p.env.Site.Name, Key).Debugf("listed %d invoices", len(descriptors))
	return descriptors, nil
}

func (p *Provider) authenticate(ctx context.Context) (string, error) {
	key, err := parsePrivateKey(p.env.Site.Credentials.Password)
	if err != nil {
		return "", domain.ConfigError("transip private key: %v", err)
	}

	body, err := json.Marshal(authRequest{
		Login:          p.env.Site.Credentials.Username,
		Nonce:          uuid.New().String(),
		ExpirationTime: tokenLifetime,
		Label:          fmt.Sprintf("factura %s", time.Now().Format(time.RFC3339)),
		GlobalKey:      true,
	})
	if err != nil {
		return "", fmt.Errorf("encode auth request: %w", err)
	}

	signature, err := sign(key, body)
	if err != nil {
		return "", domain.ConfigError("sign auth request: %v", err)
	}

	res, err := p.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Signature", signature).
		SetBody(body).
		Post(rest.BaseURL(p.cfg.BaseURL, "auth"))
	if err != nil {
		return "", domain.FetchError("authenticate", err)
	}
	if res.StatusCode() >= 400 && res.StatusCode() < 500 && res.StatusCode() != 429 {
		return "", domain.AuthError("authenticate", fmt.Errorf("status %d: %s", res.StatusCode(), gjson.GetBytes(res.Body(), "error").String()))
	}
	if err := rest.Check("authenticate", res); err != nil {
		return "", err
	}

	token := gjson.GetBytes(res.Body(), "token").String()
	if token == "" {
		return "", domain.AuthError("authenticate", fmt.Errorf("no token in response"))
	}
	return token, nil
}

// opener fetches an invoice whose PDF comes base64 encoded inside JSON.
func (p *Provider) opener(number string) func(ctx context.Context) (io.ReadCloser, error) {
	return func(ctx context.Context) (io.ReadCloser, error) {
		res, err := p.http.R().SetContext(ctx).Get(rest.BaseURL(p.cfg.BaseURL, "invoices/"+number+"/pdf"))
		if err != nil {
			return nil, domain.FetchError("download invoice", err)
		}
		if err := rest.Check("download invoice", res); err != nil {
			return nil, err
		}

		data, err := base64.StdEncoding.DecodeString(gjson.GetBytes(res.Body(), "pdf").String())
		if err != nil {
			return nil, fmt.Errorf("decode invoice %s: %w", number, err)
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

// Close releases nothing; the session belongs to the run.
func (p *Provider) Close() error { return nil }
