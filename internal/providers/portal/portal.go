// Package portal drives HTML client areas with a plain HTTP session.
//
// One implementation serves every portal; a PortalConfig supplies the URLs,
// form field names and CSS selectors. Login is split in two so the
// orchestrator can pause for a two-factor code or a security question
// between submitting credentials and listing invoices.
package portal

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/download"
	"github.com/custodia-labs/factura-cli/internal/logger"
	"github.com/custodia-labs/factura-cli/internal/normalise"
	"github.com/custodia-labs/factura-cli/internal/providers/rest"
)

// Ensure Provider implements the interfaces.
var (
	_ driven.Provider      = (*Provider)(nil)
	_ driven.Authenticator = (*Provider)(nil)
)

// Provider fetches invoices from one HTML portal.
type Provider struct {
	env  driven.ProviderEnv
	cfg  PortalConfig
	http *resty.Client
}

// New builds a provider for cfg. A non-empty account id replaces the
// preset's BaseURL.
func New(env driven.ProviderEnv, cfg PortalConfig) (*Provider, error) {
	pt := NewPreset(cfg).Type()
	if err := pt.Validate(env.Site.Credentials); err != nil {
		return nil, err
	}
	if base := strings.TrimSpace(env.Site.Credentials.AccountID); base != "" {
		if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, domain.ConfigError("portal url %q is not absolute", base)
		}
		cfg.BaseURL = base
	}
	return &Provider{env: env, cfg: cfg, http: rest.NewClient(env)}, nil
}

// Key returns the provider key.
func (p *Provider) Key() string { return p.cfg.Key }

// Capabilities describes the provider.
func (p *Provider) Capabilities() driven.ProviderCapabilities {
	return driven.ProviderCapabilities{
		RequiresChallenge:   p.cfg.ChallengeKind != domain.ChallengeNone,
		ChallengeKind:       p.cfg.ChallengeKind,
		DownloadConcurrency: p.cfg.DownloadConcurrency,
	}
}

// Fetch logs in, answering a challenge through the env when one is shown,
// and lists invoices.
func (p *Provider) Fetch(ctx context.Context) ([]domain.InvoiceDescriptor, error) {
	cont, err := p.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	var response string
	if cont.Challenge != nil {
		if response, err = p.env.RequestInput(ctx, *cont.Challenge); err != nil {
			return nil, err
		}
	}
	return cont.Resume(ctx, response)
}

// Authenticate submits the login form. The continuation carries a prompt
// when the portal answered with a challenge form.
func (p *Provider) Authenticate(ctx context.Context) (*driven.Continuation, error) {
	// 1. Load the login page for its form and session cookies.
	doc, page, err := p.get(ctx, p.cfg.LoginPath)
	if err != nil {
		return nil, err
	}
	login, err := parseForm(findForm(doc, p.cfg.LoginForm), page)
	if err != nil {
		return nil, domain.FetchError("login page", err)
	}

	// 2. Submit credentials.
	login.values.Set(p.cfg.UsernameField, p.env.Site.Credentials.Username)
	login.values.Set(p.cfg.PasswordField, p.env.Site.Credentials.Password)
	doc, landed, err := p.submit(ctx, login)
	if err != nil {
		return nil, err
	}
	if p.rejected(doc, landed) {
		return nil, domain.AuthError("login", fmt.Errorf("credentials rejected"))
	}

	// 3. A challenge form means login is not complete yet.
	challenge := findForm(doc, p.cfg.ChallengeForm)
	if p.cfg.ChallengeForm == "" || challenge.Length() == 0 {
		return &driven.Continuation{
			Resume: func(ctx context.Context, _ string) ([]domain.InvoiceDescriptor, error) {
				return p.list(ctx)
			},
		}, nil
	}

	f, err := parseForm(challenge, landed)
	if err != nil {
		return nil, domain.FetchError("challenge form", err)
	}
	prompt := domain.ChallengePrompt{Kind: p.cfg.ChallengeKind}
	if p.cfg.QuestionSelector != "" {
		prompt.Prompt = strings.TrimSpace(doc.Find(p.cfg.QuestionSelector).First().Text())
	}

	return &driven.Continuation{
		Challenge: &prompt,
		Resume: func(ctx context.Context, response string) ([]domain.InvoiceDescriptor, error) {
			if err := p.answer(ctx, f, response); err != nil {
				return nil, err
			}
			return p.list(ctx)
		},
	}, nil
}

func (p *Provider) answer(ctx context.Context, f *form, response string) error {
	if strings.TrimSpace(response) == "" {
		return domain.AuthError("challenge", fmt.Errorf("challenge skipped"))
	}
	f.values.Set(p.cfg.ChallengeField, strings.TrimSpace(response))

	doc, landed, err := p.submit(ctx, f)
	if err != nil {
		return err
	}
	if p.rejected(doc, landed) || findForm(doc, p.cfg.ChallengeForm).Length() > 0 {
		return domain.AuthError("challenge", fmt.Errorf("response rejected"))
	}
	return nil
}

// rejected reports whether a login landed on an error marker.
func (p *Provider) rejected(doc *goquery.Document, landed *url.URL) bool {
	if p.cfg.FailedQuery != "" {
		key, value, _ := strings.Cut(p.cfg.FailedQuery, "=")
		if landed.Query().Get(key) == value {
			return true
		}
	}
	return p.cfg.FailedSelector != "" && doc.Find(p.cfg.FailedSelector).Length() > 0
}

func (p *Provider) list(ctx context.Context) ([]domain.InvoiceDescriptor, error) {
	doc, page, err := p.get(ctx, p.cfg.InvoicesPath)
	if err != nil {
		return nil, err
	}
	// A login form on the invoice page means the session was not accepted.
	if p.cfg.LoginForm != "" && doc.Find(p.cfg.LoginForm).Length() > 0 {
		return nil, domain.AuthError("list invoices", fmt.Errorf("session not authenticated"))
	}
	p.env.Authenticated()

	log := logger.WithSite(p.env.Site.Name, p.cfg.Key)

	var descriptors []domain.InvoiceDescriptor
	doc.Find(p.cfg.RowSelector).Each(func(_ int, row *goquery.Selection) {
		id := strings.TrimSpace(row.Find(p.cfg.IDSelector).First().Text())
		if id == "" {
			return
		}
		link, err := page.Parse(p.path(strings.ReplaceAll(p.cfg.DownloadPath, "{id}", url.QueryEscape(id))))
		if err != nil {
			log.Warnf("invoice %s: %v", id, err)
			return
		}
		descriptors = append(descriptors, domain.InvoiceDescriptor{
			Description: id,
			Date:        normalise.ParseDatePtr(strings.TrimSpace(row.Find(p.cfg.DateSelector).First().Text())),
			SiteName:    p.env.Site.Name,
			FileName:    id + ".pdf",
			MIMEType:    domain.MIMETypePDF,
			Handle:      download.Request{URL: link.String(), Client: p.env.Client()},
		})
	})

	log.Debugf("listed %d invoices", len(descriptors))
	return descriptors, nil
}

// get loads a portal page and returns it with its final URL.
func (p *Provider) get(ctx context.Context, path string) (*goquery.Document, *url.URL, error) {
	res, err := p.http.R().SetContext(ctx).Get(p.path(path))
	if err != nil {
		return nil, nil, domain.FetchError("load "+path, err)
	}
	return p.parse("load "+path, res)
}

func (p *Provider) submit(ctx context.Context, f *form) (*goquery.Document, *url.URL, error) {
	req := p.http.R().SetContext(ctx)
	var (
		res *resty.Response
		err error
	)
	if f.method == "GET" {
		res, err = req.SetQueryParamsFromValues(f.values).Get(f.action)
	} else {
		res, err = req.SetFormDataFromValues(f.values).Post(f.action)
	}
	if err != nil {
		return nil, nil, domain.FetchError("submit form", err)
	}
	return p.parse("submit form", res)
}

func (p *Provider) parse(op string, res *resty.Response) (*goquery.Document, *url.URL, error) {
	if err := rest.Check(op, res); err != nil {
		return nil, nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, nil, domain.FetchError(op, err)
	}
	landed := res.RawResponse.Request.URL
	return doc, landed, nil
}

// path joins a preset path onto the portal root.
func (p *Provider) path(path string) string {
	return rest.BaseURL(p.cfg.BaseURL, path)
}

// Close releases nothing; the session belongs to the run.
func (p *Provider) Close() error { return nil }
