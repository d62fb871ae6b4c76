// Package gmail collects PDF invoices attached to mail in a Gmail mailbox.
//
// The provider authenticates with an installed-app OAuth client and a
// long-lived refresh token. Messages are found with a Gmail search query
// and every PDF attachment becomes one invoice dated by its message.
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/download"
	"github.com/custodia-labs/factura-cli/internal/governor"
	"github.com/custodia-labs/factura-cli/internal/logger"
)

// Key is the provider key stored on sites.
const Key = "https://mail.google.com"

// Google endpoints.
const (
	DefaultAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	DefaultTokenURL = "https://oauth2.googleapis.com/token"
)

const (
	userID = "me"

	// baseQuery finds mail carrying a PDF attachment.
	baseQuery = "has:attachment filename:pdf"

	// queryDateLayout is the date format of after:/before: operators.
	queryDateLayout = "2006/01/02"

	// Gmail quota is counted in units per user; stay well below it.
	requestsPerSecond = 2.0
	burst             = 5
)

var errNotAuthorized = errors.New("not authorized, run 'factura site authorize'")

// Ensure Provider implements the interface.
var _ driven.Provider = (*Provider)(nil)

// Type returns the catalogue entry.
func Type() domain.ProviderType {
	return domain.ProviderType{
		Key:         Key,
		Name:        "Gmail",
		Description: "PDF attachments from a Gmail mailbox",
		Credentials: []domain.CredentialKey{
			{Field: domain.FieldUsername, Label: "Client ID", Description: "OAuth client ID of a desktop app", Required: true},
			{Field: domain.FieldPassword, Label: "Client secret", Required: true, Secret: true},
			{Field: domain.FieldAccountID, Label: "Refresh token", Description: "Set by 'factura site authorize'", Secret: true},
		},
	}
}

// Config points the provider at Google.
type Config struct {
	// Endpoint overrides the Gmail API root. Empty uses the library default.
	Endpoint string
	TokenURL string
}

// Provider fetches Gmail attachments.
type Provider struct {
	env     driven.ProviderEnv
	cfg     Config
	oauth   *oauth2.Config
	limiter *governor.RateLimiter
}

// New builds a provider against Google.
func New(env driven.ProviderEnv) (driven.Provider, error) {
	return NewWithConfig(env, Config{TokenURL: DefaultTokenURL})
}

// NewWithConfig builds a provider against cfg.
func NewWithConfig(env driven.ProviderEnv, cfg Config) (*Provider, error) {
	pt := Type()
	if err := pt.Validate(env.Site.Credentials); err != nil {
		return nil, err
	}

	return &Provider{
		env:     env,
		cfg:     cfg,
		oauth:   OAuthConfig(env.Site.Credentials.Username, env.Site.Credentials.Password, cfg.TokenURL),
		limiter: governor.NewRateLimiter(governor.ConfigFromSettings(env.Settings, requestsPerSecond, burst)),
	}, nil
}

// OAuthConfig returns the read-only mailbox client of an installed app.
// An empty tokenURL uses Google's.
func OAuthConfig(clientID, clientSecret, tokenURL string) *oauth2.Config {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  DefaultAuthURL,
			TokenURL: tokenURL,
		},
		Scopes: []string{gmail.GmailReadonlyScope},
	}
}

// Key returns the provider key.
func (p *Provider) Key() string { return Key }

// Capabilities describes the provider.
func (p *Provider) Capabilities() driven.ProviderCapabilities {
	return driven.ProviderCapabilities{FiltersByDate: true, DownloadConcurrency: 2}
}

// Fetch refreshes the access token, searches the mailbox and returns one
// descriptor per PDF attachment.
func (p *Provider) Fetch(ctx context.Context) ([]domain.InvoiceDescriptor, error) {
	svc, err := p.service(ctx)
	if err != nil {
		return nil, err
	}
	p.env.Authenticated()

	ids, err := p.search(ctx, svc)
	if err != nil {
		return nil, err
	}

	log := logger.WithSite(p.env.Site.Name, Key)
	log.Debugf("%d messages match %q", len(ids), p.query())

	var descriptors []domain.InvoiceDescriptor
	for _, id := range ids {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		msg, err := svc.Users.Messages.Get(userID, id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, classify("get message", err)
		}
		descriptors = append(descriptors, p.describe(svc, msg)...)
	}
	return descriptors, nil
}

// service builds a Gmail client on the site session. The token is fetched
// eagerly so a revoked refresh token fails authentication, not listing.
func (p *Provider) service(ctx context.Context) (*gmail.Service, error) {
	if p.env.Site.Credentials.AccountID == "" {
		return nil, domain.AuthError("refresh token", errNotAuthorized)
	}
	octx := context.WithValue(ctx, oauth2.HTTPClient, p.env.Client())
	ts := oauth2.ReuseTokenSource(nil, p.oauth.TokenSource(octx, &oauth2.Token{
		RefreshToken: p.env.Site.Credentials.AccountID,
	}))
	if _, err := ts.Token(); err != nil {
		return nil, domain.AuthError("refresh token", err)
	}

	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(octx, ts))}
	if p.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.cfg.Endpoint))
	}
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, domain.FetchError("create gmail service", err)
	}
	return svc, nil
}

func (p *Provider) search(ctx context.Context, svc *gmail.Service) ([]string, error) {
	var ids []string
	err := svc.Users.Messages.List(userID).Q(p.query()).Pages(ctx, func(page *gmail.ListMessagesResponse) error {
		for _, m := range page.Messages {
			ids = append(ids, m.Id)
		}
		return p.limiter.Wait(ctx)
	})
	if err != nil {
		return nil, classify("search messages", err)
	}
	return ids, nil
}

// query narrows the search to the run's range. before: is exclusive.
func (p *Provider) query() string {
	q := baseQuery
	if r := p.env.Range; r.From != nil {
		q += " after:" + r.From.Format(queryDateLayout)
	}
	if r := p.env.Range; r.To != nil {
		q += " before:" + r.To.AddDate(0, 0, 1).Format(queryDateLayout)
	}
	return q
}

func (p *Provider) describe(svc *gmail.Service, msg *gmail.Message) []domain.InvoiceDescriptor {
	if msg.Payload == nil {
		return nil
	}

	date := time.UnixMilli(msg.InternalDate)
	subject := header(msg.Payload, "Subject")

	var out []domain.InvoiceDescriptor
	for _, part := range pdfParts(msg.Payload) {
		name := part.Filename
		desc := subject
		if desc == "" {
			desc = strings.TrimSuffix(name, path.Ext(name))
		}

		d := domain.InvoiceDescriptor{
			Description: desc,
			Date:        &date,
			SiteName:    p.env.Site.Name,
			FileName:    name,
			MIMEType:    domain.MIMETypePDF,
		}
		if part.Body.AttachmentId != "" {
			d.Handle = download.Func{Name: name, Fn: p.attachment(svc, msg.Id, part.Body.AttachmentId)}
		} else if data, err := decode(part.Body.Data); err == nil {
			d.Handle = download.Buffer{Name: name, Data: data}
		} else {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (p *Provider) attachment(svc *gmail.Service, messageID, attachmentID string) func(ctx context.Context) (io.ReadCloser, error) {
	return func(ctx context.Context) (io.ReadCloser, error) {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		body, err := svc.Users.Messages.Attachments.Get(userID, messageID, attachmentID).Context(ctx).Do()
		if err != nil {
			return nil, classify("get attachment", err)
		}
		data, err := decode(body.Data)
		if err != nil {
			return nil, fmt.Errorf("decode attachment: %w", err)
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

// pdfParts walks the MIME tree depth first.
func pdfParts(part *gmail.MessagePart) []*gmail.MessagePart {
	var out []*gmail.MessagePart
	if part.Body != nil && isPDF(part) {
		out = append(out, part)
	}
	for _, child := range part.Parts {
		out = append(out, pdfParts(child)...)
	}
	return out
}

func isPDF(part *gmail.MessagePart) bool {
	if part.Filename == "" {
		return false
	}
	return strings.EqualFold(part.MimeType, domain.MIMETypePDF) ||
		strings.EqualFold(path.Ext(part.Filename), ".pdf")
}

func header(part *gmail.MessagePart, name string) string {
	for _, h := range part.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// decode reads base64url data with or without padding.
func decode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

// Close releases nothing; the session belongs to the run.
func (p *Provider) Close() error { return nil }
