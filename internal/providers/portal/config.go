package portal

import (
	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
)

// PortalConfig describes one HTML client area: where to log in, how the
// forms are named and where the invoice table lives. Paths are resolved
// against BaseURL.
type PortalConfig struct {
	// === Catalogue ===

	Key         string
	Name        string
	Description string

	// BaseURL is the portal root. Sites may override it through the
	// account id credential when the portal is self hosted.
	BaseURL string

	// === Login ===

	LoginPath     string
	LoginForm     string // CSS selector of the login form
	UsernameField string
	PasswordField string

	// FailedQuery marks a rejected login by a query parameter of the
	// landing URL, written as "key=value".
	FailedQuery string
	// FailedSelector marks a rejected login by an element on the landing page.
	FailedSelector string

	// === Challenge ===

	ChallengeKind domain.ChallengeKind
	// ChallengeForm is the selector of the form shown after login when the
	// portal asks for a code or an answer.
	ChallengeForm  string
	ChallengeField string
	// QuestionSelector holds the question text of a security-question form.
	QuestionSelector string

	// === Invoices ===

	InvoicesPath string
	RowSelector  string
	// IDSelector and DateSelector are evaluated within a row.
	IDSelector   string
	DateSelector string
	// DownloadPath contains {id}, replaced by the invoice id.
	DownloadPath string

	DownloadConcurrency int
}

// Preset is a built-in portal configuration.
type Preset struct {
	cfg PortalConfig
}

// NewPreset wraps cfg.
func NewPreset(cfg PortalConfig) Preset { return Preset{cfg: cfg} }

// Config returns a copy of the configuration.
func (p Preset) Config() PortalConfig { return p.cfg }

// Type returns the catalogue entry.
func (p Preset) Type() domain.ProviderType {
	return domain.ProviderType{
		Key:           p.cfg.Key,
		Name:          p.cfg.Name,
		Description:   p.cfg.Description,
		ChallengeKind: p.cfg.ChallengeKind,
		Credentials: []domain.CredentialKey{
			{Field: domain.FieldUsername, Label: "Email address", Required: true},
			{Field: domain.FieldPassword, Label: "Password", Required: true, Secret: true},
			{Field: domain.FieldAccountID, Label: "Portal URL", Description: "Root of a self-hosted portal, defaults to " + p.cfg.BaseURL},
		},
	}
}

// Builder returns the builder registered for the preset.
func (p Preset) Builder() driven.ProviderBuilder {
	return func(env driven.ProviderEnv) (driven.Provider, error) {
		return New(env, p.cfg)
	}
}

// WHMCS client area invoice list. Two-factor authentication shows a code
// form after login.
var whmcs = PortalConfig{
	Key:         "https://www.whmcs.com/members/clientarea.php?action=invoices",
	Name:        "WHMCS",
	Description: "Invoices from a WHMCS client area",
	BaseURL:     "https://www.whmcs.com/members",

	LoginPath:     "/clientarea.php",
	LoginForm:     "form.login-form, form[action*='dologin']",
	UsernameField: "username",
	PasswordField: "password",
	FailedQuery:   "incorrect=true",

	ChallengeKind:  domain.ChallengeCode,
	ChallengeForm:  "form[action*='dologin'] input[name='code'], form#frmTwoFactor",
	ChallengeField: "code",

	InvoicesPath: "/clientarea.php?action=invoices",
	RowSelector:  "table#tableInvoicesList tbody tr",
	IDSelector:   "td:nth-child(1)",
	DateSelector: "td:nth-child(2) span.hidden",
	DownloadPath: "/dl.php?type=i&id={id}",

	DownloadConcurrency: 4,
}

// Upwork asks a security question chosen at enrolment when it does not
// recognise the device.
var upwork = PortalConfig{
	Key:         "https://www.upwork.com/nx/payments/reports/transaction-history",
	Name:        "Upwork - Freelancer",
	Description: "Invoices from the Upwork transaction history",
	BaseURL:     "https://www.upwork.com",

	LoginPath:      "/ab/account-security/login",
	LoginForm:      "form#login",
	UsernameField:  "login[username]",
	PasswordField:  "login[password]",
	FailedSelector: "#login_password-error, .alert-danger",

	ChallengeKind:    domain.ChallengeSecurityQuestion,
	ChallengeForm:    "form:has(#login_answer)",
	ChallengeField:   "login[answer]",
	QuestionSelector: "label[for='login_answer']",

	InvoicesPath: "/nx/payments/reports/transaction-history",
	RowSelector:  "table.transactions tbody tr",
	IDSelector:   "td.reference",
	DateSelector: "td.date",
	DownloadPath: "/ab/payments/invoices/{id}/pdf",

	DownloadConcurrency: 2,
}

// Presets returns the built-in portals in catalogue order.
func Presets() []Preset {
	return []Preset{NewPreset(whmcs), NewPreset(upwork)}
}
