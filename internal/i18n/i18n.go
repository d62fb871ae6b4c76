// Package i18n renders the message keys a fetch run emits.
package i18n

import (
	"fmt"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// Catalogue renders message keys in one language.
type Catalogue struct {
	lang     domain.Language
	messages map[string]string
}

// New returns the catalogue for lang, falling back to English.
func New(lang domain.Language) *Catalogue {
	if _, ok := catalogues[lang]; !ok {
		lang = domain.LanguageEnglish
	}
	return &Catalogue{lang: lang, messages: catalogues[lang]}
}

// Language returns the language rendered.
func (c *Catalogue) Language() domain.Language { return c.lang }

// T renders key with args. Unknown keys fall back to English, then to the
// key itself.
func (c *Catalogue) T(key string, args ...any) string {
	msg, ok := c.messages[key]
	if !ok {
		if msg, ok = catalogues[domain.LanguageEnglish][key]; !ok {
			return key
		}
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// Has reports whether key is translated in the catalogue's language.
func (c *Catalogue) Has(key string) bool {
	_, ok := c.messages[key]
	return ok
}

// Keys of console and TUI text beyond the fetch message keys.
const (
	KeyEnterCode       = "enterCode"
	KeyAnswerQuestion  = "answerQuestion"
	KeySkipHint        = "skipHint"
	KeyRunSummary      = "runSummary"
	KeyNoSites         = "noSites"
	KeyNoInvoices      = "noInvoices"
	KeyInvoiceSaved    = "invoiceSaved"
	KeyInvoicesSaved   = "invoicesSaved"
	KeySiteAdded       = "siteAdded"
	KeySiteRemoved     = "siteRemoved"
	KeyFlagsReset      = "flagsReset"
	KeyFetchInProgress = "fetchInProgress"
)

var catalogues = map[domain.Language]map[string]string{
	domain.LanguageEnglish: {
		domain.MsgLoadingWebsite:        "Loading website",
		domain.MsgFetchingInvoices:      "Fetching invoices",
		domain.MsgFetchCompleted:        "Fetching invoices completed",
		domain.MsgWaitingForChallenge:   "Waiting for verification code",
		domain.MsgNotSupported:          "Website is not supported",
		domain.MsgAuthenticationFailed:  "Authentication failed",
		domain.MsgFetchFailed:           "Failed to fetch invoices from website",
		domain.MsgRateLimit:             "Rate limit reached, try again later",
		domain.MsgInvalidConfiguration:  "Website configuration is incomplete",
		domain.MsgDownloadFailed:        "An invoice could not be downloaded",
		domain.MsgDownloadUnavailable:   "Download is not available, fetch again",
		domain.MsgFetchSessionCompleted: "Fetch session completed",

		KeyEnterCode:       "Verification code for %s",
		KeyAnswerQuestion:  "%s asks: %s",
		KeySkipHint:        "Leave empty to skip",
		KeyRunSummary:      "%d invoices from %d websites, %d failed",
		KeyNoSites:         "No websites configured. Add one with 'factura site add'.",
		KeyNoInvoices:      "No invoices. Run 'factura fetch' first.",
		KeyInvoiceSaved:    "Saved %s",
		KeyInvoicesSaved:   "Saved %d invoices to %s",
		KeySiteAdded:       "Added website %s (%s)",
		KeySiteRemoved:     "Removed website %s",
		KeyFlagsReset:      "Cleared failure flags of %s",
		KeyFetchInProgress: "A fetch is already running",
	},
	domain.LanguageDutch: {
		domain.MsgLoadingWebsite:        "Website laden",
		domain.MsgFetchingInvoices:      "Facturen ophalen",
		domain.MsgFetchCompleted:        "Facturen ophalen voltooid",
		domain.MsgWaitingForChallenge:   "Wachten op verificatiecode",
		domain.MsgNotSupported:          "Website wordt niet ondersteund",
		domain.MsgAuthenticationFailed:  "Authenticatie mislukt",
		domain.MsgFetchFailed:           "Ophalen van facturen van website mislukt",
		domain.MsgRateLimit:             "Limiet bereikt, probeer het later opnieuw",
		domain.MsgInvalidConfiguration:  "Websiteconfiguratie is onvolledig",
		domain.MsgDownloadFailed:        "Een factuur kon niet worden gedownload",
		domain.MsgDownloadUnavailable:   "Download is niet beschikbaar, haal opnieuw op",
		domain.MsgFetchSessionCompleted: "Ophaalsessie voltooid",

		KeyEnterCode:       "Verificatiecode voor %s",
		KeyAnswerQuestion:  "%s vraagt: %s",
		KeySkipHint:        "Laat leeg om over te slaan",
		KeyRunSummary:      "%d facturen van %d websites, %d mislukt",
		KeyNoSites:         "Geen websites ingesteld. Voeg er een toe met 'factura site add'.",
		KeyNoInvoices:      "Geen facturen. Voer eerst 'factura fetch' uit.",
		KeyInvoiceSaved:    "%s opgeslagen",
		KeyInvoicesSaved:   "%d facturen opgeslagen in %s",
		KeySiteAdded:       "Website %s (%s) toegevoegd",
		KeySiteRemoved:     "Website %s verwijderd",
		KeyFlagsReset:      "Foutmarkeringen van %s gewist",
		KeyFetchInProgress: "Er loopt al een ophaalsessie",
	},
}
