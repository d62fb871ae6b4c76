package normalise

import (
	"strings"
	"unicode"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// FileNameFields are the values substituted into an output name template.
type FileNameFields struct {
	SuggestedFileName string
	Description       string
	// Date is already formatted and translated. Empty for dateless invoices.
	Date        string
	WebsiteName string
}

// RenderFileName fills the placeholders of format, makes the result safe as a
// file name and guarantees a single ".pdf" extension.
func RenderFileName(format string, f FileNameFields) string {
	if strings.TrimSpace(format) == "" {
		format = domain.PlaceholderSuggestedFileName
	}
	name := strings.NewReplacer(
		domain.PlaceholderSuggestedFileName, stripPDF(f.SuggestedFileName),
		domain.PlaceholderDescription, f.Description,
		domain.PlaceholderDate, f.Date,
		domain.PlaceholderWebsiteName, f.WebsiteName,
	).Replace(format)

	name = SanitizeFileName(stripPDF(name))
	if name == "" {
		name = "invoice"
	}
	return name + ".pdf"
}

// SanitizeFileName escapes slashes and drops characters that are invalid in
// file names on common filesystems.
func SanitizeFileName(name string) string {
	name = EscapeSlashes(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return -1
		case strings.ContainsRune(`\:*?"<>|`, r):
			return '_'
		default:
			return r
		}
	}, name)
	return strings.TrimSpace(name)
}

func stripPDF(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return name[:len(name)-4]
	}
	return name
}
