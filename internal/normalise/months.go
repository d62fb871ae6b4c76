package normalise

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

var monthNames = map[domain.Language][12]string{
	domain.LanguageEnglish: {
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
	domain.LanguageDutch: {
		"Januari", "Februari", "Maart", "April", "Mei", "Juni",
		"Juli", "Augustus", "September", "Oktober", "November", "December",
	},
}

var englishMonthPattern = regexp.MustCompile(`\b(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sept|Sep|Oct|Nov|Dec)\b`)

var englishMonthIndex = map[string]int{
	"Jan": 0, "Feb": 1, "Mar": 2, "Apr": 3, "May": 4, "Jun": 5,
	"Jul": 6, "Aug": 7, "Sep": 8, "Sept": 8, "Oct": 9, "Nov": 10, "Dec": 11,
}

// TranslateMonths replaces English month names (full or abbreviated) in s with
// the full month name in lang. Unknown languages leave s unchanged.
func TranslateMonths(lang domain.Language, s string) string {
	names, ok := monthNames[lang]
	if !ok {
		return s
	}
	return englishMonthPattern.ReplaceAllStringFunc(s, func(m string) string {
		idx, ok := englishMonthIndex[m]
		if !ok {
			idx = englishMonthIndex[m[:3]]
		}
		return names[idx]
	})
}

// NormalizeDate translates month names and escapes slashes so the result can
// be used inside a file name.
func NormalizeDate(lang domain.Language, s string) string {
	return EscapeSlashes(TranslateMonths(lang, s))
}

// EscapeSlashes replaces "/" with the visually identical U+2215 division slash.
func EscapeSlashes(s string) string {
	return strings.ReplaceAll(s, "/", "∕")
}
