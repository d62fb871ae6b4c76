package normalise

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// Layouts tried by ParseDate, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-01-2006",
	"2-1-2006",
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2006",
	"Jan 2006",
}

// ParseDate parses the date formats portals commonly print.
// Dutch month names are understood as well.
func ParseDate(value string) (time.Time, error) {
	s := strings.Join(strings.Fields(value), " ")
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", domain.ErrInvalidInput)
	}
	s = toEnglishMonths(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised date %q", domain.ErrInvalidInput, value)
}

// ParseDatePtr is ParseDate returning nil for empty or unparseable input.
func ParseDatePtr(value string) *time.Time {
	t, err := ParseDate(value)
	if err != nil {
		return nil
	}
	return &t
}

// FilterByDate keeps descriptors whose date lies within r, inclusive at day
// granularity. Dateless descriptors are always kept.
func FilterByDate(r domain.DateRange, descriptors []domain.InvoiceDescriptor) []domain.InvoiceDescriptor {
	if r.IsZero() {
		return descriptors
	}
	kept := make([]domain.InvoiceDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if d.Date == nil || r.Contains(*d.Date) {
			kept = append(kept, d)
		}
	}
	return kept
}

// Periods splits r into consecutive windows of at most days days, for APIs
// that cap the span of a listing query. An open start defaults to one year
// before the end; an open end defaults to now.
func Periods(r domain.DateRange, days int, now time.Time) []domain.DateRange {
	end := now
	if r.To != nil {
		end = *r.To
	}
	start := end.AddDate(-1, 0, 0)
	if r.From != nil {
		start = *r.From
	}
	start = domain.StartOfDay(start)

	var periods []domain.DateRange
	for cur := start; !cur.After(end); {
		next := cur.AddDate(0, 0, days)
		to := domain.EndOfDay(next.AddDate(0, 0, -1))
		if to.After(end) {
			to = end
		}
		from := cur
		periods = append(periods, domain.DateRange{From: &from, To: &to})
		cur = next
	}
	return periods
}

var dutchToEnglish = map[string]string{
	"januari": "January", "februari": "February", "maart": "March", "april": "April",
	"mei": "May", "juni": "June", "juli": "July", "augustus": "August",
	"september": "September", "oktober": "October", "november": "November", "december": "December",
	"jan": "Jan", "feb": "Feb", "mrt": "Mar", "apr": "Apr", "jun": "Jun", "jul": "Jul",
	"aug": "Aug", "sep": "Sep", "okt": "Oct", "nov": "Nov", "dec": "Dec",
}

var dutchMonthPattern = regexp.MustCompile(`(?i)\b(januari|februari|maart|april|mei|juni|juli|augustus|september|oktober|november|december|jan|feb|mrt|apr|jun|jul|aug|sep|okt|nov|dec)\b\.?`)

func toEnglishMonths(s string) string {
	return dutchMonthPattern.ReplaceAllStringFunc(s, func(m string) string {
		return dutchToEnglish[strings.ToLower(strings.TrimSuffix(m, "."))]
	})
}
