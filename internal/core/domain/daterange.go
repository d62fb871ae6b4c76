package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout accepted for filters.
const DateLayout = "2006-01-02"

// DateRange is the optional, inclusive, day-granularity filter of a fetch run.
// A nil bound is unbounded on that side.
type DateRange struct {
	// From is the start of the first included day.
	From *time.Time
	// To is the last instant of the last included day.
	To *time.Time
}

// NewDateRange builds a range from optional bounds, snapping From to the start
// of its day and To to the end of its day.
func NewDateRange(from, to *time.Time) (DateRange, error) {
	var r DateRange
	if from != nil {
		f := StartOfDay(*from)
		r.From = &f
	}
	if to != nil {
		t := EndOfDay(*to)
		r.To = &t
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return DateRange{}, fmt.Errorf("%w: date range ends before it starts", ErrInvalidInput)
	}
	return r, nil
}

// ParseDateRange parses optional ISO-8601 bounds. Empty strings are unbounded.
// Both plain dates and RFC 3339 timestamps are accepted.
func ParseDateRange(from, to string) (DateRange, error) {
	f, err := parseBound(from)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse from: %w", err)
	}
	t, err := parseBound(to)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse to: %w", err)
	}
	return NewDateRange(f, t)
}

func parseBound(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(DateLayout, s, time.Local); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not an ISO-8601 date", ErrInvalidInput, s)
	}
	return &t, nil
}

// IsZero returns true if neither bound is set.
func (r DateRange) IsZero() bool {
	return r.From == nil && r.To == nil
}

// Contains reports whether t falls within the range. Comparison is by
// calendar day, so both boundary days are included.
func (r DateRange) Contains(t time.Time) bool {
	day := civilDay(t)
	if r.From != nil && day < civilDay(*r.From) {
		return false
	}
	if r.To != nil && day > civilDay(*r.To) {
		return false
	}
	return true
}

// String renders the range for logs.
func (r DateRange) String() string {
	from, to := "*", "*"
	if r.From != nil {
		from = r.From.Format(DateLayout)
	}
	if r.To != nil {
		to = r.To.Format(DateLayout)
	}
	return from + ".." + to
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of t's day in t's location.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
