package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDateRange_Bounds(t *testing.T) {
	r, err := ParseDateRange("2024-02-01", "2024-02-28")
	require.NoError(t, err)
	require.NotNil(t, r.From)
	require.NotNil(t, r.To)

	assert.Equal(t, 0, r.From.Hour())
	assert.Equal(t, 23, r.To.Hour())
	assert.Equal(t, 59, r.To.Minute())
	assert.Equal(t, "2024-02-01..2024-02-28", r.String())
}

func TestParseDateRange_Empty(t *testing.T) {
	r, err := ParseDateRange("", " ")
	require.NoError(t, err)
	assert.True(t, r.IsZero())
	assert.Equal(t, "*..*", r.String())
	assert.True(t, r.Contains(date(1999, time.January, 1)))
}

func TestParseDateRange_Invalid(t *testing.T) {
	_, err := ParseDateRange("01/02/2024", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseDateRange("2024-03-01", "2024-02-01")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseDateRange_RFC3339(t *testing.T) {
	r, err := ParseDateRange("2024-02-01T15:04:05Z", "")
	require.NoError(t, err)
	assert.Equal(t, 0, r.From.Hour())
	assert.Nil(t, r.To)
}

func TestDateRange_ContainsInclusive(t *testing.T) {
	r, err := NewDateRange(ptr(date(2024, time.February, 1)), ptr(date(2024, time.February, 28)))
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before", date(2024, time.January, 5), false},
		{"on from", date(2024, time.February, 1), true},
		{"inside", date(2024, time.February, 10), true},
		{"on to late in the day", time.Date(2024, time.February, 28, 23, 30, 0, 0, time.UTC), true},
		{"after", date(2024, time.March, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Contains(tt.at))
		})
	}
}

func TestDateRange_OpenEnded(t *testing.T) {
	r, err := NewDateRange(ptr(date(2024, time.February, 1)), nil)
	require.NoError(t, err)

	assert.False(t, r.Contains(date(2024, time.January, 31)))
	assert.True(t, r.Contains(date(2030, time.January, 1)))
}

func TestEndOfDay(t *testing.T) {
	end := EndOfDay(time.Date(2024, time.February, 28, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, date(2024, time.February, 29).Add(-time.Nanosecond), end)
}

func ptr(t time.Time) *time.Time {
	return &t
}
