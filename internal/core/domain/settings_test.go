package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLanguage_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		lang     Language
		expected bool
	}{
		{name: "english", lang: LanguageEnglish, expected: true},
		{name: "dutch", lang: LanguageDutch, expected: true},
		{name: "german is unsupported", lang: Language("de"), expected: false},
		{name: "empty", lang: Language(""), expected: false},
		{name: "case sensitive", lang: Language("EN"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.lang.IsValid())
		})
	}
}

func TestLanguage_String(t *testing.T) {
	assert.Equal(t, "en", LanguageEnglish.String())
	assert.Equal(t, "nl", LanguageDutch.String())
}

func TestDefaultSettings_Output(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, PlaceholderSuggestedFileName, s.Output.Format)
	assert.Equal(t, "d-M-yyyy", s.Output.DateFormat)
	assert.Equal(t, LanguageEnglish, s.Output.Language)
	assert.NotEmpty(t, s.Output.Directory)
	assert.False(t, s.Debug)
}

func TestDefaultSettings_Fetch(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, 4, s.Fetch.DownloadConcurrency)
	assert.Equal(t, 3, s.Fetch.MaxRetries)
	assert.Equal(t, 3*time.Second, s.Fetch.RateLimitMargin)
	assert.Equal(t, 5, s.Fetch.RateLimitMinRemaining)
	assert.Equal(t, 60*time.Second, s.Fetch.RequestTimeout)
	assert.Zero(t, s.Fetch.ChallengeTimeout, "challenges wait for input indefinitely by default")
	assert.True(t, s.Fetch.ValidatePDF)
}

func TestDefaultSettings_Independent(t *testing.T) {
	a := DefaultSettings()
	a.Output.Format = PlaceholderDate
	a.Fetch.MaxRetries = 9

	b := DefaultSettings()
	assert.Equal(t, PlaceholderSuggestedFileName, b.Output.Format)
	assert.Equal(t, 3, b.Fetch.MaxRetries)
}

func TestPlaceholders_Distinct(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range []string{
		PlaceholderSuggestedFileName,
		PlaceholderDescription,
		PlaceholderDate,
		PlaceholderWebsiteName,
	} {
		assert.False(t, seen[p], p)
		seen[p] = true
		assert.Equal(t, byte('['), p[0])
		assert.Equal(t, byte(']'), p[len(p)-1])
	}
}
