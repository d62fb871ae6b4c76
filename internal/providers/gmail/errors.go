package gmail

import (
	"errors"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// Gmail error reasons that signal quota exhaustion on a 403.
var quotaReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"quotaExceeded":         true,
}

// classify maps a Google API error onto the fetch taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return domain.AuthError(op, err)
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return domain.FetchError(op, err)
	}

	switch {
	case gerr.Code == http.StatusUnauthorized:
		return domain.AuthError(op, err)
	case gerr.Code == http.StatusTooManyRequests, isQuota(gerr):
		return domain.NewProviderError(domain.KindRateLimited, op, err)
	case gerr.Code == http.StatusForbidden:
		return domain.AuthError(op, err)
	default:
		return domain.FetchError(op, err)
	}
}

func isQuota(gerr *googleapi.Error) bool {
	if gerr.Code != http.StatusForbidden {
		return false
	}
	for _, item := range gerr.Errors {
		if quotaReasons[item.Reason] {
			return true
		}
	}
	return false
}
