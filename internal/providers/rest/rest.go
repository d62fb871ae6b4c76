// Package rest holds the HTTP plumbing shared by the API providers.
package rest

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/governor"
)

// UserAgent identifies factura to remote APIs.
const UserAgent = "factura-cli"

// maxDetail caps the response body quoted in errors, in bytes.
const maxDetail = 200

// NewClient creates a resty client on top of the site's session. The
// session's cookie jar and transport are shared; the timeout is not.
func NewClient(env driven.ProviderEnv) *resty.Client {
	hc := *env.Client()
	c := resty.NewWithClient(&hc)
	if env.Settings.RequestTimeout > 0 {
		c.SetTimeout(env.Settings.RequestTimeout)
	}
	c.SetHeader("User-Agent", UserAgent)
	return c
}

// Check maps a response to the error taxonomy. 2xx yields nil.
// 401 and 403 are authentication failures, 429 is a rate limit and
// anything else is a fetch failure.
func Check(op string, res *resty.Response) error {
	status := res.StatusCode()
	if status >= 200 && status < 300 {
		return nil
	}

	cause := fmt.Errorf("%s %s: %s", res.Request.Method, res.Request.URL, statusText(res))
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.AuthError(op, cause)
	case http.StatusTooManyRequests:
		retryAfter, _ := governor.RetryAfter(res.Header())
		return &domain.RateLimitError{RetryAfter: retryAfter}
	default:
		return domain.FetchError(op, cause)
	}
}

func statusText(res *resty.Response) string {
	text := res.Status()
	if text == "" {
		text = http.StatusText(res.StatusCode())
	}
	body := strings.TrimSpace(string(res.Body()))
	if len(body) > maxDetail {
		cut := maxDetail
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "..."
	}
	if body == "" {
		return text
	}
	return text + ": " + body
}

// BaseURL joins base and path with exactly one slash.
func BaseURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
