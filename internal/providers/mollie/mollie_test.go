package mollie

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
	"github.com/custodia-labs/factura-cli/internal/download"
)

func testEnv(apiKey string) driven.ProviderEnv {
	return driven.ProviderEnv{
		Site: domain.Site{
			Name:        "Mollie",
			ProviderKey: Key,
			Credentials: domain.Credentials{Password: apiKey},
		},
	}
}

func TestProvider_FetchFollowsPages(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer live_key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/hal+json")
		switch r.URL.Query().Get("from") {
		case "":
			fmt.Fprintf(w, `{
				"_embedded": {"invoices": [
					{"reference": "2024.0001", "issuedAt": "2024-01-31", "_links": {"pdf": {"href": "%[1]s/pdf/1"}}},
					{"reference": "2024.0002", "issuedAt": "2024-02-29", "_links": {}}
				]},
				"_links": {"next": {"href": "%[1]s/invoices?from=inv_2"}}
			}`, server.URL)
		default:
			fmt.Fprintf(w, `{
				"_embedded": {"invoices": [
					{"reference": "2024.0003", "issuedAt": "2024-03-31", "_links": {"pdf": {"href": "%s/pdf/3"}}}
				]},
				"_links": {"next": null}
			}`, server.URL)
		}
	}))
	defer server.Close()

	authenticated := false
	env := testEnv("live_key")
	env.OnAuthenticated = func() { authenticated = true }

	p, err := NewWithConfig(env, Config{BaseURL: server.URL})
	require.NoError(t, err)

	descriptors, err := p.Fetch(context.Background())
	require.NoError(t, err)

	assert.True(t, authenticated)
	require.Len(t, descriptors, 2)
	assert.Equal(t, "2024.0001", descriptors[0].Description)
	assert.Equal(t, "2024.0001.pdf", descriptors[0].FileName)
	require.NotNil(t, descriptors[0].Date)
	assert.Equal(t, time.January, descriptors[0].Date.Month())
	assert.Equal(t, "2024.0003", descriptors[1].Description)

	req, ok := descriptors[1].Handle.(download.Request)
	require.True(t, ok)
	assert.Equal(t, server.URL+"/pdf/3", req.URL)
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestProvider_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":401,"title":"Unauthorized Request"}`))
	}))
	defer server.Close()

	p, err := NewWithConfig(testEnv("wrong"), Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = p.Fetch(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthenticationFailed)
}

func TestProvider_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p, err := NewWithConfig(testEnv("live_key"), Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = p.Fetch(context.Background())
	assert.ErrorIs(t, err, domain.ErrFetchFailed)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(testEnv(""))
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}
