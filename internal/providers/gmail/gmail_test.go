package gmail

import (
	"context"
	"encoding/base64"
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

const messageJSON = `{
	"id": "m1",
	"internalDate": "1709251200000",
	"payload": {
		"mimeType": "multipart/mixed",
		"headers": [{"name": "Subject", "value": "Your March invoice"}],
		"parts": [
			{"mimeType": "text/plain", "filename": "", "body": {"size": 5, "data": "aGVsbG8"}},
			{"mimeType": "application/pdf", "filename": "INV-42.pdf", "body": {"attachmentId": "a1", "size": 20}},
			{"mimeType": "image/png", "filename": "logo.png", "body": {"attachmentId": "a2", "size": 20}}
		]
	}
}`

type gmailServer struct {
	*httptest.Server
	query string
}

func newGmailServer(t *testing.T, tokenStatus int) *gmailServer {
	t.Helper()
	s := &gmailServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "rt", r.PostForm.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		if tokenStatus != http.StatusOK {
			w.WriteHeader(tokenStatus)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
		s.query = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"m1","threadId":"m1"}]}`))
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/m1", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(messageJSON))
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/m1/attachments/a1", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		data := base64.URLEncoding.EncodeToString([]byte("%PDF-1.7 mail"))
		_, _ = w.Write([]byte(`{"size":13,"data":"` + data + `"}`))
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func testEnv() driven.ProviderEnv {
	return driven.ProviderEnv{
		Site: domain.Site{
			Name:        "Mailbox",
			ProviderKey: Key,
			Credentials: domain.Credentials{Username: "client", Password: "secret", AccountID: "rt"},
		},
	}
}

func TestProvider_FetchAttachments(t *testing.T) {
	server := newGmailServer(t, http.StatusOK)

	env := testEnv()
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	r, err := domain.NewDateRange(&from, &to)
	require.NoError(t, err)
	env.Range = r

	authenticated := false
	env.OnAuthenticated = func() { authenticated = true }

	p, err := NewWithConfig(env, Config{Endpoint: server.URL + "/", TokenURL: server.URL + "/token"})
	require.NoError(t, err)

	descriptors, err := p.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, authenticated)
	assert.Equal(t, "has:attachment filename:pdf after:2024/02/01 before:2024/04/01", server.query)

	require.Len(t, descriptors, 1)
	d := descriptors[0]
	assert.Equal(t, "Your March invoice", d.Description)
	assert.Equal(t, "INV-42.pdf", d.FileName)
	require.NotNil(t, d.Date)
	assert.Equal(t, time.UnixMilli(1709251200000), *d.Date)

	data, err := download.NewMaterializer(download.Options{}).Materialize(context.Background(), &d)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 mail", string(data))
}

func TestProvider_RevokedRefreshToken(t *testing.T) {
	server := newGmailServer(t, http.StatusBadRequest)

	p, err := NewWithConfig(testEnv(), Config{Endpoint: server.URL + "/", TokenURL: server.URL + "/token"})
	require.NoError(t, err)

	_, err = p.Fetch(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthenticationFailed)
}

func TestProvider_QueryWithoutRange(t *testing.T) {
	p, err := NewWithConfig(testEnv(), Config{})
	require.NoError(t, err)
	assert.Equal(t, baseQuery, p.query())
}

func TestFetch_NotAuthorized(t *testing.T) {
	env := testEnv()
	env.Site.Credentials.AccountID = ""
	p, err := New(env)
	require.NoError(t, err)

	_, err = p.Fetch(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthenticationFailed)
	assert.Contains(t, err.Error(), "site authorize")
}

func TestNew_MissingClientSecret(t *testing.T) {
	env := testEnv()
	env.Site.Credentials.Password = ""
	_, err := New(env)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
}

func TestDecode_AcceptsPaddedAndRaw(t *testing.T) {
	for _, in := range []string{"aGk=", "aGk"} {
		out, err := decode(in)
		require.NoError(t, err)
		assert.Equal(t, "hi", string(out))
	}
}
