//nolint:noctx // Test file uses http.Get for convenience; context not required in tests
package oauth

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, state string) *CallbackServer {
	t.Helper()
	srv := NewCallbackServer(0, state)
	require.NoError(t, srv.Start())
	t.Cleanup(func() { _ = srv.Stop() })
	return srv
}

func get(t *testing.T, srv *CallbackServer, query url.Values) (int, string) {
	t.Helper()
	res, err := http.Get(srv.RedirectURI() + "?" + query.Encode())
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(body)
}

func waitShort(srv *CallbackServer) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Wait(ctx)
}

func TestCallbackServer_PicksPort(t *testing.T) {
	srv := startServer(t, "s")
	assert.NotZero(t, srv.Port())
	assert.Contains(t, srv.RedirectURI(), "http://127.0.0.1:")
	assert.Contains(t, srv.RedirectURI(), "/callback")
}

func TestCallbackServer_PortInUse(t *testing.T) {
	first := startServer(t, "a")

	second := NewCallbackServer(first.Port(), "b")
	err := second.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}

func TestCallbackServer_Code(t *testing.T) {
	srv := startServer(t, "state-1")

	status, body := get(t, srv, url.Values{"state": {"state-1"}, "code": {"abc"}})
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Factura is authorized")

	code, err := waitShort(srv)
	require.NoError(t, err)
	assert.Equal(t, "abc", code)
}

func TestCallbackServer_StateMismatch(t *testing.T) {
	srv := startServer(t, "state-1")

	status, _ := get(t, srv, url.Values{"state": {"other"}, "code": {"abc"}})
	assert.Equal(t, http.StatusBadRequest, status)

	_, err := waitShort(srv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected state")
}

func TestCallbackServer_MissingCode(t *testing.T) {
	srv := startServer(t, "state-1")

	status, _ := get(t, srv, url.Values{"state": {"state-1"}})
	assert.Equal(t, http.StatusBadRequest, status)

	_, err := waitShort(srv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without code")
}

func TestCallbackServer_Denied(t *testing.T) {
	srv := startServer(t, "state-1")

	_, body := get(t, srv, url.Values{"error": {"access_denied"}, "error_description": {"<user said no>"}})
	assert.Contains(t, body, "&lt;user said no&gt;")

	_, err := waitShort(srv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
}

func TestCallbackServer_WaitCancelled(t *testing.T) {
	srv := startServer(t, "state-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := srv.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCallbackServer_StopTwice(t *testing.T) {
	srv := NewCallbackServer(0, "s")
	require.NoError(t, srv.Stop())
	require.NoError(t, srv.Start())
	require.NoError(t, srv.Stop())
	require.NoError(t, srv.Stop())
}
