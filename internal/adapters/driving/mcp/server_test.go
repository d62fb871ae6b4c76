package mcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil site service returns error", func(t *testing.T) {
		ports := &Ports{Invoices: &mockInvoiceService{}}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingSiteService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(newTestPorts())
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil site service returns error", func(t *testing.T) {
		ports := &Ports{}
		assert.ErrorIs(t, ports.Validate(), ErrMissingSiteService)
	})

	t.Run("nil invoice service returns error", func(t *testing.T) {
		ports := &Ports{Sites: &mockSiteService{}}
		assert.ErrorIs(t, ports.Validate(), ErrMissingInvoiceService)
	})

	t.Run("sites and invoices is valid", func(t *testing.T) {
		assert.NoError(t, newTestPorts().Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Sites:     &mockSiteService{},
			Invoices:  &mockInvoiceService{},
			Fetch:     &mockFetchService{},
			Providers: &mockProviderRegistry{},
		}
		assert.NoError(t, ports.Validate())
	})
}

func TestNewServer_Version(t *testing.T) {
	server, err := NewServer(newTestPorts())
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, server.Version())

	server, err = NewServer(newTestPorts(), WithVersion("1.2.3"))
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", server.Version())

	server, err = NewServer(newTestPorts(), WithVersion(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultVersion, server.Version())
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	server, err := NewServer(newTestPorts())
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, l) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_RunHTTPBadAddress(t *testing.T) {
	server, err := NewServer(newTestPorts())
	require.NoError(t, err)

	err = server.RunHTTP(context.Background(), "256.0.0.1:http")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen on")
}
