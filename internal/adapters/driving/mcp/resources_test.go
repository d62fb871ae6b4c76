package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

func TestExtractSiteID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid site invoices URI",
			uri:      "factura://sites/site-123/invoices",
			expected: "site-123",
		},
		{
			name:     "invalid prefix",
			uri:      "file://sites/site-123/invoices",
			expected: "",
		},
		{
			name:     "missing invoices suffix",
			uri:      "factura://sites/site-123",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractSiteID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleSitesResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns sites without credentials", func(t *testing.T) {
		ports := newTestPorts()
		ports.Sites = &mockSiteService{sites: []domain.Site{{
			ID:          "site-1",
			Name:        "Mollie",
			ProviderKey: "mollie",
			Credentials: domain.Credentials{Password: "live_secret"},
		}}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		result, err := server.handleSitesResource(ctx, makeReadResourceRequest("factura://sites"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "site-1")
		assert.NotContains(t, result.Contents[0].Text, "live_secret")
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		ports := newTestPorts()
		ports.Sites = &mockSiteService{err: errors.New("database error")}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, err = server.handleSitesResource(ctx, makeReadResourceRequest("factura://sites"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing sites")
	})
}

func TestServer_handleProvidersResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil registry returns empty list", func(t *testing.T) {
		server, err := NewServer(newTestPorts())
		require.NoError(t, err)

		result, err := server.handleProvidersResource(ctx, makeReadResourceRequest("factura://providers"))

		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("lists credentials", func(t *testing.T) {
		ports := newTestPorts()
		ports.Providers = &mockProviderRegistry{types: []domain.ProviderType{{
			Key:           "https://www.whmcs.com/members/clientarea.php?action=invoices",
			Name:          "WHMCS",
			ChallengeKind: domain.ChallengeCode,
			Credentials: []domain.CredentialKey{
				{Field: domain.FieldUsername, Label: "Email", Required: true},
			},
		}}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		result, err := server.handleProvidersResource(ctx, makeReadResourceRequest("factura://providers"))

		require.NoError(t, err)
		text := result.Contents[0].Text
		assert.Contains(t, text, `"name": "WHMCS"`)
		assert.Contains(t, text, `"challenge": "code"`)
		assert.Contains(t, text, `"field": "username"`)
	})
}

func TestServer_handleSiteInvoicesResource(t *testing.T) {
	ctx := context.Background()
	ports := newTestPorts()
	ports.Sites = &mockSiteService{sites: []domain.Site{{ID: "site-1", Name: "Bol"}}}
	ports.Invoices = &mockInvoiceService{invoices: []domain.Invoice{
		{ID: "inv-1", SiteID: "site-1", SiteName: "Bol", Description: "2024-001"},
		{ID: "inv-2", SiteID: "site-2", SiteName: "Other"},
	}}
	server, err := NewServer(ports)
	require.NoError(t, err)

	t.Run("returns invoices of the site", func(t *testing.T) {
		result, err := server.handleSiteInvoicesResource(ctx, makeReadResourceRequest("factura://sites/site-1/invoices"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "inv-1")
		assert.NotContains(t, result.Contents[0].Text, "inv-2")
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		_, err := server.handleSiteInvoicesResource(ctx, makeReadResourceRequest("factura://invalid/uri"))
		require.Error(t, err)
	})

	t.Run("unknown site returns not found", func(t *testing.T) {
		_, err := server.handleSiteInvoicesResource(ctx, makeReadResourceRequest("factura://sites/nope/invoices"))
		require.Error(t, err)
	})
}
