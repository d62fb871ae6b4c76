package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for Factura resources.
	uriScheme = "factura://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sites",
		Name:        "sites",
		Description: "Configured invoice websites",
		MIMEType:    "application/json",
	}, s.handleSitesResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "providers",
		Name:        "providers",
		Description: "Supported invoice providers and the credentials they expect",
		MIMEType:    "application/json",
	}, s.handleProvidersResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sites/{siteId}/invoices",
		Name:        "site-invoices",
		Description: "Invoices fetched from a specific website",
		MIMEType:    "application/json",
	}, s.handleSiteInvoicesResource)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleSitesResource returns the configured websites without credentials.
func (s *Server) handleSitesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	_, output, err := s.handleListSites(ctx, nil, ListSitesInput{})
	if err != nil {
		return nil, fmt.Errorf("listing sites: %w", err)
	}
	return jsonResource(req.Params.URI, output.Sites)
}

// handleProvidersResource returns the provider catalogue.
func (s *Server) handleProvidersResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type credentialInfo struct {
		Field       string `json:"field"`
		Label       string `json:"label"`
		Required    bool   `json:"required"`
		Description string `json:"description,omitempty"`
	}
	type providerInfo struct {
		Key         string           `json:"key"`
		Name        string           `json:"name"`
		Description string           `json:"description"`
		Challenge   string           `json:"challenge,omitempty"`
		Dateless    bool             `json:"dateless,omitempty"`
		Credentials []credentialInfo `json:"credentials"`
	}

	infos := []providerInfo{}
	if s.ports.Providers != nil {
		for _, pt := range s.ports.Providers.List() {
			info := providerInfo{
				Key:         pt.Key,
				Name:        pt.Name,
				Description: pt.Description,
				Challenge:   string(pt.ChallengeKind),
				Dateless:    pt.Dateless,
				Credentials: make([]credentialInfo, len(pt.Credentials)),
			}
			for i, key := range pt.Credentials {
				info.Credentials[i] = credentialInfo{
					Field:       string(key.Field),
					Label:       key.Label,
					Required:    key.Required,
					Description: key.Description,
				}
			}
			infos = append(infos, info)
		}
	}
	return jsonResource(req.Params.URI, infos)
}

// handleSiteInvoicesResource returns the invoices of one website.
func (s *Server) handleSiteInvoicesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract siteId from URI: factura://sites/{siteId}/invoices
	siteID := extractSiteID(req.Params.URI)
	if siteID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if _, err := s.ports.Sites.Get(ctx, siteID); err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	_, output, err := s.handleListInvoices(ctx, nil, ListInvoicesInput{SiteID: siteID})
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	return jsonResource(req.Params.URI, output.Invoices)
}

// extractSiteID extracts the site ID from a URI like factura://sites/{siteId}/invoices.
func extractSiteID(uri string) string {
	const prefix = uriScheme + "sites/"
	const suffix = "/invoices"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
