package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/factura-cli/internal/core/domain"
)

// ListSitesInput is the input schema for the list_sites tool.
type ListSitesInput struct{}

// SiteOutput describes one configured website.
type SiteOutput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	AuthFailed  bool   `json:"auth_failed"`
	FetchFailed bool   `json:"fetch_failed"`
}

// ListSitesOutput is the output schema for the list_sites tool.
type ListSitesOutput struct {
	Sites []SiteOutput `json:"sites"`
}

// ListInvoicesInput is the input schema for the list_invoices tool.
type ListInvoicesInput struct {
	SiteID string `json:"site_id,omitempty" jsonschema:"only invoices of this website"`
}

// InvoiceOutput describes one fetched invoice.
type InvoiceOutput struct {
	ID          string `json:"id"`
	SiteID      string `json:"site_id"`
	SiteName    string `json:"site_name"`
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`
	FileName    string `json:"file_name"`
	Size        int    `json:"size"`
}

// ListInvoicesOutput is the output schema for the list_invoices tool.
type ListInvoicesOutput struct {
	Invoices []InvoiceOutput `json:"invoices"`
	Count    int             `json:"count"`
}

// FetchInput is the input schema for the fetch_invoices tool.
type FetchInput struct {
	From    string   `json:"from,omitempty" jsonschema:"first invoice date, YYYY-MM-DD"`
	To      string   `json:"to,omitempty" jsonschema:"last invoice date, YYYY-MM-DD"`
	SiteIDs []string `json:"site_ids,omitempty" jsonschema:"websites to fetch (default all)"`
}

// OutcomeOutput is the result of one website in a fetch run.
type OutcomeOutput struct {
	SiteID   string `json:"site_id"`
	SiteName string `json:"site_name"`
	State    string `json:"state"`
	Failure  string `json:"failure,omitempty"`
	Error    string `json:"error,omitempty"`
	Invoices int    `json:"invoices"`
	Dropped  int    `json:"dropped"`
}

// FetchOutput is the output schema for the fetch_invoices tool.
type FetchOutput struct {
	Outcomes []OutcomeOutput `json:"outcomes"`
	Invoices int             `json:"invoices"`
	Duration string          `json:"duration"`
}

// FetchStatusInput is the input schema for the fetch_status tool.
type FetchStatusInput struct{}

// ChallengeOutput is a verification step waiting for input.
type ChallengeOutput struct {
	SiteID   string `json:"site_id"`
	SiteName string `json:"site_name"`
	Kind     string `json:"kind"`
	Prompt   string `json:"prompt"`
}

// StatusOutput is the state of one website in the active or last run.
type StatusOutput struct {
	SiteID   string `json:"site_id"`
	SiteName string `json:"site_name"`
	State    string `json:"state"`
	Failure  string `json:"failure,omitempty"`
	Done     int    `json:"done"`
	Total    int    `json:"total"`
}

// FetchStatusOutput is the output schema for the fetch_status tool.
type FetchStatusOutput struct {
	Running    bool              `json:"running"`
	Sites      []StatusOutput    `json:"sites"`
	Challenges []ChallengeOutput `json:"challenges"`
}

// ResolveChallengeInput is the input schema for the resolve_challenge tool.
type ResolveChallengeInput struct {
	SiteID   string `json:"site_id" jsonschema:"website with the pending verification"`
	Response string `json:"response,omitempty" jsonschema:"code or answer; empty skips the website"`
}

// ResolveChallengeOutput is the output schema for the resolve_challenge tool.
type ResolveChallengeOutput struct {
	Accepted bool `json:"accepted"`
}

// SaveInvoiceInput is the input schema for the save_invoice tool.
type SaveInvoiceInput struct {
	ID  string `json:"id" jsonschema:"invoice ID from list_invoices"`
	Dir string `json:"dir,omitempty" jsonschema:"output directory (default from settings)"`
}

// SaveInvoiceOutput is the output schema for the save_invoice tool.
type SaveInvoiceOutput struct {
	Path string `json:"path"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_sites",
		Description: "List the configured invoice websites",
	}, s.handleListSites)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_invoices",
		Description: "List invoices collected by the last fetch",
	}, s.handleListInvoices)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fetch_invoices",
		Description: "Fetch invoices from the configured websites; replaces previously fetched invoices",
	}, s.handleFetch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fetch_status",
		Description: "Show progress of the running fetch and pending verification codes",
	}, s.handleFetchStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resolve_challenge",
		Description: "Answer a pending verification code or security question",
	}, s.handleResolveChallenge)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "save_invoice",
		Description: "Save a fetched invoice to disk",
	}, s.handleSaveInvoice)
}

func (s *Server) handleListSites(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListSitesInput,
) (*mcp.CallToolResult, ListSitesOutput, error) {
	sites, err := s.ports.Sites.List(ctx)
	if err != nil {
		return nil, ListSitesOutput{}, err
	}

	output := ListSitesOutput{Sites: make([]SiteOutput, len(sites))}
	for i := range sites {
		output.Sites[i] = SiteOutput{
			ID:          sites[i].ID,
			Name:        sites[i].Name,
			Provider:    s.providerName(sites[i].ProviderKey),
			AuthFailed:  sites[i].AuthFailed,
			FetchFailed: sites[i].FetchFailed,
		}
	}
	return nil, output, nil
}

func (s *Server) handleListInvoices(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListInvoicesInput,
) (*mcp.CallToolResult, ListInvoicesOutput, error) {
	var (
		invoices []domain.Invoice
		err      error
	)
	if input.SiteID != "" {
		invoices, err = s.ports.Invoices.ListBySite(ctx, input.SiteID)
	} else {
		invoices, err = s.ports.Invoices.List(ctx)
	}
	if err != nil {
		return nil, ListInvoicesOutput{}, err
	}

	output := ListInvoicesOutput{
		Invoices: make([]InvoiceOutput, len(invoices)),
		Count:    len(invoices),
	}
	for i := range invoices {
		output.Invoices[i] = s.invoiceOutput(invoices[i])
	}
	return nil, output, nil
}

func (s *Server) invoiceOutput(inv domain.Invoice) InvoiceOutput {
	out := InvoiceOutput{
		ID:          inv.ID,
		SiteID:      inv.SiteID,
		SiteName:    inv.SiteName,
		Description: inv.Description,
		FileName:    inv.FileName,
		Size:        inv.Size,
	}
	if name, err := s.ports.Invoices.FileName(inv); err == nil {
		out.FileName = name
	}
	if inv.Date != nil {
		out.Date = inv.Date.Format(domain.DateLayout)
	}
	return out
}

func (s *Server) handleFetch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FetchInput,
) (*mcp.CallToolResult, FetchOutput, error) {
	if s.ports.Fetch == nil {
		return nil, FetchOutput{}, errFetchUnavailable
	}
	dateRange, err := domain.ParseDateRange(input.From, input.To)
	if err != nil {
		return nil, FetchOutput{}, err
	}

	result, err := s.ports.Fetch.Run(ctx, domain.FetchRequest{Range: dateRange, SiteIDs: input.SiteIDs})
	if err != nil {
		return nil, FetchOutput{}, err
	}

	output := FetchOutput{
		Outcomes: make([]OutcomeOutput, len(result.Outcomes)),
		Invoices: len(result.Invoices),
		Duration: result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond).String(),
	}
	for i, o := range result.Outcomes {
		output.Outcomes[i] = OutcomeOutput{
			SiteID:   o.SiteID,
			SiteName: o.SiteName,
			State:    o.State.String(),
			Failure:  o.Failure.String(),
			Invoices: o.Invoices,
			Dropped:  o.Dropped,
		}
		if o.Err != nil {
			output.Outcomes[i].Error = o.Err.Error()
		}
	}
	return nil, output, nil
}

func (s *Server) handleFetchStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ FetchStatusInput,
) (*mcp.CallToolResult, FetchStatusOutput, error) {
	if s.ports.Fetch == nil {
		return nil, FetchStatusOutput{}, errFetchUnavailable
	}

	statuses := s.ports.Fetch.Status()
	challenges := s.ports.Fetch.PendingChallenges()
	output := FetchStatusOutput{
		Running:    s.ports.Fetch.Running(),
		Sites:      make([]StatusOutput, len(statuses)),
		Challenges: make([]ChallengeOutput, len(challenges)),
	}
	for i, st := range statuses {
		output.Sites[i] = StatusOutput{
			SiteID:   st.SiteID,
			SiteName: st.SiteName,
			State:    st.State.String(),
			Failure:  st.Failure.String(),
			Done:     st.Done,
			Total:    st.Total,
		}
	}
	for i, c := range challenges {
		output.Challenges[i] = ChallengeOutput{
			SiteID:   c.SiteID,
			SiteName: c.SiteName,
			Kind:     string(c.Kind),
			Prompt:   c.Prompt,
		}
	}
	return nil, output, nil
}

func (s *Server) handleResolveChallenge(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ResolveChallengeInput,
) (*mcp.CallToolResult, ResolveChallengeOutput, error) {
	if s.ports.Fetch == nil {
		return nil, ResolveChallengeOutput{}, errFetchUnavailable
	}
	if input.SiteID == "" {
		return nil, ResolveChallengeOutput{}, errors.New("site_id is required")
	}

	pending := false
	for _, c := range s.ports.Fetch.PendingChallenges() {
		if c.SiteID == input.SiteID {
			pending = true
			break
		}
	}
	if !pending {
		return nil, ResolveChallengeOutput{Accepted: false}, nil
	}

	if input.Response == "" {
		s.ports.Fetch.SkipChallenge(input.SiteID)
	} else {
		s.ports.Fetch.ResolveChallenge(input.SiteID, input.Response)
	}
	return nil, ResolveChallengeOutput{Accepted: true}, nil
}

func (s *Server) handleSaveInvoice(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SaveInvoiceInput,
) (*mcp.CallToolResult, SaveInvoiceOutput, error) {
	path, err := s.ports.Invoices.Save(ctx, input.ID, input.Dir)
	if err != nil {
		return nil, SaveInvoiceOutput{}, err
	}
	return nil, SaveInvoiceOutput{Path: path}, nil
}

func (s *Server) providerName(key string) string {
	if s.ports.Providers == nil {
		return key
	}
	pt, err := s.ports.Providers.Get(key)
	if err != nil {
		return key
	}
	return pt.Name
}
