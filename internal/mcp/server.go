// Package mcp provides an MCP (Model Context Protocol) server that exposes
// DealScope's read-only opportunity queries and derived guidance as MCP
// tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/dealscope/dealscope/internal/core"
	"github.com/dealscope/dealscope/internal/crm"
	"github.com/dealscope/dealscope/pkg/models"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the fetcher, engine, and resource library and exposes them
// as MCP tools over stdio.
type Server struct {
	server  *gomcp.Server
	fetcher crm.RecordFetcher
	engine  core.InsightEngine
	library core.ResourceLibrary
	limit   int
}

// NewServer creates a new MCP server. fetcher may be nil when the record
// source is unavailable; the data tools then return tool errors.
func NewServer(fetcher crm.RecordFetcher, engine core.InsightEngine, library core.ResourceLibrary, queryLimit int, version string) *Server {
	if version == "" {
		version = "dev"
	}
	if queryLimit <= 0 {
		queryLimit = 50
	}

	s := &Server{
		fetcher: fetcher,
		engine:  engine,
		library: library,
		limit:   queryLimit,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "dealscope", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type listOpportunitiesInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of opportunities to return (default: configured query limit)"`
}

type opportunityOutput struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	CloseDate   string   `json:"close_date"`
	Stage       string   `json:"stage"`
	Amount      *float64 `json:"amount,omitempty"`
	Probability *int     `json:"probability,omitempty"`
	Segment     string   `json:"segment,omitempty"`
	Region      string   `json:"region,omitempty"`
	AccountID   string   `json:"account_id"`
}

type listOpportunitiesOutput struct {
	Opportunities []opportunityOutput `json:"opportunities"`
	Count         int                 `json:"count"`
}

type getOpportunityInput struct {
	OpportunityID string `json:"opportunity_id" jsonschema:"required,the opportunity record identifier"`
}

type accountOutput struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	AccountNumber    string `json:"account_number,omitempty"`
	Industry         string `json:"industry,omitempty"`
	CustomerPriority string `json:"customer_priority,omitempty"`
	Type             string `json:"type,omitempty"`
	Rating           string `json:"rating,omitempty"`
}

type contactOutput struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Title string `json:"title,omitempty"`
}

type activityOutput struct {
	Kind         string `json:"kind"`
	Subject      string `json:"subject"`
	Status       string `json:"status,omitempty"`
	ActivityDate string `json:"activity_date"`
	Description  string `json:"description,omitempty"`
}

type insightOutput struct {
	NextStep          string           `json:"next_step"`
	RiskMessage       string           `json:"risk_message"`
	RecommendedAction string           `json:"recommended_action"`
	HighValueNote     string           `json:"high_value_note,omitempty"`
	StageGuidance     string           `json:"stage_guidance"`
	DaysRemaining     int              `json:"days_remaining"`
	Resources         []resourceOutput `json:"resources"`
}

type resourceOutput struct {
	Title string `json:"title"`
	File  string `json:"file"`
}

type getOpportunityOutput struct {
	Opportunity    opportunityOutput   `json:"opportunity"`
	Account        accountOutput       `json:"account"`
	PrimaryContact *contactOutput      `json:"primary_contact,omitempty"`
	RecentActivity *activityOutput     `json:"recent_activity,omitempty"`
	Siblings       []opportunityOutput `json:"siblings"`
	Insight        insightOutput       `json:"insight"`
}

type getResourcesInput struct {
	Industry string `json:"industry" jsonschema:"required,the account industry to look up resources for"`
}

type getResourcesOutput struct {
	Industry  string           `json:"industry"`
	Resources []resourceOutput `json:"resources"`
	Count     int              `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_opportunities",
		Description: "List opportunities from the record source with their stage, close date, amount, and probability.",
	}, s.handleListOpportunities)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_opportunity",
		Description: "Get one opportunity's full record bundle (account, primary contact, recent activity, sibling opportunities) together with the derived guidance: next step, risk assessment, recommended action, stage guidance, and recommended resources.",
	}, s.handleGetOpportunity)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_resources",
		Description: "Get the recommended resource documents for an industry. Unknown industries return an empty list.",
	}, s.handleGetResources)
}

// --- Tool handlers ---

func (s *Server) handleListOpportunities(ctx context.Context, _ *gomcp.CallToolRequest, input listOpportunitiesInput) (*gomcp.CallToolResult, listOpportunitiesOutput, error) {
	if s.fetcher == nil {
		return errorResult("record source unavailable (credentials missing or login failed)"), listOpportunitiesOutput{}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = s.limit
	}

	opps, err := s.fetcher.ListOpportunities(ctx, limit)
	if err != nil {
		return errorResult(fmt.Sprintf("listing opportunities: %s", err)), listOpportunitiesOutput{}, nil
	}

	out := listOpportunitiesOutput{
		Opportunities: make([]opportunityOutput, len(opps)),
		Count:         len(opps),
	}
	for i, opp := range opps {
		out.Opportunities[i] = opportunityToOutput(&opp)
	}

	return nil, out, nil
}

func (s *Server) handleGetOpportunity(ctx context.Context, _ *gomcp.CallToolRequest, input getOpportunityInput) (*gomcp.CallToolResult, getOpportunityOutput, error) {
	if input.OpportunityID == "" {
		return errorResult("opportunity_id is required"), getOpportunityOutput{}, nil
	}
	if s.fetcher == nil {
		return errorResult("record source unavailable (credentials missing or login failed)"), getOpportunityOutput{}, nil
	}

	bundle, err := crm.FetchBundle(ctx, s.fetcher, input.OpportunityID)
	if err != nil {
		return errorResult(fmt.Sprintf("fetching opportunity %s: %s", input.OpportunityID, err)), getOpportunityOutput{}, nil
	}

	insight := s.engine.ComputeInsight(bundle.Opportunity, bundle.Account, time.Now())

	out := getOpportunityOutput{
		Opportunity: opportunityToOutput(bundle.Opportunity),
		Account:     accountToOutput(bundle.Account),
		Siblings:    make([]opportunityOutput, len(bundle.Siblings)),
		Insight:     insightToOutput(insight),
	}
	for i, sib := range bundle.Siblings {
		out.Siblings[i] = opportunityToOutput(&sib)
	}
	if c := bundle.PrimaryContact(); c != nil {
		out.PrimaryContact = &contactOutput{
			Name:  c.Name,
			Email: c.Email,
			Phone: c.Phone,
			Title: c.Title,
		}
	}
	if a := bundle.RecentActivity; a != nil {
		ao := &activityOutput{
			Kind:         string(a.Kind),
			Subject:      a.Subject,
			ActivityDate: a.ActivityDate.Format("2006-01-02"),
			Description:  a.Description,
		}
		if a.Status != nil {
			ao.Status = *a.Status
		}
		out.RecentActivity = ao
	}

	return nil, out, nil
}

func (s *Server) handleGetResources(_ context.Context, _ *gomcp.CallToolRequest, input getResourcesInput) (*gomcp.CallToolResult, getResourcesOutput, error) {
	if input.Industry == "" {
		return errorResult("industry is required"), getResourcesOutput{}, nil
	}

	resources := s.library.Lookup(input.Industry)

	out := getResourcesOutput{
		Industry:  input.Industry,
		Resources: make([]resourceOutput, len(resources)),
		Count:     len(resources),
	}
	for i, r := range resources {
		out.Resources[i] = resourceOutput{Title: r.Title, File: r.File}
	}

	return nil, out, nil
}

// --- Helpers ---

func opportunityToOutput(opp *models.Opportunity) opportunityOutput {
	out := opportunityOutput{
		ID:          opp.ID,
		Name:        opp.Name,
		Stage:       string(opp.StageName),
		Amount:      opp.Amount,
		Probability: opp.Probability,
		AccountID:   opp.AccountID,
	}
	if !opp.CloseDate.IsZero() {
		out.CloseDate = opp.CloseDate.Format("2006-01-02")
	}
	if opp.Segment != nil {
		out.Segment = *opp.Segment
	}
	if opp.Region != nil {
		out.Region = *opp.Region
	}
	return out
}

func accountToOutput(acc *models.Account) accountOutput {
	out := accountOutput{
		ID:   acc.ID,
		Name: acc.Name,
	}
	if acc.AccountNumber != nil {
		out.AccountNumber = *acc.AccountNumber
	}
	if acc.Industry != nil {
		out.Industry = *acc.Industry
	}
	if acc.CustomerPriority != nil {
		out.CustomerPriority = *acc.CustomerPriority
	}
	if acc.Type != nil {
		out.Type = *acc.Type
	}
	if acc.Rating != nil {
		out.Rating = *acc.Rating
	}
	return out
}

func insightToOutput(in models.Insight) insightOutput {
	out := insightOutput{
		NextStep:          in.NextStep,
		RiskMessage:       in.RiskMessage,
		RecommendedAction: in.RecommendedAction,
		StageGuidance:     in.StageGuidance,
		DaysRemaining:     in.DaysRemaining,
		Resources:         make([]resourceOutput, len(in.Resources)),
	}
	if in.HighValueNote != nil {
		out.HighValueNote = *in.HighValueNote
	}
	for i, r := range in.Resources {
		out.Resources[i] = resourceOutput{Title: r.Title, File: r.File}
	}
	return out
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
