package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/daktela/daktela-mcp-server/internal/daktela"
	"github.com/daktela/daktela-mcp-server/internal/format"
)

const defaultReferenceTake = 200

func (s *Server) registerReferenceData() {
	for _, t := range []struct {
		tool        string
		endpoint    string
		entity      string
		description string
	}{
		{"list_queues", "queues", "queues",
			"List all queues. Returns queue names and titles for use as filter values in other tools."},
		{"list_users", "users", "users",
			"List all users (agents). Returns user login names and display names for use as filter values in other tools."},
		{"list_groups", "groups", "groups",
			"List all groups. Returns group names and titles."},
		{"list_statuses", "statuses", "statuses",
			"List all statuses. Returns status names and titles for use as filter values in ticket tools."},
		{"list_pauses", "pauses", "pauses",
			"List all pauses. Returns pause names and titles."},
		{"list_templates", "templates", "templates",
			"List all templates. Returns template names and titles."},
		{"list_campaign_types", "campaignsTypes", "campaign types",
			"List all campaign record types. Returns type names and titles."},
	} {
		s.mcp.AddTool(mcp.Tool{
			Name:        t.tool,
			Description: t.description,
			InputSchema: objectSchema(paginationProperties(defaultReferenceTake)),
		}, s.listSimple(t.endpoint, t.entity))
	}
}

// listSimple builds a handler for endpoints that carry no filters; their
// unfiltered pages are the ones the reference-data cache can serve.
func (s *Server) listSimple(endpoint, entity string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errResult := s.clientFor(ctx)
		if errResult != nil {
			return errResult, nil
		}

		skip := clampSkip(request.GetInt("skip", 0))
		take := clampTake(request.GetInt("take", defaultReferenceTake), defaultReferenceTake, maxTake)

		result, err := client.List(ctx, daktela.ListRequest{
			Endpoint: endpoint,
			Skip:     skip,
			Take:     take,
		})
		if err != nil {
			return apiErrorResponse(err), nil
		}

		return textResponse(format.List(result.Records, result.Total, skip, entity)), nil
	}
}
