package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/daktela/daktela-mcp-server/internal/daktela"
	"github.com/daktela/daktela-mcp-server/internal/format"
)

func (s *Server) registerAccounts() {
	s.mcp.AddTool(mcp.Tool{
		Name:        "list_accounts",
		Description: "List accounts (companies/organizations) with optional search. Returns one page of results.",
		InputSchema: objectSchema(merged(paginationProperties(100), map[string]any{
			"search":   stringProperty("Full-text search across account name and title (partial match)."),
			"sort":     stringProperty("Field to sort by. Useful values: created (default), edited, title."),
			"sort_dir": stringProperty("Sort direction: asc or desc (default: desc)."),
		})),
	}, s.handleListAccounts)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_account",
		Description: "Fetch one account by its internal name (ID).",
		InputSchema: objectSchema(map[string]any{
			"name": stringProperty("The account's internal name (ID)."),
		}, "name"),
	}, s.handleGetAccount)
}

func (s *Server) handleListAccounts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	sortDir, err := validateSortDir(request.GetString("sort_dir", ""))
	if err != nil {
		return invalidParameter(err.Error()), nil
	}
	sort := validateSortField("accounts", request.GetString("sort", "created"))

	skip := clampSkip(request.GetInt("skip", 0))
	take := clampTake(request.GetInt("take", 100), 100, maxTake)

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "accounts",
		Skip:     skip,
		Take:     take,
		Sort:     sort,
		SortDir:  sortDir,
		Search:   request.GetString("search", ""),
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(format.List(result.Records, result.Total, skip, "accounts")), nil
}

func (s *Server) handleGetAccount(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	name, err := request.RequireString("name")
	if err != nil {
		return invalidParameter("'name' is required"), nil
	}

	record, err := client.Get(ctx, "accounts", name)
	if err != nil {
		return apiErrorResponse(err), nil
	}
	if record == nil {
		return textResponse(fmt.Sprintf("Account '%s' not found.", name)), nil
	}

	return textResponse(format.Detail(record)), nil
}
