package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/daktela/daktela-mcp-server/internal/daktela"
	"github.com/daktela/daktela-mcp-server/internal/format"
)

var contactFilterProperties = map[string]any{
	"search":    stringProperty("Full-text search across contact name, email, phone (partial match)."),
	"user":      stringProperty("Filter by owner/agent login name (the 'name' field from list_users)."),
	"account":   stringProperty("Filter by account internal ID (use list_accounts to find valid IDs)."),
	"date_from": stringProperty("Only contacts created on or after this date (YYYY-MM-DD)."),
	"date_to":   stringProperty("Only contacts created on or before this date (YYYY-MM-DD)."),
}

func (s *Server) registerContacts() {
	s.mcp.AddTool(mcp.Tool{
		Name:        "list_contacts",
		Description: "List contacts with optional filters. Returns one page of results.",
		InputSchema: objectSchema(merged(contactFilterProperties, merged(paginationProperties(100), map[string]any{
			"sort":     stringProperty("Field to sort by. Useful values: created (default), edited, title, lastname."),
			"sort_dir": stringProperty("Sort direction: asc or desc (default: desc)."),
		}))),
	}, s.handleListContacts)

	s.mcp.AddTool(mcp.Tool{
		Name:        "count_contacts",
		Description: "Count contacts matching filters. Use this instead of list_contacts when you only need a number.",
		InputSchema: objectSchema(contactFilterProperties),
	}, s.handleCountContacts)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_contact",
		Description: "Fetch one contact by its internal name (ID).",
		InputSchema: objectSchema(map[string]any{
			"name": stringProperty("The contact's internal name (ID), e.g. 'contact_674eda46162a8403430453'."),
		}, "name"),
	}, s.handleGetContact)
}

func contactFilters(request mcp.CallToolRequest) ([]daktela.Filter, *mcp.CallToolResult) {
	dateFrom, err := validateDate(request.GetString("date_from", ""))
	if err != nil {
		return nil, invalidParameter(err.Error())
	}
	dateTo, err := validateDate(request.GetString("date_to", ""))
	if err != nil {
		return nil, invalidParameter(err.Error())
	}

	filters := daktela.NonNullFilters(
		daktela.Filter{Field: "user", Operator: "eq", Value: request.GetString("user", "")},
		daktela.Filter{Field: "account", Operator: "eq", Value: request.GetString("account", "")},
	)
	filters = append(filters, dateRangeFilters("created", dateFrom, dateTo)...)

	return filters, nil
}

func (s *Server) handleListContacts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	filters, errResult := contactFilters(request)
	if errResult != nil {
		return errResult, nil
	}

	sortDir, err := validateSortDir(request.GetString("sort_dir", ""))
	if err != nil {
		return invalidParameter(err.Error()), nil
	}
	sort := validateSortField("contacts", request.GetString("sort", "created"))

	skip := clampSkip(request.GetInt("skip", 0))
	take := clampTake(request.GetInt("take", 100), 100, maxTake)

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "contacts",
		Filters:  filters,
		Skip:     skip,
		Take:     take,
		Sort:     sort,
		SortDir:  sortDir,
		Search:   request.GetString("search", ""),
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(formatContactList(result, skip)), nil
}

func (s *Server) handleCountContacts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	filters, errResult := contactFilters(request)
	if errResult != nil {
		return errResult, nil
	}

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "contacts",
		Filters:  filters,
		Take:     1,
		Fields:   []string{"name"},
		Search:   request.GetString("search", ""),
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(fmt.Sprintf("Total contacts: **%d**", result.Total)), nil
}

func (s *Server) handleGetContact(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	name, err := request.RequireString("name")
	if err != nil {
		return invalidParameter("'name' is required"), nil
	}

	record, err := client.Get(ctx, "contacts", name)
	if err != nil {
		return apiErrorResponse(err), nil
	}
	if record == nil {
		return textResponse(fmt.Sprintf("Contact '%s' not found.", name)), nil
	}

	return textResponse(format.Detail(record)), nil
}

func formatContactList(result *daktela.ListResult, skip int) string {
	if len(result.Records) == 0 {
		return "No contacts found."
	}

	lines := make([]string, 0, len(result.Records)+1)
	end := skip + len(result.Records)
	lines = append(lines, fmt.Sprintf("Showing %d-%d of %d contacts:", skip+1, end, result.Total))

	for _, rec := range result.Records {
		fullName := strings.TrimSpace(rec.String("firstname") + " " + rec.String("lastname"))
		if fullName == "" {
			fullName = rec.String("title")
		}

		line := "**" + rec.String("name") + "**"
		if fullName != "" {
			line += " - " + fullName
		}
		if email := rec.String("email"); email != "" {
			line += " <" + email + ">"
		}
		if account := rec.Ref("account"); !account.IsZero() {
			line += " account: " + account.Display()
		}
		lines = append(lines, line)
	}

	text := strings.Join(lines, "\n")
	if end < result.Total {
		text += fmt.Sprintf("\n\n(Use skip=%d to see next page)", end)
	}
	return text
}
