package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/daktela/daktela-mcp-server/internal/daktela"
	"github.com/daktela/daktela-mcp-server/internal/format"
)

var crmFilterProperties = map[string]any{
	"type":      stringProperty("Filter by CRM record type internal name."),
	"user":      stringProperty("Filter by agent login name (the 'name' field from list_users)."),
	"contact":   stringProperty("Filter by contact internal ID."),
	"account":   stringProperty("Filter by account internal ID (use list_accounts to find valid IDs)."),
	"date_from": stringProperty("Only CRM records created on or after this date (YYYY-MM-DD)."),
	"date_to":   stringProperty("Only CRM records created on or before this date (YYYY-MM-DD)."),
}

func (s *Server) registerCRM() {
	s.mcp.AddTool(mcp.Tool{
		Name:        "list_crm_records",
		Description: "List CRM records with optional filters. Returns one page of results.",
		InputSchema: objectSchema(merged(crmFilterProperties, merged(paginationProperties(100), map[string]any{
			"sort":     stringProperty("Field to sort by. Useful values: created (default), edited, title, stage."),
			"sort_dir": stringProperty("Sort direction: asc or desc (default: desc)."),
		}))),
	}, s.handleListCRMRecords)

	s.mcp.AddTool(mcp.Tool{
		Name:        "count_crm_records",
		Description: "Count CRM records matching filters. Use this instead of list_crm_records when you only need a number.",
		InputSchema: objectSchema(crmFilterProperties),
	}, s.handleCountCRMRecords)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_crm_record",
		Description: "Fetch one CRM record by its internal name (ID).",
		InputSchema: objectSchema(map[string]any{
			"name": stringProperty("The CRM record's internal name (ID)."),
		}, "name"),
	}, s.handleGetCRMRecord)
}

func crmFilters(request mcp.CallToolRequest) ([]daktela.Filter, *mcp.CallToolResult) {
	dateFrom, err := validateDate(request.GetString("date_from", ""))
	if err != nil {
		return nil, invalidParameter(err.Error())
	}
	dateTo, err := validateDate(request.GetString("date_to", ""))
	if err != nil {
		return nil, invalidParameter(err.Error())
	}

	filters := daktela.NonNullFilters(
		daktela.Filter{Field: "type", Operator: "eq", Value: request.GetString("type", "")},
		daktela.Filter{Field: "user", Operator: "eq", Value: request.GetString("user", "")},
		daktela.Filter{Field: "contact", Operator: "eq", Value: request.GetString("contact", "")},
		daktela.Filter{Field: "account", Operator: "eq", Value: request.GetString("account", "")},
	)
	filters = append(filters, dateRangeFilters("created", dateFrom, dateTo)...)

	return filters, nil
}

func (s *Server) handleListCRMRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	filters, errResult := crmFilters(request)
	if errResult != nil {
		return errResult, nil
	}

	sortDir, err := validateSortDir(request.GetString("sort_dir", ""))
	if err != nil {
		return invalidParameter(err.Error()), nil
	}
	sortField := validateSortField("crmRecords", request.GetString("sort", "created"))

	skip := clampSkip(request.GetInt("skip", 0))
	take := clampTake(request.GetInt("take", 100), 100, maxTake)

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "crmRecords",
		Filters:  filters,
		Skip:     skip,
		Take:     take,
		Sort:     sortField,
		SortDir:  sortDir,
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(formatCRMRecordList(result, skip)), nil
}

func (s *Server) handleCountCRMRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	filters, errResult := crmFilters(request)
	if errResult != nil {
		return errResult, nil
	}

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "crmRecords",
		Filters:  filters,
		Take:     1,
		Fields:   []string{"name"},
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(fmt.Sprintf("Total CRM records: **%d**", result.Total)), nil
}

func (s *Server) handleGetCRMRecord(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	name, err := request.RequireString("name")
	if err != nil {
		return invalidParameter("'name' is required"), nil
	}

	record, err := client.Get(ctx, "crmRecords", name)
	if err != nil {
		return apiErrorResponse(err), nil
	}
	if record == nil {
		return textResponse(fmt.Sprintf("CRM record '%s' not found.", name)), nil
	}

	return textResponse(format.Detail(record)), nil
}

func formatCRMRecordList(result *daktela.ListResult, skip int) string {
	if len(result.Records) == 0 {
		return "No CRM records found."
	}

	end := skip + len(result.Records)
	text := fmt.Sprintf("Showing %d-%d of %d CRM records:", skip+1, end, result.Total)

	for _, rec := range result.Records {
		line := "\n**" + rec.String("name") + "**"
		if title := rec.String("title"); title != "" {
			line += " - " + format.Truncate(title, 80)
		}
		if stage := rec.Ref("stage"); !stage.IsZero() {
			line += " [" + stage.Display() + "]"
		}
		if typ := rec.Ref("type"); !typ.IsZero() {
			line += " type: " + typ.Display()
		}
		if contact := rec.Ref("contact"); !contact.IsZero() {
			line += " contact: " + contact.Display()
		}
		if account := rec.Ref("account"); !account.IsZero() {
			line += " account: " + account.Display()
		}
		if user := rec.Ref("user"); !user.IsZero() {
			line += " agent: " + user.Display()
		}
		text += line
	}

	if end < result.Total {
		text += fmt.Sprintf("\n\n(Use skip=%d to see next page)", end)
	}
	return text
}
