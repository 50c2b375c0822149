package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/daktela/daktela-mcp-server/internal/daktela"
	"github.com/daktela/daktela-mcp-server/internal/format"
)

var campaignFilterProperties = map[string]any{
	"type":      stringProperty("Filter by campaign record type internal name (use list_campaign_types to find valid names)."),
	"user":      stringProperty("Filter by agent login name (the 'name' field from list_users)."),
	"action":    stringProperty("Filter by campaign record action/status."),
	"date_from": stringProperty("Only campaign records created on or after this date (YYYY-MM-DD)."),
	"date_to":   stringProperty("Only campaign records created on or before this date (YYYY-MM-DD)."),
}

func (s *Server) registerCampaigns() {
	s.mcp.AddTool(mcp.Tool{
		Name:        "list_campaign_records",
		Description: "List campaign records with optional filters. Returns one page of results.",
		InputSchema: objectSchema(merged(campaignFilterProperties, merged(paginationProperties(100), map[string]any{
			"sort":     stringProperty("Field to sort by. Useful values: created (default), edited, nextcall."),
			"sort_dir": stringProperty("Sort direction: asc or desc (default: desc)."),
		}))),
	}, s.handleListCampaignRecords)

	s.mcp.AddTool(mcp.Tool{
		Name:        "count_campaign_records",
		Description: "Count campaign records matching filters. Use this instead of list_campaign_records when you only need a number.",
		InputSchema: objectSchema(campaignFilterProperties),
	}, s.handleCountCampaignRecords)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_campaign_record",
		Description: "Fetch one campaign record by its internal name (ID).",
		InputSchema: objectSchema(map[string]any{
			"name": stringProperty("The campaign record's internal name (ID)."),
		}, "name"),
	}, s.handleGetCampaignRecord)
}

func campaignFilters(request mcp.CallToolRequest) ([]daktela.Filter, *mcp.CallToolResult) {
	dateFrom, err := validateDate(request.GetString("date_from", ""))
	if err != nil {
		return nil, invalidParameter(err.Error())
	}
	dateTo, err := validateDate(request.GetString("date_to", ""))
	if err != nil {
		return nil, invalidParameter(err.Error())
	}

	filters := daktela.NonNullFilters(
		daktela.Filter{Field: "record_type", Operator: "eq", Value: request.GetString("type", "")},
		daktela.Filter{Field: "user", Operator: "eq", Value: request.GetString("user", "")},
		daktela.Filter{Field: "action", Operator: "eq", Value: request.GetString("action", "")},
	)
	filters = append(filters, dateRangeFilters("created", dateFrom, dateTo)...)

	return filters, nil
}

func (s *Server) handleListCampaignRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	filters, errResult := campaignFilters(request)
	if errResult != nil {
		return errResult, nil
	}

	sortDir, err := validateSortDir(request.GetString("sort_dir", ""))
	if err != nil {
		return invalidParameter(err.Error()), nil
	}
	sortField := validateSortField("campaignsRecords", request.GetString("sort", "created"))

	skip := clampSkip(request.GetInt("skip", 0))
	take := clampTake(request.GetInt("take", 100), 100, maxTake)

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "campaignsRecords",
		Filters:  filters,
		Skip:     skip,
		Take:     take,
		Sort:     sortField,
		SortDir:  sortDir,
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(formatCampaignRecordList(result, skip)), nil
}

func (s *Server) handleCountCampaignRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	filters, errResult := campaignFilters(request)
	if errResult != nil {
		return errResult, nil
	}

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "campaignsRecords",
		Filters:  filters,
		Take:     1,
		Fields:   []string{"name"},
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(fmt.Sprintf("Total campaign records: **%d**", result.Total)), nil
}

func (s *Server) handleGetCampaignRecord(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	name, err := request.RequireString("name")
	if err != nil {
		return invalidParameter("'name' is required"), nil
	}

	record, err := client.Get(ctx, "campaignsRecords", name)
	if err != nil {
		return apiErrorResponse(err), nil
	}
	if record == nil {
		return textResponse(fmt.Sprintf("Campaign record '%s' not found.", name)), nil
	}

	return textResponse(format.Detail(record)), nil
}

func formatCampaignRecordList(result *daktela.ListResult, skip int) string {
	if len(result.Records) == 0 {
		return "No campaign records found."
	}

	end := skip + len(result.Records)
	text := fmt.Sprintf("Showing %d-%d of %d campaign records:", skip+1, end, result.Total)

	for _, rec := range result.Records {
		line := fmt.Sprintf("\n**%s** %s", rec.String("name"), rec.String("created"))
		if action := rec.String("action"); action != "" {
			line += " [" + action + "]"
		}
		if typ := rec.Ref("record_type"); !typ.IsZero() {
			line += " type: " + typ.Display()
		}
		if user := rec.Ref("user"); !user.IsZero() {
			line += " agent: " + user.Display()
		}
		if nextcall := rec.String("nextcall"); nextcall != "" {
			line += " next call: " + nextcall
		}
		text += line
	}

	if end < result.Total {
		text += fmt.Sprintf("\n\n(Use skip=%d to see next page)", end)
	}
	return text
}
