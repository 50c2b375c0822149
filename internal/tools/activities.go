package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/daktela/daktela-mcp-server/internal/daktela"
	"github.com/daktela/daktela-mcp-server/internal/format"
)

var (
	activityTypes   = []string{"CALL", "EMAIL", "CHAT", "SMS", "FBM", "WAP"}
	activityActions = []string{"OPEN", "WAIT", "CLOSE"}
)

var activityFilterProperties = map[string]any{
	"type":      stringProperty("Filter by channel type: CALL, EMAIL, CHAT, SMS, FBM, WAP."),
	"action":    stringProperty("Filter by activity action: OPEN, WAIT, CLOSE."),
	"user":      stringProperty("Filter by agent login name (the 'name' field from list_users)."),
	"contact":   stringProperty("Filter by contact internal ID."),
	"date_from": stringProperty("Only activities started on or after this date (YYYY-MM-DD)."),
	"date_to":   stringProperty("Only activities started on or before this date (YYYY-MM-DD)."),
}

func (s *Server) registerActivities() {
	s.mcp.AddTool(mcp.Tool{
		Name:        "list_activities",
		Description: "List activities (calls, emails, chats...) with optional filters. Returns one page of results.",
		InputSchema: objectSchema(merged(activityFilterProperties, merged(paginationProperties(100), map[string]any{
			"sort":     stringProperty("Field to sort by. Useful values: time (default), time_close, duration."),
			"sort_dir": stringProperty("Sort direction: asc or desc (default: desc)."),
		}))),
	}, s.handleListActivities)

	s.mcp.AddTool(mcp.Tool{
		Name:        "count_activities",
		Description: "Count activities matching filters. Use this instead of list_activities when you only need a number.",
		InputSchema: objectSchema(activityFilterProperties),
	}, s.handleCountActivities)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_activity",
		Description: "Fetch one activity by its internal name (ID).",
		InputSchema: objectSchema(map[string]any{
			"name": stringProperty("The activity's internal name (ID)."),
		}, "name"),
	}, s.handleGetActivity)
}

func activityFilters(request mcp.CallToolRequest) ([]daktela.Filter, *mcp.CallToolResult) {
	typ, err := validateEnum("activity type", request.GetString("type", ""), strings.ToUpper, activityTypes)
	if err != nil {
		return nil, invalidParameter(err.Error())
	}
	action, err := validateEnum("activity action", request.GetString("action", ""), strings.ToUpper, activityActions)
	if err != nil {
		return nil, invalidParameter(err.Error())
	}
	dateFrom, err := validateDate(request.GetString("date_from", ""))
	if err != nil {
		return nil, invalidParameter(err.Error())
	}
	dateTo, err := validateDate(request.GetString("date_to", ""))
	if err != nil {
		return nil, invalidParameter(err.Error())
	}

	filters := daktela.NonNullFilters(
		daktela.Filter{Field: "type", Operator: "eq", Value: typ},
		daktela.Filter{Field: "action", Operator: "eq", Value: action},
		daktela.Filter{Field: "user", Operator: "eq", Value: request.GetString("user", "")},
		daktela.Filter{Field: "contact", Operator: "eq", Value: request.GetString("contact", "")},
	)
	filters = append(filters, dateRangeFilters("time", dateFrom, dateTo)...)

	return filters, nil
}

func (s *Server) handleListActivities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	filters, errResult := activityFilters(request)
	if errResult != nil {
		return errResult, nil
	}

	sortDir, err := validateSortDir(request.GetString("sort_dir", ""))
	if err != nil {
		return invalidParameter(err.Error()), nil
	}
	sort := validateSortField("activities", request.GetString("sort", "time"))

	skip := clampSkip(request.GetInt("skip", 0))
	take := clampTake(request.GetInt("take", 100), 100, maxTake)

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "activities",
		Filters:  filters,
		Skip:     skip,
		Take:     take,
		Sort:     sort,
		SortDir:  sortDir,
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(formatActivityList(result, skip)), nil
}

func (s *Server) handleCountActivities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	filters, errResult := activityFilters(request)
	if errResult != nil {
		return errResult, nil
	}

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "activities",
		Filters:  filters,
		Take:     1,
		Fields:   []string{"name"},
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(fmt.Sprintf("Total activities: **%d**", result.Total)), nil
}

func (s *Server) handleGetActivity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	name, err := request.RequireString("name")
	if err != nil {
		return invalidParameter("'name' is required"), nil
	}

	record, err := client.Get(ctx, "activities", name)
	if err != nil {
		return apiErrorResponse(err), nil
	}
	if record == nil {
		return textResponse(fmt.Sprintf("Activity '%s' not found.", name)), nil
	}

	return textResponse(format.Detail(record)), nil
}

func formatActivityList(result *daktela.ListResult, skip int) string {
	if len(result.Records) == 0 {
		return "No activities found."
	}

	end := skip + len(result.Records)
	text := fmt.Sprintf("Showing %d-%d of %d activities:", skip+1, end, result.Total)

	for _, rec := range result.Records {
		line := fmt.Sprintf("\n**%s** [%s/%s] %s",
			rec.String("name"),
			rec.String("type"),
			rec.String("action"),
			rec.String("time"),
		)
		if user := rec.Ref("user"); !user.IsZero() {
			line += " agent: " + user.Display()
		}
		if title := rec.String("title"); title != "" {
			line += " - " + format.Truncate(title, 80)
		}
		text += line
	}

	if end < result.Total {
		text += fmt.Sprintf("\n\n(Use skip=%d to see next page)", end)
	}
	return text
}
