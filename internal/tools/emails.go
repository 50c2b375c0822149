package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/daktela/daktela-mcp-server/internal/daktela"
	"github.com/daktela/daktela-mcp-server/internal/format"
)

var emailListFields = []string{
	"name", "queue", "user", "title", "address", "direction",
	"wait_time", "duration", "answered", "text", "time", "state",
}

var emailFilterProperties = map[string]any{
	"queue":     stringProperty("Filter by queue internal name (use list_queues to find valid names)."),
	"user":      stringProperty("Filter by agent login name (the 'name' field from list_users)."),
	"contact":   stringProperty("Filter by contact internal ID."),
	"direction": stringProperty("Filter by email direction: in or out."),
	"date_from": stringProperty("Only emails on or after this date (YYYY-MM-DD)."),
	"date_to":   stringProperty("Only emails on or before this date (YYYY-MM-DD)."),
}

func (s *Server) registerEmails() {
	s.mcp.AddTool(mcp.Tool{
		Name:        "list_emails",
		Description: "List emails with optional filters. Returns one page of results.",
		InputSchema: objectSchema(merged(emailFilterProperties, merged(paginationProperties(100), map[string]any{
			"sort":     stringProperty("Field to sort by. Useful values: time (default), duration, wait_time."),
			"sort_dir": stringProperty("Sort direction: asc or desc (default: desc)."),
		}))),
	}, s.handleListEmails)

	s.mcp.AddTool(mcp.Tool{
		Name:        "count_emails",
		Description: "Count emails matching filters. Use this instead of list_emails when you only need a number.",
		InputSchema: objectSchema(emailFilterProperties),
	}, s.handleCountEmails)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_email",
		Description: "Fetch one email by its internal name (ID).",
		InputSchema: objectSchema(map[string]any{
			"name": stringProperty("The email's internal name (ID)."),
		}, "name"),
	}, s.handleGetEmail)
}

func emailFilters(request mcp.CallToolRequest) ([]daktela.Filter, *mcp.CallToolResult) {
	direction, err := validateDirection(request.GetString("direction", ""))
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
		daktela.Filter{Field: "queue", Operator: "eq", Value: request.GetString("queue", "")},
		daktela.Filter{Field: "user", Operator: "eq", Value: request.GetString("user", "")},
		daktela.Filter{Field: "contact", Operator: "eq", Value: request.GetString("contact", "")},
		daktela.Filter{Field: "direction", Operator: "eq", Value: direction},
	)
	filters = append(filters, dateRangeFilters("time", dateFrom, dateTo)...)

	return filters, nil
}

func (s *Server) handleListEmails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	filters, errResult := emailFilters(request)
	if errResult != nil {
		return errResult, nil
	}

	sortDir, err := validateSortDir(request.GetString("sort_dir", ""))
	if err != nil {
		return invalidParameter(err.Error()), nil
	}
	sortField := validateSortField("activitiesEmail", request.GetString("sort", "time"))

	skip := clampSkip(request.GetInt("skip", 0))
	take := clampTake(request.GetInt("take", 100), 100, maxTake)

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "activitiesEmail",
		Filters:  filters,
		Skip:     skip,
		Take:     take,
		Sort:     sortField,
		SortDir:  sortDir,
		Fields:   emailListFields,
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(formatEmailList(result, skip)), nil
}

func (s *Server) handleCountEmails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	filters, errResult := emailFilters(request)
	if errResult != nil {
		return errResult, nil
	}

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "activitiesEmail",
		Filters:  filters,
		Take:     1,
		Fields:   []string{"name"},
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(fmt.Sprintf("Total emails: **%d**", result.Total)), nil
}

func (s *Server) handleGetEmail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	name, err := request.RequireString("name")
	if err != nil {
		return invalidParameter("'name' is required"), nil
	}

	record, err := client.Get(ctx, "activitiesEmail", name)
	if err != nil {
		return apiErrorResponse(err), nil
	}
	if record == nil {
		return textResponse(fmt.Sprintf("Email '%s' not found.", name)), nil
	}

	return textResponse(format.Detail(record)), nil
}

func formatEmailList(result *daktela.ListResult, skip int) string {
	if len(result.Records) == 0 {
		return "No emails found."
	}

	end := skip + len(result.Records)
	text := fmt.Sprintf("Showing %d-%d of %d emails:", skip+1, end, result.Total)

	for _, rec := range result.Records {
		line := fmt.Sprintf("\n**%s** [%s] %s", rec.String("name"), rec.String("direction"), rec.String("time"))
		if title := rec.String("title"); title != "" {
			line += " - " + format.Truncate(title, 80)
		}
		if address := rec.String("address"); address != "" {
			line += " <" + address + ">"
		}
		if queue := rec.Ref("queue"); !queue.IsZero() {
			line += " queue: " + queue.Display()
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
