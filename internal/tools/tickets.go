package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/daktela/daktela-mcp-server/internal/daktela"
	"github.com/daktela/daktela-mcp-server/internal/format"
)

// ticketListFields keeps list responses small; detail fetches return the
// full record.
var ticketListFields = []string{
	"name", "title", "stage", "priority", "category", "user", "contact",
	"created", "edited", "last_activity", "sla_deadtime", "first_answer",
	"closed", "unread", "statuses", "description",
}

var ticketFilterProperties = map[string]any{
	"category":  stringProperty("Filter by category internal name (use list_ticket_categories to find valid names)."),
	"stage":     stringProperty("Ticket lifecycle stage: OPEN (agent actively working), WAIT (awaiting customer response), CLOSE (resolved), ARCHIVE (archived)."),
	"priority":  stringProperty("Filter by priority: LOW, MEDIUM, HIGH."),
	"user":      stringProperty("Filter by agent login name (the 'name' field from list_users)."),
	"contact":   stringProperty("Filter by contact internal ID. NOT a person's name; use list_contacts with search to find the ID."),
	"search":    stringProperty("Full-text search across ticket titles (partial match)."),
	"status":    stringProperty("Filter by workflow status name. Use list_statuses to see available names."),
	"date_from": stringProperty("Only tickets created on or after this date (YYYY-MM-DD)."),
	"date_to":   stringProperty("Only tickets created on or before this date (YYYY-MM-DD)."),
}

func (s *Server) registerTickets() {
	s.mcp.AddTool(mcp.Tool{
		Name:        "list_tickets",
		Description: "List tickets with optional filters. Returns one page of results.",
		InputSchema: objectSchema(merged(ticketFilterProperties, merged(paginationProperties(maxTicketTake), map[string]any{
			"sort":     stringProperty("Field to sort by. Useful values: edited (default), created, sla_deadtime, last_activity."),
			"sort_dir": stringProperty("Sort direction: asc or desc (default: desc)."),
		}))),
	}, s.handleListTickets)

	s.mcp.AddTool(mcp.Tool{
		Name:        "count_tickets",
		Description: "Count tickets matching filters. Use this instead of list_tickets when you only need a number.",
		InputSchema: objectSchema(ticketFilterProperties),
	}, s.handleCountTickets)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_ticket",
		Description: "Fetch one ticket by its internal name (numeric ID).",
		InputSchema: objectSchema(map[string]any{
			"name": stringProperty("The ticket's internal name (ID)."),
		}, "name"),
	}, s.handleGetTicket)

	s.mcp.AddTool(mcp.Tool{
		Name:        "list_ticket_categories",
		Description: "List ticket categories. Returns category names and titles for use as filter values in ticket tools.",
		InputSchema: objectSchema(paginationProperties(200)),
	}, s.listSimple("ticketsCategories", "ticket categories"))
}

// ticketFilters validates and assembles the shared filter set of
// list_tickets and count_tickets.
func ticketFilters(request mcp.CallToolRequest) ([]daktela.Filter, *mcp.CallToolResult) {
	stage, err := validateStage(request.GetString("stage", ""))
	if err != nil {
		return nil, invalidParameter(err.Error())
	}
	priority, err := validatePriority(request.GetString("priority", ""))
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
		daktela.Filter{Field: "category", Operator: "eq", Value: request.GetString("category", "")},
		daktela.Filter{Field: "stage", Operator: "eq", Value: stage},
		daktela.Filter{Field: "priority", Operator: "eq", Value: priority},
		daktela.Filter{Field: "user", Operator: "eq", Value: request.GetString("user", "")},
		daktela.Filter{Field: "contact", Operator: "eq", Value: request.GetString("contact", "")},
		daktela.Filter{Field: "title", Operator: "like", Value: request.GetString("search", "")},
		daktela.Filter{Field: "statuses", Operator: "eq", Value: request.GetString("status", "")},
	)
	filters = append(filters, dateRangeFilters("created", dateFrom, dateTo)...)

	return filters, nil
}

func (s *Server) handleListTickets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	filters, errResult := ticketFilters(request)
	if errResult != nil {
		return errResult, nil
	}

	sortDir, err := validateSortDir(request.GetString("sort_dir", ""))
	if err != nil {
		return invalidParameter(err.Error()), nil
	}
	sort := validateSortField("tickets", request.GetString("sort", "edited"))

	skip := clampSkip(request.GetInt("skip", 0))
	take := clampTake(request.GetInt("take", maxTicketTake), maxTicketTake, maxTicketTake)

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "tickets",
		Filters:  filters,
		Skip:     skip,
		Take:     take,
		Sort:     sort,
		SortDir:  sortDir,
		Fields:   ticketListFields,
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(formatTicketList(result, skip)), nil
}

func (s *Server) handleCountTickets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	filters, errResult := ticketFilters(request)
	if errResult != nil {
		return errResult, nil
	}

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "tickets",
		Filters:  filters,
		Take:     1,
		Fields:   []string{"name"},
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(fmt.Sprintf("Total tickets: **%d**", result.Total)), nil
}

func (s *Server) handleGetTicket(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	name, err := request.RequireString("name")
	if err != nil {
		return invalidParameter("'name' is required"), nil
	}

	record, err := client.Get(ctx, "tickets", name)
	if err != nil {
		return apiErrorResponse(err), nil
	}
	if record == nil {
		return textResponse(fmt.Sprintf("Ticket '%s' not found.", name)), nil
	}

	return textResponse(format.Detail(record)), nil
}

func formatTicketList(result *daktela.ListResult, skip int) string {
	if len(result.Records) == 0 {
		return "No tickets found."
	}

	lines := make([]string, 0, len(result.Records)+1)
	end := skip + len(result.Records)
	lines = append(lines, fmt.Sprintf("Showing %d-%d of %d tickets:", skip+1, end, result.Total))

	for _, rec := range result.Records {
		line := fmt.Sprintf("**%s** - %s [%s/%s]",
			rec.String("name"),
			format.Truncate(rec.String("title"), 80),
			rec.String("stage"),
			rec.String("priority"),
		)
		if user := rec.Ref("user"); !user.IsZero() {
			line += " agent: " + user.Display()
		}
		if category := rec.Ref("category"); !category.IsZero() {
			line += " category: " + category.Display()
		}
		lines = append(lines, line)
	}

	text := strings.Join(lines, "\n")
	if end < result.Total {
		text += fmt.Sprintf("\n\n(Use skip=%d to see next page)", end)
	}
	return text
}
