package tools

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/daktela/daktela-mcp-server/internal/daktela"
	"github.com/daktela/daktela-mcp-server/internal/format"
)

// callListFields trims list pages to the call metadata columns; full records
// carry large embedded activity trees.
var callListFields = []string{
	"id_call", "call_time", "direction", "answered", "id_queue", "id_agent",
	"clid", "prefix_clid_name", "did", "waiting_time", "ringing_time",
	"hold_time", "duration", "disposition_cause", "disconnection_cause",
	"pressed_key", "missed_call", "missed_call_time", "missed_callback",
	"attempts",
}

var callFilterProperties = map[string]any{
	"queue":     stringProperty("Filter by queue internal name (use list_queues to find valid names)."),
	"user":      stringProperty("Filter by agent login name (the 'name' field from list_users)."),
	"contact":   stringProperty("Filter by contact internal ID."),
	"direction": stringProperty("Filter by call direction: in or out."),
	"answered": map[string]any{
		"type":        "boolean",
		"description": "Filter by whether the call was answered.",
	},
	"date_from": stringProperty("Only calls on or after this date (YYYY-MM-DD)."),
	"date_to":   stringProperty("Only calls on or before this date (YYYY-MM-DD)."),
}

func (s *Server) registerCalls() {
	s.mcp.AddTool(mcp.Tool{
		Name:        "list_calls",
		Description: "List calls with optional filters. Returns one page of results.",
		InputSchema: objectSchema(merged(callFilterProperties, merged(paginationProperties(100), map[string]any{
			"sort":     stringProperty("Field to sort by. Useful values: call_time (default), duration, waiting_time, ringing_time."),
			"sort_dir": stringProperty("Sort direction: asc or desc (default: desc)."),
		}))),
	}, s.handleListCalls)

	s.mcp.AddTool(mcp.Tool{
		Name:        "count_calls",
		Description: "Count calls matching filters. Use this instead of list_calls when you only need a number.",
		InputSchema: objectSchema(callFilterProperties),
	}, s.handleCountCalls)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_call",
		Description: "Fetch one call by its internal name (ID).",
		InputSchema: objectSchema(map[string]any{
			"name": stringProperty("The call's internal name (ID)."),
		}, "name"),
	}, s.handleGetCall)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_call_transcript",
		Description: "Fetch the transcript of a call. Returns text segments with speaker and timestamps.",
		InputSchema: objectSchema(map[string]any{
			"activity": stringProperty("The activity name (ID) linked to the call, e.g. 'activities_67890abc'."),
		}, "activity"),
	}, s.handleGetCallTranscript)

	s.mcp.AddTool(mcp.Tool{
		Name:        "list_call_transcripts",
		Description: "List answered calls with their inline transcripts. Use this to search through call transcripts in bulk.",
		InputSchema: objectSchema(merged(map[string]any{
			"queue":     stringProperty("Filter by queue internal name (use list_queues to find valid names)."),
			"user":      stringProperty("Filter by agent login name (the 'name' field from list_users)."),
			"date_from": stringProperty("Only calls on or after this date (YYYY-MM-DD)."),
			"date_to":   stringProperty("Only calls on or before this date (YYYY-MM-DD)."),
		}, paginationProperties(10))),
	}, s.handleListCallTranscripts)
}

func callFilters(request mcp.CallToolRequest) ([]daktela.Filter, *mcp.CallToolResult) {
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
		daktela.Filter{Field: "id_queue", Operator: "eq", Value: request.GetString("queue", "")},
		daktela.Filter{Field: "id_agent", Operator: "eq", Value: request.GetString("user", "")},
		daktela.Filter{Field: "contact", Operator: "eq", Value: request.GetString("contact", "")},
		daktela.Filter{Field: "direction", Operator: "eq", Value: direction},
	)
	// The provider stores answered as 0/1; a missing argument means no filter.
	if answered, ok := request.GetArguments()["answered"].(bool); ok {
		value := "0"
		if answered {
			value = "1"
		}
		filters = append(filters, daktela.Filter{Field: "answered", Operator: "eq", Value: value})
	}
	filters = append(filters, dateRangeFilters("call_time", dateFrom, dateTo)...)

	return filters, nil
}

func (s *Server) handleListCalls(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	filters, errResult := callFilters(request)
	if errResult != nil {
		return errResult, nil
	}

	sortDir, err := validateSortDir(request.GetString("sort_dir", ""))
	if err != nil {
		return invalidParameter(err.Error()), nil
	}
	sortField := validateSortField("activitiesCall", request.GetString("sort", "call_time"))

	skip := clampSkip(request.GetInt("skip", 0))
	take := clampTake(request.GetInt("take", 100), 100, maxTake)

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "activitiesCall",
		Filters:  filters,
		Skip:     skip,
		Take:     take,
		Sort:     sortField,
		SortDir:  sortDir,
		Fields:   callListFields,
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(formatCallList(result, skip)), nil
}

func (s *Server) handleCountCalls(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	filters, errResult := callFilters(request)
	if errResult != nil {
		return errResult, nil
	}

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "activitiesCall",
		Filters:  filters,
		Take:     1,
		Fields:   []string{"name"},
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(fmt.Sprintf("Total calls: **%d**", result.Total)), nil
}

func (s *Server) handleGetCall(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	name, err := request.RequireString("name")
	if err != nil {
		return invalidParameter("'name' is required"), nil
	}

	record, err := client.Get(ctx, "activitiesCall", name)
	if err != nil {
		return apiErrorResponse(err), nil
	}
	if record == nil {
		return textResponse(fmt.Sprintf("Call '%s' not found.", name)), nil
	}

	return textResponse(format.Detail(record)), nil
}

func (s *Server) handleGetCallTranscript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	activity, err := request.RequireString("activity")
	if err != nil {
		return invalidParameter("'activity' is required"), nil
	}

	segments, err := fetchTranscript(ctx, client, activity)
	if err != nil {
		return apiErrorResponse(err), nil
	}
	if len(segments) == 0 {
		return textResponse(fmt.Sprintf("No transcript found for activity '%s'.", activity)), nil
	}

	return textResponse(formatTranscript(segments)), nil
}

func (s *Server) handleListCallTranscripts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	dateFrom, err := validateDate(request.GetString("date_from", ""))
	if err != nil {
		return invalidParameter(err.Error()), nil
	}
	dateTo, err := validateDate(request.GetString("date_to", ""))
	if err != nil {
		return invalidParameter(err.Error()), nil
	}

	skip := clampSkip(request.GetInt("skip", 0))
	take := clampTake(request.GetInt("take", 10), 10, 50)

	filters := []daktela.Filter{{Field: "answered", Operator: "eq", Value: "1"}}
	filters = append(filters, daktela.NonNullFilters(
		daktela.Filter{Field: "id_agent", Operator: "eq", Value: request.GetString("user", "")},
		daktela.Filter{Field: "id_queue", Operator: "eq", Value: request.GetString("queue", "")},
	)...)
	filters = append(filters, dateRangeFilters("call_time", dateFrom, dateTo)...)

	calls, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "activitiesCall",
		Filters:  filters,
		Skip:     skip,
		Take:     take,
		Sort:     "call_time",
		SortDir:  "desc",
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}
	if len(calls.Records) == 0 {
		return textResponse("No answered calls found."), nil
	}

	end := skip + len(calls.Records)
	parts := []string{fmt.Sprintf("Showing %d-%d of %d answered calls with transcripts:", skip+1, end, calls.Total)}

	for _, rec := range calls.Records {
		part := callLine(rec)

		transcript := ""
		if activity := callActivityName(rec); activity != "" {
			segments, err := fetchTranscript(ctx, client, activity)
			switch {
			case err != nil:
				transcript = "(Error loading transcript)"
			case len(segments) > 0:
				transcript = formatTranscript(segments)
			}
		}

		if transcript == "" {
			part += "\n  (No transcript available)"
		} else {
			part += "\n  --- Transcript ---\n" + transcript
		}
		parts = append(parts, part)
	}

	if end < calls.Total {
		parts = append(parts, fmt.Sprintf("(Use skip=%d to see next page)", end))
	}

	return textResponse(strings.Join(parts, "\n\n")), nil
}

func fetchTranscript(ctx context.Context, client daktela.API, activity string) ([]daktela.Record, error) {
	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: "activitiesCallTranscripts",
		Filters:  []daktela.Filter{{Field: "activity", Operator: "eq", Value: activity}},
		Take:     200,
		Sort:     "start",
		SortDir:  "asc",
		Fields:   []string{"text", "type", "start", "end"},
	})
	if err != nil {
		return nil, err
	}
	return result.Records, nil
}

// callActivityName pulls the linked activity identifier out of a call's
// embedded activities list.
func callActivityName(rec daktela.Record) string {
	activities, ok := rec["activities"].([]any)
	if !ok {
		return ""
	}
	for _, act := range activities {
		if ref := daktela.ParseRef(act); ref.ID != "" {
			return ref.ID
		}
	}
	return ""
}

func callLine(rec daktela.Record) string {
	id := rec.String("id_call")
	if id == "" {
		id = rec.String("name")
	}
	if id == "" {
		id = "?"
	}

	line := fmt.Sprintf("**Call %s** [%s] %s", id, rec.String("direction"), rec.String("call_time"))
	if answered, ok := rec["answered"].(bool); ok && !answered {
		line += " missed"
	}
	if clid := rec.String("clid"); clid != "" {
		caller := clid
		if prefix := rec.String("prefix_clid_name"); prefix != "" {
			caller = prefix + " (" + clid + ")"
		}
		line += " from " + caller
	}
	if queue := rec.Ref("id_queue"); !queue.IsZero() {
		line += " queue: " + queue.Display()
	}
	if agent := rec.Ref("id_agent"); !agent.IsZero() {
		line += " agent: " + agent.Display()
	}
	if duration := numberField(rec, "duration"); duration != "" {
		line += " duration: " + duration + "s"
	}
	return line
}

func formatCallList(result *daktela.ListResult, skip int) string {
	if len(result.Records) == 0 {
		return "No calls found."
	}

	end := skip + len(result.Records)
	text := fmt.Sprintf("Showing %d-%d of %d calls:", skip+1, end, result.Total)
	for _, rec := range result.Records {
		text += "\n" + callLine(rec)
	}
	if end < result.Total {
		text += fmt.Sprintf("\n\n(Use skip=%d to see next page)", end)
	}
	return text
}

// formatTranscript renders segments as chronological dialogue with M:SS
// offsets. Anything the provider does not mark as customer speech is the
// operator.
func formatTranscript(segments []daktela.Record) string {
	ordered := make([]daktela.Record, len(segments))
	copy(ordered, segments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return segmentStart(ordered[i]) < segmentStart(ordered[j])
	})

	lines := []string{"**Transcript**"}
	for _, seg := range ordered {
		total := int(segmentStart(seg))
		speaker := "Operator"
		if strings.EqualFold(seg.String("type"), "customer") {
			speaker = "Customer"
		}
		lines = append(lines, fmt.Sprintf("  [%d:%02d] %s: %s",
			total/60, total%60, speaker, strings.TrimSpace(seg.String("text"))))
	}
	return strings.Join(lines, "\n")
}

func segmentStart(rec daktela.Record) float64 {
	switch v := rec["start"].(type) {
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

// numberField renders a numeric or numeric-string field without a decimal
// point, empty when absent.
func numberField(rec daktela.Record, key string) string {
	switch v := rec[key].(type) {
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case string:
		return v
	default:
		return ""
	}
}
