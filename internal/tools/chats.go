package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/daktela/daktela-mcp-server/internal/daktela"
	"github.com/daktela/daktela-mcp-server/internal/format"
)

// chatChannel maps one messaging channel onto its provider endpoint. Webchat
// sessions carry no direction; the filter is silently dropped there.
type chatChannel struct {
	endpoint     string
	entity       string
	hasDirection bool
}

var chatChannels = map[string]chatChannel{
	"webchat":   {"activitiesWeb", "web chats", false},
	"sms":       {"activitiesSms", "SMS chats", true},
	"messenger": {"activitiesFbm", "Messenger chats", true},
	"instagram": {"activitiesIgdm", "Instagram chats", true},
	"whatsapp":  {"activitiesWap", "WhatsApp chats", true},
	"viber":     {"activitiesVbr", "Viber chats", true},
}

var chatChannelNames = []string{"webchat", "sms", "messenger", "instagram", "whatsapp", "viber"}

var chatFilterProperties = map[string]any{
	"channel":   stringProperty("Channel to query: webchat, sms, messenger, instagram, whatsapp, viber."),
	"queue":     stringProperty("Filter by queue internal name (use list_queues to find valid names)."),
	"user":      stringProperty("Filter by agent login name (the 'name' field from list_users)."),
	"contact":   stringProperty("Filter by contact internal ID. Not a person's name; use list_contacts(search=...) to find the ID."),
	"direction": stringProperty("Filter by direction: in or out. Ignored for webchat."),
	"date_from": stringProperty("Only chats on or after this date (YYYY-MM-DD)."),
	"date_to":   stringProperty("Only chats on or before this date (YYYY-MM-DD)."),
}

func (s *Server) registerChats() {
	s.mcp.AddTool(mcp.Tool{
		Name:        "list_chats",
		Description: "List chats for a messaging channel (webchat, sms, messenger, instagram, whatsapp, viber). Returns one page of results.",
		InputSchema: objectSchema(merged(chatFilterProperties, merged(paginationProperties(100), map[string]any{
			"sort":     stringProperty("Field to sort by. Useful values: time (default), duration, wait_time."),
			"sort_dir": stringProperty("Sort direction: asc or desc (default: desc)."),
		})), "channel"),
	}, s.handleListChats)

	s.mcp.AddTool(mcp.Tool{
		Name:        "count_chats",
		Description: "Count chats for a messaging channel. Use this instead of list_chats when you only need a number.",
		InputSchema: objectSchema(chatFilterProperties, "channel"),
	}, s.handleCountChats)

	s.mcp.AddTool(mcp.Tool{
		Name:        "get_chat",
		Description: "Fetch one chat by its internal name (ID) on a messaging channel.",
		InputSchema: objectSchema(map[string]any{
			"channel": stringProperty("Channel to query: webchat, sms, messenger, instagram, whatsapp, viber."),
			"name":    stringProperty("The chat's internal name (ID)."),
		}, "channel", "name"),
	}, s.handleGetChat)
}

func chatChannelFor(request mcp.CallToolRequest) (chatChannel, *mcp.CallToolResult) {
	name, err := validateEnum("channel", request.GetString("channel", ""), strings.ToLower, chatChannelNames)
	if err != nil {
		return chatChannel{}, invalidParameter(err.Error())
	}
	if name == "" {
		return chatChannel{}, invalidParameter("'channel' is required")
	}
	return chatChannels[name], nil
}

func chatFilters(request mcp.CallToolRequest, channel chatChannel) ([]daktela.Filter, *mcp.CallToolResult) {
	direction, err := validateDirection(request.GetString("direction", ""))
	if err != nil {
		return nil, invalidParameter(err.Error())
	}
	if !channel.hasDirection {
		direction = ""
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

func (s *Server) handleListChats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	channel, errResult := chatChannelFor(request)
	if errResult != nil {
		return errResult, nil
	}

	filters, errResult := chatFilters(request, channel)
	if errResult != nil {
		return errResult, nil
	}

	sortDir, err := validateSortDir(request.GetString("sort_dir", ""))
	if err != nil {
		return invalidParameter(err.Error()), nil
	}
	sortField := validateSortField(channel.endpoint, request.GetString("sort", "time"))

	skip := clampSkip(request.GetInt("skip", 0))
	take := clampTake(request.GetInt("take", 100), 100, maxTake)

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: channel.endpoint,
		Filters:  filters,
		Skip:     skip,
		Take:     take,
		Sort:     sortField,
		SortDir:  sortDir,
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(formatChatList(result, skip, channel.entity)), nil
}

func (s *Server) handleCountChats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	channel, errResult := chatChannelFor(request)
	if errResult != nil {
		return errResult, nil
	}

	filters, errResult := chatFilters(request, channel)
	if errResult != nil {
		return errResult, nil
	}

	result, err := client.List(ctx, daktela.ListRequest{
		Endpoint: channel.endpoint,
		Filters:  filters,
		Take:     1,
		Fields:   []string{"name"},
	})
	if err != nil {
		return apiErrorResponse(err), nil
	}

	return textResponse(fmt.Sprintf("Total %s: **%d**", channel.entity, result.Total)), nil
}

func (s *Server) handleGetChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := s.clientFor(ctx)
	if errResult != nil {
		return errResult, nil
	}

	channel, errResult := chatChannelFor(request)
	if errResult != nil {
		return errResult, nil
	}

	name, err := request.RequireString("name")
	if err != nil {
		return invalidParameter("'name' is required"), nil
	}

	record, err := client.Get(ctx, channel.endpoint, name)
	if err != nil {
		return apiErrorResponse(err), nil
	}
	if record == nil {
		return textResponse(fmt.Sprintf("Chat '%s' not found.", name)), nil
	}

	return textResponse(format.Detail(record)), nil
}

func formatChatList(result *daktela.ListResult, skip int, entity string) string {
	if len(result.Records) == 0 {
		return fmt.Sprintf("No %s found.", entity)
	}

	end := skip + len(result.Records)
	text := fmt.Sprintf("Showing %d-%d of %d %s:", skip+1, end, result.Total, entity)

	for _, rec := range result.Records {
		line := fmt.Sprintf("\n**%s** %s", rec.String("name"), rec.String("time"))
		if direction := rec.String("direction"); direction != "" {
			line += " [" + direction + "]"
		}
		if title := rec.String("title"); title != "" {
			line += " - " + format.Truncate(title, 80)
		}
		if contact := rec.Ref("contact"); !contact.IsZero() {
			line += " contact: " + contact.Display()
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
