package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/daktela/daktela-mcp-server/internal/daktela"
)

var (
	ticketStages     = []string{"OPEN", "WAIT", "CLOSE", "ARCHIVE"}
	ticketPriorities = []string{"LOW", "MEDIUM", "HIGH"}
)

// validateStage normalizes a ticket stage, passing empty through.
func validateStage(value string) (string, error) {
	return validateEnum("ticket stage", value, strings.ToUpper, ticketStages)
}

// validatePriority normalizes a ticket priority, passing empty through.
func validatePriority(value string) (string, error) {
	return validateEnum("priority", value, strings.ToUpper, ticketPriorities)
}

// validateDirection normalizes a channel direction, passing empty through.
func validateDirection(value string) (string, error) {
	return validateEnum("direction", value, strings.ToLower, []string{"in", "out", "internal"})
}

// validateSortDir normalizes a sort direction, defaulting empty to "desc".
func validateSortDir(value string) (string, error) {
	if value == "" {
		return "desc", nil
	}
	return validateEnum("sort direction", value, strings.ToLower, []string{"asc", "desc"})
}

func validateEnum(label, value string, normalize func(string) string, allowed []string) (string, error) {
	if value == "" {
		return "", nil
	}
	normalized := normalize(strings.TrimSpace(value))
	for _, a := range allowed {
		if normalized == a {
			return normalized, nil
		}
	}
	return "", fmt.Errorf("invalid %s '%s'. Valid values: %s", label, value, strings.Join(allowed, ", "))
}

// validateDate checks a YYYY-MM-DD value, passing empty through.
func validateDate(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	value = strings.TrimSpace(value)
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return "", fmt.Errorf("invalid date '%s'. Expected format: YYYY-MM-DD", value)
	}
	return value, nil
}

func clampTake(take, fallback, max int) int {
	if take <= 0 {
		take = fallback
	}
	if take > max {
		return max
	}
	return take
}

func clampSkip(skip int) int {
	if skip < 0 {
		return 0
	}
	return skip
}

// channelSorts covers the timed channel endpoints (emails, chats), which
// share the same sortable columns.
var channelSorts = []string{"time", "duration", "wait_time"}

// sortFields is the per-endpoint sort-field allow-list. Unknown endpoints
// pass any field through; a disallowed field on a known endpoint is dropped
// so the provider returns its default order instead of erroring.
var sortFields = map[string][]string{
	"tickets": {
		"name", "title", "created", "edited", "last_activity",
		"last_activity_operator", "last_activity_client",
		"sla_deadtime", "sla_close_deadline", "priority", "stage",
		"first_answer", "closed",
	},
	"activities":       {"time", "time_close", "duration", "ringing_time"},
	"activitiesCall":   {"call_time", "duration", "waiting_time", "ringing_time", "hold_time"},
	"activitiesEmail":  channelSorts,
	"activitiesWeb":    channelSorts,
	"activitiesSms":    channelSorts,
	"activitiesFbm":    channelSorts,
	"activitiesIgdm":   channelSorts,
	"activitiesWap":    channelSorts,
	"activitiesVbr":    channelSorts,
	"contacts":         {"created", "edited", "title", "lastname"},
	"accounts":         {"created", "edited", "title"},
	"campaignsRecords": {"created", "edited", "nextcall"},
	"crmRecords":       {"created", "edited", "title", "stage"},
}

func validateSortField(endpoint, sort string) string {
	if sort == "" {
		return ""
	}
	allowed, known := sortFields[endpoint]
	if !known {
		return sort
	}
	for _, a := range allowed {
		if sort == a {
			return sort
		}
	}
	return ""
}

// dateRangeFilters builds gte/lte filters on a timestamp field. The
// provider expects 'YYYY-MM-DD HH:MM:SS' and treats a bare date as
// midnight, so the upper bound gets the end-of-day time appended to keep
// that whole day included.
func dateRangeFilters(field, dateFrom, dateTo string) []daktela.Filter {
	var filters []daktela.Filter
	if dateFrom != "" {
		filters = append(filters, daktela.Filter{Field: field, Operator: "gte", Value: dateFrom})
	}
	if dateTo != "" {
		filters = append(filters, daktela.Filter{Field: field, Operator: "lte", Value: dateTo + " 23:59:59"})
	}
	return filters
}
