package daktela

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Filter is a single field-level predicate in a list query. Operator is one
// of the provider's filter operators (eq, neq, like, gte, lte, in, ...).
type Filter struct {
	Field    string
	Operator string
	Value    string
}

// ListRequest describes one page read against a list endpoint.
type ListRequest struct {
	Endpoint string
	Filters  []Filter
	Skip     int
	Take     int
	Sort     string
	SortDir  string
	Fields   []string
	Search   string
}

// Cacheable reports whether this request has the page shape the reference
// data cache stores: no field filters, no full-text search and no field
// projection. Only such queries are tenant-wide and filter-independent.
func (r ListRequest) Cacheable() bool {
	return len(r.Filters) == 0 && r.Search == "" && len(r.Fields) == 0
}

// query encodes the request into the provider's bracketed query-parameter
// convention. "like" values are wrapped in wildcards unless the caller
// already supplied them.
func (r ListRequest) query() url.Values {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(r.Skip))
	q.Set("take", strconv.Itoa(r.Take))

	if r.Sort != "" {
		q.Set("sort[0][field]", r.Sort)
		dir := r.SortDir
		if dir == "" {
			dir = "desc"
		}
		q.Set("sort[0][dir]", dir)
	}

	if len(r.Filters) > 0 {
		q.Set("filter[logic]", "and")
		for i, f := range r.Filters {
			value := f.Value
			if f.Operator == "like" && !strings.Contains(value, "%") {
				value = "%" + value + "%"
			}
			q.Set(fmt.Sprintf("filter[filters][%d][field]", i), f.Field)
			q.Set(fmt.Sprintf("filter[filters][%d][operator]", i), f.Operator)
			q.Set(fmt.Sprintf("filter[filters][%d][value]", i), value)
		}
	}

	for _, field := range r.Fields {
		q.Add("fields[]", field)
	}

	if r.Search != "" {
		q.Set("q", r.Search)
	}

	return q
}

// NonNullFilters builds a filter list from candidates, dropping any whose
// value is empty. Keeps tool handlers free of nil-juggling.
func NonNullFilters(candidates ...Filter) []Filter {
	filters := make([]Filter, 0, len(candidates))
	for _, f := range candidates {
		if f.Value != "" {
			filters = append(filters, f)
		}
	}
	return filters
}
