package daktela

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListRequest_Query(t *testing.T) {
	req := ListRequest{
		Endpoint: "tickets",
		Skip:     20,
		Take:     50,
		Sort:     "edited",
		SortDir:  "asc",
		Filters: []Filter{
			{Field: "stage", Operator: "eq", Value: "OPEN"},
			{Field: "title", Operator: "like", Value: "refund"},
		},
		Fields: []string{"name", "title"},
		Search: "invoice",
	}

	q := req.query()

	assert.Equal(t, "20", q.Get("skip"))
	assert.Equal(t, "50", q.Get("take"))
	assert.Equal(t, "edited", q.Get("sort[0][field]"))
	assert.Equal(t, "asc", q.Get("sort[0][dir]"))
	assert.Equal(t, "and", q.Get("filter[logic]"))
	assert.Equal(t, "stage", q.Get("filter[filters][0][field]"))
	assert.Equal(t, "eq", q.Get("filter[filters][0][operator]"))
	assert.Equal(t, "OPEN", q.Get("filter[filters][0][value]"))
	assert.Equal(t, []string{"name", "title"}, q["fields[]"])
	assert.Equal(t, "invoice", q.Get("q"))
}

func TestListRequest_Query_LikeWrapsWildcards(t *testing.T) {
	req := ListRequest{
		Filters: []Filter{{Field: "title", Operator: "like", Value: "refund"}},
	}
	assert.Equal(t, "%refund%", req.query().Get("filter[filters][0][value]"))

	pre := ListRequest{
		Filters: []Filter{{Field: "title", Operator: "like", Value: "refund%"}},
	}
	assert.Equal(t, "refund%", pre.query().Get("filter[filters][0][value]"),
		"caller-supplied wildcards are kept as-is")
}

func TestListRequest_Query_SortDirDefaultsDesc(t *testing.T) {
	req := ListRequest{Sort: "created"}
	assert.Equal(t, "desc", req.query().Get("sort[0][dir]"))
}

func TestListRequest_Cacheable(t *testing.T) {
	assert.True(t, ListRequest{Endpoint: "queues", Skip: 0, Take: 200}.Cacheable())

	assert.False(t, ListRequest{
		Filters: []Filter{{Field: "stage", Operator: "eq", Value: "OPEN"}},
	}.Cacheable(), "filtered pages are request-specific")

	assert.False(t, ListRequest{Search: "acme"}.Cacheable(),
		"search results are request-specific")

	assert.False(t, ListRequest{Fields: []string{"name"}}.Cacheable(),
		"projected pages would poison full-page consumers")
}

func TestNonNullFilters(t *testing.T) {
	filters := NonNullFilters(
		Filter{Field: "stage", Operator: "eq", Value: "OPEN"},
		Filter{Field: "priority", Operator: "eq", Value: ""},
		Filter{Field: "user", Operator: "eq", Value: "agent"},
	)

	assert.Equal(t, []Filter{
		{Field: "stage", Operator: "eq", Value: "OPEN"},
		{Field: "user", Operator: "eq", Value: "agent"},
	}, filters)
}
