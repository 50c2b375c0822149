package tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daktela/daktela-mcp-server/internal/auth"
	"github.com/daktela/daktela-mcp-server/internal/config"
	"github.com/daktela/daktela-mcp-server/internal/daktela"
)

// fakeAPI satisfies daktela.API, capturing requests and serving canned
// results. listFn and getFn override the canned values when a test needs
// per-endpoint behavior.
type fakeAPI struct {
	listResult *daktela.ListResult
	listErr    error
	getResult  daktela.Record
	getErr     error

	listFn func(req daktela.ListRequest) (*daktela.ListResult, error)
	getFn  func(endpoint, name string) (daktela.Record, error)

	lists           []daktela.ListRequest
	lastList        daktela.ListRequest
	lastGetEndpoint string
	lastGetName     string
}

func (f *fakeAPI) List(ctx context.Context, req daktela.ListRequest) (*daktela.ListResult, error) {
	f.lists = append(f.lists, req)
	f.lastList = req
	if f.listFn != nil {
		return f.listFn(req)
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.listResult != nil {
		return f.listResult, nil
	}
	return &daktela.ListResult{Records: []daktela.Record{}}, nil
}

func (f *fakeAPI) Get(ctx context.Context, endpoint, name string) (daktela.Record, error) {
	f.lastGetEndpoint = endpoint
	f.lastGetName = name
	if f.getFn != nil {
		return f.getFn(endpoint, name)
	}
	return f.getResult, f.getErr
}

func (f *fakeAPI) BaseURL() string { return "https://acme.daktela.example.com" }

// testServer builds a catalog whose handlers talk to the fake instead of a
// real gateway.
func testServer(t *testing.T, api *fakeAPI) *Server {
	t.Helper()

	resolver := auth.NewResolver(config.DaktelaConfig{
		URL:      "https://acme.daktela.example.com",
		Username: "agent",
		Password: "secret",
	})

	s := New(Config{Version: "test", Resolver: resolver})
	s.newClient = func(conn daktela.Connection) daktela.API { return api }
	return s
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestHandleListTickets(t *testing.T) {
	api := &fakeAPI{listResult: &daktela.ListResult{
		Records: []daktela.Record{
			{
				"name":     "1042",
				"title":    "Printer on fire",
				"stage":    "OPEN",
				"priority": "HIGH",
				"user":     map[string]any{"name": "agent", "title": "Agent Smith"},
			},
		},
		Total: 1,
	}}
	s := testServer(t, api)

	result, err := s.handleListTickets(context.Background(), callRequest(map[string]any{
		"stage":    "open",
		"priority": "HIGH",
		"take":     float64(500),
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Showing 1-1 of 1 tickets:")
	assert.Contains(t, text, "**1042** - Printer on fire [OPEN/HIGH]")
	assert.Contains(t, text, "agent: Agent Smith")

	assert.Equal(t, "tickets", api.lastList.Endpoint)
	assert.Equal(t, 100, api.lastList.Take, "ticket pages cap at 100")
	assert.Equal(t, "edited", api.lastList.Sort)
	assert.Contains(t, api.lastList.Filters, daktela.Filter{Field: "stage", Operator: "eq", Value: "OPEN"})
	assert.Equal(t, ticketListFields, api.lastList.Fields)
}

func TestHandleListTickets_InvalidParameters(t *testing.T) {
	s := testServer(t, &fakeAPI{})

	for name, args := range map[string]map[string]any{
		"bad stage":    {"stage": "DONE"},
		"bad priority": {"priority": "URGENT"},
		"bad date":     {"date_from": "last tuesday"},
		"bad sort dir": {"sort_dir": "sideways"},
	} {
		t.Run(name, func(t *testing.T) {
			result, err := s.handleListTickets(context.Background(), callRequest(args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), "Invalid parameter")
		})
	}
}

func TestHandleCountTickets(t *testing.T) {
	api := &fakeAPI{listResult: &daktela.ListResult{Records: []daktela.Record{{"name": "1"}}, Total: 1207}}
	s := testServer(t, api)

	result, err := s.handleCountTickets(context.Background(), callRequest(map[string]any{"stage": "CLOSE"}))
	require.NoError(t, err)

	assert.Equal(t, "Total tickets: **1207**", resultText(t, result))
	assert.Equal(t, 1, api.lastList.Take, "count fetches a minimal page")
	assert.Equal(t, []string{"name"}, api.lastList.Fields)
}

func TestHandleGetTicket(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		api := &fakeAPI{getResult: daktela.Record{"name": "1042", "title": "Printer on fire"}}
		s := testServer(t, api)

		result, err := s.handleGetTicket(context.Background(), callRequest(map[string]any{"name": "1042"}))
		require.NoError(t, err)

		text := resultText(t, result)
		assert.Contains(t, text, "Name: 1042")
		assert.Contains(t, text, "Title: Printer on fire")
		assert.Equal(t, "tickets", api.lastGetEndpoint)
		assert.Equal(t, "1042", api.lastGetName)
	})

	t.Run("absent", func(t *testing.T) {
		s := testServer(t, &fakeAPI{})

		result, err := s.handleGetTicket(context.Background(), callRequest(map[string]any{"name": "9999"}))
		require.NoError(t, err)
		assert.Equal(t, "Ticket '9999' not found.", resultText(t, result))
	})

	t.Run("missing name", func(t *testing.T) {
		s := testServer(t, &fakeAPI{})

		result, err := s.handleGetTicket(context.Background(), callRequest(nil))
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}

func TestAPIErrorRendersHint(t *testing.T) {
	api := &fakeAPI{listErr: &daktela.APIError{Endpoint: "tickets", Status: 401, Message: "Unauthorized"}}
	s := testServer(t, api)

	result, err := s.handleListTickets(context.Background(), callRequest(nil))
	require.NoError(t, err)
	require.True(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "API error (HTTP 401): Unauthorized [endpoint: tickets]")
	assert.Contains(t, text, "Hint: Authentication failed")
}

func TestUnresolvedCredentialsAreUnauthorized(t *testing.T) {
	s := New(Config{Version: "test", Resolver: auth.NewResolver(config.DaktelaConfig{})})

	result, err := s.handleListTickets(context.Background(), callRequest(nil))
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Unauthorized:")
}

func TestHandleListActivities(t *testing.T) {
	api := &fakeAPI{listResult: &daktela.ListResult{
		Records: []daktela.Record{
			{"name": "act_1", "type": "CALL", "action": "CLOSE", "time": "2026-08-30 10:00:00"},
		},
		Total: 1,
	}}
	s := testServer(t, api)

	result, err := s.handleListActivities(context.Background(), callRequest(map[string]any{
		"type":      "call",
		"date_from": "2026-08-01",
	}))
	require.NoError(t, err)

	assert.Contains(t, resultText(t, result), "**act_1** [CALL/CLOSE]")
	assert.Equal(t, "activities", api.lastList.Endpoint)
	assert.Equal(t, "time", api.lastList.Sort)
	assert.Contains(t, api.lastList.Filters, daktela.Filter{Field: "type", Operator: "eq", Value: "CALL"})
	assert.Contains(t, api.lastList.Filters, daktela.Filter{Field: "time", Operator: "gte", Value: "2026-08-01"})
}

func TestHandleListContacts_SearchUsesFullText(t *testing.T) {
	api := &fakeAPI{listResult: &daktela.ListResult{
		Records: []daktela.Record{
			{"name": "contact_1", "firstname": "Jana", "lastname": "Nováková", "email": "jana@example.com"},
		},
		Total: 1,
	}}
	s := testServer(t, api)

	result, err := s.handleListContacts(context.Background(), callRequest(map[string]any{
		"search": "jana",
	}))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "**contact_1** - Jana Nováková <jana@example.com>")
	assert.Equal(t, "jana", api.lastList.Search)
	assert.Empty(t, api.lastList.Filters)
}

func TestListSimple(t *testing.T) {
	api := &fakeAPI{listResult: &daktela.ListResult{
		Records: []daktela.Record{{"name": "queue_1", "title": "Support"}},
		Total:   1,
	}}
	s := testServer(t, api)

	handler := s.listSimple("queues", "queues")
	result, err := handler(context.Background(), callRequest(nil))
	require.NoError(t, err)

	text := resultText(t, result)
	assert.Contains(t, text, "Showing 1-1 of 1 queues:")
	assert.Contains(t, text, "**queue_1** - Support")

	assert.Equal(t, "queues", api.lastList.Endpoint)
	assert.Equal(t, defaultReferenceTake, api.lastList.Take)
	assert.True(t, api.lastList.Cacheable(), "reference listings stay cache-eligible")
}
