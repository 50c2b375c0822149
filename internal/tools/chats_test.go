package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daktela/daktela-mcp-server/internal/daktela"
)

func TestHandleListChats(t *testing.T) {
	api := &fakeAPI{listResult: &daktela.ListResult{
		Records: []daktela.Record{
			{
				"name":      "chat_1",
				"time":      "2026-08-30 11:20:00",
				"direction": "in",
				"title":     "Delivery question",
				"user":      map[string]any{"name": "agent", "title": "Agent Smith"},
			},
		},
		Total: 1,
	}}
	s := testServer(t, api)

	result, err := s.handleListChats(context.Background(), callRequest(map[string]any{
		"channel":   "WhatsApp",
		"direction": "in",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Showing 1-1 of 1 WhatsApp chats:")
	assert.Contains(t, text, "**chat_1** 2026-08-30 11:20:00 [in] - Delivery question")
	assert.Contains(t, text, "agent: Agent Smith")

	assert.Equal(t, "activitiesWap", api.lastList.Endpoint)
	assert.Equal(t, "time", api.lastList.Sort)
	assert.Contains(t, api.lastList.Filters, daktela.Filter{Field: "direction", Operator: "eq", Value: "in"})
}

func TestHandleListChats_WebchatDropsDirection(t *testing.T) {
	api := &fakeAPI{}
	s := testServer(t, api)

	_, err := s.handleListChats(context.Background(), callRequest(map[string]any{
		"channel":   "webchat",
		"direction": "in",
	}))
	require.NoError(t, err)

	assert.Equal(t, "activitiesWeb", api.lastList.Endpoint)
	assert.Empty(t, api.lastList.Filters, "web sessions carry no direction")
}

func TestHandleListChats_ChannelValidation(t *testing.T) {
	s := testServer(t, &fakeAPI{})

	t.Run("unknown channel", func(t *testing.T) {
		result, err := s.handleListChats(context.Background(), callRequest(map[string]any{"channel": "telegram"}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "Invalid parameter")
	})

	t.Run("missing channel", func(t *testing.T) {
		result, err := s.handleListChats(context.Background(), callRequest(nil))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "'channel' is required")
	})
}

func TestHandleCountChats(t *testing.T) {
	api := &fakeAPI{listResult: &daktela.ListResult{Records: []daktela.Record{{"name": "1"}}, Total: 31}}
	s := testServer(t, api)

	result, err := s.handleCountChats(context.Background(), callRequest(map[string]any{"channel": "sms"}))
	require.NoError(t, err)

	assert.Equal(t, "Total SMS chats: **31**", resultText(t, result))
	assert.Equal(t, "activitiesSms", api.lastList.Endpoint)
}

func TestHandleGetChat(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		api := &fakeAPI{getResult: daktela.Record{"name": "chat_9", "title": "Hello"}}
		s := testServer(t, api)

		result, err := s.handleGetChat(context.Background(), callRequest(map[string]any{
			"channel": "messenger",
			"name":    "chat_9",
		}))
		require.NoError(t, err)

		assert.Contains(t, resultText(t, result), "Name: chat_9")
		assert.Equal(t, "activitiesFbm", api.lastGetEndpoint)
		assert.Equal(t, "chat_9", api.lastGetName)
	})

	t.Run("absent", func(t *testing.T) {
		s := testServer(t, &fakeAPI{})

		result, err := s.handleGetChat(context.Background(), callRequest(map[string]any{
			"channel": "viber",
			"name":    "missing",
		}))
		require.NoError(t, err)
		assert.Equal(t, "Chat 'missing' not found.", resultText(t, result))
	})
}
