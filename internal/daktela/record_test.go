package daktela

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRef(t *testing.T) {
	t.Run("bare identifier string", func(t *testing.T) {
		ref := ParseRef("queue_5")
		assert.Equal(t, Ref{ID: "queue_5"}, ref)
		assert.Equal(t, "queue_5", ref.Display())
	})

	t.Run("embedded object", func(t *testing.T) {
		ref := ParseRef(map[string]any{"name": "queue_5", "title": "Support line"})
		assert.Equal(t, Ref{ID: "queue_5", Title: "Support line"}, ref)
		assert.Equal(t, "Support line", ref.Display())
	})

	t.Run("object without title", func(t *testing.T) {
		ref := ParseRef(map[string]any{"name": "queue_5"})
		assert.Equal(t, "queue_5", ref.Display())
	})

	t.Run("unknown shapes are zero", func(t *testing.T) {
		assert.True(t, ParseRef(nil).IsZero())
		assert.True(t, ParseRef(42.0).IsZero())
		assert.True(t, ParseRef([]any{"a"}).IsZero())
	})
}

func TestRecord_Accessors(t *testing.T) {
	rec := Record{
		"name":  "ticket_1",
		"total": 12.0,
		"user":  map[string]any{"name": "agent", "title": "Agent Smith"},
	}

	assert.Equal(t, "ticket_1", rec.String("name"))
	assert.Equal(t, "", rec.String("total"), "non-string fields read as empty")
	assert.Equal(t, "", rec.String("missing"))
	assert.Equal(t, "Agent Smith", rec.Ref("user").Display())
}
