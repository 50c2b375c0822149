package observe

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteTag(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		expected string
	}{
		{
			name:     "GET method with path",
			pattern:  "GET /health",
			expected: "/health",
		},
		{
			name:     "POST method with path",
			pattern:  "POST /mcp",
			expected: "/mcp",
		},
		{
			name:     "path without method",
			pattern:  "/mcp",
			expected: "/mcp",
		},
		{
			name:     "wildcard pattern keeps route",
			pattern:  "DELETE /sessions/{id}",
			expected: "/sessions/{id}",
		},
		{
			name:     "non-method prefix is kept whole",
			pattern:  "example.com/ping",
			expected: "example.com/ping",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, routeTag(tc.pattern))
		})
	}
}

func TestMuxDelegatesToWrappedHandler(t *testing.T) {
	mux := NewMux(http.NewServeMux())
	mux.Handle("GET /ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pong", rr.Body.String())
}
