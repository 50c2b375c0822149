// Package testhelpers provides mock provider servers and response helpers
// shared across the test suites.
package testhelpers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

// MockDaktelaServer provides a configurable mock of the provider REST API
// for testing. It serves the login and refresh endpoints plus generic list
// and single-record reads, tracking the requests it receives.
type MockDaktelaServer struct {
	Server *httptest.Server

	AccessToken  string // Token returned from login/refresh
	RefreshToken string // Refresh token returned from login
	LoginStatus  int    // HTTP status for login (200 if not set)
	// EmptyLogin makes login return 200 with no token in the result.
	EmptyLogin    bool
	RefreshStatus int // HTTP status for refresh (200 if not set)

	Records    []map[string]any // Records returned from list reads
	Total      int              // Total count returned from list reads
	Record     map[string]any   // Record returned from single reads
	ReadStatus int              // HTTP status for reads (200 if not set)
	ErrorBody  string           // Raw body returned with a non-200 read status

	LoginCount   int // Login requests received
	RefreshCount int // Refresh requests received
	ReadCount    int // List and single-record requests received

	LastPath  string     // Path of the last read request
	LastQuery url.Values // Query of the last read request
	LastToken string     // accessToken query param of the last read request
}

// SetupMockDaktelaServer creates a mock provider API server. Returns a
// MockDaktelaServer with configurable response values and request tracking.
func SetupMockDaktelaServer(t *testing.T) *MockDaktelaServer {
	t.Helper()

	mock := &MockDaktelaServer{
		AccessToken:   "test-access-token",
		RefreshToken:  "test-refresh-token",
		LoginStatus:   http.StatusOK,
		RefreshStatus: http.StatusOK,
		ReadStatus:    http.StatusOK,
		Records:       []map[string]any{},
	}

	router := http.NewServeMux()

	router.HandleFunc("POST /api/v6/login.json", func(w http.ResponseWriter, r *http.Request) {
		mock.LoginCount++

		if mock.LoginStatus != http.StatusOK {
			w.WriteHeader(mock.LoginStatus)
			return
		}

		result := map[string]any{}
		if !mock.EmptyLogin {
			result["accessToken"] = mock.AccessToken
			result["refreshToken"] = mock.RefreshToken
		}
		WriteJSON(w, map[string]any{"result": result})
	})

	router.HandleFunc("PUT /api/v6/login.json", func(w http.ResponseWriter, r *http.Request) {
		mock.RefreshCount++

		if mock.RefreshStatus != http.StatusOK {
			w.WriteHeader(mock.RefreshStatus)
			return
		}

		WriteJSON(w, map[string]any{"result": map[string]any{
			"accessToken":  mock.AccessToken,
			"refreshToken": mock.RefreshToken,
		}})
	})

	router.HandleFunc("GET /api/v6/", func(w http.ResponseWriter, r *http.Request) {
		mock.ReadCount++
		mock.LastPath = r.URL.Path
		mock.LastQuery = r.URL.Query()
		mock.LastToken = r.URL.Query().Get("accessToken")

		if mock.ReadStatus != http.StatusOK {
			w.WriteHeader(mock.ReadStatus)
			if mock.ErrorBody != "" {
				_, _ = w.Write([]byte(mock.ErrorBody))
			}
			return
		}

		// Single reads address one record by name: /api/v6/{endpoint}/{name}.json.
		// The whoami endpoint is also a single read despite its bare path.
		rest := strings.TrimPrefix(r.URL.Path, "/api/v6/")
		if strings.Contains(rest, "/") || rest == "whoami.json" {
			WriteJSON(w, map[string]any{"result": mock.Record})
			return
		}

		total := mock.Total
		if total == 0 {
			total = len(mock.Records)
		}
		WriteJSON(w, map[string]any{"result": map[string]any{
			"data":  mock.Records,
			"total": total,
		}})
	})

	mock.Server = httptest.NewServer(router)
	t.Cleanup(mock.Server.Close)

	return mock
}

// URL returns the mock server's base URL.
func (m *MockDaktelaServer) URL() string {
	return m.Server.URL
}

// Close shuts down the mock server.
func (m *MockDaktelaServer) Close() {
	m.Server.Close()
}

// WriteJSON is a helper function that writes a JSON response.
// It sets the Content-Type header and marshals the payload to JSON.
func WriteJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(payload)
	if err != nil {
		// In test context, this should never happen with valid test data
		http.Error(w, fmt.Sprintf("failed to marshal JSON: %v", err), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(data)
}
