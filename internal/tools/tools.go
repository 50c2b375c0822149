// Package tools exposes the read-only Daktela query catalog to MCP clients
// over stdio or streamable HTTP. Every handler resolves credentials per
// request, so one process can serve multiple identities in HTTP mode.
package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/daktela/daktela-mcp-server/internal/auth"
	"github.com/daktela/daktela-mcp-server/internal/cache"
	"github.com/daktela/daktela-mcp-server/internal/daktela"
)

const (
	serverName = "Daktela"

	// maxTake caps one page of results; ticket pages are heavier and capped
	// lower.
	maxTake       = 250
	maxTicketTake = 100
)

// Server wires the tool catalog to a credential resolver and the shared
// reference-data cache.
type Server struct {
	mcp      *server.MCPServer
	resolver *auth.Resolver
	cache    *cache.Reference[daktela.ListResult]

	// newClient builds the per-request gateway; replaced in tests.
	newClient func(conn daktela.Connection) daktela.API
}

type Config struct {
	Version  string
	Resolver *auth.Resolver
	Cache    *cache.Reference[daktela.ListResult]
}

func New(cfg Config) *Server {
	s := &Server{
		resolver: cfg.Resolver,
		cache:    cfg.Cache,
	}
	s.newClient = func(conn daktela.Connection) daktela.API {
		return daktela.NewClient(conn, s.cache)
	}

	s.mcp = server.NewMCPServer(serverName, cfg.Version)
	s.registerTickets()
	s.registerActivities()
	s.registerCalls()
	s.registerEmails()
	s.registerChats()
	s.registerContacts()
	s.registerAccounts()
	s.registerCampaigns()
	s.registerCRM()
	s.registerArticles()
	s.registerReferenceData()

	return s
}

// ServeStdio serves the catalog over stdin/stdout. Blocks until the client
// disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// HTTPHandler returns the streamable HTTP transport. Inbound request
// headers are attached to the tool context so handlers can resolve
// per-request identities.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp,
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return auth.WithHeaders(ctx, r.Header)
		}),
	)
}

// clientFor resolves the request's identity and builds a fresh gateway for
// it. A non-nil result is the error response to return to the MCP client.
func (s *Server) clientFor(ctx context.Context) (daktela.API, *mcp.CallToolResult) {
	conn, err := s.resolver.Resolve(auth.HeadersFromContext(ctx))
	if err != nil {
		log.Info().Err(err).Msg("credential resolution failed")
		if errors.Is(err, auth.ErrMissingCredentials) {
			return nil, errorResponse("Unauthorized: " + err.Error())
		}
		return nil, errorResponse("Configuration error: " + err.Error())
	}
	return s.newClient(conn), nil
}

func errorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

func textResponse(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// apiErrorResponse renders a gateway failure, attaching the status-keyed
// hint when one exists.
func apiErrorResponse(err error) *mcp.CallToolResult {
	var apiErr *daktela.APIError
	if errors.As(err, &apiErr) {
		message := fmt.Sprintf("API error: %s [endpoint: %s]", apiErr.Message, apiErr.Endpoint)
		if apiErr.Status != 0 {
			message = fmt.Sprintf("API error (HTTP %d): %s [endpoint: %s]", apiErr.Status, apiErr.Message, apiErr.Endpoint)
		}
		if hint := apiErr.Hint(); hint != "" {
			message += "\nHint: " + hint
		}
		return errorResponse(message)
	}
	return errorResponse(fmt.Sprintf("Request failed: %v", err))
}

func invalidParameter(message string) *mcp.CallToolResult {
	return errorResponse("Invalid parameter: " + message)
}

// Common schema fragments for the generated tool input schemas.

func paginationProperties(defaultTake int) map[string]any {
	return map[string]any{
		"skip": map[string]any{
			"type":        "number",
			"description": "Number of records to skip for pagination (default: 0).",
		},
		"take": map[string]any{
			"type":        "number",
			"description": fmt.Sprintf("Number of records to return (default: %d).", defaultTake),
		},
	}
}

func stringProperty(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": description,
	}
}

func objectSchema(properties map[string]any, required ...string) mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func merged(base map[string]any, extra map[string]any) map[string]any {
	combined := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		combined[k] = v
	}
	for k, v := range extra {
		combined[k] = v
	}
	return combined
}
