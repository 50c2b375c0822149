package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/justinas/alice"
	"github.com/rs/zerolog/log"

	"github.com/daktela/daktela-mcp-server/internal/auth"
	"github.com/daktela/daktela-mcp-server/internal/cache"
	"github.com/daktela/daktela-mcp-server/internal/config"
	"github.com/daktela/daktela-mcp-server/internal/daktela"
	"github.com/daktela/daktela-mcp-server/internal/observe"
	"github.com/daktela/daktela-mcp-server/internal/server"
	"github.com/daktela/daktela-mcp-server/internal/tools"
)

func runServe(ctx context.Context) error {
	logBuildInfo()

	cfg, toolServer, refCache, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	http.DefaultTransport = configureHTTPTransport(cfg.Server)
	http.DefaultClient = &http.Client{
		Transport: http.DefaultTransport,
	}

	handler := configureServerRoutes(cfg, toolServer, refCache)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		MaxHeaderBytes:    20 << 10,         // 20 KB
		ReadHeaderTimeout: 20 * time.Second, // Prevent Slowloris attacks
	}

	hooks := &server.ShutdownHooks{}
	hooks.Add("reference cache", func() error {
		refCache.Clear()
		return nil
	})

	return server.Serve(srv, cfg.Server.ShutdownTimeout(), hooks)
}

func configureServerRoutes(cfg config.Config, toolServer *tools.Server, refCache *cache.Reference[daktela.ListResult]) http.Handler {
	// Each route is registered through the tracing mux so requests carry
	// route-tagged spans.
	mux := observe.NewMux(http.NewServeMux())

	// Tool payloads are small JSON-RPC bodies; anything larger is abuse.
	requestLimitBytes := int64(1 << 20) // 1 MB
	requestLimiter := maxRequestSize(requestLimitBytes)

	middleware := alice.New(requestLimiter, corsMiddleware(cfg.Server.CORSOrigin))

	mux.Handle("/mcp", middleware.Then(toolServer.HTTPHandler()))
	mux.Handle("GET /health", middleware.Then(handleHealth(auth.NewResolver(cfg.Daktela), refCache)))

	return mux
}

type healthResponse struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
	Instance      string `json:"instance,omitempty"`
	User          string `json:"user,omitempty"`
	Message       string `json:"message,omitempty"`
}

// handleHealth reports liveness, and reachability of the configured
// instance when the environment carries credentials. Per-request header
// identities are not consulted here.
func handleHealth(resolver *auth.Resolver, refCache *cache.Reference[daktela.ListResult]) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := resolver.Resolve(nil)
		if err != nil {
			writeJSON(w, http.StatusOK, healthResponse{
				Status:  "ok",
				Message: "Server running, but no credentials configured for health check.",
			})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		client := daktela.NewClient(conn, refCache)
		whoami, err := client.Get(ctx, "whoami", "")
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{
				Status:  "error",
				Message: "Cannot connect to Daktela instance: " + err.Error(),
			})
			return
		}
		if whoami == nil {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{
				Status:  "error",
				Message: "Cannot connect to Daktela instance: whoami returned no result.",
			})
			return
		}

		user := whoami.String("title")
		if user == "" {
			user = whoami.String("name")
		}
		if user == "" {
			user = "unknown"
		}

		writeJSON(w, http.StatusOK, healthResponse{
			Status:        "ok",
			Authenticated: true,
			Instance:      conn.URL(),
			User:          user,
		})
	})
}

// corsMiddleware adds the cross-origin headers to every response and
// answers preflight requests directly.
func corsMiddleware(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers",
				"Content-Type, Mcp-Session-Id, "+
					auth.HeaderURL+", "+auth.HeaderUsername+", "+auth.HeaderPassword+", "+auth.HeaderAccessToken)
			h.Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func maxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.MaxBytesHandler(next, limit)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// status is already written; nothing left but to log
		log.Info().Err(err).Msg("failed to write response")
	}
}
