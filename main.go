package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/daktela/daktela-mcp-server/internal/auth"
	"github.com/daktela/daktela-mcp-server/internal/cache"
	"github.com/daktela/daktela-mcp-server/internal/config"
	"github.com/daktela/daktela-mcp-server/internal/daktela"
	"github.com/daktela/daktela-mcp-server/internal/tools"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	configureLogging()

	if err := rootCommand().Execute(); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "daktela-mcp",
		Short:        "Read-only MCP server for a Daktela contact-center instance",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(cmd.Context())
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "stdio",
		Short: "Serve the tool catalog over stdin/stdout (default)",
		Long: `Serve the tool catalog over stdin/stdout.

Credentials are taken from DAKTELA_URL plus either DAKTELA_USERNAME and
DAKTELA_PASSWORD or DAKTELA_ACCESS_TOKEN. The instance is contacted once at
startup to verify them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(cmd.Context())
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the tool catalog over streamable HTTP",
		Long: `Serve the tool catalog over streamable HTTP on SERVER_PORT.

Each request may carry its own identity via the X-Daktela-Url,
X-Daktela-Username, X-Daktela-Password and X-Daktela-Access-Token headers;
requests without headers fall back to the process environment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	})

	return root
}

// bootstrap loads configuration and assembles the tool catalog with its
// shared cache and credential resolver.
func bootstrap(ctx context.Context) (config.Config, *tools.Server, *cache.Reference[daktela.ListResult], error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(ctx)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("configuration load failed: %w", err)
	}

	refCache := cache.NewReference[daktela.ListResult](cfg.Cache.CacheEnabled(), cfg.Cache.TTL())
	resolver := auth.NewResolver(cfg.Daktela)

	toolServer := tools.New(tools.Config{
		Version:  version,
		Resolver: resolver,
		Cache:    refCache,
	})

	return cfg, toolServer, refCache, nil
}

func runStdio(ctx context.Context) error {
	logBuildInfo()

	cfg, toolServer, refCache, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	// stdio serves a single identity, so verify it up front rather than
	// failing on the first tool call.
	resolver := auth.NewResolver(cfg.Daktela)
	conn, err := resolver.Resolve(nil)
	if err != nil {
		return fmt.Errorf("environment credentials: %w", err)
	}

	client := daktela.NewClient(conn, refCache)
	if _, err := client.Get(ctx, "whoami", ""); err != nil {
		return fmt.Errorf("instance check failed: %w", err)
	}

	log.Info().Str("url", conn.URL()).Msg("serving tool catalog on stdio")

	return toolServer.ServeStdio()
}

func configureLogging() {
	// stderr only: in stdio mode stdout carries the protocol framing.
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)

	if os.Getenv("ENV") == "development" {
		log.Logger = log.
			Output(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.DebugLevel)
	}

	zerolog.DefaultContextLogger = &log.Logger
}

func logBuildInfo() {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	ev := log.Info().Str("version", version)
	for _, v := range buildInfo.Settings {
		if strings.HasPrefix(v.Key, "vcs.") ||
			strings.HasPrefix(v.Key, "GO") ||
			v.Key == "CGO_ENABLED" {
			ev = ev.Str(v.Key, v.Value)
		}
	}

	ev.Msg("build information")
}

func configureHTTPTransport(cfg config.ServerConfig) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	transport.MaxIdleConns = cfg.OutgoingHTTPMaxIdleConns
	transport.MaxConnsPerHost = cfg.OutgoingHTTPMaxConnsPerHost

	return transport
}
