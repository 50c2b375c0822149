package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/daktela/daktela-mcp-server/internal/config"
	"github.com/daktela/daktela-mcp-server/internal/daktela"
)

// Per-request identity headers. Header names are matched case-insensitively
// by http.Header.
const (
	HeaderURL         = "X-Daktela-Url"
	HeaderUsername    = "X-Daktela-Username"
	HeaderPassword    = "X-Daktela-Password"
	HeaderAccessToken = "X-Daktela-Access-Token"
)

// ErrMissingCredentials reports that no source yielded a usable
// configuration. Terminal; surfaced as an authorization failure.
var ErrMissingCredentials = errors.New("missing Daktela credentials")

// Resolver assembles a validated connection from per-request headers, with
// the process environment as fallback. Username/password beats an access
// token when both are present in one source.
type Resolver struct {
	env config.DaktelaConfig
}

func NewResolver(env config.DaktelaConfig) *Resolver {
	return &Resolver{env: env}
}

// Resolve produces a connection. Headers (when supplied and carrying a
// non-empty destination) take precedence; otherwise the environment is
// consulted. The destination from either source passes through
// ValidateDestination before being accepted.
func (r *Resolver) Resolve(headers http.Header) (daktela.Connection, error) {
	if headers != nil {
		if conn, ok, err := fromHeaders(headers); ok {
			return conn, err
		}
	}
	return r.fromEnvironment()
}

// fromHeaders attempts to build a connection from identity headers. The
// second return is false when the headers do not carry a usable
// configuration at all, signalling fallback to the environment.
func fromHeaders(headers http.Header) (daktela.Connection, bool, error) {
	rawURL := headers.Get(HeaderURL)
	if rawURL == "" {
		return daktela.Connection{}, false, nil
	}

	username := headers.Get(HeaderUsername)
	password := headers.Get(HeaderPassword)
	token := headers.Get(HeaderAccessToken)

	switch {
	case username != "" && password != "":
		token = ""
	case token != "":
		username, password = "", ""
	default:
		// destination without credentials: fall back to environment
		return daktela.Connection{}, false, nil
	}

	if err := ValidateDestination(rawURL); err != nil {
		return daktela.Connection{}, true, err
	}

	conn, err := daktela.NewConnection(rawURL, username, password, token)
	if err != nil {
		return daktela.Connection{}, true, err
	}
	return conn, true, nil
}

func (r *Resolver) fromEnvironment() (daktela.Connection, error) {
	if r.env.URL == "" {
		return daktela.Connection{}, fmt.Errorf("%w: DAKTELA_URL environment variable is required", ErrMissingCredentials)
	}

	username, password, token := r.env.Username, r.env.Password, r.env.AccessToken
	switch {
	case username != "" && password != "":
		token = ""
	case token != "":
		username, password = "", ""
	default:
		return daktela.Connection{}, fmt.Errorf(
			"%w: either DAKTELA_USERNAME + DAKTELA_PASSWORD or DAKTELA_ACCESS_TOKEN environment variables are required",
			ErrMissingCredentials)
	}

	if err := ValidateDestination(r.env.URL); err != nil {
		return daktela.Connection{}, err
	}

	return daktela.NewConnection(r.env.URL, username, password, token)
}

type headerContextKey struct{}

// WithHeaders attaches inbound request headers to the context so tool
// handlers can resolve per-request identities.
func WithHeaders(ctx context.Context, headers http.Header) context.Context {
	return context.WithValue(ctx, headerContextKey{}, headers)
}

// HeadersFromContext returns headers stored by WithHeaders, nil when the
// request arrived through a transport without headers (stdio).
func HeadersFromContext(ctx context.Context) http.Header {
	headers, _ := ctx.Value(headerContextKey{}).(http.Header)
	return headers
}
