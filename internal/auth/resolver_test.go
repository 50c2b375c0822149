package auth

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daktela/daktela-mcp-server/internal/config"
)

func envConfig() config.DaktelaConfig {
	return config.DaktelaConfig{
		URL:      "https://env.daktela.example.com",
		Username: "env-agent",
		Password: "env-secret",
	}
}

func TestResolver_EnvironmentFallback(t *testing.T) {
	resolver := NewResolver(envConfig())

	t.Run("nil headers resolve from environment", func(t *testing.T) {
		conn, err := resolver.Resolve(nil)
		require.NoError(t, err)
		assert.Equal(t, "https://env.daktela.example.com", conn.URL())
		assert.Equal(t, "env-agent", conn.Username())
	})

	t.Run("headers without URL fall back to environment", func(t *testing.T) {
		headers := http.Header{}
		headers.Set(HeaderUsername, "header-agent")
		headers.Set(HeaderPassword, "header-secret")

		conn, err := resolver.Resolve(headers)
		require.NoError(t, err)
		assert.Equal(t, "env-agent", conn.Username())
	})

	t.Run("header URL without credentials falls back to environment", func(t *testing.T) {
		headers := http.Header{}
		headers.Set(HeaderURL, "https://other.daktela.example.com")

		conn, err := resolver.Resolve(headers)
		require.NoError(t, err)
		assert.Equal(t, "https://env.daktela.example.com", conn.URL())
	})
}

func TestResolver_HeadersTakePrecedence(t *testing.T) {
	resolver := NewResolver(envConfig())

	headers := http.Header{}
	headers.Set(HeaderURL, "https://tenant.daktela.example.com")
	headers.Set(HeaderUsername, "tenant-agent")
	headers.Set(HeaderPassword, "tenant-secret")

	conn, err := resolver.Resolve(headers)
	require.NoError(t, err)
	assert.Equal(t, "https://tenant.daktela.example.com", conn.URL())
	assert.Equal(t, "tenant-agent", conn.Username())
}

func TestResolver_UsernamePasswordBeatsToken(t *testing.T) {
	t.Run("within headers", func(t *testing.T) {
		resolver := NewResolver(config.DaktelaConfig{})

		headers := http.Header{}
		headers.Set(HeaderURL, "https://tenant.daktela.example.com")
		headers.Set(HeaderUsername, "tenant-agent")
		headers.Set(HeaderPassword, "tenant-secret")
		headers.Set(HeaderAccessToken, "tenant-token")

		conn, err := resolver.Resolve(headers)
		require.NoError(t, err, "resolver chooses one mode before constructing")
		assert.Equal(t, "tenant-agent", conn.Username())
	})

	t.Run("within environment", func(t *testing.T) {
		resolver := NewResolver(config.DaktelaConfig{
			URL:         "https://env.daktela.example.com",
			Username:    "env-agent",
			Password:    "env-secret",
			AccessToken: "env-token",
		})

		conn, err := resolver.Resolve(nil)
		require.NoError(t, err)
		assert.Equal(t, "env-agent", conn.Username())
	})
}

func TestResolver_TokenMode(t *testing.T) {
	resolver := NewResolver(config.DaktelaConfig{
		URL:         "https://env.daktela.example.com",
		AccessToken: "env-token",
	})

	conn, err := resolver.Resolve(nil)
	require.NoError(t, err)
	assert.Empty(t, conn.Username())
	assert.Equal(t, "https://env.daktela.example.com|env-token", conn.Identity())
}

func TestResolver_MissingCredentials(t *testing.T) {
	t.Run("no URL anywhere", func(t *testing.T) {
		resolver := NewResolver(config.DaktelaConfig{})

		_, err := resolver.Resolve(nil)
		require.ErrorIs(t, err, ErrMissingCredentials)
		assert.Contains(t, err.Error(), "DAKTELA_URL")
	})

	t.Run("URL without credentials", func(t *testing.T) {
		resolver := NewResolver(config.DaktelaConfig{URL: "https://env.daktela.example.com"})

		_, err := resolver.Resolve(nil)
		require.ErrorIs(t, err, ErrMissingCredentials)
		assert.Contains(t, err.Error(), "DAKTELA_ACCESS_TOKEN")
	})
}

func TestResolver_RejectsInvalidDestination(t *testing.T) {
	resolver := NewResolver(config.DaktelaConfig{})

	headers := http.Header{}
	headers.Set(HeaderURL, "https://metadata.google.internal")
	headers.Set(HeaderAccessToken, "tok")

	_, err := resolver.Resolve(headers)

	var destErr *DestinationError
	require.ErrorAs(t, err, &destErr)
	assert.NotErrorIs(t, err, ErrMissingCredentials,
		"a rejected destination is a configuration error, not a fallback trigger")
}

func TestHeaderContext(t *testing.T) {
	headers := http.Header{}
	headers.Set(HeaderURL, "https://tenant.daktela.example.com")

	ctx := WithHeaders(context.Background(), headers)
	assert.Equal(t, headers, HeadersFromContext(ctx))

	assert.Nil(t, HeadersFromContext(context.Background()),
		"stdio requests carry no headers")
}
