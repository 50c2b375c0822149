package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 25, cfg.Server.ShutdownTimeoutSeconds)
	assert.Equal(t, "*", cfg.Server.CORSOrigin)
	assert.Equal(t, 3600, cfg.Cache.TTLSeconds)
	assert.True(t, cfg.Cache.CacheEnabled())
}

func TestLoad_DaktelaEnvironment(t *testing.T) {
	t.Setenv("DAKTELA_URL", "https://acme.daktela.com")
	t.Setenv("DAKTELA_USERNAME", "agent")
	t.Setenv("DAKTELA_PASSWORD", "secret")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	expected := DaktelaConfig{
		URL:      "https://acme.daktela.com",
		Username: "agent",
		Password: "secret",
	}
	assert.Equal(t, expected, cfg.Daktela)
}

func TestCacheEnabled_DisableValues(t *testing.T) {
	for _, value := range []string{"false", "FALSE", "No", "0"} {
		cfg := CacheConfig{Enabled: value}
		assert.False(t, cfg.CacheEnabled(), "value %q should disable", value)
	}
}

func TestCacheEnabled_AnythingElseEnables(t *testing.T) {
	for _, value := range []string{"", "true", "yes", "1", "banana"} {
		cfg := CacheConfig{Enabled: value}
		assert.True(t, cfg.CacheEnabled(), "value %q should enable", value)
	}
}

func TestCacheTTL_Override(t *testing.T) {
	t.Setenv("CACHE_TTL_SECONDS", "120")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL())
}

func TestCacheTTL_RejectsNonPositive(t *testing.T) {
	t.Setenv("CACHE_TTL_SECONDS", "0")

	_, err := Load(context.Background())
	assert.ErrorContains(t, err, "CACHE_TTL_SECONDS")
}
