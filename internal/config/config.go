package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Daktela DaktelaConfig
	Cache   CacheConfig
	Server  ServerConfig
}

// DaktelaConfig carries the process-environment credential source. Header
// supplied credentials (HTTP mode) take precedence over these values.
type DaktelaConfig struct {
	URL         string `env:"DAKTELA_URL"`
	Username    string `env:"DAKTELA_USERNAME"`
	Password    string `env:"DAKTELA_PASSWORD"`
	AccessToken string `env:"DAKTELA_ACCESS_TOKEN"`
}

// CacheConfig specifies reference-data cache policy.
type CacheConfig struct {
	// Enabled holds the raw CACHE_ENABLED value. "false", "0" and "no"
	// (any case) disable the cache; any other value, including absence,
	// enables it.
	Enabled string `env:"CACHE_ENABLED"`

	// TTLSeconds is the lifetime of a cached reference-data page.
	TTLSeconds int `env:"CACHE_TTL_SECONDS, default=3600"`
}

type ServerConfig struct {
	Port                   int `env:"SERVER_PORT, default=8080"`
	ShutdownTimeoutSeconds int `env:"SERVER_SHUTDOWN_TIMEOUT_SECS, default=25"`

	OutgoingHTTPMaxIdleConns    int    `env:"SERVER_OUTGOING_MAX_IDLE_CONNS, default=100"`
	OutgoingHTTPMaxConnsPerHost int    `env:"SERVER_OUTGOING_MAX_CONNS_PER_HOST, default=20"`
	CORSOrigin                  string `env:"CORS_ORIGIN, default=*"`
}

func Load(ctx context.Context) (Config, error) {
	return load(ctx, nil) // load from OS environment
}

func load(ctx context.Context, lookup envconfig.Lookuper) (Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookup, // nil defaults to OS environment
	})
	if err != nil {
		return cfg, err
	}

	err = cfg.Cache.Validate()
	if err != nil {
		return cfg, fmt.Errorf("invalid cache configuration: %w", err)
	}

	return cfg, nil
}

// CacheEnabled applies the documented disable rule to the raw value.
func (c CacheConfig) CacheEnabled() bool {
	switch strings.ToLower(c.Enabled) {
	case "false", "0", "no":
		return false
	}
	return true
}

// TTL returns the configured entry lifetime as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Validate checks that the cache configuration is usable.
func (c *CacheConfig) Validate() error {
	if c.TTLSeconds <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive, got %d", c.TTLSeconds)
	}
	return nil
}

// ShutdownTimeout returns the graceful shutdown budget as a duration.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
