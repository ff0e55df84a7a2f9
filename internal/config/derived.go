// internal/config/derived.go
//
// Computed accessors.  They read the resolved record only and return fresh
// strings; nothing here touches the environment or mutates the record.

package config

import (
	"net"
	"strconv"
	"strings"
)

// Mode selects the database driver flavour for DatabaseURL.
type Mode int

const (
	Sync Mode = iota
	Async
)

func (m Mode) String() string {
	if m == Async {
		return "async"
	}
	return "sync"
}

// AsyncScheme replaces the scheme token of DATABASE_URL for Async callers.
const AsyncScheme = "postgresql+asyncpg"

// BrokerURL is CELERY_BROKER_URL, or REDIS_URL when that is unset or empty.
func (c *Config) BrokerURL() string {
	return c.Celery.BrokerURL.Or(c.Redis.URL)
}

// ResultBackendURL is CELERY_RESULT_BACKEND, or REDIS_URL when that is unset
// or empty.
func (c *Config) ResultBackendURL() string {
	return c.Celery.ResultBackend.Or(c.Redis.URL)
}

// DatabaseURL returns DATABASE_URL for mode.  Sync returns it unchanged.
// Async rewrites only the scheme token to AsyncScheme; credentials, host,
// port, path, and query are kept byte for byte.
func (c *Config) DatabaseURL(mode Mode) string {
	base := c.Database.URL
	if mode != Async {
		return base
	}
	_, rest, ok := strings.Cut(base, "://")
	if !ok {
		return base
	}
	return AsyncScheme + "://" + rest
}

// LogFields returns non-secret highlights for structured logging.
func (c *Config) LogFields() []any {
	return []any{
		"project", c.Project.Name,
		"version", c.Project.Version,
		"environment", c.Runtime.Environment,
		"debug", c.Runtime.Debug,
		"log_level", c.Runtime.LogLevel,
		"listen_addr", c.ListenAddr(),
		"database", redact(c.Database.URL, true),
		"cors_origins", c.CORS.Origins,
		"metrics", c.Monitoring.EnableMetrics,
		"rate_limit", c.RateLimit.Enabled,
		"use_s3", c.Storage.UseS3,
	}
}

// ListenAddr joins HTTP_HOST and HTTP_PORT.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Runtime.HTTPHost, strconv.Itoa(c.Runtime.HTTPPort))
}
