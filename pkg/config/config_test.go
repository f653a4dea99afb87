package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/menuguard/pkg/observability"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("MENUGUARD_DB_DSN", "postgres://localhost/menuguard?sslmode=disable")
	t.Setenv("MENUGUARD_JWT_SECRET", "secret")
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "custom")
	t.Setenv("TEST_BOOL", "1")
	t.Setenv("TEST_INT", "not-a-number")
	t.Setenv("TEST_DUR", "90s")
	t.Setenv("TEST_LIST", "a, b,,c")

	assert.Equal(t, "custom", getEnv("TEST_STR", "default"))
	assert.Equal(t, "default", getEnv("TEST_STR_UNSET", "default"))
	assert.True(t, getEnvBool("TEST_BOOL", false))
	assert.Equal(t, 7, getEnvInt("TEST_INT", 7))
	assert.Equal(t, 90*time.Second, getEnvDuration("TEST_DUR", time.Second))
	assert.Equal(t, []string{"a", "b", "c"}, getEnvList("TEST_LIST", nil))
	assert.Nil(t, getEnvList("TEST_LIST_UNSET", nil))
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.RBAC.LegacyMenuNameFallback)
	assert.True(t, cfg.RBAC.SeedOnStart)
	assert.Equal(t, 30, cfg.Audit.RetentionDays)
	assert.Equal(t, "0 3 * * *", cfg.Audit.PurgeSchedule)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 600, cfg.RateLimit.RequestsPerWindow)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.False(t, cfg.RateLimit.Distributed)
	assert.False(t, cfg.Audit.ArchiveEnabled)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MENUGUARD_DB_DRIVER", "sqlite3")
	t.Setenv("MENUGUARD_CACHE_BACKEND", "REDIS")
	t.Setenv("MENUGUARD_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("MENUGUARD_LEGACY_MENU_NAME_FALLBACK", "true")
	t.Setenv("MENUGUARD_AUDIT_ARCHIVE_BUCKET", "logs")
	t.Setenv("MENUGUARD_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.True(t, cfg.RBAC.LegacyMenuNameFallback)
	assert.True(t, cfg.Audit.ArchiveEnabled)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			Database: DatabaseConfig{Driver: "postgres", DSN: "dsn"},
			Cache:    CacheConfig{Backend: "memory"},
			Auth:     AuthConfig{JWTSecret: "s"},
			Audit:    AuditConfig{RetentionDays: 30, PurgeSchedule: "0 3 * * *"},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"missing port", func(c *Config) { c.Server.Port = "" }, "server port"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "invalid database driver"},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }, "DSN"},
		{"redis without url", func(c *Config) { c.Cache.Backend = "redis" }, "redis URL"},
		{"bad cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, "invalid cache backend"},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "JWT secret"},
		{"rate limit without window", func(c *Config) {
			c.RateLimit = RateLimitConfig{Enabled: true, RequestsPerWindow: 10}
		}, "rate limit"},
		{"distributed rate limit without redis", func(c *Config) {
			c.RateLimit = RateLimitConfig{Enabled: true, RequestsPerWindow: 10, Window: time.Minute, Distributed: true}
		}, "distributed rate limiting"},
		{"bad retention", func(c *Config) { c.Audit.RetentionDays = 0 }, "retention"},
		{"bad schedule", func(c *Config) { c.Audit.PurgeSchedule = "every day" }, "purge schedule"},
		{"otel without endpoint", func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelServiceName = "svc"
		}, "endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
