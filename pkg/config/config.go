// Package config loads the server configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/menuguard/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Cache         CacheConfig
	Auth          AuthConfig
	RateLimit     RateLimitConfig
	RBAC          RBACConfig
	Audit         AuditConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig selects the SQL driver and pool sizing
type DatabaseConfig struct {
	Driver          string // "postgres" or "sqlite3"
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds the Redis connection used by the shared cache backend
type RedisConfig struct {
	URL      string
	PoolSize int
}

// CacheConfig holds menu/role cache settings
type CacheConfig struct {
	Backend string // "memory", "redis" or "none"
	TTL     time.Duration
	Size    int
}

// AuthConfig configures bearer token verification
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

// RateLimitConfig throttles API requests per principal. Distributed limits
// are shared through Redis when a Redis URL is configured.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
	Distributed       bool
}

// RBACConfig holds permission engine settings
type RBACConfig struct {
	// LegacyMenuNameFallback resolves menu codes through display names when
	// no row carries the code.
	LegacyMenuNameFallback bool
	RouteTablePath         string
	SeedOnStart            bool
}

// AuditConfig holds system log retention settings
type AuditConfig struct {
	RetentionDays  int
	PurgeSchedule  string
	WriteTimeout   time.Duration
	ArchiveBucket  string
	ArchivePrefix  string
	ArchiveRegion  string
	ArchiveEnabled bool
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Cache:         loadCacheConfig(),
		Auth:          loadAuthConfig(),
		RateLimit:     loadRateLimitConfig(),
		RBAC:          loadRBACConfig(),
		Audit:         loadAuditConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("MENUGUARD_HOST", "0.0.0.0"),
		Port:            getEnv("MENUGUARD_PORT", "8080"),
		ReadTimeout:     getEnvDuration("MENUGUARD_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("MENUGUARD_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("MENUGUARD_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("MENUGUARD_SHUTDOWN_TIMEOUT", 30*time.Second),
		AllowedOrigins:  getEnvList("MENUGUARD_ALLOWED_ORIGINS", nil),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          getEnv("MENUGUARD_DB_DRIVER", "postgres"),
		DSN:             getEnv("MENUGUARD_DB_DSN", ""),
		MaxOpenConns:    getEnvInt("MENUGUARD_DB_MAX_OPEN_CONNS", 20),
		MaxIdleConns:    getEnvInt("MENUGUARD_DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("MENUGUARD_DB_CONN_MAX_LIFETIME", 30*time.Minute),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:      getEnv("MENUGUARD_REDIS_URL", ""),
		PoolSize: getEnvInt("MENUGUARD_REDIS_POOL_SIZE", 10),
	}
}

func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Backend: strings.ToLower(getEnv("MENUGUARD_CACHE_BACKEND", "memory")),
		TTL:     getEnvDuration("MENUGUARD_CACHE_TTL", 10*time.Minute),
		Size:    getEnvInt("MENUGUARD_CACHE_SIZE", 1024),
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret: getEnv("MENUGUARD_JWT_SECRET", ""),
		JWTIssuer: getEnv("MENUGUARD_JWT_ISSUER", ""),
	}
}

func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           getEnvBool("MENUGUARD_RATE_LIMIT_ENABLED", true),
		RequestsPerWindow: getEnvInt("MENUGUARD_RATE_LIMIT_REQUESTS", 600),
		Window:            getEnvDuration("MENUGUARD_RATE_LIMIT_WINDOW", time.Minute),
		Burst:             getEnvInt("MENUGUARD_RATE_LIMIT_BURST", 50),
		Distributed:       getEnvBool("MENUGUARD_RATE_LIMIT_DISTRIBUTED", false),
	}
}

func loadRBACConfig() RBACConfig {
	return RBACConfig{
		LegacyMenuNameFallback: getEnvBool("MENUGUARD_LEGACY_MENU_NAME_FALLBACK", false),
		RouteTablePath:         getEnv("MENUGUARD_ROUTE_TABLE", ""),
		SeedOnStart:            getEnvBool("MENUGUARD_SEED_ON_START", true),
	}
}

func loadAuditConfig() AuditConfig {
	bucket := getEnv("MENUGUARD_AUDIT_ARCHIVE_BUCKET", "")
	return AuditConfig{
		RetentionDays:  getEnvInt("MENUGUARD_AUDIT_RETENTION_DAYS", 30),
		PurgeSchedule:  getEnv("MENUGUARD_AUDIT_PURGE_SCHEDULE", "0 3 * * *"),
		WriteTimeout:   getEnvDuration("MENUGUARD_AUDIT_WRITE_TIMEOUT", 5*time.Second),
		ArchiveBucket:  bucket,
		ArchivePrefix:  getEnv("MENUGUARD_AUDIT_ARCHIVE_PREFIX", "system-logs/"),
		ArchiveRegion:  getEnv("MENUGUARD_AUDIT_ARCHIVE_REGION", "us-east-1"),
		ArchiveEnabled: bucket != "",
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(getEnv("MENUGUARD_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("MENUGUARD_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("MENUGUARD_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("MENUGUARD_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("MENUGUARD_OTEL_SERVICE_NAME", "menuguard"),
		OTelServiceVersion: getEnv("MENUGUARD_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("MENUGUARD_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("invalid database driver: %s (must be postgres or sqlite3)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("redis URL is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("invalid cache backend: %s (must be memory, redis, or none)", c.Cache.Backend)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerWindow <= 0 || c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate limit requests and window must be positive")
		}
		if c.RateLimit.Distributed && c.Redis.URL == "" {
			return fmt.Errorf("redis URL is required for distributed rate limiting")
		}
	}

	if c.Audit.RetentionDays <= 0 {
		return fmt.Errorf("audit retention days must be positive")
	}
	if c.Audit.PurgeSchedule != "" {
		if _, err := cron.ParseStandard(c.Audit.PurgeSchedule); err != nil {
			return fmt.Errorf("invalid audit purge schedule %q: %w", c.Audit.PurgeSchedule, err)
		}
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty items
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
