// Package config loads application configuration from environment
// variables, with sensible defaults for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/coursedesk/coursedesk/pkg/adminstore"
	"github.com/coursedesk/coursedesk/pkg/identity"
	"github.com/coursedesk/coursedesk/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Redis         adminstore.RedisConfig
	Identity      IdentityConfig
	Session       SessionConfig
	Audit         AuditConfig
	Observability ObservabilityConfig
}

// IdentityConfig selects and configures the identity provider.
type IdentityConfig struct {
	// Provider is "oidc" in production, "static" for local development.
	Provider string
	OIDC     identity.OIDCConfig

	// StaticUsers is an "email:password,email:password" list for the
	// static provider. Never set in production.
	StaticUsers map[string]string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// SessionConfig holds admin session settings
type SessionConfig struct {
	// SecureCookie should only be false for plain-HTTP local dev.
	SecureCookie bool
	CookieTTL    time.Duration

	// VerificationCacheTTL enables the opt-in verification cache when
	// positive; zero keeps strict per-request re-verification.
	VerificationCacheTTL time.Duration
}

// AuditConfig holds audit log settings
type AuditConfig struct {
	// LogPath is the NDJSON audit file; empty disables audit logging.
	LogPath string
}

// ObservabilityConfig holds logging and metrics settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("COURSEDESK_HOST", "0.0.0.0"),
			Port:            getEnv("COURSEDESK_PORT", "8080"),
			ReadTimeout:     getEnvDuration("COURSEDESK_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("COURSEDESK_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("COURSEDESK_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("COURSEDESK_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("COURSEDESK_HEALTH_PORT", "9090"),
		},
		Redis: adminstore.RedisConfig{
			URL:        getEnv("COURSEDESK_REDIS_URL", "redis://localhost:6379"),
			Password:   getEnv("COURSEDESK_REDIS_PASSWORD", ""),
			DB:         getEnvInt("COURSEDESK_REDIS_DB", 0),
			MaxRetries: getEnvInt("COURSEDESK_REDIS_MAX_RETRIES", 0),
			PoolSize:   getEnvInt("COURSEDESK_REDIS_POOL_SIZE", 0),
		},
		Identity: IdentityConfig{
			Provider: getEnv("COURSEDESK_AUTH_PROVIDER", "oidc"),
			OIDC: identity.OIDCConfig{
				IssuerURL:    getEnv("COURSEDESK_OIDC_ISSUER_URL", ""),
				ClientID:     getEnv("COURSEDESK_OIDC_CLIENT_ID", ""),
				ClientSecret: getEnv("COURSEDESK_OIDC_CLIENT_SECRET", ""),
				Scopes:       splitList(getEnv("COURSEDESK_OIDC_SCOPES", "openid,email,profile")),
			},
			StaticUsers: parseUserList(getEnv("COURSEDESK_STATIC_USERS", "")),
		},
		Session: SessionConfig{
			SecureCookie:         getEnvBool("COURSEDESK_SECURE_COOKIE", true),
			CookieTTL:            getEnvDuration("COURSEDESK_COOKIE_TTL", 8*time.Hour),
			VerificationCacheTTL: getEnvDuration("COURSEDESK_VERIFICATION_CACHE_TTL", 0),
		},
		Audit: AuditConfig{
			LogPath: getEnv("COURSEDESK_AUDIT_LOG", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:       parseLogLevel(getEnv("COURSEDESK_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("COURSEDESK_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("redis URL is required")
	}

	switch c.Identity.Provider {
	case "oidc":
		if err := c.Identity.OIDC.Validate(); err != nil {
			return fmt.Errorf("oidc: %w", err)
		}
	case "static":
		if len(c.Identity.StaticUsers) == 0 {
			return fmt.Errorf("static provider requires COURSEDESK_STATIC_USERS")
		}
	default:
		return fmt.Errorf("invalid auth provider: %s (must be oidc or static)", c.Identity.Provider)
	}

	if c.Session.CookieTTL <= 0 {
		return fmt.Errorf("cookie TTL must be positive")
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// parseUserList parses "email:password,email:password" pairs
func parseUserList(value string) map[string]string {
	users := make(map[string]string)
	for _, entry := range splitList(value) {
		email, password, ok := strings.Cut(entry, ":")
		if ok && email != "" && password != "" {
			users[email] = password
		}
	}
	return users
}

// splitList splits a comma-separated env value into trimmed entries
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
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
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
