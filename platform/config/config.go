// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
// All values are read once at process start; there is no hot-reload.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// TelephonyConfig provides settings for the outbound voice-AI provider.
type TelephonyConfig interface {
	GetTelephonyAPIURL() string
	GetTelephonyAPIKey() string
	GetTelephonyFromNumber() string
	GetTelephonyDefaultAgentID() string
}

// RedisConfig provides settings for the optional webhook dedup cache.
type RedisConfig interface {
	GetRedisURL() string
}

// AuditConfig provides settings for the periodic edge audit job.
type AuditConfig interface {
	GetEdgeAuditSchedule() string
	GetEdgeAuditRepair() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                     string
	HTTPAddr                string
	DatabaseURL             string
	JWTAccessSecret         string
	AccessTokenTTL          time.Duration
	CORSAllowAll            bool
	CORSOrigins             []string
	CORSAllowCreds          bool
	TelephonyAPIURL         string
	TelephonyAPIKey         string
	TelephonyFromNumber     string
	TelephonyDefaultAgentID string
	RedisURL                string
	EdgeAuditSchedule       string
	EdgeAuditRepair         bool
	WebhookDedupTTL         time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// AuthServiceConfig implementation
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// TelephonyConfig implementation
func (c *Config) GetTelephonyAPIURL() string         { return c.TelephonyAPIURL }
func (c *Config) GetTelephonyAPIKey() string         { return c.TelephonyAPIKey }
func (c *Config) GetTelephonyFromNumber() string     { return c.TelephonyFromNumber }
func (c *Config) GetTelephonyDefaultAgentID() string { return c.TelephonyDefaultAgentID }

// RedisConfig implementation
func (c *Config) GetRedisURL() string { return c.RedisURL }

// AuditConfig implementation
func (c *Config) GetEdgeAuditSchedule() string { return c.EdgeAuditSchedule }
func (c *Config) GetEdgeAuditRepair() bool     { return c.EdgeAuditRepair }

// GetWebhookDedupTTL returns how long processed delivery keys stay in the
// fast-path dedup cache.
func (c *Config) GetWebhookDedupTTL() time.Duration { return c.WebhookDedupTTL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                     getEnv("APP_ENV", "development"),
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		JWTAccessSecret:         getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:          mustDuration(getEnv("JWT_ACCESS_TTL", "15m")),
		CORSAllowAll:            corsAllowAll,
		CORSOrigins:             corsOrigins,
		CORSAllowCreds:          strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		TelephonyAPIURL:         getEnv("TELEPHONY_API_URL", "https://api.retellai.com"),
		TelephonyAPIKey:         getEnv("TELEPHONY_API_KEY", ""),
		TelephonyFromNumber:     getEnv("TELEPHONY_FROM_NUMBER", ""),
		TelephonyDefaultAgentID: getEnv("TELEPHONY_DEFAULT_AGENT_ID", ""),
		RedisURL:                getEnv("REDIS_URL", ""),
		EdgeAuditSchedule:       getEnv("EDGE_AUDIT_SCHEDULE", "@hourly"),
		EdgeAuditRepair:         strings.EqualFold(getEnv("EDGE_AUDIT_REPAIR", "false"), "true"),
		WebhookDedupTTL:         mustDuration(getEnv("WEBHOOK_DEDUP_TTL", "10m")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.TelephonyAPIKey == "" {
		return nil, fmt.Errorf("TELEPHONY_API_KEY is required")
	}
	if cfg.TelephonyFromNumber == "" {
		return nil, fmt.Errorf("TELEPHONY_FROM_NUMBER is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
