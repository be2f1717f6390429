// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
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

// RedisConfig provides settings for the Redis connection shared by the
// task queue and the case reference store.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// QueueConfig provides settings for the asynq task queue.
type QueueConfig interface {
	RedisConfig
	GetQueueName() string
	GetQueueConcurrency() int
	GetQueueMaxRetry() int
}

// ReferenceStoreConfig provides settings for the case reference store.
type ReferenceStoreConfig interface {
	RedisConfig
	GetReferenceTTL() time.Duration
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketSubmissions() string
	GetMinioBucketAttachments() string
	IsMinIOEnabled() bool
}

// ZGWConfig provides settings for the Zaken and Documenten APIs.
type ZGWConfig interface {
	GetZakenAPIBaseURL() string
	GetDocumentenAPIBaseURL() string
	GetZGWClientID() string
	GetZGWClientSecret() string
	GetZGWRequestsPerSecond() float64
}

// ForwarderConfig provides settings for the forwarding orchestrator.
type ForwarderConfig interface {
	GetBranch() string
}

// SMTPConfig provides settings for operator alert e-mail.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetAlertFromAddress() string
	GetAlertToAddress() string
	IsAlertEmailEnabled() bool
}

// HTTPConfig provides settings for the ops HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSOrigins() []string
	GetOpsToken() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	RedisURL             string
	RedisTLSInsecure     bool
	QueueName            string
	QueueConcurrency     int
	QueueMaxRetry        int
	ReferenceTTL         time.Duration
	MinIOEndpoint        string
	MinIOAccessKey       string
	MinIOSecretKey       string
	MinIOUseSSL          bool
	MinioBucketSubmissions string
	MinioBucketAttachments string
	ZakenAPIBaseURL      string
	DocumentenAPIBaseURL string
	ZGWClientID          string
	ZGWClientSecret      string
	ZGWRequestsPerSecond float64
	Branch               string
	SMTPHost             string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	AlertFromAddress     string
	AlertToAddress       string
	AlertEmailEnabled    bool
	CORSOrigins          []string
	OpsToken             string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// QueueConfig implementation
func (c *Config) GetQueueName() string     { return c.QueueName }
func (c *Config) GetQueueConcurrency() int { return c.QueueConcurrency }
func (c *Config) GetQueueMaxRetry() int    { return c.QueueMaxRetry }

// ReferenceStoreConfig implementation
func (c *Config) GetReferenceTTL() time.Duration { return c.ReferenceTTL }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string          { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string         { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string         { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool              { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketSubmissions() string { return c.MinioBucketSubmissions }
func (c *Config) GetMinioBucketAttachments() string { return c.MinioBucketAttachments }
func (c *Config) IsMinIOEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}

// ZGWConfig implementation
func (c *Config) GetZakenAPIBaseURL() string       { return c.ZakenAPIBaseURL }
func (c *Config) GetDocumentenAPIBaseURL() string  { return c.DocumentenAPIBaseURL }
func (c *Config) GetZGWClientID() string           { return c.ZGWClientID }
func (c *Config) GetZGWClientSecret() string       { return c.ZGWClientSecret }
func (c *Config) GetZGWRequestsPerSecond() float64 { return c.ZGWRequestsPerSecond }

// ForwarderConfig implementation
func (c *Config) GetBranch() string { return c.Branch }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetAlertFromAddress() string { return c.AlertFromAddress }
func (c *Config) GetAlertToAddress() string   { return c.AlertToAddress }
func (c *Config) IsAlertEmailEnabled() bool   { return c.AlertEmailEnabled }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetOpsToken() string      { return c.OpsToken }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	// The ZGW client secret is normally mounted as a file by the secret
	// store; the plain env var is the local development fallback.
	zgwSecret := getEnv("ZGW_CLIENT_SECRET", "")
	if secretFile := getEnv("ZGW_CLIENT_SECRET_FILE", ""); secretFile != "" {
		data, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read ZGW_CLIENT_SECRET_FILE: %w", err)
		}
		zgwSecret = strings.TrimSpace(string(data))
	}

	smtpHost := getEnv("SMTP_HOST", "")
	alertTo := getEnv("ALERT_TO_ADDRESS", "")

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		QueueName:            getEnv("QUEUE_NAME", "zaakforward"),
		QueueConcurrency:     mustInt(getEnv("QUEUE_CONCURRENCY", "10")),
		QueueMaxRetry:        mustInt(getEnv("QUEUE_MAX_RETRY", "10")),
		ReferenceTTL:         mustDuration(getEnv("REFERENCE_TTL", "2160h")),
		MinIOEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:          strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketSubmissions: getEnv("MINIO_BUCKET_SUBMISSIONS", "submissions"),
		MinioBucketAttachments: getEnv("MINIO_BUCKET_ATTACHMENTS", "submission-attachments"),
		ZakenAPIBaseURL:      getEnv("ZAKEN_API_BASE_URL", ""),
		DocumentenAPIBaseURL: getEnv("DOCUMENTEN_API_BASE_URL", ""),
		ZGWClientID:          getEnv("ZGW_CLIENT_ID", ""),
		ZGWClientSecret:      zgwSecret,
		ZGWRequestsPerSecond: mustFloat(getEnv("ZGW_REQUESTS_PER_SECOND", "10")),
		Branch:               getEnv("BRANCH", "development"),
		SMTPHost:             smtpHost,
		SMTPPort:             mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		AlertFromAddress:     getEnv("ALERT_FROM_ADDRESS", ""),
		AlertToAddress:       alertTo,
		AlertEmailEnabled:    smtpHost != "" && alertTo != "",
		CORSOrigins:          splitCSV(getEnv("CORS_ORIGINS", "")),
		OpsToken:             getEnv("OPS_TOKEN", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.ZakenAPIBaseURL == "" || cfg.DocumentenAPIBaseURL == "" {
		return nil, fmt.Errorf("ZAKEN_API_BASE_URL and DOCUMENTEN_API_BASE_URL are required")
	}
	if cfg.ZGWClientID == "" || cfg.ZGWClientSecret == "" {
		return nil, fmt.Errorf("ZGW_CLIENT_ID and a ZGW client secret are required")
	}
	if cfg.ReferenceTTL <= 0 {
		return nil, fmt.Errorf("REFERENCE_TTL must be a positive duration")
	}
	if cfg.AlertEmailEnabled && cfg.AlertFromAddress == "" {
		return nil, fmt.Errorf("ALERT_FROM_ADDRESS is required when alert e-mail is enabled")
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

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
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
