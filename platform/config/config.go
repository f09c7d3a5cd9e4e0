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

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// WhatsAppConfig provides settings for the gowa WhatsApp bridge.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDeviceID() string
}

// WebhookConfig provides settings for the inbound message webhook.
type WebhookConfig interface {
	GetWebhookAPIKey() string
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetPendingSweepInterval() time.Duration
}

// ChatConfig provides settings for the conversational core.
type ChatConfig interface {
	// GetPendingSelectionTTL bounds how long a numbered lead selection
	// prompt stays answerable.
	GetPendingSelectionTTL() time.Duration
	// GetPendingCitaTTL bounds appointment cancel/reschedule prompts.
	GetPendingCitaTTL() time.Duration
	// GetPendingQuestionTTL bounds vendor questions awaiting a human reply.
	GetPendingQuestionTTL() time.Duration
}

// =============================================================================
// Config
// =============================================================================

// Config holds all application configuration loaded from the environment.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	CORSAllowAll bool
	CORSOrigins  []string

	WhatsAppURL      string
	WhatsAppKey      string
	WhatsAppDeviceID string

	WebhookAPIKey string

	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueueName       string
	AsynqConcurrency     int
	PendingSweepInterval time.Duration

	PendingSelectionTTL time.Duration
	PendingCitaTTL      time.Duration
	PendingQuestionTTL  time.Duration
}

// Load reads configuration from the environment, with .env as a
// development convenience. Missing required values fail at startup,
// never at request time.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		CORSAllowAll: getBool("CORS_ALLOW_ALL", false),
		CORSOrigins:  getList("CORS_ORIGINS"),

		WhatsAppURL:      os.Getenv("WHATSAPP_URL"),
		WhatsAppKey:      os.Getenv("WHATSAPP_KEY"),
		WhatsAppDeviceID: os.Getenv("WHATSAPP_DEVICE_ID"),

		WebhookAPIKey: os.Getenv("WEBHOOK_API_KEY"),

		RedisURL:             os.Getenv("REDIS_URL"),
		RedisTLSInsecure:     getBool("REDIS_TLS_INSECURE", false),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:     getInt("ASYNQ_CONCURRENCY", 10),
		PendingSweepInterval: getDuration("PENDING_SWEEP_INTERVAL", time.Hour),

		PendingSelectionTTL: getDuration("PENDING_SELECTION_TTL", 30*time.Minute),
		PendingCitaTTL:      getDuration("PENDING_CITA_TTL", 30*time.Minute),
		PendingQuestionTTL:  getDuration("PENDING_QUESTION_TTL", 48*time.Hour),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Interface conformance accessors.

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

func (c *Config) GetWhatsAppURL() string      { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string      { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDeviceID() string { return c.WhatsAppDeviceID }

func (c *Config) GetWebhookAPIKey() string { return c.WebhookAPIKey }

func (c *Config) GetRedisURL() string                    { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool              { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string              { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int               { return c.AsynqConcurrency }
func (c *Config) GetPendingSweepInterval() time.Duration { return c.PendingSweepInterval }

func (c *Config) GetPendingSelectionTTL() time.Duration { return c.PendingSelectionTTL }
func (c *Config) GetPendingCitaTTL() time.Duration      { return c.PendingCitaTTL }
func (c *Config) GetPendingQuestionTTL() time.Duration  { return c.PendingQuestionTTL }
