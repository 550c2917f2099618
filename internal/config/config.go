package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	PublicBaseURL      string
	CORSAllowedOrigins []string

	// PayMongo gateway.
	PayMongoSecretKey string
	PayMongoBaseURL   string

	// Shared secret behind the email action links. Required; there is no
	// fallback default.
	OrderActionSecret string

	// Admin API tokens.
	AdminJWTSecret string
	AdminTokenTTL  time.Duration

	IdempotencyTTL  time.Duration
	ActionRateMax   int64
	ActionRateEvery time.Duration

	NotifyEmailEnabled bool
	NotifyEmailFrom    string
	AdminEmail         string

	WorkerConcurrency int
}

// Load reads configuration from the environment, merged over an optional
// .env file. Missing required values fail the load.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             stringOr(k, "APP_ENV", "development"),
		Port:               stringOr(k, "PORT", "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		PublicBaseURL:      strings.TrimRight(strings.TrimSpace(k.String("PUBLIC_BASE_URL")), "/"),
		CORSAllowedOrigins: csvList(k.String("CORS_ALLOWED_ORIGINS")),
		PayMongoSecretKey:  strings.TrimSpace(k.String("PAYMONGO_SECRET_KEY")),
		PayMongoBaseURL:    stringOr(k, "PAYMONGO_BASE_URL", "https://api.paymongo.com/v1"),
		OrderActionSecret:  strings.TrimSpace(k.String("ORDER_ACTION_SECRET")),
		AdminJWTSecret:     strings.TrimSpace(k.String("ADMIN_JWT_SECRET")),
		AdminTokenTTL:      durationOr(k, "ADMIN_TOKEN_TTL", 12*time.Hour),
		IdempotencyTTL:     durationOr(k, "IDEMPOTENCY_TTL", 24*time.Hour),
		ActionRateMax:      int64Or(k, "ACTION_RATE_MAX", 30),
		ActionRateEvery:    durationOr(k, "ACTION_RATE_WINDOW", time.Minute),
		NotifyEmailEnabled: boolOr(k, "NOTIFY_EMAIL_ENABLED", true),
		NotifyEmailFrom:    stringOr(k, "NOTIFY_EMAIL_FROM", "no-reply@tindahan.ph"),
		AdminEmail:         strings.TrimSpace(k.String("ADMIN_EMAIL")),
		WorkerConcurrency:  int(int64Or(k, "WORKER_CONCURRENCY", 4)),
	}

	for _, required := range []struct{ key, value string }{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"REDIS_URL", cfg.RedisURL},
		{"ORDER_ACTION_SECRET", cfg.OrderActionSecret},
		{"ADMIN_JWT_SECRET", cfg.AdminJWTSecret},
	} {
		if required.value == "" {
			return nil, errors.New(required.key + " is required")
		}
	}

	return cfg, nil
}

// HTTPAddr returns the listen address, normalising a bare port to ":port".
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	switch {
	case port == "":
		return ":8080"
	case strings.HasPrefix(port, ":"):
		return port
	default:
		return ":" + port
	}
}

func stringOr(k *koanf.Koanf, key, fallback string) string {
	if v := strings.TrimSpace(k.String(key)); v != "" {
		return v
	}
	return fallback
}

func int64Or(k *koanf.Koanf, key string, fallback int64) int64 {
	if v := k.Int64(key); v > 0 {
		return v
	}
	return fallback
}

func durationOr(k *koanf.Koanf, key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(k.String(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func boolOr(k *koanf.Koanf, key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(k.String(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func csvList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
