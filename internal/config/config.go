package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	TelegramToken  string
	DatabaseURL    string
	LogLevel       string
	LogFormat      string
	PrometheusPort string
	WebhookURL     string
	Port           string
	StatsTimezone  *time.Location
	BroadcastAt    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    getEnvOrDefault("DATABASE_URL", "smoke_bot.db"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "text"),
		PrometheusPort: getEnvOrDefault("PROMETHEUS_PORT", "9090"),
		Port:           getEnvOrDefault("PORT", "8080"),
		WebhookURL:     strings.TrimSpace(os.Getenv("WEBHOOK_URL")),
		BroadcastAt:    strings.TrimSpace(os.Getenv("BROADCAST_AT")),
	}

	// Required environment variables
	if cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN"); cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}

	loc, err := time.LoadLocation(getEnvOrDefault("STATS_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_TIMEZONE: %w", err)
	}
	cfg.StatsTimezone = loc

	if cfg.BroadcastAt != "" {
		if _, err := time.Parse("15:04", cfg.BroadcastAt); err != nil {
			return nil, fmt.Errorf("BROADCAST_AT must be HH:MM: %w", err)
		}
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
