package config

import (
	"os"
	"strconv"
	"time"
)

// Application settings
type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	Dashboard DashboardConfig
	Upstream  UpstreamConfig
}

// Server settings
type ServerConfig struct {
	Port string
}

// Dashboard engine settings
type DashboardConfig struct {
	CollapsedLimit int
	ExpandedLimit  int
	FetchWorkers   int
	SearchDebounce time.Duration
	RefreshTimeout time.Duration
	SessionTTL     time.Duration
	BatchEnabled   bool
}

// Upstream widget API settings
type UpstreamConfig struct {
	BaseURL            string
	APIKey             string
	RequestTimeout     time.Duration
	RateLimitPerSecond int
}

// Logging settings
type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Dashboard: DashboardConfig{
			CollapsedLimit: getIntEnv("WIDGET_COLLAPSED_LIMIT", 50),
			ExpandedLimit:  getIntEnv("WIDGET_EXPANDED_LIMIT", 200),
			FetchWorkers:   getIntEnv("FETCH_WORKERS", 4),
			SearchDebounce: getDurationEnv("SEARCH_DEBOUNCE", "300ms"),
			RefreshTimeout: getDurationEnv("REFRESH_TIMEOUT", "30s"),
			SessionTTL:     getDurationEnv("SESSION_TTL", "30m"),
			BatchEnabled:   getBoolEnv("BATCH_ENABLED", true),
		},
		Upstream: UpstreamConfig{
			BaseURL:            getEnv("WIDGET_API_URL", ""),
			APIKey:             getEnv("WIDGET_API_KEY", ""),
			RequestTimeout:     getDurationEnv("REQUEST_TIMEOUT", "30s"),
			RateLimitPerSecond: getIntEnv("RATE_LIMIT_PER_SECOND", 100),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
