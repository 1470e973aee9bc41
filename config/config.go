package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// AppName keys the durable token storage and the user config directory.
const AppName = "finchctl"

// Config holds the client configuration
type Config struct {
	APIBaseURL       string        // Finch backend base URL
	RequestTimeout   time.Duration // Per-request HTTP timeout
	FreshnessWindow  time.Duration // Default query-cache freshness window
	OutboundRate     float64       // Outbound requests per second (0 disables limiting)
	LogLevel         string        // debug, info, warn, error
	TokenStoragePath string        // Overrides the default token file location
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	config := &Config{
		APIBaseURL:       getEnv("FINCH_API_URL", "http://localhost:8000"),
		RequestTimeout:   15 * time.Second,
		FreshnessWindow:  30 * time.Second,
		LogLevel:         getEnv("FINCH_LOG_LEVEL", "info"),
		TokenStoragePath: getEnv("FINCH_TOKEN_PATH", ""),
	}

	if timeoutStr := os.Getenv("FINCH_REQUEST_TIMEOUT"); timeoutStr != "" {
		duration, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid FINCH_REQUEST_TIMEOUT format: %w", err)
		}
		config.RequestTimeout = duration
	}

	if windowStr := os.Getenv("FINCH_FRESHNESS_WINDOW"); windowStr != "" {
		duration, err := time.ParseDuration(windowStr)
		if err != nil {
			return nil, fmt.Errorf("invalid FINCH_FRESHNESS_WINDOW format: %w", err)
		}
		config.FreshnessWindow = duration
	}

	if rateStr := os.Getenv("FINCH_OUTBOUND_RATE"); rateStr != "" {
		var rate float64
		if _, err := fmt.Sscanf(rateStr, "%f", &rate); err != nil || rate < 0 {
			return nil, fmt.Errorf("invalid FINCH_OUTBOUND_RATE value %q", rateStr)
		}
		config.OutboundRate = rate
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("FINCH_API_URL cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("FINCH_REQUEST_TIMEOUT must be positive")
	}

	if c.FreshnessWindow <= 0 {
		return fmt.Errorf("FINCH_FRESHNESS_WINDOW must be positive")
	}

	return nil
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
