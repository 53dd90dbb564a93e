package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pep299/trends-dashboard/internal/watchlist"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port string `json:"port"`
	Host string `json:"host"`

	// Bearer token for cache, archive and watchlist endpoints; empty leaves them open
	AdminToken string `json:"-"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"` // "json" or "console"

	// Google Trends settings
	TrendsBaseURL           string `json:"trends_base_url"`
	TrendsLanguage          string `json:"trends_language"`
	TrendsTZ                int    `json:"trends_tz"`
	TrendsTimeoutSeconds    int    `json:"trends_timeout_seconds"`
	TrendsRequestsPerMinute int    `json:"trends_requests_per_minute"`
	DropPartialRows         bool   `json:"drop_partial_rows"`

	// Cache settings
	CacheType     string `json:"cache_type"`     // "memory", "cloud-storage", "redis" or "none"
	CacheDuration int    `json:"cache_duration"` // in hours
	CacheBucket   string `json:"cache_bucket"`
	RedisURL      string `json:"-"` // may embed credentials

	// Sessions
	SessionTTLMinutes int `json:"session_ttl_minutes"`

	// Export archive
	ArchiveBucket string `json:"archive_bucket"`

	// Slack settings
	SlackBotToken string `json:"-"` // Don't expose in JSON
	SlackChannel  string `json:"slack_channel"`

	// Scheduled analyses
	Watchlists []watchlist.Watchlist `json:"watchlists"`
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		Port:                    getEnvOrDefault("PORT", "8080"),
		Host:                    getEnvOrDefault("HOST", "0.0.0.0"),
		AdminToken:              getEnvOrDefault("ADMIN_TOKEN", ""),
		LogLevel:                getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:               getEnvOrDefault("LOG_FORMAT", "json"),
		TrendsBaseURL:           getEnvOrDefault("TRENDS_BASE_URL", "https://trends.google.com"),
		TrendsLanguage:          getEnvOrDefault("TRENDS_LANGUAGE", "es-CL"),
		TrendsTZ:                getEnvOrDefaultInt("TRENDS_TZ", 360),
		TrendsTimeoutSeconds:    getEnvOrDefaultInt("TRENDS_TIMEOUT_SECONDS", 30),
		TrendsRequestsPerMinute: getEnvOrDefaultInt("TRENDS_REQUESTS_PER_MINUTE", 10),
		DropPartialRows:         getEnvOrDefaultBool("DROP_PARTIAL_ROWS", false),
		CacheType:               getEnvOrDefault("CACHE_TYPE", "memory"),
		CacheDuration:           getEnvOrDefaultInt("CACHE_DURATION_HOURS", 6),
		CacheBucket:             getEnvOrDefault("CACHE_BUCKET", "trends-dashboard-cache"),
		RedisURL:                getEnvOrDefault("REDIS_URL", ""),
		SessionTTLMinutes:       getEnvOrDefaultInt("SESSION_TTL_MINUTES", 60),
		ArchiveBucket:           getEnvOrDefault("ARCHIVE_BUCKET", ""),
		SlackBotToken:           getEnvOrDefault("SLACK_BOT_TOKEN", ""),
		SlackChannel:            getEnvOrDefault("SLACK_CHANNEL", "#trends"),
	}

	watchlists, err := parseWatchlists(os.Getenv("WATCHLISTS"))
	if err != nil {
		return config, err
	}
	config.Watchlists = watchlists

	return config, config.validate()
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// TrendsTimeout returns the provider request timeout
func (c *Config) TrendsTimeout() time.Duration {
	return time.Duration(c.TrendsTimeoutSeconds) * time.Second
}

// CacheTTL returns how long fetched tables stay cached
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheDuration) * time.Hour
}

// SessionTTL returns the idle expiry of dashboard sessions
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// SlackEnabled reports whether notifications can be sent
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != ""
}

// validate checks that configuration values are usable
func (c *Config) validate() error {
	switch c.CacheType {
	case "memory", "cloud-storage", "none":
	case "redis":
		if c.RedisURL == "" {
			return &ConfigError{Field: "REDIS_URL", Message: "Redis URL is required when CACHE_TYPE is redis"}
		}
	default:
		return &ConfigError{Field: "CACHE_TYPE", Message: fmt.Sprintf("unsupported cache type %q", c.CacheType)}
	}
	if c.CacheDuration <= 0 {
		return &ConfigError{Field: "CACHE_DURATION_HOURS", Message: "must be positive"}
	}
	if c.SessionTTLMinutes <= 0 {
		return &ConfigError{Field: "SESSION_TTL_MINUTES", Message: "must be positive"}
	}
	if c.TrendsTimeoutSeconds <= 0 {
		return &ConfigError{Field: "TRENDS_TIMEOUT_SECONDS", Message: "must be positive"}
	}
	if c.TrendsRequestsPerMinute < 0 {
		return &ConfigError{Field: "TRENDS_REQUESTS_PER_MINUTE", Message: "must not be negative"}
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return &ConfigError{Field: "LOG_FORMAT", Message: "must be json or console"}
	}
	if c.SlackBotToken != "" && !strings.HasPrefix(c.SlackBotToken, "xoxb-") {
		return &ConfigError{Field: "SLACK_BOT_TOKEN", Message: "Slack bot token must start with xoxb-"}
	}

	seen := make(map[string]bool, len(c.Watchlists))
	for i, w := range c.Watchlists {
		if w.Name == "" {
			return &ConfigError{Field: "WATCHLISTS", Message: fmt.Sprintf("watchlist %d has no name", i)}
		}
		if seen[w.Name] {
			return &ConfigError{Field: "WATCHLISTS", Message: fmt.Sprintf("duplicate watchlist %q", w.Name)}
		}
		seen[w.Name] = true
		if len(w.Keywords) == 0 {
			return &ConfigError{Field: "WATCHLISTS", Message: fmt.Sprintf("watchlist %q has no keywords", w.Name)}
		}
		if w.Enabled && w.Schedule == "" {
			return &ConfigError{Field: "WATCHLISTS", Message: fmt.Sprintf("watchlist %q is enabled but has no schedule", w.Name)}
		}
	}
	return nil
}

// parseWatchlists decodes the WATCHLISTS JSON array
func parseWatchlists(value string) ([]watchlist.Watchlist, error) {
	if strings.TrimSpace(value) == "" {
		return []watchlist.Watchlist{}, nil
	}
	var lists []watchlist.Watchlist
	if err := json.Unmarshal([]byte(value), &lists); err != nil {
		return nil, &ConfigError{Field: "WATCHLISTS", Message: "invalid JSON: " + err.Error()}
	}
	return lists, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default if not set
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvOrDefaultBool returns environment variable value as bool or default if not set
func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
