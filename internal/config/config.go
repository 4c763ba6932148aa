// Package config provides configuration management for the events client.
// It handles loading configuration from environment variables with sensible
// defaults, an optional YAML file, and validates the result so the client
// starts safely.
//
// Precedence, lowest to highest: built-in defaults, the YAML file named by
// CONFIG_FILE, then environment variables.
//
// Environment Variables:
//
// API Settings:
//   - API_BASE_URL: Root of the REST API (default: http://localhost:5000/api)
//   - UPLOADS_PATH: Path segment for uploaded photos (default: uploads)
//   - PLACEHOLDER_IMAGE: Banner used for events without photos
//   - HTTP_TIMEOUT: Per-request timeout (default: 15s)
//   - RATE_LIMIT_RPS: Outgoing requests per second, 0 disables (default: 0)
//   - RATE_LIMIT_BURST: Burst size for the limiter (default: 5)
//   - CIRCUIT_BREAKER_ENABLED: Fail fast while the API is down (default: false)
//
// Session Storage:
//   - TOKEN_STORE: "memory", "file" or "redis" (default: file)
//   - TOKEN_FILE: Session file path (default: ~/.config/eventsctl/session.json)
//   - TOKEN_ENCRYPTION_KEY: Passphrase for encrypting the session at rest
//   - TOKEN_PROFILE: Profile name used as the redis key suffix (default: default)
//   - REDIS_ADDRESS: Redis server address (required for the redis store)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//
// Listing and Calendar:
//   - PAGE_LIMIT: Events per page (default: 10)
//   - SEARCH_DEBOUNCE: Delay before a search is sent (default: 500ms)
//   - TIMEZONE: IANA zone for day boundaries (default: Local)
//   - WEEK_START: "sunday" or "monday" (default: sunday)
//   - WATCH_SCHEDULE: Cron spec for eventsctl watch (default: @every 1m)
//
// Logging:
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Log to this file instead of stderr
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatalf("Failed to load configuration: %v", err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid configuration: %v", err)
//	}
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"events-client/internal/common/validation"
)

// Token store kinds
const (
	TokenStoreMemory = "memory"
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
)

// Config holds all configuration values for the events client. Field tags
// name the keys accepted in the YAML file.
type Config struct {
	// API settings
	APIBaseURL            string        `yaml:"api_base_url"`
	UploadsPath           string        `yaml:"uploads_path"`
	PlaceholderImage      string        `yaml:"placeholder_image"`
	HTTPTimeout           time.Duration `yaml:"http_timeout"`
	RateLimitRPS          float64       `yaml:"rate_limit_rps"`
	RateLimitBurst        int           `yaml:"rate_limit_burst"`
	CircuitBreakerEnabled bool          `yaml:"circuit_breaker_enabled"`

	// Session storage
	TokenStore         string `yaml:"token_store"`
	TokenFile          string `yaml:"token_file"`
	TokenEncryptionKey string `yaml:"token_encryption_key"`
	TokenProfile       string `yaml:"token_profile"`
	RedisAddress       string `yaml:"redis_address"`
	RedisPassword      string `yaml:"redis_password"`
	RedisDB            int    `yaml:"redis_db"`

	// Listing and calendar
	PageLimit      int           `yaml:"page_limit"`
	SearchDebounce time.Duration `yaml:"search_debounce"`
	Timezone       string        `yaml:"timezone"`
	WeekStart      string        `yaml:"week_start"`
	WatchSchedule  string        `yaml:"watch_schedule"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// ConfigFile is the YAML file that was applied, if any
	ConfigFile string `yaml:"-"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		APIBaseURL:     "http://localhost:5000/api",
		UploadsPath:    "uploads",
		HTTPTimeout:    15 * time.Second,
		RateLimitBurst: 5,
		TokenStore:     TokenStoreFile,
		TokenFile:      defaultTokenFile(),
		TokenProfile:   "default",
		PageLimit:      10,
		SearchDebounce: 500 * time.Millisecond,
		Timezone:       "Local",
		WeekStart:      "sunday",
		WatchSchedule:  "@every 1m",
		LogLevel:       "info",
	}
}

// Load builds a Config from defaults, the optional CONFIG_FILE and the
// environment. It does not validate; call Validate on the result.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.APIBaseURL = getEnv("API_BASE_URL", c.APIBaseURL)
	c.UploadsPath = getEnv("UPLOADS_PATH", c.UploadsPath)
	c.PlaceholderImage = getEnv("PLACEHOLDER_IMAGE", c.PlaceholderImage)
	c.HTTPTimeout = getDurationEnv("HTTP_TIMEOUT", c.HTTPTimeout)
	c.RateLimitRPS = getFloatEnv("RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = getIntEnv("RATE_LIMIT_BURST", c.RateLimitBurst)
	c.CircuitBreakerEnabled = getBoolEnv("CIRCUIT_BREAKER_ENABLED", c.CircuitBreakerEnabled)

	c.TokenStore = strings.ToLower(getEnv("TOKEN_STORE", c.TokenStore))
	c.TokenFile = getEnv("TOKEN_FILE", c.TokenFile)
	c.TokenEncryptionKey = getEnv("TOKEN_ENCRYPTION_KEY", c.TokenEncryptionKey)
	c.TokenProfile = getEnv("TOKEN_PROFILE", c.TokenProfile)
	c.RedisAddress = getEnv("REDIS_ADDRESS", c.RedisAddress)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getIntEnv("REDIS_DB", c.RedisDB)

	c.PageLimit = getIntEnv("PAGE_LIMIT", c.PageLimit)
	c.SearchDebounce = getDurationEnv("SEARCH_DEBOUNCE", c.SearchDebounce)
	c.Timezone = getEnv("TIMEZONE", c.Timezone)
	c.WeekStart = strings.ToLower(getEnv("WEEK_START", c.WeekStart))
	c.WatchSchedule = getEnv("WATCH_SCHEDULE", c.WatchSchedule)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
}

// Validate checks that the configuration is usable.
//
// This method checks:
//   - API_BASE_URL is an absolute http(s) URL
//   - the token store is known, and redis has an address
//   - page limit, timeout and redis db are in range
//   - timezone and week start resolve
//   - the watch schedule parses as cron
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL")
	}

	switch c.TokenStore {
	case TokenStoreMemory:
	case TokenStoreFile:
		if c.TokenFile == "" {
			return fmt.Errorf("TOKEN_FILE is required when TOKEN_STORE is file")
		}
	case TokenStoreRedis:
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS is required when TOKEN_STORE is redis")
		}
		if c.RedisDB < 0 || c.RedisDB > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
	default:
		return fmt.Errorf("TOKEN_STORE must be 'memory', 'file' or 'redis'")
	}

	if c.PageLimit < 1 {
		return fmt.Errorf("PAGE_LIMIT must be a positive number")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be a positive duration")
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE must not be negative")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE is not a known zone: %w", err)
	}
	if _, err := c.FirstWeekday(); err != nil {
		return err
	}
	if err := validation.Default().Var(c.WatchSchedule, "required,cron_schedule"); err != nil {
		return fmt.Errorf("WATCH_SCHEDULE must be a cron spec or descriptor such as '@every 1m'")
	}

	return nil
}

// Location resolves Timezone
func (c *Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// FirstWeekday resolves WeekStart
func (c *Config) FirstWeekday() (time.Weekday, error) {
	switch c.WeekStart {
	case "", "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	}
	return time.Sunday, fmt.Errorf("WEEK_START must be 'sunday' or 'monday'")
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".eventsctl-session.json")
	}
	return filepath.Join(dir, "eventsctl", "session.json")
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv retrieves a boolean environment variable value or returns a default value.
//
// This function accepts the representations strconv.ParseBool does:
//   - "true", "1", "t", "TRUE", "True" -> true
//   - "false", "0", "f", "FALSE", "False" -> false
//   - Any other value -> returns defaultValue
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getDurationEnv accepts Go durations ("750ms", "1m") or a bare number of seconds.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
