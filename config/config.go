// Package config has the configuration for the catalog pipelines.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	CacheDir       string
	OutputDir      string
	OutputFile     string // explicit output filename, empty for the dated default
	SynonymsFile   string // optional synonym reference CSV
	ForceRefresh   bool   // ignore cache freshness and always re-fetch
	AllowScrape    bool   // enable the paginated fallback for the food catalog
	MaxPages       int    // safety bound for the pagination fallback
	RequestTimeout time.Duration
	RetryCount     int
	StalenessDays  int // cache freshness window when no remote hint exists
	MetricsAddr    string
	LogDir         string
	LogLevel       string
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		CacheDir:       getEnvWithDefault("CACHE_DIR", "raw"),
		OutputDir:      getEnvWithDefault("OUTPUT_DIR", "output"),
		OutputFile:     os.Getenv("OUTPUT_FILE"),
		SynonymsFile:   os.Getenv("SYNONYMS_FILE"),
		ForceRefresh:   getBoolEnvWithDefault("FORCE_REFRESH", false),
		AllowScrape:    getBoolEnvWithDefault("ALLOW_SCRAPE", false),
		MaxPages:       getIntEnvWithDefault("MAX_PAGES", 500),
		RequestTimeout: time.Duration(getIntEnvWithDefault("REQUEST_TIMEOUT", 60)) * time.Second,
		RetryCount:     getIntEnvWithDefault("RETRY_COUNT", 1),
		StalenessDays:  getIntEnvWithDefault("STALENESS_DAYS", 7),
		MetricsAddr:    os.Getenv("METRICS_ADDR"),
		LogDir:         getEnvWithDefault("LOG_DIR", "logs"),
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if cfg.CacheDir == "" {
		return fmt.Errorf("invalid CACHE_DIR: cannot be empty")
	}
	if cfg.OutputDir == "" {
		return fmt.Errorf("invalid OUTPUT_DIR: cannot be empty")
	}
	if err := validateRange("MAX_PAGES", cfg.MaxPages, 1, 10000); err != nil {
		return err
	}
	if err := validateRange("RETRY_COUNT", cfg.RetryCount, 0, 10); err != nil {
		return err
	}
	if err := validateRange("STALENESS_DAYS", cfg.StalenessDays, 1, 365); err != nil {
		return err
	}
	if cfg.RequestTimeout < time.Second || cfg.RequestTimeout > 10*time.Minute {
		return fmt.Errorf("invalid REQUEST_TIMEOUT: must be between 1 and 600 seconds, got: %s", cfg.RequestTimeout)
	}
	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return nil
}

func validateRange(name string, value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("invalid %s: must be between %d and %d, got: %d", name, min, max, value)
	}
	return nil
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getBoolEnvWithDefault gets an environment variable as bool with a default value
func getBoolEnvWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetEnvVars returns a list of all recognized environment variables
func GetEnvVars() []string {
	return []string{
		"CACHE_DIR",
		"OUTPUT_DIR",
		"OUTPUT_FILE",
		"SYNONYMS_FILE",
		"FORCE_REFRESH",
		"ALLOW_SCRAPE",
		"MAX_PAGES",
		"REQUEST_TIMEOUT",
		"RETRY_COUNT",
		"STALENESS_DAYS",
		"METRICS_ADDR",
		"LOG_DIR",
		"LOG_LEVEL",
	}
}
