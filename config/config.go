// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port           string
	Address        string
	Env            string
	LogLevel       string
	RemoteBaseURL  string        // Authoritative content store base URL
	BundleDir      string        // Directory with the bundled fallback dataset
	CacheDir       string        // Directory for the file snapshot store
	RedisAddr      string        // Optional Redis snapshot store, file store when empty
	RedisPassword  string
	RedisDB        int
	IndexCacheTTL  time.Duration // Index snapshot freshness window
	FullCacheTTL   time.Duration // Full snapshot freshness window
	RefreshMinutes int           // Interval between background refresh cycles
	MaxRequestBody int64         // Maximum request body size in bytes
	MaxHeaderSize  int64         // Maximum header size in bytes
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnvWithDefault("PORT", "8000"),
		Address:        getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:            getEnvWithDefault("ENV", "dev"),
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
		RemoteBaseURL:  getEnvWithDefault("REMOTE_BASE_URL", "https://content.vademecum.oroya.dev/v1"),
		BundleDir:      getEnvWithDefault("BUNDLE_DIR", "bundle"),
		CacheDir:       getEnvWithDefault("CACHE_DIR", "cache"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getIntEnvWithDefault("REDIS_DB", 0),
		IndexCacheTTL:  getMinutesEnvWithDefault("INDEX_CACHE_TTL_MINUTES", 15),
		FullCacheTTL:   getMinutesEnvWithDefault("FULL_CACHE_TTL_MINUTES", 30),
		RefreshMinutes: getIntEnvWithDefault("REFRESH_MINUTES", 360),
		MaxRequestBody: getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576), // 1MB default
		MaxHeaderSize:  getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),  // 1MB default
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	// Validate PORT
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	// Validate ADDRESS
	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	// Validate ENV
	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	// Validate LOG_LEVEL
	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	// Validate REMOTE_BASE_URL
	if err := validateRemoteBaseURL(cfg.RemoteBaseURL); err != nil {
		return fmt.Errorf("invalid REMOTE_BASE_URL: %w", err)
	}

	// Validate cache TTLs
	if err := validateTTL(cfg.IndexCacheTTL, "INDEX_CACHE_TTL_MINUTES"); err != nil {
		return err
	}
	if err := validateTTL(cfg.FullCacheTTL, "FULL_CACHE_TTL_MINUTES"); err != nil {
		return err
	}

	// Validate REFRESH_MINUTES
	if err := validateRefreshMinutes(cfg.RefreshMinutes); err != nil {
		return fmt.Errorf("invalid REFRESH_MINUTES: %w", err)
	}

	// Validate MAX_REQUEST_BODY
	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	// Validate MAX_HEADER_SIZE
	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Check for privileged ports
	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	// Check for localhost/loopback addresses first
	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		// This is acceptable for development
		return nil
	}

	// Check if it's a valid IP address
	if ip := net.ParseIP(address); ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	// Check for private network ranges (10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16)
	ip := net.ParseIP(address)
	if ip != nil && !ip.IsLoopback() && !ip.IsPrivate() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateEnv validates the ENV environment variable
func validateEnv(env string) error {
	if env == "" {
		return fmt.Errorf("ENV cannot be empty")
	}

	validEnvs := []string{"dev", "staging", "prod", "test"}
	env = strings.ToLower(env)

	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}

	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
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

// validateRemoteBaseURL validates the REMOTE_BASE_URL environment variable
func validateRemoteBaseURL(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("REMOTE_BASE_URL cannot be empty")
	}

	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return fmt.Errorf("REMOTE_BASE_URL must start with http:// or https://, got: %s", baseURL)
	}

	return nil
}

// validateTTL validates a cache freshness window
func validateTTL(ttl time.Duration, configName string) error {
	if ttl <= 0 {
		return fmt.Errorf("invalid %s: must be positive, got: %s", configName, ttl)
	}

	if ttl > 24*time.Hour {
		return fmt.Errorf("invalid %s: too large (max 24h), got: %s", configName, ttl)
	}

	return nil
}

// validateRefreshMinutes validates the REFRESH_MINUTES environment variable
func validateRefreshMinutes(minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("REFRESH_MINUTES must be positive, got: %d", minutes)
	}

	if minutes < 5 {
		return fmt.Errorf("REFRESH_MINUTES is too small (min 5), got: %d", minutes)
	}

	return nil
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
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

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getMinutesEnvWithDefault gets an environment variable as a minute count
// with a default value, returned as a duration
func getMinutesEnvWithDefault(key string, defaultMinutes int) time.Duration {
	return time.Duration(getIntEnvWithDefault(key, defaultMinutes)) * time.Minute
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"REMOTE_BASE_URL",
		"BUNDLE_DIR",
		"CACHE_DIR",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"INDEX_CACHE_TTL_MINUTES",
		"FULL_CACHE_TTL_MINUTES",
		"REFRESH_MINUTES",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
	}
}

// ValidateAllEnvVars checks if all required environment variables are set
func ValidateAllEnvVars() error {
	requiredVars := []string{"PORT"} // Only PORT is truly required
	missingVars := []string{}

	for _, varName := range requiredVars {
		if os.Getenv(varName) == "" {
			missingVars = append(missingVars, varName)
		}
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}
