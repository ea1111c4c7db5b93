package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cleanupEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Address != "127.0.0.1" {
		t.Errorf("Expected default address 127.0.0.1, got %s", cfg.Address)
	}
	if cfg.RemoteBaseURL != "https://content.vademecum.oroya.dev/v1" {
		t.Errorf("Unexpected default remote base URL: %s", cfg.RemoteBaseURL)
	}
	if cfg.BundleDir != "bundle" {
		t.Errorf("Expected default bundle dir, got %s", cfg.BundleDir)
	}
	if cfg.IndexCacheTTL != 15*time.Minute {
		t.Errorf("Expected default index TTL 15m, got %s", cfg.IndexCacheTTL)
	}
	if cfg.FullCacheTTL != 30*time.Minute {
		t.Errorf("Expected default full TTL 30m, got %s", cfg.FullCacheTTL)
	}
	if cfg.RefreshMinutes != 360 {
		t.Errorf("Expected default refresh interval 360, got %d", cfg.RefreshMinutes)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("Expected no Redis address by default, got %s", cfg.RedisAddr)
	}
}

func TestLoadValidConfig(t *testing.T) {
	cleanupEnv()
	_ = os.Setenv("PORT", "8002")
	_ = os.Setenv("REMOTE_BASE_URL", "http://localhost:9000/v1")
	_ = os.Setenv("INDEX_CACHE_TTL_MINUTES", "5")
	_ = os.Setenv("FULL_CACHE_TTL_MINUTES", "60")
	_ = os.Setenv("REFRESH_MINUTES", "30")
	_ = os.Setenv("REDIS_ADDR", "localhost:6379")
	defer cleanupEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8002" {
		t.Errorf("Expected port 8002, got %s", cfg.Port)
	}
	if cfg.RemoteBaseURL != "http://localhost:9000/v1" {
		t.Errorf("Unexpected remote base URL: %s", cfg.RemoteBaseURL)
	}
	if cfg.IndexCacheTTL != 5*time.Minute {
		t.Errorf("Expected index TTL 5m, got %s", cfg.IndexCacheTTL)
	}
	if cfg.FullCacheTTL != time.Hour {
		t.Errorf("Expected full TTL 1h, got %s", cfg.FullCacheTTL)
	}
	if cfg.RefreshMinutes != 30 {
		t.Errorf("Expected refresh interval 30, got %d", cfg.RefreshMinutes)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("Expected Redis address, got %s", cfg.RedisAddr)
	}
}

func TestInvalidPort(t *testing.T) {
	testCases := []string{"abc", "0", "65536", "80"}

	for _, port := range testCases {
		cleanupEnv()
		_ = os.Setenv("PORT", port)

		if _, err := Load(); err == nil {
			t.Errorf("Expected error for port %s, got nil", port)
		}
	}
	cleanupEnv()
}

func TestInvalidRemoteBaseURL(t *testing.T) {
	testCases := []string{"content.example.org", "ftp://content.example.org"}

	for _, url := range testCases {
		cleanupEnv()
		_ = os.Setenv("REMOTE_BASE_URL", url)

		if _, err := Load(); err == nil {
			t.Errorf("Expected error for remote base URL %s, got nil", url)
		}
	}
	cleanupEnv()
}

func TestInvalidCacheTTL(t *testing.T) {
	testCases := []struct {
		name  string
		value string
	}{
		{"INDEX_CACHE_TTL_MINUTES", "-5"},
		{"INDEX_CACHE_TTL_MINUTES", "2000"},
		{"FULL_CACHE_TTL_MINUTES", "-1"},
	}

	for _, tc := range testCases {
		cleanupEnv()
		_ = os.Setenv(tc.name, tc.value)

		if _, err := Load(); err == nil {
			t.Errorf("Expected error for %s=%s, got nil", tc.name, tc.value)
		}
	}
	cleanupEnv()
}

func TestInvalidRefreshMinutes(t *testing.T) {
	testCases := []string{"-10", "0", "3"}

	for _, minutes := range testCases {
		cleanupEnv()
		_ = os.Setenv("REFRESH_MINUTES", minutes)

		if _, err := Load(); err == nil {
			t.Errorf("Expected error for REFRESH_MINUTES=%s, got nil", minutes)
		}
	}
	cleanupEnv()
}

func TestInvalidSizeLimits(t *testing.T) {
	cleanupEnv()
	_ = os.Setenv("MAX_REQUEST_BODY", "-1")
	if _, err := Load(); err == nil {
		t.Error("Expected error for negative MAX_REQUEST_BODY, got nil")
	}

	cleanupEnv()
	_ = os.Setenv("MAX_HEADER_SIZE", "209715200")
	if _, err := Load(); err == nil {
		t.Error("Expected error for oversized MAX_HEADER_SIZE, got nil")
	}
	cleanupEnv()
}

func cleanupEnv() {
	for _, name := range GetEnvVars() {
		_ = os.Unsetenv(name)
	}
}
