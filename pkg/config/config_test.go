package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Scrape.TargetPerTopic != 50 {
		t.Errorf("Expected default target per topic to be 50, got %d", config.Scrape.TargetPerTopic)
	}

	if config.Scrape.MaxScrollAttempts != 60 {
		t.Errorf("Expected default max scroll attempts to be 60, got %d", config.Scrape.MaxScrollAttempts)
	}

	if config.Session.MaxAge != 7*24*time.Hour {
		t.Errorf("Expected default session max age to be 7 days, got %v", config.Session.MaxAge)
	}

	if config.Output.BaseDirectory != "./twitter_data" {
		t.Errorf("Expected default output directory to be ./twitter_data, got %s", config.Output.BaseDirectory)
	}

	if config.RateLimit.RateLimitBackoffMin != 30*time.Second || config.RateLimit.RateLimitBackoffMax != 60*time.Second {
		t.Errorf("Expected default backoff window [30s, 60s], got [%v, %v]",
			config.RateLimit.RateLimitBackoffMin, config.RateLimit.RateLimitBackoffMax)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("XTRACTOR_BASE_URL", "https://example.test")
	os.Setenv("XTRACTOR_TARGET_PER_TOPIC", "25")
	os.Setenv("XTRACTOR_OUTPUT_DIR", "/tmp/test-output")
	os.Setenv("XTRACTOR_HEADLESS", "true")
	os.Setenv("XTRACTOR_LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("XTRACTOR_BASE_URL")
		os.Unsetenv("XTRACTOR_TARGET_PER_TOPIC")
		os.Unsetenv("XTRACTOR_OUTPUT_DIR")
		os.Unsetenv("XTRACTOR_HEADLESS")
		os.Unsetenv("XTRACTOR_LOG_LEVEL")
	}()

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Browser.BaseURL != "https://example.test" {
		t.Errorf("Expected base URL to be https://example.test, got %s", config.Browser.BaseURL)
	}

	if config.Scrape.TargetPerTopic != 25 {
		t.Errorf("Expected target per topic to be 25, got %d", config.Scrape.TargetPerTopic)
	}

	if config.Output.BaseDirectory != "/tmp/test-output" {
		t.Errorf("Expected output directory to be /tmp/test-output, got %s", config.Output.BaseDirectory)
	}

	if !config.Browser.Headless {
		t.Error("Expected headless to be enabled")
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
browser:
  headless: true
  base_url: https://platform.test
scrape:
  target_per_topic: 10
  max_scroll_attempts: 20
output:
  base_directory: /tmp/from-file
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	if !config.Browser.Headless {
		t.Error("Expected headless to be true")
	}
	if config.Scrape.TargetPerTopic != 10 {
		t.Errorf("Expected target per topic 10, got %d", config.Scrape.TargetPerTopic)
	}
	if config.Scrape.MaxScrollAttempts != 20 {
		t.Errorf("Expected max scroll attempts 20, got %d", config.Scrape.MaxScrollAttempts)
	}
	if config.Output.BaseDirectory != "/tmp/from-file" {
		t.Errorf("Expected output directory /tmp/from-file, got %s", config.Output.BaseDirectory)
	}

	// Untouched sections keep defaults
	if config.Session.MaxAge != 7*24*time.Hour {
		t.Errorf("Expected session max age default to survive, got %v", config.Session.MaxAge)
	}
}

func TestValidate(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Errorf("Default config should be valid, got: %v", err)
	}

	config.Scrape.StagnantStopThreshold = config.Scrape.StagnantRecoverThreshold
	if err := config.Validate(); err == nil {
		t.Error("Expected validation error when stop threshold does not exceed recover threshold")
	}

	config = DefaultConfig()
	config.RateLimit.RateLimitBackoffMax = config.RateLimit.RateLimitBackoffMin - time.Second
	if err := config.Validate(); err == nil {
		t.Error("Expected validation error for inverted backoff window")
	}

	config = DefaultConfig()
	config.Logging.Level = "noisy"
	if err := config.Validate(); err == nil {
		t.Error("Expected validation error for unknown log level")
	}
}
