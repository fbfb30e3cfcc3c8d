package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the scraper
type Config struct {
	// Browser automation settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Scroll/pagination settings
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Session persistence settings
	Session SessionConfig `yaml:"session" json:"session"`

	// Rate limiting and backoff configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BrowserConfig holds browser launch and navigation configuration
type BrowserConfig struct {
	Headless          bool          `yaml:"headless" json:"headless"`
	BaseURL           string        `yaml:"base_url" json:"base_url"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
}

// ScrapeConfig holds the pagination state machine parameters
type ScrapeConfig struct {
	TargetPerTopic           int   `yaml:"target_per_topic" json:"target_per_topic"`
	MaxScrollAttempts        int   `yaml:"max_scroll_attempts" json:"max_scroll_attempts"`
	StagnantRecoverThreshold int   `yaml:"stagnant_recover_threshold" json:"stagnant_recover_threshold"`
	StagnantStopThreshold    int   `yaml:"stagnant_stop_threshold" json:"stagnant_stop_threshold"`
	ChallengeCheckInterval   int   `yaml:"challenge_check_interval" json:"challenge_check_interval"`
	RandomSeed               int64 `yaml:"random_seed" json:"random_seed"`
}

// SessionConfig holds session persistence configuration
type SessionConfig struct {
	File   string        `yaml:"file" json:"file"`
	MaxAge time.Duration `yaml:"max_age" json:"max_age"`
}

// RateLimitConfig holds rate limiting and backoff configuration
type RateLimitConfig struct {
	NavigationsPerMinute int           `yaml:"navigations_per_minute" json:"navigations_per_minute"`
	RateLimitBackoffMin  time.Duration `yaml:"rate_limit_backoff_min" json:"rate_limit_backoff_min"`
	RateLimitBackoffMax  time.Duration `yaml:"rate_limit_backoff_max" json:"rate_limit_backoff_max"`
	MaxRetries           int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay           time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:          false,
			BaseURL:           "https://twitter.com",
			NavigationTimeout: 30 * time.Second,
		},
		Scrape: ScrapeConfig{
			TargetPerTopic:           50,
			MaxScrollAttempts:        60,
			StagnantRecoverThreshold: 3,
			StagnantStopThreshold:    5,
			ChallengeCheckInterval:   10,
			RandomSeed:               0, // 0 means time-seeded
		},
		Session: SessionConfig{
			File:   "twitter_session_config.json",
			MaxAge: 7 * 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			NavigationsPerMinute: 10,
			RateLimitBackoffMin:  30 * time.Second,
			RateLimitBackoffMax:  60 * time.Second,
			MaxRetries:           3,
			RetryDelay:           5 * time.Second,
		},
		Output: OutputConfig{
			BaseDirectory: "./twitter_data",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("XTRACTOR_BASE_URL"); baseURL != "" {
		c.Browser.BaseURL = baseURL
	}
	if headless := os.Getenv("XTRACTOR_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) == "true"
	}

	if target := os.Getenv("XTRACTOR_TARGET_PER_TOPIC"); target != "" {
		var val int
		fmt.Sscanf(target, "%d", &val)
		if val > 0 {
			c.Scrape.TargetPerTopic = val
		}
	}
	if attempts := os.Getenv("XTRACTOR_MAX_SCROLL_ATTEMPTS"); attempts != "" {
		var val int
		fmt.Sscanf(attempts, "%d", &val)
		if val > 0 {
			c.Scrape.MaxScrollAttempts = val
		}
	}

	if sessionFile := os.Getenv("XTRACTOR_SESSION_FILE"); sessionFile != "" {
		c.Session.File = sessionFile
	}

	if npm := os.Getenv("XTRACTOR_NAVIGATIONS_PER_MINUTE"); npm != "" {
		var val int
		fmt.Sscanf(npm, "%d", &val)
		if val > 0 {
			c.RateLimit.NavigationsPerMinute = val
		}
	}

	if outputDir := os.Getenv("XTRACTOR_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	if logLevel := os.Getenv("XTRACTOR_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".xtractor.yaml",
		".xtractor.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "xtractor", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "xtractor", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".xtractor.yaml"),
		filepath.Join(os.Getenv("HOME"), ".xtractor.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Browser.BaseURL == "" {
		errs = append(errs, errors.New("base URL is required"))
	}
	if c.Browser.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("navigation timeout must be positive"))
	}

	if c.Scrape.TargetPerTopic < 0 {
		errs = append(errs, errors.New("target per topic cannot be negative"))
	}
	if c.Scrape.MaxScrollAttempts <= 0 {
		errs = append(errs, errors.New("max scroll attempts must be positive"))
	}
	if c.Scrape.StagnantRecoverThreshold <= 0 {
		errs = append(errs, errors.New("stagnant recover threshold must be positive"))
	}
	if c.Scrape.StagnantStopThreshold <= c.Scrape.StagnantRecoverThreshold {
		errs = append(errs, errors.New("stagnant stop threshold must exceed recover threshold"))
	}
	if c.Scrape.ChallengeCheckInterval <= 0 {
		errs = append(errs, errors.New("challenge check interval must be positive"))
	}

	if c.Session.File == "" {
		errs = append(errs, errors.New("session file path is required"))
	}
	if c.Session.MaxAge <= 0 {
		errs = append(errs, errors.New("session max age must be positive"))
	}

	if c.RateLimit.NavigationsPerMinute <= 0 {
		errs = append(errs, errors.New("navigations per minute must be positive"))
	}
	if c.RateLimit.RateLimitBackoffMin <= 0 || c.RateLimit.RateLimitBackoffMax < c.RateLimit.RateLimitBackoffMin {
		errs = append(errs, errors.New("rate limit backoff window is invalid"))
	}
	if c.RateLimit.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if target, ok := flags["count"].(int); ok && target > 0 {
		c.Scrape.TargetPerTopic = target
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if seed, ok := flags["seed"].(int64); ok && seed != 0 {
		c.Scrape.RandomSeed = seed
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".xtractor.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
