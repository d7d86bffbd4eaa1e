// ABOUTME: Configuration loading and parsing for the familiar overlay client
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete client configuration
type Config struct {
	Gateway Gateway `yaml:"gateway"`
	Auth    Auth    `yaml:"auth"`
	Cache   Cache   `yaml:"cache"`
	Session Session `yaml:"session"`
	Logging Logging `yaml:"logging"`
}

// Gateway holds the backend connection settings
type Gateway struct {
	URL       string `yaml:"url"`
	Workspace string `yaml:"workspace"`
}

// Auth holds credential settings
type Auth struct {
	TokenPath string `yaml:"token_path"`
	// DevSecret, when set, lets the client mint its own token for a
	// local gateway sharing the secret. Never set in production.
	DevSecret string `yaml:"dev_secret"`
	DevUserID string `yaml:"dev_user_id"`
}

// Cache holds local cache settings
type Cache struct {
	Path string `yaml:"path"`
}

// Session holds session refresh timing
type Session struct {
	HistoryLimit int           `yaml:"history_limit"`
	RefreshDelay time.Duration `yaml:"-"`
	PollInterval time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	RefreshDelayRaw string `yaml:"refresh_delay"`
	PollIntervalRaw string `yaml:"poll_interval"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file exists:
// a local gateway and the standard cache location.
func Default() *Config {
	return &Config{
		Gateway: Gateway{URL: "http://localhost:8080"},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables become empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and
// valid. Returns an error describing the first validation failure.
func (c *Config) Validate() error {
	if c.Gateway.URL == "" {
		return fmt.Errorf("gateway.url is required")
	}
	if c.Session.HistoryLimit < 0 {
		return fmt.Errorf("session.history_limit must not be negative")
	}
	if c.Auth.DevSecret != "" && c.Auth.DevUserID == "" {
		return fmt.Errorf("auth.dev_user_id is required when auth.dev_secret is set")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Session.RefreshDelayRaw != "" {
		cfg.Session.RefreshDelay, err = time.ParseDuration(cfg.Session.RefreshDelayRaw)
		if err != nil {
			return fmt.Errorf("parsing refresh_delay %q: %w", cfg.Session.RefreshDelayRaw, err)
		}
	}

	if cfg.Session.PollIntervalRaw != "" {
		cfg.Session.PollInterval, err = time.ParseDuration(cfg.Session.PollIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing poll_interval %q: %w", cfg.Session.PollIntervalRaw, err)
		}
	}

	return nil
}
