package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL = "http://localhost:8001"

	configDirName  = ".chatbridge"
	configFileName = "config.json"
)

// Environment variables that override file values.
const (
	EnvBaseURL    = "CHATBRIDGE_BASE_URL"
	EnvAPITimeout = "CHATBRIDGE_API_TIMEOUT"
	EnvLogLevel   = "CHATBRIDGE_LOG_LEVEL"
)

// Config represents the application configuration
type Config struct {
	BaseURL           string `json:"base_url"`
	APITimeoutSeconds int    `json:"api_timeout_seconds"` // 0 leaves the transport default
	LogLevel          string `json:"log_level"`
	LogFormat         string `json:"log_format"`
	LogFile           string `json:"log_file"`
}

// Default returns a configuration with default values
func Default() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		APITimeoutSeconds: 0,
		LogLevel:          "info",
		LogFormat:         "json",
		LogFile:           "",
	}
}

// Load loads configuration from the specified path.
// If the file doesn't exist, creates one with default values.
// Environment variables override file values.
func Load(configPath string) (Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return Config{}, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		cfg := Default()
		if err := Save(configPath, cfg); err != nil {
			return Config{}, fmt.Errorf("failed to create default config: %w", err)
		}
		return applyEnvironmentOverrides(cfg), nil
	}

	// Fields missing from older files keep their defaults.
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	return applyEnvironmentOverrides(cfg), nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the
// process environment. Variables that are already set keep their value and
// missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

func applyEnvironmentOverrides(cfg Config) Config {
	if baseURL := strings.TrimSpace(os.Getenv(EnvBaseURL)); baseURL != "" {
		cfg.BaseURL = baseURL
	}

	if timeoutStr := os.Getenv(EnvAPITimeout); timeoutStr != "" {
		if timeout, err := strconv.Atoi(timeoutStr); err == nil && timeout >= 0 {
			cfg.APITimeoutSeconds = timeout
		}
	}

	if logLevel := strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogLevel))); logLevel != "" {
		if isValidLogLevel(logLevel) {
			cfg.LogLevel = logLevel
		}
	}

	return cfg
}

// Save saves the configuration to the specified path
func Save(configPath string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must use http or https, got: %q", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url must include a host, got: %q", c.BaseURL)
	}

	if c.APITimeoutSeconds < 0 {
		return fmt.Errorf("api_timeout_seconds must not be negative, got: %d", c.APITimeoutSeconds)
	}

	if !isValidLogLevel(strings.ToLower(strings.TrimSpace(c.LogLevel))) {
		return fmt.Errorf("unsupported log_level: %s", c.LogLevel)
	}

	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "", "json", "text":
	default:
		return fmt.Errorf("unsupported log_format: %s", c.LogFormat)
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "", "trace", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(configDirName, configFileName)
	}
	return filepath.Join(homeDir, configDirName, configFileName)
}

// GetConfigDir returns the directory holding the config file and logs.
func GetConfigDir() string {
	return filepath.Dir(GetConfigPath())
}
