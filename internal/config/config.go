// Package config provides configuration management.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"

	"rentaiagent/internal/logging"
)

// Environment names a deployment target of the backend.
type Environment string

const (
	EnvLocal Environment = "local"
	EnvDev   Environment = "dev"
	EnvTest  Environment = "test"
	EnvProd  Environment = "prod"
)

// Endpoint keys understood by URL.
const (
	EndpointRegister   = "register"
	EndpointLogin      = "login"
	EndpointContact    = "contact"
	EndpointEmail      = "email"
	EndpointEmailAlt   = "emailAlt"
	EndpointProducts   = "products"
	EndpointMyProducts = "myProducts"
	EndpointUsers      = "users"
	EndpointHealth     = "health"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Environment selects per-environment defaults
	Environment Environment `json:"environment" env:"RENTAI_ENV"`

	// Debug enables debug-only diagnostics
	Debug bool `json:"debug" env:"RENTAI_DEBUG"`

	// API contains backend connection settings
	API APIConfig `json:"api"`

	// Storage contains local storage settings
	Storage StorageConfig `json:"storage"`

	// Notifications contains email notification settings
	Notifications NotificationConfig `json:"notifications"`

	// Submission contains registration submission policy
	Submission SubmissionConfig `json:"submission"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// APIConfig describes the remote backend
type APIConfig struct {
	// BaseURL is prefixed to relative endpoints
	BaseURL string `json:"base_url" env:"RENTAI_API_BASE_URL"`

	// Endpoints maps endpoint keys to paths or absolute URLs
	Endpoints map[string]string `json:"endpoints"`

	// TimeoutSeconds bounds each request; zero disables the bound
	TimeoutSeconds int `json:"timeout_seconds" env:"RENTAI_API_TIMEOUT_SECONDS"`
}

// StorageConfig contains local storage settings
type StorageConfig struct {
	// Home is the directory holding session and outbox files
	Home string `json:"home" env:"RENTAI_HOME"`

	// Passphrase seals stored files when set
	Passphrase string `json:"-" env:"RENTAI_STORE_PASSPHRASE"`

	// OutboxLimit is how many recorded emails are kept
	OutboxLimit int `json:"outbox_limit"`
}

// NotificationConfig contains email notification settings
type NotificationConfig struct {
	// AdminEmail receives registration notifications
	AdminEmail string `json:"admin_email" env:"RENTAI_ADMIN_EMAIL"`

	// FromAddress is the sender address
	FromAddress string `json:"from_address"`

	// FromName is the sender display name
	FromName string `json:"from_name"`
}

// SubmissionConfig contains registration submission policy
type SubmissionConfig struct {
	// DegradeOnBackendFailure reports success through the notification
	// channel when the backend fails for reasons other than a duplicate email.
	DegradeOnBackendFailure bool `json:"degrade_on_backend_failure" env:"RENTAI_DEGRADE_ON_BACKEND_FAILURE"`
}

// DefaultEndpoints returns the backend endpoint table
func DefaultEndpoints() map[string]string {
	return map[string]string{
		EndpointRegister:   "/api/v1/register",
		EndpointLogin:      "/api/v1/auth/login",
		EndpointContact:    "/api/v1/contact",
		EndpointEmail:      "/api/v1/email/send",
		EndpointEmailAlt:   "/api/send-email",
		EndpointProducts:   "/api/v1/products/catalog",
		EndpointMyProducts: "/api/v1/my-products",
		EndpointUsers:      "/api/v1/users",
		EndpointHealth:     "/actuator/health",
	}
}

// Default returns a default configuration
func Default() *Config {
	return ForEnvironment(EnvDev)
}

// ForEnvironment returns the defaults for environment e
func ForEnvironment(e Environment) *Config {
	homeDir, _ := os.UserHomeDir()

	cfg := &Config{
		Version:     "1.0",
		Environment: e,
		Debug:       true,
		API: APIConfig{
			BaseURL:        "http://34.228.44.250",
			Endpoints:      DefaultEndpoints(),
			TimeoutSeconds: 30,
		},
		Storage: StorageConfig{
			Home:        filepath.Join(homeDir, ".rentai"),
			OutboxLimit: 10,
		},
		Notifications: NotificationConfig{
			AdminEmail:  "survetechnologies@gmail.com",
			FromAddress: "noreply@rentaiagent.ai",
			FromName:    "RentAIAgent.ai",
		},
		Submission: SubmissionConfig{
			DegradeOnBackendFailure: true,
		},
		Logging: logging.DefaultConfig(),
	}

	switch e {
	case EnvLocal:
		cfg.Logging.Level = "debug"
	case EnvTest:
		cfg.Logging.Level = "warn"
	case EnvProd:
		cfg.Debug = false
		cfg.Logging.Level = "error"
	default:
		cfg.Environment = EnvDev
		cfg.Logging.Level = "info"
	}
	return cfg
}

// DetectEnvironment maps a host name to an environment. Unknown hosts
// fall back to dev.
func DetectEnvironment(host string) Environment {
	host = strings.ToLower(host)
	switch {
	case host == "" || host == "localhost" || host == "127.0.0.1":
		return EnvLocal
	case strings.Contains(host, "dev.") || strings.Contains(host, "development"):
		return EnvDev
	case strings.Contains(host, "test.") || strings.Contains(host, "staging.") || strings.Contains(host, "qa."):
		return EnvTest
	default:
		return EnvDev
	}
}

// URL resolves an endpoint key against the base URL. Absolute endpoint
// values are returned unchanged.
func (c *Config) URL(key string) (string, error) {
	endpoint, ok := c.API.Endpoints[key]
	if !ok || endpoint == "" {
		return "", fmt.Errorf("endpoint key %q not found in configuration", key)
	}
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint, nil
	}
	return strings.TrimRight(c.API.BaseURL, "/") + endpoint, nil
}

// InsecureBaseURL reports whether the base URL uses plain HTTP against a
// non-loopback host.
func (c *Config) InsecureBaseURL() bool {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme != "http" {
		return false
	}
	host := u.Hostname()
	return host != "localhost" && host != "127.0.0.1"
}

// Load loads configuration from a file and applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, config); err != nil {
				return nil, err
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	if config.API.Endpoints == nil {
		config.API.Endpoints = DefaultEndpoints()
	}
	return config, nil
}

// ApplyEnv overlays RENTAI_* environment variables onto c.
func ApplyEnv(c *Config) error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
