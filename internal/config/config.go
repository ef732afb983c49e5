// ABOUTME: Configuration loading and parsing for koop-auth-gateway
// ABOUTME: Supports YAML files with environment variable expansion and env-only fallback

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Development fallback secrets, matching the values this service has always
// shipped with. They exist so the gateway starts without any configuration
// during local development. NEVER deploy with these: the serve command logs
// a prominent warning whenever one is in use.
const (
	DevSessionSecret    = "test-secret-key"
	DevSalesforceSecret = "development-secret-key-256-bit-replace-in-production"
)

// Config represents the complete koop-auth-gateway configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	CORS    CORSConfig    `yaml:"cors"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// AuthConfig holds the two independent signing secrets
type AuthConfig struct {
	// SessionSecret signs and verifies session tokens and verifies
	// generic tokens.
	SessionSecret string `yaml:"session_secret"`
	// SalesforceSecret verifies Salesforce-originated tokens.
	SalesforceSecret string `yaml:"salesforce_secret"`
}

// CORSConfig holds cross-origin request configuration
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Absent fields fall back to environment variables and then to defaults.
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

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a configuration entirely from environment variables and
// defaults, for running without a config file.
func FromEnv() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills unset fields from environment variables and built-in
// defaults. Secrets resolve in order: config value, environment variable,
// insecure development default.
func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = envOr("PORT_ADDR", "localhost:9000")
	}
	if c.Auth.SessionSecret == "" {
		c.Auth.SessionSecret = envOr("JWT_SECRET", DevSessionSecret)
	}
	if c.Auth.SalesforceSecret == "" {
		c.Auth.SalesforceSecret = envOr("SALESFORCE_JWT_SECRET", DevSalesforceSecret)
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// DevSecretsInUse lists which secrets are still the insecure development
// defaults, for startup warnings.
func (c *Config) DevSecretsInUse() []string {
	var insecure []string
	if c.Auth.SessionSecret == DevSessionSecret {
		insecure = append(insecure, "session_secret")
	}
	if c.Auth.SalesforceSecret == DevSalesforceSecret {
		insecure = append(insecure, "salesforce_secret")
	}
	return insecure
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json (got %q)", c.Logging.Format)
	}

	return nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// envOr returns the environment variable value, or the default when unset.
func envOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
