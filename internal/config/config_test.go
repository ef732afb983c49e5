// ABOUTME: Tests for configuration loading and validation
// ABOUTME: Covers YAML parsing, env expansion, defaults, and dev-secret detection

package config

import (
	"os"
	"path/filepath"
	"testing"
)

// writeConfigFile writes a temp config file and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfigFile(t, `
server:
  http_addr: "0.0.0.0:9100"
auth:
  session_secret: "a-real-session-secret"
  salesforce_secret: "a-real-salesforce-secret"
cors:
  allowed_origins:
    - "https://app.example.com"
logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:9100" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:9100")
	}
	if cfg.Auth.SessionSecret != "a-real-session-secret" {
		t.Errorf("SessionSecret = %q", cfg.Auth.SessionSecret)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://app.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if got := cfg.DevSecretsInUse(); len(got) != 0 {
		t.Errorf("DevSecretsInUse() = %v, want none", got)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_KOOP_SECRET", "secret-from-env")

	path := writeConfigFile(t, `
auth:
  session_secret: "${TEST_KOOP_SECRET}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.SessionSecret != "secret-from-env" {
		t.Errorf("SessionSecret = %q, want %q", cfg.Auth.SessionSecret, "secret-from-env")
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Unset env fallbacks so the insecure defaults apply.
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SALESFORCE_JWT_SECRET", "")

	path := writeConfigFile(t, `{}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "localhost:9000" {
		t.Errorf("HTTPAddr = %q, want default", cfg.Server.HTTPAddr)
	}
	if cfg.Auth.SessionSecret != DevSessionSecret {
		t.Errorf("SessionSecret = %q, want dev default", cfg.Auth.SessionSecret)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v, want info/text", cfg.Logging)
	}

	insecure := cfg.DevSecretsInUse()
	if len(insecure) != 2 {
		t.Errorf("DevSecretsInUse() = %v, want both secrets flagged", insecure)
	}
}

func TestLoad_EnvFallbackForSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-session-secret")
	t.Setenv("SALESFORCE_JWT_SECRET", "env-salesforce-secret")

	path := writeConfigFile(t, `{}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.SessionSecret != "env-session-secret" {
		t.Errorf("SessionSecret = %q, want env value", cfg.Auth.SessionSecret)
	}
	if cfg.Auth.SalesforceSecret != "env-salesforce-secret" {
		t.Errorf("SalesforceSecret = %q, want env value", cfg.Auth.SalesforceSecret)
	}
	if got := cfg.DevSecretsInUse(); len(got) != 0 {
		t.Errorf("DevSecretsInUse() = %v, want none", got)
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: "verbose"
`)

	if _, err := Load(path); err == nil {
		t.Error("Load() should reject an unknown log level")
	}
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  format: "xml"
`)

	if _, err := Load(path); err == nil {
		t.Error("Load() should reject an unknown log format")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-only-secret")
	t.Setenv("SALESFORCE_JWT_SECRET", "")

	cfg := FromEnv()

	if cfg.Auth.SessionSecret != "env-only-secret" {
		t.Errorf("SessionSecret = %q, want env value", cfg.Auth.SessionSecret)
	}
	if cfg.Auth.SalesforceSecret != DevSalesforceSecret {
		t.Errorf("SalesforceSecret = %q, want dev default", cfg.Auth.SalesforceSecret)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
