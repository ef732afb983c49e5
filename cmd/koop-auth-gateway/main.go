// ABOUTME: Entry point for the koop-auth-gateway token exchange server
// ABOUTME: Provides serve, init, token, inspect, and health subcommands

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/koopjs/koop-auth-gateway/internal/auth"
	"github.com/koopjs/koop-auth-gateway/internal/config"
	"github.com/koopjs/koop-auth-gateway/internal/gateway"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _                                     _   _
| | _____   ___  _ __         __ _ _  _| |_| |__
| |/ / _ \ / _ \| '_ \ _____ / _' | | | | __| '_ \
|   < (_) | (_) | |_) |_____| (_| | |_| | |_| | | |
|_|\_\___/ \___/| .__/       \__,_|\__,_|\__|_| |_|
                |_|
`

// getConfigPath returns the path to the gateway config file.
// Priority: KOOP_AUTH_CONFIG env var > ./gateway.yaml > ~/.config/koop-auth-gateway/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("KOOP_AUTH_CONFIG"); envPath != "" {
		return envPath
	}

	if _, err := os.Stat("gateway.yaml"); err == nil {
		return "gateway.yaml"
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "koop-auth-gateway", "gateway.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: koop-auth-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve            Start the auth gateway server")
		fmt.Println("  init             Create a config file with fresh random secrets")
		fmt.Println("  token            Mint a development test token")
		fmt.Println("  inspect TOKEN    Classify and verify a token locally")
		fmt.Println("  health           Check gateway health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "token":
		err = runToken()
	case "inspect":
		err = runInspect()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file when one exists and falls back to
// environment-only configuration otherwise.
func loadConfig() (*config.Config, string, error) {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config.FromEnv(), "(environment)", nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, configPath, fmt.Errorf("loading config: %w", err)
	}
	return cfg, configPath, nil
}

func runServe(ctx context.Context) error {
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	gray.Printf("    version: %s\n\n", version)

	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)

	green.Print("    ▶ ")
	fmt.Printf("Config: %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:   %s\n", cfg.Server.HTTPAddr)

	if insecure := cfg.DevSecretsInUse(); len(insecure) > 0 {
		yellow.Print("    ▶ ")
		yellow.Printf("INSECURE development secrets in use: %s\n", strings.Join(insecure, ", "))
		logger.Warn("insecure development secrets in use, do not deploy like this",
			"secrets", strings.Join(insecure, ", "),
		)
	}

	fmt.Println()

	logger.Info("starting koop-auth-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	return gateway.New(cfg, logger, version).Run(ctx)
}

// runInit writes a starter config file with freshly generated secrets.
func runInit() error {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists: %s", configPath)
	}

	sessionSecret, err := generateSecret()
	if err != nil {
		return err
	}
	salesforceSecret, err := generateSecret()
	if err != nil {
		return err
	}

	configContent := fmt.Sprintf(`# koop-auth-gateway configuration
# Generated by koop-auth-gateway init

server:
  http_addr: "localhost:9000"

auth:
  session_secret: "%s"
  salesforce_secret: "%s"

cors:
  allowed_origins: ["*"]

logging:
  level: "info"
  format: "text"
`, sessionSecret, salesforceSecret)

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("  ✓ Created config: %s\n", configPath)
	fmt.Println()
	fmt.Println("To start the server:")
	fmt.Println("  koop-auth-gateway serve")

	return nil
}

// generateSecret returns a random 32-byte secret, base64 encoded.
func generateSecret() (string, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(secretBytes), nil
}

// runToken mints a generic development token signed with the session
// secret, for exercising POST /auth/token.
func runToken() error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	userID := "test-user-" + uuid.New().String()[:8]
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": "test@example.com",
		"name":  "Test User",
		"orgId": "test-org-123",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Auth.SessionSecret))
	if err != nil {
		return fmt.Errorf("signing token: %w", err)
	}

	fmt.Println("Generated token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Exchange it with:")
	fmt.Printf("  curl -X POST http://%s/auth/token -H 'Content-Type: application/json' -d '{\"token\":\"...\"}'\n", cfg.Server.HTTPAddr)

	return nil
}

// runInspect classifies and verifies a token locally using the configured
// secrets, printing the trust domain and claims.
func runInspect() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: koop-auth-gateway inspect TOKEN")
	}
	tokenString := os.Args[2]

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	unverified, err := auth.DecodeUnverified(tokenString)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	domain := auth.Classify(unverified)
	cyan.Printf("Trust domain: %s\n", domain)

	verifier := auth.NewVerifier([]byte(cfg.Auth.SessionSecret), []byte(cfg.Auth.SalesforceSecret))
	result, err := verifier.Verify(tokenString)
	if err != nil {
		red.Printf("Verification:  FAILED (%v)\n", err)
		return nil
	}

	green.Println("Verification: OK")
	fmt.Printf("Subject:      %s\n", result.Identity.SubjectID)
	if result.Identity.Email != "" {
		fmt.Printf("Email:        %s\n", result.Identity.Email)
	}
	if result.Identity.OrgID != "" {
		fmt.Printf("Org:          %s\n", result.Identity.OrgID)
	}

	raw, err := json.MarshalIndent(result.Claims, "", "  ")
	if err != nil {
		return fmt.Errorf("rendering claims: %w", err)
	}
	fmt.Printf("Claims:\n%s\n", raw)

	return nil
}

func runHealth(ctx context.Context) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(&colorHandler{level: level})
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu    sync.Mutex
	level slog.Level
	attrs []slog.Attr
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{level: h.level, attrs: newAttrs}
}

func (h *colorHandler) WithGroup(_ string) slog.Handler {
	return h
}
