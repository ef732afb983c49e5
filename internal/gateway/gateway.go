// ABOUTME: HTTP server assembly and lifecycle for koop-auth-gateway
// ABOUTME: Wires config, verifier, and issuer into routes with graceful shutdown

package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/koopjs/koop-auth-gateway/internal/auth"
	"github.com/koopjs/koop-auth-gateway/internal/config"
)

// Gateway is the authentication gateway HTTP server. All state is
// read-only after New returns; requests share nothing mutable.
type Gateway struct {
	config      *config.Config
	verifier    *auth.Verifier
	issuer      *auth.Issuer
	logger      *slog.Logger
	httpServer  *http.Server
	version     string
	environment string
	startedAt   time.Time
}

// New creates a Gateway from the given configuration.
func New(cfg *config.Config, logger *slog.Logger, version string) *Gateway {
	environment := os.Getenv("KOOP_ENV")
	if environment == "" {
		environment = "development"
	}

	g := &Gateway{
		config:      cfg,
		verifier:    auth.NewVerifier([]byte(cfg.Auth.SessionSecret), []byte(cfg.Auth.SalesforceSecret)),
		issuer:      auth.NewIssuer([]byte(cfg.Auth.SessionSecret)),
		logger:      logger.With("component", "gateway"),
		version:     version,
		environment: environment,
		startedAt:   time.Now(),
	}

	mux := http.NewServeMux()

	// Process health - no auth required
	mux.HandleFunc("GET /health", g.handleHealth)

	// Auth endpoints
	mux.HandleFunc("POST /auth/token", g.handleTokenExchange)
	mux.HandleFunc("POST /auth/salesforce", g.handleSalesforceExchange)
	mux.HandleFunc("GET /auth/verify", g.handleVerify)
	mux.HandleFunc("POST /auth/params", g.handleParams)
	mux.HandleFunc("GET /auth/health", g.handleAuthHealth)

	handler := RequestLogger(g.logger)(CORS(cfg.CORS.AllowedOrigins)(mux))

	g.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return g
}

// Handler returns the fully assembled HTTP handler, for tests.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("http server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	return g.gracefulShutdown()
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the run context is already
// canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g.logger.Info("shutting down")
	return g.httpServer.Shutdown(ctx)
}
