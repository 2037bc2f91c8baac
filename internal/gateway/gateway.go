// ABOUTME: HTTP gateway that serves the MCP streamable HTTP transport
// ABOUTME: Manages the listener (TCP or tailscale), health and metrics endpoints, and graceful shutdown

package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"tailscale.com/ipn/ipnstate"
	"tailscale.com/tsnet"

	"github.com/2389/mcp-server-mattermost/internal/auth"
	"github.com/2389/mcp-server-mattermost/internal/config"
	"github.com/2389/mcp-server-mattermost/internal/mattermost"
	"github.com/2389/mcp-server-mattermost/internal/mcp"
	"github.com/2389/mcp-server-mattermost/internal/metrics"
	"github.com/2389/mcp-server-mattermost/internal/store"
	"github.com/2389/mcp-server-mattermost/internal/tools"
)

// MCPPath is where the MCP endpoint is mounted.
const MCPPath = "/mcp"

// ShutdownTimeout bounds graceful shutdown after the run context ends.
const ShutdownTimeout = 5 * time.Second

// Gateway serves MCP over HTTP for one Mattermost server.
type Gateway struct {
	config      *config.Config
	mcpServer   *mcp.Server
	mcpHTTP     *server.StreamableHTTPServer
	verifier    *auth.MattermostVerifier
	store       *store.SQLiteStore
	metrics     *metrics.Metrics
	handler     http.Handler
	httpServer  *http.Server
	tsnetServer *tsnet.Server
	logger      *slog.Logger
	clientOpts  []mattermost.Option

	// mcpEndpoint is the URL clients should use, e.g. "http://127.0.0.1:8000/mcp"
	mcpEndpoint string
}

// initStore opens the audit store when auditing is enabled.
func initStore(cfg *config.Config) (*store.SQLiteStore, error) {
	if !cfg.Audit.Enabled {
		return nil, nil
	}
	s, err := store.NewSQLiteStore(cfg.Audit.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing audit store: %w", err)
	}
	return s, nil
}

// determineMCPEndpoint resolves the MCP endpoint URL from config.
func determineMCPEndpoint(cfg *config.Config) string {
	if cfg.Tailscale.Enabled {
		if cfg.Tailscale.HTTPS || cfg.Tailscale.Funnel {
			return "https://" + cfg.Tailscale.Hostname + MCPPath
		}
		return "http://" + cfg.Tailscale.Hostname + MCPPath
	}
	return "http://" + cfg.Server.Addr() + MCPPath
}

// New creates a Gateway for cfg. version is reported in build metrics and to MCP clients.
func New(cfg *config.Config, version string, logger *slog.Logger, clientOpts ...mattermost.Option) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	auditStore, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(version)
		clientOpts = append([]mattermost.Option{mattermost.WithMetrics(m)}, clientOpts...)
	}

	var audit tools.AuditRecorder
	if auditStore != nil {
		audit = auditStore
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Settings:      cfg.Mattermost,
		Tools:         cfg.Tools,
		Version:       version,
		Logger:        logger,
		Metrics:       m,
		Audit:         audit,
		ClientOptions: clientOpts,
	})
	if err != nil {
		if auditStore != nil {
			_ = auditStore.Close()
		}
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	gw := &Gateway{
		config:      cfg,
		mcpServer:   mcpServer,
		mcpHTTP:     mcpServer.HTTPHandler(MCPPath),
		store:       auditStore,
		metrics:     m,
		logger:      logger.With("component", "gateway"),
		clientOpts:  clientOpts,
		mcpEndpoint: determineMCPEndpoint(cfg),
	}

	if cfg.Mattermost.AllowHTTPClientTokens {
		gw.verifier = auth.NewMattermostVerifier(cfg.Mattermost,
			auth.WithVerifierLogger(logger),
			auth.WithClientOptions(clientOpts...),
		)
	}

	mux := http.NewServeMux()

	// Health endpoints - no auth required
	mux.HandleFunc("GET /health", gw.handleHealth)
	mux.HandleFunc("GET /health/ready", gw.handleReady)

	authMiddleware := auth.HTTPAuthMiddleware(gw.verifier, auth.MiddlewareConfig{
		AllowClientTokens: cfg.Mattermost.AllowHTTPClientTokens,
		HasStaticToken:    cfg.Mattermost.Token != "",
		Logger:            logger.With("component", "auth"),
	})
	mux.Handle(MCPPath, authMiddleware(gw.mcpHTTP))
	if cfg.Mattermost.AllowHTTPClientTokens {
		gw.logger.Info("per-request bearer tokens enabled", "static_fallback", cfg.Mattermost.Token != "")
	}

	if m != nil {
		mux.Handle("GET "+cfg.Metrics.Path, m.Handler(logger))
		gw.logger.Info("metrics enabled", "path", cfg.Metrics.Path)
	}

	gw.handler = mux
	gw.httpServer = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// Handler returns the gateway's HTTP routes.
func (g *Gateway) Handler() http.Handler {
	return g.handler
}

// MCPEndpoint returns the URL MCP clients should connect to.
func (g *Gateway) MCPEndpoint() string {
	return g.mcpEndpoint
}

// setupListener creates the HTTP listener based on configuration (Tailscale or TCP).
func (g *Gateway) setupListener(ctx context.Context) (net.Listener, error) {
	if g.config.Tailscale.Enabled {
		g.logger.Warn("server.host and server.port are ignored when tailscale is enabled",
			"addr", g.config.Server.Addr(),
		)
		return g.setupTailscaleListener(ctx)
	}

	g.logger.Info("starting gateway", "http_addr", g.config.Server.Addr())
	ln, err := net.Listen("tcp", g.config.Server.Addr())
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}
	return ln, nil
}

// Run serves until ctx is canceled or the server fails, then shuts down.
// Returns nil on graceful shutdown.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := g.setupListener(ctx)
	if err != nil {
		g.closeComponents()
		return err
	}
	return g.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled or the server fails.
func (g *Gateway) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String(), "mcp_endpoint", g.mcpEndpoint)
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()
	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown uses a fresh context since the run context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return g.Shutdown(ctx)
}

// resolveTailscaleStateDir returns the state directory, using default if not configured.
func resolveTailscaleStateDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for tailscale state (set tailscale.state_dir explicitly): %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "mcp-server-mattermost", "tailscale"), nil
}

// resolveTailscaleAuthKey returns the auth key from config or environment.
func resolveTailscaleAuthKey(configured string) (string, error) {
	authKey := configured
	if authKey == "" {
		authKey = os.Getenv("TS_AUTHKEY")
	}
	if authKey == "" {
		return "", errors.New("tailscale auth key required: set auth_key in config or TS_AUTHKEY environment variable (get one at https://login.tailscale.com/admin/settings/keys)")
	}
	return authKey, nil
}

// setupTailscaleListener starts a tsnet node and listens on :80, or :443 for HTTPS and Funnel.
func (g *Gateway) setupTailscaleListener(ctx context.Context) (net.Listener, error) {
	tsCfg := g.config.Tailscale

	stateDir, err := resolveTailscaleStateDir(tsCfg.StateDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}

	authKey, err := resolveTailscaleAuthKey(tsCfg.AuthKey)
	if err != nil {
		return nil, err
	}

	g.tsnetServer = &tsnet.Server{
		Hostname:  tsCfg.Hostname,
		Dir:       stateDir,
		Ephemeral: tsCfg.Ephemeral,
		AuthKey:   authKey,
	}

	g.logger.Info("starting tailscale node", "hostname", tsCfg.Hostname, "state_dir", stateDir, "ephemeral", tsCfg.Ephemeral)
	status, err := g.tsnetServer.Up(ctx)
	if err != nil {
		_ = g.tsnetServer.Close()
		return nil, fmt.Errorf("starting tailscale: %w", err)
	}

	g.logTailscaleStatus(tsCfg.Hostname, status)
	if tsCfg.HTTPS || tsCfg.Funnel {
		g.updateMCPEndpointFromStatus(status)
	}

	ln, err := g.createTailscaleListener(tsCfg)
	if err != nil {
		_ = g.tsnetServer.Close()
		return nil, err
	}
	return ln, nil
}

// logTailscaleStatus logs info about the tailscale node status.
func (g *Gateway) logTailscaleStatus(hostname string, status *ipnstate.Status) {
	var tsAddr, dnsName string
	if len(status.TailscaleIPs) > 0 {
		tsAddr = status.TailscaleIPs[0].String()
	} else {
		g.logger.Warn("tailscale node has no IP addresses assigned")
	}
	if status.Self != nil {
		dnsName = status.Self.DNSName
	}
	g.logger.Info("tailscale node ready", "hostname", hostname, "tailscale_ip", tsAddr, "dns_name", dnsName)
}

// updateMCPEndpointFromStatus switches the advertised endpoint to the node's full DNS name.
func (g *Gateway) updateMCPEndpointFromStatus(status *ipnstate.Status) {
	if status.Self == nil || status.Self.DNSName == "" {
		return
	}
	cleanDNS := strings.TrimSuffix(status.Self.DNSName, ".")
	newEndpoint := "https://" + cleanDNS + MCPPath
	if newEndpoint != g.mcpEndpoint {
		g.logger.Info("updated MCP endpoint to use Tailscale DNS name", "old", g.mcpEndpoint, "new", newEndpoint)
		g.mcpEndpoint = newEndpoint
	}
}

// createTailscaleListener creates the appropriate listener based on config.
func (g *Gateway) createTailscaleListener(tsCfg config.TailscaleConfig) (net.Listener, error) {
	switch {
	case tsCfg.Funnel:
		g.logger.Info("enabling tailscale funnel (public HTTPS) on :443")
		ln, err := g.tsnetServer.ListenFunnel("tcp", ":443")
		if err != nil {
			return nil, fmt.Errorf("listening on tailscale funnel port: %w", err)
		}
		return ln, nil
	case tsCfg.HTTPS:
		return g.createTailscaleTLSListener()
	default:
		ln, err := g.tsnetServer.Listen("tcp", ":80")
		if err != nil {
			return nil, fmt.Errorf("listening on tailscale HTTP port: %w", err)
		}
		return ln, nil
	}
}

// createTailscaleTLSListener creates a TLS listener using Tailscale's auto-provisioned certs.
func (g *Gateway) createTailscaleTLSListener() (net.Listener, error) {
	g.logger.Info("enabling HTTPS with Tailscale certs on :443")
	ln, err := g.tsnetServer.Listen("tcp", ":443")
	if err != nil {
		return nil, fmt.Errorf("listening on tailscale HTTPS port: %w", err)
	}
	lc, err := g.tsnetServer.LocalClient()
	if err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("getting tailscale local client: %w", err)
	}
	return tls.NewListener(ln, &tls.Config{
		GetCertificate: lc.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}), nil
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// closeComponents releases the verifier cache and the audit store.
func (g *Gateway) closeComponents() []error {
	var errs []error
	if g.verifier != nil {
		g.verifier.Close()
		g.verifier = nil
	}
	if g.store != nil {
		errs = appendCloseError(errs, "audit store close", g.store.Close())
		g.store = nil
	}
	return errs
}

// Shutdown gracefully stops the HTTP server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))
	errs = appendCloseError(errs, "MCP transport shutdown", g.mcpHTTP.Shutdown(ctx))

	if g.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", g.tsnetServer.Close())
	}
	errs = append(errs, g.closeComponents()...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}
