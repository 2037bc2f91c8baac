// ABOUTME: Builds the MCP server that exposes the Mattermost tools
// ABOUTME: Each tool call opens its own Mattermost session with the caller's or the static token

package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/2389/mcp-server-mattermost/internal/auth"
	"github.com/2389/mcp-server-mattermost/internal/config"
	"github.com/2389/mcp-server-mattermost/internal/mattermost"
	"github.com/2389/mcp-server-mattermost/internal/metrics"
	"github.com/2389/mcp-server-mattermost/internal/tools"
)

// ServerName is the name announced to MCP clients.
const ServerName = "Mattermost"

const instructions = "MCP server for Mattermost team collaboration platform"

// Config holds configuration for the MCP server.
type Config struct {
	Settings config.Settings
	Tools    config.ToolsConfig
	Version  string
	Logger   *slog.Logger
	// Metrics is optional.
	Metrics *metrics.Metrics
	// Audit is optional; nil disables tool call auditing.
	Audit tools.AuditRecorder
	// ClientOptions are appended to every session's client options.
	ClientOptions []mattermost.Option
}

// Server is the MCP server plus the tool registry it was built from.
type Server struct {
	mcp      *server.MCPServer
	registry *tools.Registry
	logger   *slog.Logger
}

// NewServer registers every tool allowed by cfg.Tools on a new MCP server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Settings.URL == "" {
		return nil, errors.New("mattermost settings are required")
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := tools.NewRegistry(cfg.Tools)

	dispatcherOpts := []tools.DispatcherOption{tools.WithLogger(logger)}
	if cfg.Metrics != nil {
		dispatcherOpts = append(dispatcherOpts, tools.WithObserver(cfg.Metrics))
	}
	if cfg.Audit != nil {
		dispatcherOpts = append(dispatcherOpts, tools.WithAudit(cfg.Audit))
	}
	dispatcher := tools.NewDispatcher(Sessions(cfg.Settings, logger, cfg.Metrics, cfg.ClientOptions...), dispatcherOpts...)

	s := server.NewMCPServer(ServerName, cfg.Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	)
	s.AddTools(registry.ServerTools(dispatcher)...)

	logger.With("component", "mcp").Info("tools registered",
		"count", registry.Len(),
		"capabilities", cfg.Tools.Capabilities,
	)

	return &Server{
		mcp:      s,
		registry: registry,
		logger:   logger.With("component", "mcp"),
	}, nil
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Registry returns the registered tools.
func (s *Server) Registry() *tools.Registry {
	return s.registry
}

// Sessions returns a tools.SessionFunc that opens one Mattermost session per
// call. When per-request tokens are allowed, a verified token in ctx replaces
// the static one.
func Sessions(settings config.Settings, logger *slog.Logger, m *metrics.Metrics, extra ...mattermost.Option) tools.SessionFunc {
	return func(ctx context.Context, fn func(context.Context, *mattermost.Client) error) error {
		opts := make([]mattermost.Option, 0, len(extra)+3)
		opts = append(opts, mattermost.WithLogger(logger))
		if m != nil {
			opts = append(opts, mattermost.WithMetrics(m))
		}
		if settings.AllowHTTPClientTokens {
			if token := auth.TokenFromContext(ctx); token != "" {
				opts = append(opts, mattermost.WithToken(token))
			}
		}
		opts = append(opts, extra...)
		return mattermost.Session(ctx, settings, fn, opts...)
	}
}
