// ABOUTME: Streamable HTTP transport for the MCP server
// ABOUTME: Adapts mcp-go's transport logger to slog

package mcp

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
)

// HTTPHandler returns the streamable HTTP transport mounted at path. Request
// contexts, including any verified identity, reach the tool handlers unchanged.
func (s *Server) HTTPHandler(path string) *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s.mcp,
		server.WithEndpointPath(path),
		server.WithLogger(transportLogger{logger: s.logger.With("transport", "http")}),
	)
}

type transportLogger struct {
	logger *slog.Logger
}

func (l transportLogger) Infof(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l transportLogger) Errorf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}
