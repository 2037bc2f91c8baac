// Package gateway serves the Mattermost MCP server over HTTP.
//
// # Overview
//
// The gateway owns the HTTP listener and everything mounted on it: the MCP
// streamable HTTP endpoint, health checks and the optional Prometheus
// endpoint. It also owns the components that must be released on shutdown,
// the token verifier cache and the audit store.
//
// # Endpoints
//
//   - POST/GET/DELETE /mcp - MCP streamable HTTP transport
//   - GET /health - Liveness check, always {"status":"healthy",...}
//   - GET /health/ready - 200 when Mattermost answers /system/ping, else 503
//   - GET /metrics - Prometheus metrics (path from metrics.path, when enabled)
//
// # Authentication
//
// With mattermost.allow_http_client_tokens enabled, /mcp requires a bearer
// token that Mattermost accepts, unless a static token is configured, in which
// case requests without an Authorization header use the static token. A token
// that is present must verify. The health endpoints never require a token.
//
// # Listeners
//
// By default the gateway listens on server.host:server.port. With tailscale
// enabled it joins the tailnet as tailscale.hostname and listens on :80, or
// on :443 with Tailscale certificates (tailscale.https) or Funnel.
//
// # Lifecycle
//
//	gw, err := gateway.New(cfg, version, logger)
//	if err != nil {
//		return err
//	}
//	return gw.Run(ctx) // returns after ctx is canceled and shutdown completes
//
// Shutdown is bounded by ShutdownTimeout.
package gateway
