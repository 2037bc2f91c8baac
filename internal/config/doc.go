// Package config handles configuration loading for mcp-server-mattermost.
//
// # Overview
//
// Configuration is layered: built-in defaults, then an optional YAML or TOML
// file, then environment variables, then CLI flags applied by the caller.
// The result is an explicitly owned *Config value; nothing is cached globally.
//
// # Environment Variables
//
//	MATTERMOST_URL                    Mattermost server URL (required)
//	MATTERMOST_TOKEN                  bot or personal access token
//	MATTERMOST_ALLOW_HTTP_CLIENT_TOKENS  accept per-request bearer tokens (HTTP transport)
//	MATTERMOST_TIMEOUT                per-attempt timeout in seconds, 1-300 (default 30)
//	MATTERMOST_MAX_RETRIES            extra attempts for 429/5xx, 0-10 (default 3)
//	MATTERMOST_VERIFY_SSL             verify TLS certificates (default true)
//	MATTERMOST_API_VERSION            REST API version (default v4)
//	MATTERMOST_LOG_LEVEL              DEBUG, INFO, WARNING, ERROR, CRITICAL
//	MATTERMOST_LOG_FORMAT             json or text
//	MCP_TRANSPORT                     stdio or http
//	MCP_HOST, MCP_PORT                HTTP listen address (default 127.0.0.1:8000)
//
// # Configuration File
//
// Files ending in .toml are parsed as TOML, anything else as YAML. Values can
// reference environment variables with ${VAR_NAME}:
//
//	mattermost:
//	  url: "https://chat.example.com"
//	  token: "${MATTERMOST_TOKEN}"
//	  max_retries: 3
//
//	server:
//	  transport: "http"
//	  port: 8000
//
//	tailscale:
//	  enabled: false
//	  hostname: "mattermost-mcp"
//	  auth_key: "${TS_AUTHKEY}"
//	  https: true
//
//	logging:
//	  level: "info"
//	  format: "text"
//
//	metrics:
//	  enabled: true
//	  path: "/metrics"
//
//	audit:
//	  enabled: true
//	  path: "/var/lib/mcp-server-mattermost/audit.db"
//
//	tools:
//	  capabilities: ["read", "write"]
//
// # Validation
//
// Load() validates:
//
//   - URL is an absolute http(s) URL
//   - A static token is present or per-request tokens are allowed
//   - Timeout and retry ranges
//   - Log level, log format and transport values
//   - Port range, tailscale hostname, tool capability names
package config
