// ABOUTME: Configuration loading and parsing for mcp-server-mattermost
// ABOUTME: Layers defaults, YAML/TOML files with ${VAR} expansion, and MATTERMOST_/MCP_ environment variables

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config represents the complete mcp-server-mattermost configuration
type Config struct {
	Mattermost Settings        `yaml:"mattermost" toml:"mattermost"`
	Server     ServerConfig    `yaml:"server" toml:"server"`
	Tailscale  TailscaleConfig `yaml:"tailscale" toml:"tailscale"`
	Logging    LoggingConfig   `yaml:"logging" toml:"logging"`
	Metrics    MetricsConfig   `yaml:"metrics" toml:"metrics"`
	Audit      AuditConfig     `yaml:"audit" toml:"audit"`
	Tools      ToolsConfig     `yaml:"tools" toml:"tools"`
}

// Settings holds the Mattermost connection settings. Build one with Default
// or Load; it is read-only once validated.
type Settings struct {
	URL                   string `yaml:"url" toml:"url"`
	Token                 string `yaml:"token" toml:"token"`
	AllowHTTPClientTokens bool   `yaml:"allow_http_client_tokens" toml:"allow_http_client_tokens" split_words:"true"`
	// Timeout is the per-attempt request timeout in seconds (1-300).
	Timeout int `yaml:"timeout" toml:"timeout"`
	// MaxRetries is the number of extra attempts for retryable failures (0-10).
	MaxRetries int    `yaml:"max_retries" toml:"max_retries" split_words:"true"`
	VerifySSL  bool   `yaml:"verify_ssl" toml:"verify_ssl" split_words:"true"`
	APIVersion string `yaml:"api_version" toml:"api_version" split_words:"true"`
}

// Transport names
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// ServerConfig holds MCP transport configuration
type ServerConfig struct {
	Transport string `yaml:"transport" toml:"transport"`
	Host      string `yaml:"host" toml:"host"`
	Port      int    `yaml:"port" toml:"port"`
}

// TailscaleConfig holds Tailscale tsnet configuration for the HTTP transport
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Hostname  string `yaml:"hostname" toml:"hostname"`
	AuthKey   string `yaml:"auth_key" toml:"auth_key"`
	StateDir  string `yaml:"state_dir" toml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral" toml:"ephemeral"`
	HTTPS     bool   `yaml:"https" toml:"https"`   // serve :443 with Tailscale-provisioned certs
	Funnel    bool   `yaml:"funnel" toml:"funnel"` // Enable public Funnel (implies HTTPS)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" toml:"format" envconfig:"LOG_FORMAT"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// AuditConfig holds the optional tool-call audit log configuration
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// ToolsConfig restricts which tools are exposed
type ToolsConfig struct {
	// Capabilities lists the tool capabilities to register (read, write, create, delete).
	// Empty means all.
	Capabilities []string `yaml:"capabilities" toml:"capabilities"`
}

var validCapabilities = []string{"read", "write", "create", "delete"}

var validLogLevels = []string{"DEBUG", "INFO", "WARNING", "WARN", "ERROR", "CRITICAL"}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Mattermost: Settings{
			Timeout:    30,
			MaxRetries: 3,
			VerifySSL:  true,
			APIVersion: "v4",
		},
		Server: ServerConfig{
			Transport: TransportStdio,
			Host:      "127.0.0.1",
			Port:      8000,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
	}
}

// Load builds a Config from defaults, the optional file at path, and the
// environment, in that order. Files ending in .toml are parsed as TOML,
// anything else as YAML. Environment variables in the format ${VAR_NAME}
// inside the file are expanded.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		// Expand environment variables in the raw content
		expandedData := expandEnvVars(string(data))

		if err := decodeFile(path, expandedData, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// FromEnv builds a Config from defaults and the environment only.
func FromEnv() (*Config, error) {
	return Load("")
}

func decodeFile(path, content string, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.Decode(content, cfg)
		return err
	}
	return yaml.Unmarshal([]byte(content), cfg)
}

// applyEnv overlays MATTERMOST_* and MCP_* variables. Unset variables leave
// the current value untouched. Field names map to variable names through
// envconfig's split_words rule (MaxRetries -> MATTERMOST_MAX_RETRIES).
func applyEnv(cfg *Config) error {
	if err := envconfig.Process("MATTERMOST", &cfg.Mattermost); err != nil {
		return err
	}
	if err := envconfig.Process("MATTERMOST", &cfg.Logging); err != nil {
		return err
	}
	return envconfig.Process("MCP", &cfg.Server)
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Normalize canonicalizes values that have more than one accepted spelling.
func (c *Config) Normalize() {
	c.Mattermost.URL = strings.TrimRight(strings.TrimSpace(c.Mattermost.URL), "/")
	c.Logging.Level = strings.ToUpper(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	c.Server.Transport = strings.ToLower(c.Server.Transport)
	for i, capability := range c.Tools.Capabilities {
		c.Tools.Capabilities[i] = strings.ToLower(capability)
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if err := c.Mattermost.Validate(); err != nil {
		return err
	}

	if !slices.Contains(validLogLevels, strings.ToUpper(c.Logging.Level)) {
		return fmt.Errorf("logging.level %q is invalid (must be one of DEBUG, INFO, WARNING, ERROR, CRITICAL)", c.Logging.Level)
	}
	if f := strings.ToLower(c.Logging.Format); f != "json" && f != "text" {
		return fmt.Errorf("logging.format %q is invalid (must be json or text)", c.Logging.Format)
	}

	switch strings.ToLower(c.Server.Transport) {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("server.transport %q is invalid (must be stdio or http)", c.Server.Transport)
	}

	// Host and port are unused when Tailscale provides the listener
	if !c.Tailscale.Enabled && (c.Server.Port < 1 || c.Server.Port > 65535) {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	// Tailscale requires a hostname
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}

	if c.Audit.Enabled && c.Audit.Path == "" {
		return fmt.Errorf("audit.path is required when audit is enabled")
	}

	for _, capability := range c.Tools.Capabilities {
		if !slices.Contains(validCapabilities, strings.ToLower(capability)) {
			return fmt.Errorf("tools.capabilities: unknown capability %q (must be read, write, create or delete)", capability)
		}
	}

	return nil
}

// Validate checks the Mattermost connection settings.
func (s Settings) Validate() error {
	if s.URL == "" {
		return fmt.Errorf("mattermost.url is required")
	}
	u, err := url.Parse(s.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("mattermost.url %q must be an absolute http(s) URL", s.URL)
	}
	if s.Token == "" && !s.AllowHTTPClientTokens {
		return fmt.Errorf("mattermost.token is required unless allow_http_client_tokens is enabled")
	}
	if s.Timeout < 1 || s.Timeout > 300 {
		return fmt.Errorf("mattermost.timeout must be between 1 and 300 seconds, got %d", s.Timeout)
	}
	if s.MaxRetries < 0 || s.MaxRetries > 10 {
		return fmt.Errorf("mattermost.max_retries must be between 0 and 10, got %d", s.MaxRetries)
	}
	if s.APIVersion == "" {
		return fmt.Errorf("mattermost.api_version is required")
	}
	return nil
}

// APIBaseURL returns {url}/api/{version}.
func (s Settings) APIBaseURL() string {
	return strings.TrimRight(s.URL, "/") + "/api/" + s.APIVersion
}

// RequestTimeout returns the per-attempt timeout.
func (s Settings) RequestTimeout() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// Addr returns the host:port the HTTP transport listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// HasCapability reports whether tools with the given capability should be registered.
func (t ToolsConfig) HasCapability(capability string) bool {
	if len(t.Capabilities) == 0 {
		return true
	}
	return slices.Contains(t.Capabilities, strings.ToLower(capability))
}
