// ABOUTME: Entry point for mcp-server-mattermost
// ABOUTME: Serves the Mattermost MCP tools over stdio or HTTP, and checks connectivity

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/mcp-server-mattermost/internal/config"
	"github.com/2389/mcp-server-mattermost/internal/gateway"
	"github.com/2389/mcp-server-mattermost/internal/mattermost"
	"github.com/2389/mcp-server-mattermost/internal/mcp"
	"github.com/2389/mcp-server-mattermost/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _ __ ___   ___ _ __        _ __ ___  _ __ ___
| '_ ' _ \ / __| '_ \ _____| '_ ' _ \| '_ ' _ \
| | | | | | (__| |_) |_____| | | | | | | | | | |
|_| |_| |_|\___| .__/      |_| |_| |_|_| |_| |_|
               |_|
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// serveFlags are the flags shared by the root command and serve.
type serveFlags struct {
	configPath string
	http       bool
	host       string
	port       int
}

func (f *serveFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.http, "http", false, "Serve MCP over HTTP instead of stdio")
	cmd.Flags().StringVar(&f.host, "host", "", "HTTP listen host (overrides MCP_HOST)")
	cmd.Flags().IntVar(&f.port, "port", 0, "HTTP listen port (overrides MCP_PORT)")
}

func newRootCmd() *cobra.Command {
	flags := &serveFlags{}

	root := &cobra.Command{
		Use:           "mcp-server-mattermost",
		Short:         "MCP server for Mattermost",
		Long:          "mcp-server-mattermost exposes Mattermost channels, messages, users, files and bookmarks as MCP tools.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags)
		},
	}
	root.SetVersionTemplate("mcp-server-mattermost {{.Version}}\n")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to a YAML or TOML config file")
	flags.register(root)

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags)
		},
	}
	flags.register(serve)

	check := &cobra.Command{
		Use:   "check",
		Short: "Verify the Mattermost URL and token by fetching the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, flags.configPath)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mcp-server-mattermost %s\n", version)
		},
	}

	root.AddCommand(serve, check, versionCmd)
	return root
}

// loadConfig loads the config file and environment, then applies flag overrides.
func loadConfig(cmd *cobra.Command, flags *serveFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if flags.http {
		cfg.Server.Transport = config.TransportHTTP
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = flags.host
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = flags.port
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, flags *serveFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	logger := setupLogger(cfg.Logging, stderr)

	if cfg.Server.Transport == config.TransportHTTP {
		printBanner(stderr, cfg, flags.configPath)
		logger.Info("starting mcp-server-mattermost",
			"version", version,
			"transport", cfg.Server.Transport,
			"addr", cfg.Server.Addr(),
			"tailscale", cfg.Tailscale.Enabled,
		)

		gw, err := gateway.New(cfg, version, logger)
		if err != nil {
			return fmt.Errorf("creating gateway: %w", err)
		}
		return gw.Run(cmd.Context())
	}

	return serveStdio(cmd.Context(), cfg, logger, cmd.InOrStdin(), cmd.OutOrStdout())
}

func serveStdio(ctx context.Context, cfg *config.Config, logger *slog.Logger, in io.Reader, out io.Writer) (err error) {
	mcpCfg := mcp.Config{
		Settings: cfg.Mattermost,
		Tools:    cfg.Tools,
		Version:  version,
		Logger:   logger,
	}

	if cfg.Audit.Enabled {
		s, openErr := store.NewSQLiteStore(cfg.Audit.Path)
		if openErr != nil {
			return fmt.Errorf("opening audit store: %w", openErr)
		}
		defer func() {
			err = errors.Join(err, s.Close())
		}()
		mcpCfg.Audit = s
	}

	srv, err := mcp.NewServer(mcpCfg)
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}
	return srv.ServeStdio(ctx, in, out)
}

func printBanner(w io.Writer, cfg *config.Config, configPath string) {
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Fprint(w, banner)
	gray.Fprintf(w, "    version: %s\n\n", version)

	if configPath != "" {
		green.Fprint(w, "    ▶ ")
		fmt.Fprintf(w, "Config:     %s\n", configPath)
	}
	green.Fprint(w, "    ▶ ")
	fmt.Fprintf(w, "Mattermost: %s\n", cfg.Mattermost.URL)

	if cfg.Tailscale.Enabled {
		green.Fprint(w, "    ▶ ")
		fmt.Fprint(w, "Tailscale:  ")
		cyan.Fprint(w, cfg.Tailscale.Hostname)
		if cfg.Tailscale.Funnel {
			yellow.Fprint(w, " [funnel]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Fprint(w, " (ephemeral)")
		}
		fmt.Fprintln(w)
	} else {
		green.Fprint(w, "    ▶ ")
		fmt.Fprintf(w, "HTTP:       %s%s\n", cfg.Server.Addr(), gateway.MCPPath)
	}
	if cfg.Mattermost.AllowHTTPClientTokens {
		green.Fprint(w, "    ▶ ")
		yellow.Fprintln(w, "Client tokens accepted")
	}

	fmt.Fprintln(w)
}

// runCheck connects with the configured token and prints who it belongs to.
func runCheck(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Mattermost.Token == "" {
		return errors.New("check needs mattermost.token (client tokens only exist per HTTP request)")
	}

	logger := setupLogger(cfg.Logging, cmd.ErrOrStderr())

	var me *mattermost.User
	err = mattermost.Session(cmd.Context(), cfg.Mattermost, func(ctx context.Context, c *mattermost.Client) error {
		var err error
		me, err = c.GetMe(ctx)
		return err
	}, mattermost.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", cfg.Mattermost.URL, err)
	}

	out := cmd.OutOrStdout()
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	green.Fprintf(out, "  ✓ Connected to %s\n", cfg.Mattermost.URL)
	fmt.Fprint(out, "  User: ")
	cyan.Fprintf(out, "@%s", me.Username)
	gray.Fprintf(out, " (%s)\n", me.ID)
	if name := displayName(me); name != "" {
		fmt.Fprintf(out, "  Name: %s\n", name)
	}
	if me.Roles != "" {
		fmt.Fprintf(out, "  Roles: %s\n", me.Roles)
	}
	return nil
}

func displayName(u *mattermost.User) string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Nickname != "":
		return u.Nickname
	default:
		return u.LastName
	}
}
