package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gragdev/grag/infrastructure/api"
	"github.com/gragdev/grag/internal/config"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		host       string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server hosting the MCP endpoint",
		Long: `Start the HTTP server.

The MCP streamable-HTTP endpoint is served on /mcp with health probes on
/health and /healthz. Configuration is loaded in order: defaults, the YAML
config file, GRAG_* environment variables, then command line flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, host, port)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to the YAML config file (default: grag.yaml if present)")
	cmd.Flags().StringVar(&host, "host", "", "Host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default: 8080)")

	return cmd
}

func runServe(configPath, host string, port int) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flags take precedence over the file and environment.
	var overrides []config.AppConfigOption
	if host != "" {
		overrides = append(overrides, config.WithHost(host))
	}
	if port > 0 {
		overrides = append(overrides, config.WithPort(port))
	}
	cfg = cfg.Apply(overrides...)

	logger := newLogger(cfg)

	client, err := buildClientFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer func() {
		if closeErr := client.Close(context.Background()); closeErr != nil {
			logger.Error(ctx, "failed to close client", "error", closeErr)
		}
	}()

	logger.Info(ctx, "starting grag", append([]any{"version", version}, attrsToArgs(cfg)...)...)

	server := api.NewServer(cfg.Addr(), client.MCPServer("grag"), logger)
	return server.ListenAndServe(ctx)
}

// attrsToArgs flattens the config log attrs into slog key/value args.
func attrsToArgs(cfg config.AppConfig) []any {
	attrs := cfg.LogAttrs()
	args := make([]any, 0, len(attrs)*2)
	for _, attr := range attrs {
		args = append(args, attr.Key, attr.Value.Any())
	}
	return args
}
