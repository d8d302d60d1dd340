package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func stdioCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start the MCP server on stdio",
		Long: `Start the Model Context Protocol server on stdio.

This exposes the graph_retrieve tool to MCP clients. All logging goes to
stderr; stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to the YAML config file (default: grag.yaml if present)")

	return cmd
}

func runStdio(configPath string) error {
	ctx := context.Background()

	client, logger, err := buildClient(ctx, configPath)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer func() {
		if closeErr := client.Close(context.Background()); closeErr != nil {
			logger.Error(ctx, "failed to close client", "error", closeErr)
		}
	}()

	logger.Info(ctx, "starting MCP server on stdio", "version", version)
	return client.MCPServer("grag").ServeStdio()
}
