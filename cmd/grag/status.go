package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gragdev/grag/internal/log"
)

func statusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Probe the graph and the embedding model",
		Long: `Probe both backends and print the outcome as JSON.

The graph probe runs a one-hit vector search against the configured index,
proving connectivity, credentials, and index existence in one round-trip.
The model probe encodes a short text. The probes run concurrently; any
failure is printed as a failure envelope and the command exits with 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to the YAML config file (default: grag.yaml if present)")

	return cmd
}

func runStatus(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	requestID := log.NewRequestID()
	ctx = log.WithRequestID(ctx, requestID)

	client, _, err := buildClient(ctx, configPath)
	if err != nil {
		return failWithEnvelope(err, requestID)
	}
	defer func() { _ = client.Close(context.Background()) }()

	if timeout := client.Config().PerCallTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	status, err := client.Status(ctx)
	if err != nil {
		return failWithEnvelope(err, requestID)
	}

	out := struct {
		Status    string `json:"status"`
		GraphOK   bool   `json:"graph_ok"`
		ModelOK   bool   `json:"model_ok"`
		ModelID   string `json:"model_id"`
		Dimension int    `json:"dimension"`
		IndexName string `json:"index_name"`
		RequestID string `json:"request_id"`
	}{
		Status:    "ok",
		GraphOK:   status.GraphOK,
		ModelOK:   status.ModelOK,
		ModelID:   status.ModelID,
		Dimension: status.Dimension,
		IndexName: status.IndexName,
		RequestID: requestID,
	}
	return json.NewEncoder(os.Stdout).Encode(out)
}
