package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gragdev/grag/internal/log"
)

func queryCmd() *cobra.Command {
	var (
		configPath string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run one retrieval query and print the results as JSON",
		Long: `Run one retrieval query and print the result envelope to stdout.

The query text is embedded, matched against the vector index, and the hits
are annotated with article and author context from the graph. On failure a
failure envelope is printed instead and the command exits with code 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// An explicit --limit clamps below at 1; unset falls back to
			// the configured default.
			if cmd.Flags().Changed("limit") && limit < 1 {
				limit = 1
			}
			return runQuery(configPath, args[0], limit)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to the YAML config file (default: grag.yaml if present)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results (1-50, default 5)")

	return cmd
}

// queryOutput mirrors the success envelope of the graph_retrieve tool.
type queryOutput struct {
	Results      []queryRow `json:"results"`
	TotalResults int        `json:"total_results"`
	RequestID    string     `json:"request_id"`
}

type queryRow struct {
	Author    string  `json:"author"`
	Article   string  `json:"article"`
	ChunkText string  `json:"chunk_text"`
	Score     float64 `json:"score"`
}

func runQuery(configPath, text string, limit int) error {
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

	result, err := client.Retrieve(ctx, text, limit)
	if err != nil {
		return failWithEnvelope(err, requestID)
	}

	rows := result.Rows()
	out := queryOutput{
		Results:      make([]queryRow, len(rows)),
		TotalResults: result.TotalResults(),
		RequestID:    requestID,
	}
	for i, row := range rows {
		out.Results[i] = queryRow{
			Author:    row.Author(),
			Article:   row.Article(),
			ChunkText: row.ChunkText(),
			Score:     row.Score(),
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	if err := encoder.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return &exitError{code: 1}
	}
	return nil
}
