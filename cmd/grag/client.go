package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gragdev/grag"
	"github.com/gragdev/grag/domain/fault"
	"github.com/gragdev/grag/internal/config"
	"github.com/gragdev/grag/internal/log"
)

// newLogger builds the CLI logger. All commands log to stderr: the query
// and status commands reserve stdout for their JSON output, and the MCP
// stdio transport owns stdout entirely.
func newLogger(cfg config.AppConfig) *log.Logger {
	return log.NewStderr(string(cfg.LogFormat()), cfg.LogLevel())
}

// buildClient loads configuration and constructs the library client.
func buildClient(ctx context.Context, configPath string) (*grag.Client, *log.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, log.NewStderr("", ""), err
	}

	logger := newLogger(cfg)
	client, err := grag.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		return nil, logger, err
	}
	return client, logger, nil
}

// buildClientFromConfig constructs the library client from an
// already-loaded configuration.
func buildClientFromConfig(ctx context.Context, cfg config.AppConfig) (*grag.Client, error) {
	return grag.NewFromConfig(ctx, cfg, newLogger(cfg))
}

// failWithEnvelope prints the failure envelope to stdout and returns the
// retrieval-failure exit code.
func failWithEnvelope(err error, requestID string) error {
	body, marshalErr := fault.MarshalEnvelope(err, requestID)
	if marshalErr != nil {
		fmt.Fprintln(os.Stderr, marshalErr)
		return &exitError{code: 1}
	}
	fmt.Println(string(body))
	return &exitError{code: 1}
}
