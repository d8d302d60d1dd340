// Package main is the entry point for the grag CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// exitError carries an explicit exit code out of a command. Commands that
// already reported the failure (e.g. by printing an envelope) return one
// so main exits without printing anything further.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit code %d", e.code) }

func main() {
	if err := rootCmd().Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		// Anything else is a usage error: unknown subcommand, bad flags.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grag",
		Short: "Graph-backed retrieval server",
		Long: `grag answers natural-language queries against a Neo4j knowledge graph:
queries are embedded, matched against a vector index, and annotated with
article and author context from the graph.`,
		SilenceErrors: true,
	}

	cmd.AddCommand(queryCmd())
	cmd.AddCommand(statusCmd())
	cmd.AddCommand(stdioCmd())
	cmd.AddCommand(serveCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}
