package main

import (
	"fmt"

	"github.com/reprosim/nrnexp/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the MCP server over stdio",
		Long: `Run a Model Context Protocol server exposing experiment tools:

  validate_experiment   Validate a document and report all diagnostics
  build_experiment      Assemble a deterministic build plan
  experiment_history    List recorded runs

The server speaks MCP over stdin/stdout and blocks until the client
disconnects.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			server, err := mcp.NewServer(&mcp.Config{
				Name:    "nrnexp",
				Version: version,
				Root:    root,
			})
			if err != nil {
				return fmt.Errorf("create MCP server: %w", err)
			}

			return server.Run(cmd.Context())
		},
	}
}
