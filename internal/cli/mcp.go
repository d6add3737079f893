package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/localcortex/lattice/internal/mcpshell"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP stdio server exposing search, get_full_context, and execute",
	Long: `Start the Model Context Protocol server that lets coding assistants
search indexed stores, elevate a result to full context, and drive store
and job management through a single execute tool, grounded on the
teacher's internal/cli/mcp.go server startup sequence.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	root, err := projectRoot()
	if err != nil {
		return fmt.Errorf("resolve project root: %w", err)
	}

	a, err := openApp()
	if err != nil {
		return fmt.Errorf("failed to initialize lattice: %w", err)
	}

	logger := log.New(os.Stderr, "lattice-mcp ", log.LstdFlags)
	sh := mcpshell.New(a.Catalog, a.Ranker, a.Graphs, a.Cache, a.Jobs, newProcessSpawner(root), a.Config.Storage.DataDir, logger)

	return sh.Serve(ctx)
}
