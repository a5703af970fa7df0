package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	dsmcp "github.com/dealscope/dealscope/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the dealscope MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dealscope MCP server on stdio",
	Long: `Start the dealscope MCP server on stdio transport.

The server exposes the read-only record queries and derived guidance as MCP
tools that AI assistants can call: list_opportunities, get_opportunity,
get_resources. The record tools report an error when no record-source
session is available; get_resources works regardless.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Library == nil || Engine == nil {
			return fmt.Errorf("services not initialized")
		}

		limit := 0
		if Config != nil {
			limit = Config.QueryLimit
		}
		srv := dsmcp.NewServer(Fetcher, Engine, Library, limit, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
