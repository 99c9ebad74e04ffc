package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/internal/cli"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/adapters/mcp"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/observability"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/session"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the command interpreter as MCP tools.
This allows AI agents to interpret clinician utterances and inspect macros.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		backend, err := cli.OpenBackend(ctx, cfg.Store, logger)
		if err != nil {
			return err
		}
		defer backend.Close()

		sessions := session.NewManager(cli.SessionFactory(cfg, backend.Store, logger, observability.LoggingHooks(logger)), session.WithLogger(logger))
		defer sessions.Close()

		srv := mcp.NewServer(sessions, logger)

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("Starting MDX Vision MCP Server (Stdio)...")
			if err := srv.ServeStdio(); err != nil {
				return fmt.Errorf("MCP server execution failed: %w", err)
			}
		case "sse":
			logger.Info("Starting MDX Vision MCP Server (SSE)", "port", port)
			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("MCP server execution failed: %w", err)
			}
			logger.Info("MCP Server stopped gracefully")
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
