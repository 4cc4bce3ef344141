package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driven/storage/file"
	"github.com/bizbrain-labs/bizbrain-cli/internal/adapters/driving/mcp"
	"github.com/bizbrain-labs/bizbrain-cli/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants. The ask
tool is registered only when ANTHROPIC_API_KEY is available.

Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default, for Claude Desktop)
  bizbrain mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  bizbrain mcp serve --port 8080`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	if err := ensureServices(); err != nil {
		return err
	}
	fullText, err := file.NewFullTextStore(cfg.FullTextDir())
	if err != nil {
		return err
	}

	ports := &mcp.Ports{
		Retrieval: retrievalService,
		Ingest:    ingestService,
		FullText:  fullText,
	}
	if err := ensureAnswerFlow(); err != nil {
		logger.Debug("Ask tool unavailable: %v", err)
	} else {
		ports.Answer = answerFlow
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
