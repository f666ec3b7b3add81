package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YX-UOM/Plithos/internal/adapters/driving/mcp"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can search ESG
sources, generate digests and read stored ones.

By default, the server communicates over stdio using JSON-RPC.
Use --port to serve streamable HTTP instead, e.g. for MCP Inspector.

Tools:
  esg_search_category     - search one registry category
  esg_generate_digest     - run the weekly pipeline
  esg_get_digest          - read a stored digest
  esg_get_theme_trends    - weekly theme counts
  esg_get_recent_digests  - list recent digests

Examples:
  esgmon mcp serve
  esgmon mcp serve --port 8080

Desktop client configuration:
  {
    "mcpServers": {
      "esgmon": {
        "command": "/path/to/esgmon",
        "args": ["mcp", "serve"]
      }
    }
  }`,
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

	digests, err := digestService()
	if err != nil {
		return err
	}

	server, err := newMCPServer(digests)
	if err != nil {
		return err
	}

	stop := startBackground(cmd.Context())
	defer stop()

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}

// newMCPServer wires whichever optional services are configured.
func newMCPServer(digests driving.DigestService) (*mcp.Server, error) {
	ports := &mcp.Ports{Digests: digests}
	if services.Retrieval != nil {
		ports.Retrieval = services.Retrieval
	}
	if services.Renderer != nil {
		ports.Renderer = services.Renderer
	}
	return mcp.NewServer(ports, version)
}
