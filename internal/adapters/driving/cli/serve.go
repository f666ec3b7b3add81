package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/YX-UOM/Plithos/internal/adapters/driving/httpapi"
	"github.com/YX-UOM/Plithos/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored digests over HTTP",
	Long: `Start a JSON API over the digest store. When the scheduler is enabled
the weekly digest also runs in the background.

Endpoints:
  GET  /health
  GET  /api/framework
  GET  /api/sources
  GET  /api/digests?limit=N
  GET  /api/digests/{week}?format=json|markdown
  POST /api/digests
  GET  /api/themes/frequency?weeks=N
  GET  /api/themes/trends?weeks=N&theme=T
  *    /mcp  (with --mcp, streamable HTTP MCP transport)

Examples:
  esgmon serve
  esgmon serve --addr 127.0.0.1:9000 --cors http://localhost:3000
  esgmon serve --mcp`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveAddr string
	serveCORS []string
	serveMCP  bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", httpapi.DefaultAddr, "Listen address")
	serveCmd.Flags().StringSliceVar(&serveCORS, "cors", nil, "Allowed CORS origins")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "Also serve MCP over streamable HTTP at /mcp")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	digests, err := digestService()
	if err != nil {
		return err
	}

	var r httpapi.Renderer
	if services.Renderer != nil {
		r = services.Renderer
	}

	cfg := httpapi.Config{
		Addr:           serveAddr,
		AllowedOrigins: serveCORS,
	}
	if serveMCP {
		mcpServer, err := newMCPServer(digests)
		if err != nil {
			return err
		}
		cfg.MCP = mcpServer.Handler()
	}

	server, err := httpapi.NewServer(digests, r, cfg)
	if err != nil {
		return err
	}

	stop := startBackground(cmd.Context())
	defer stop()

	logger.Info("Serving digests on %s", server.Addr())
	if len(serveCORS) > 0 {
		logger.Debug("CORS origins: %s", strings.Join(serveCORS, ", "))
	}
	return server.Run(cmd.Context())
}
