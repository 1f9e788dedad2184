package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/maialino123/ecomate-extract/internal/mcp"
)

var (
	serveHTTP   bool
	serveAddr   string
	serveAPIKey string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve product extraction to MCP clients",
	Long: `Starts an MCP server exposing two tools:

  extract_product        capture an offer URL and return the product record
  extract_product_html   extract from page HTML the client already has

The server speaks stdio by default. With --http it serves streamable HTTP
on /mcp and a health check on /healthz.`,
	Example: `  # Register with an MCP client over stdio
  ecomate serve

  # Serve over HTTP with a bearer token
  ECOMATE_MCP_API_KEY=secret ecomate serve --http --addr=:8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveHTTP, "http", false, "Serve streamable HTTP instead of stdio")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "Bearer token required on /mcp (default $ECOMATE_MCP_API_KEY)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	s := mcpserver.NewServer(a.Pipeline, rootCmd.Version)

	if !serveHTTP {
		fmt.Fprintln(cmd.ErrOrStderr(), "Starting ecomate MCP server on stdio...")
		return s.ServeStdio()
	}

	addr := serveAddr
	if addr == "" {
		addr = a.Config.MCPAddr
	}
	key := serveAPIKey
	if key == "" {
		key = os.Getenv("ECOMATE_MCP_API_KEY")
	}
	return s.ServeHTTP(cmd.Context(), addr, key)
}
