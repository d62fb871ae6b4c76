package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/factura-cli/internal/adapters/driving/mcp"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve factura to MCP clients",
	Long: `Expose websites, invoices and fetch sessions to AI assistants.

Without --http the server speaks JSON-RPC over stdio, which is what
desktop assistants expect. A bare port binds to 127.0.0.1.

Examples:
  factura mcp serve
  factura mcp serve --http 8080
  factura mcp serve --http 0.0.0.0:8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve streamable HTTP on this address or port")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

// listenAddr turns "8080" into "127.0.0.1:8080" and leaves host:port alone.
func listenAddr(v string) string {
	if v == "" || strings.Contains(v, ":") {
		return v
	}
	return "127.0.0.1:" + v
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if fetchService == nil || siteService == nil || invoiceService == nil {
		return errors.New("services not configured")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Fetch:     fetchService,
		Sites:     siteService,
		Invoices:  invoiceService,
		Providers: providerRegistry,
	}, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	watchConfig(ctx, nil)

	addr := listenAddr(mcpHTTPAddr)
	if addr == "" {
		return server.Run(ctx)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", addr)
	return server.RunHTTP(ctx, addr)
}
