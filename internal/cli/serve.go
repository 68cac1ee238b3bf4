package cli

import (
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

// serveCommand creates the MCP server command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		transport string
		addr      string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool server",
		Long: `Run the MCP tool server over the chosen transport.

The stdio transport is what MCP-native clients (editors, agents) spawn
directly; the http transport serves the streamable HTTP protocol for remote
clients. Provider credentials are read from the environment and an optional
.env file; tools whose provider is unconfigured stay listed and report a
configuration error when called.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			ts, backend, err := c.newToolServer(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer backend.Close()

			server := mcp.NewServer(&mcp.Implementation{Name: appName, Version: version}, nil)
			ts.Register(server)
			logger.Debug("registered tools", "count", len(ts.Tools()))

			switch transport {
			case "stdio":
				logger.Info("serving MCP over stdio")
				return server.Run(ctx, &mcp.StdioTransport{})
			case "http":
				if addr == "" {
					addr = cfg.Serve.Addr
				}
				handler := mcp.NewStreamableHTTPHandler(
					func(*http.Request) *mcp.Server { return server }, nil)
				return c.listenAndServe(ctx, addr, handler, "MCP server")
			default:
				return fmt.Errorf("unknown transport %q: must be stdio or http", transport)
			}
		},
	}

	cmd.Flags().StringVarP(&transport, "transport", "t", "stdio", "transport: stdio or http")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (http transport)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the HTTP response cache")

	return cmd
}
