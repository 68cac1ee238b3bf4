package cli

import (
	"github.com/spf13/cobra"

	"github.com/finbridge/investor-agent/internal/bridge"
)

// bridgeCommand creates the REST bridge command.
func (c *CLI) bridgeCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Run the REST bridge",
		Long: `Run the HTTP REST bridge republishing the tool surface for callers
that speak plain HTTP instead of MCP (workflow engines, dashboards).

Endpoints: GET / (status), GET /health, GET /tools, GET /tools/{name},
POST /call.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Bridge.Addr
			}

			ts, backend, err := c.newToolServer(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer backend.Close()

			router := bridge.New(ts, c.Logger, version).Router()
			return c.listenAndServe(ctx, addr, router, "bridge")
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the HTTP response cache")

	return cmd
}
