package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/finbridge/investor-agent/pkg/cache"
	"github.com/finbridge/investor-agent/pkg/providers/alpaca"
	"github.com/finbridge/investor-agent/pkg/providers/questrade"
)

// diagCommand creates the credential and configuration health-check command.
func (c *CLI) diagCommand() *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "diag",
		Short: "Check credentials, token file, cache, and config health",
		Long: `Check everything the tool server depends on: environment variables
and .env loading, the Questrade token file, the Alpaca credentials, the
config file, and the cache directory.

All checks are local; pass --probe to also exchange the Questrade refresh
token and confirm the session handle can be created.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDiag(cmd.Context(), probe)
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "contact Questrade to verify the refresh token works")
	return cmd
}

func (c *CLI) runDiag(ctx context.Context, probe bool) error {
	printTitle("Environment")
	if _, err := os.Stat(".env"); err == nil {
		printSuccess(".env file found")
	} else {
		printInfo("no .env file in working directory (environment variables only)")
	}
	c.diagEnvVar(questrade.EnvRefreshToken)
	c.diagEnvVar(alpaca.EnvAPIKey)
	c.diagEnvVar(alpaca.EnvAPISecret)

	printTitle("Questrade token file")
	c.diagTokenFile()

	printTitle("Config")
	if cfg, err := c.loadConfig(); err != nil {
		printError("config: %v", err)
	} else {
		printSuccess("config loaded")
		printDetail("cache backend: %s, ttl: %s", cfg.Cache.Backend, cfg.TTL())
		printDetail("bridge addr: %s, serve addr: %s", cfg.Bridge.Addr, cfg.Serve.Addr)
	}

	printTitle("Cache")
	if dir, err := cache.DefaultDir(); err != nil {
		printWarning("cache directory unavailable: %v", err)
	} else {
		printKeyValue("directory", dir)
	}

	if probe {
		printTitle("Questrade probe")
		c.diagProbe(ctx)
	}
	return nil
}

func (c *CLI) diagEnvVar(name string) {
	value := os.Getenv(name)
	switch {
	case value == "":
		printWarning("%s is not set", name)
	case len(value) < 8:
		printWarning("%s is set but suspiciously short (%d characters)", name, len(value))
	default:
		printSuccess("%s is set (%s...%s)", name, value[:4], value[len(value)-4:])
	}
}

func (c *CLI) diagTokenFile() {
	store, err := questrade.NewTokenStore("")
	if err != nil {
		printError("token store: %v", err)
		return
	}
	printKeyValue("path", store.Path())

	tok, err := store.Load()
	switch {
	case err != nil:
		printError("token file unreadable: %v", err)
	case tok == nil:
		printInfo("no token file yet (created on first Questrade call)")
	case tok.Valid():
		printSuccess("access token valid until %s", tok.ExpiresAt.Format(time.RFC3339))
		printDetail("api server: %s", tok.APIServer)
	case tok.RefreshToken != "":
		printInfo("access token expired; rotated refresh token available")
	default:
		printWarning("token file present but holds no usable token")
	}
}

// diagProbe exchanges the refresh token for a session handle. This is the
// only diag check that touches the network.
func (c *CLI) diagProbe(ctx context.Context) {
	client, err := questrade.NewClient(questrade.Config{Logger: c.Logger})
	if err != nil {
		printError("client construction failed: %v", err)
		return
	}

	spinner := newSpinner("exchanging refresh token")
	spinner.Start(ctx)

	accounts, err := client.Accounts(ctx)
	if err != nil {
		spinner.StopWithError("token exchange failed: %v", err)
		return
	}
	spinner.StopWithSuccess("session handle created, %d account(s) visible", len(*accounts.Accounts))
}
