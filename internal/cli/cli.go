// Package cli implements the investor-agent command-line interface.
//
// This package provides commands for running the MCP tool server over stdio
// or HTTP, running the REST bridge, checking credential and token health,
// and managing the HTTP response cache. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
//   - serve: Run the MCP tool server (stdio or streamable HTTP transport)
//   - bridge: Run the REST bridge republishing the tool surface
//   - diag: Check credentials, token file, cache, and config health
//   - cache: Manage the HTTP response cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context so every layer logs consistently.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/finbridge/investor-agent/internal/config"
	"github.com/finbridge/investor-agent/internal/tools"
	"github.com/finbridge/investor-agent/pkg/cache"
	"github.com/finbridge/investor-agent/pkg/providers/feeds"
	"github.com/finbridge/investor-agent/pkg/providers/yahoo"
)

// appName is the application name used for directories and display.
const appName = "investor-agent"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// Version information, set by SetVersion from build-time ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Market and account data tool server",
		Long:         `investor-agent exposes market data, technical analysis, and brokerage account tools to MCP clients and REST callers, backed by Yahoo Finance, Alpaca, Questrade, and public sentiment feeds.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv()
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("%s %s\ncommit: %s\nbuilt: %s\n", appName, version, commit, date))
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to the TOML config file")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.bridgeCommand())
	root.AddCommand(c.diagCommand())
	root.AddCommand(c.cacheCommand())

	return root
}

// loadConfig reads the TOML config honoring the --config flag.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

// newToolServer wires the provider clients and tool registry for a command.
// The returned cache must be closed by the caller.
func (c *CLI) newToolServer(ctx context.Context, cfg *config.Config, noCache bool) (*tools.Server, cache.Cache, error) {
	var backend cache.Cache
	if noCache {
		backend = cache.NewNullCache()
	} else {
		b, err := cfg.OpenCache(ctx)
		if err != nil {
			return nil, nil, err
		}
		backend = b
	}

	ts := tools.New(tools.Deps{
		Yahoo:  yahoo.NewClient(yahoo.Config{Cache: backend, TTL: cfg.TTL(), Logger: c.Logger}),
		Feeds:  feeds.NewClient(feeds.Config{Cache: backend, TTL: cfg.TTL(), Logger: c.Logger}),
		Logger: c.Logger,
	})
	return ts, backend, nil
}

// listenAndServe runs an HTTP server until the context is cancelled, then
// shuts it down gracefully.
func (c *CLI) listenAndServe(ctx context.Context, addr string, handler http.Handler, what string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info(what+" listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown %s: %w", what, err)
		}
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
