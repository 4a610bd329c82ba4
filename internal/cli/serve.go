package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/rulemaker/internal/server"
	"github.com/matzehuels/rulemaker/pkg/observability"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout pipeline over HTTP",
		Long: `Serve the layout pipeline over HTTP.

Routes:
  GET  /healthz
  POST /v1/layout            rule JSON → diagram JSON
  POST /v1/render?format=    svg (default), png, dot or json
  POST /v1/validate          → {"errors": [...], "isolated": [...]}

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			hooks := observability.NewLogHooks(c.Logger)
			observability.SetServerHooks(hooks)
			observability.SetCacheHooks(hooks)
			defer observability.Reset()

			printInfo("Listening on %s", StyleValue.Render(cfg.Server.Addr))
			return server.New(runner, cfg, c.Logger).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
