package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/deprank/internal/server"
)

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr   string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ranking API over HTTP",
		Long: `Serve the ranking API over HTTP until interrupted.

  GET  /healthz
  GET  /api/v1/rank?q=numpy,pandas[&strict=true]
  POST /api/v1/rank   (plain text, or JSON {"input": "...", "strict": true})

Results are cached with the configured backend and shared by all requests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("addr") {
				c.Config.Server.Addr = addr
			}
			if cmd.Flags().Changed("strict") {
				c.Config.Strict = strict
			}

			store, err := c.newCache(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			logger := loggerFromContext(ctx)
			logger.Info("starting server",
				"addr", c.Config.Server.Addr,
				"cache", c.Config.Cache.Backend,
				"strict", c.Config.Strict)

			srv := server.New(c.newAggregator(store), logger, server.WithStrict(c.Config.Strict))
			return srv.ListenAndServe(ctx, c.Config.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().BoolVar(&strict, "strict", false, "default requests to strict mode")
	return cmd
}
