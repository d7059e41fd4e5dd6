package cli

import (
	"github.com/spf13/cobra"

	"github.com/zarrlens/zarrlens/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the metadata API over HTTP",
		Long: `Serve dataset resolution over HTTP.

  GET /api/metadata?url=<dataset>      resolution and tool links as JSON
  GET /api/neuroglancer?url=<dataset>  redirect to the Neuroglancer link
  GET /healthz                         liveness probe`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			r, closeCache, err := c.newResolver(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeCache()

			srv, err := server.New(server.Options{
				Resolver:       r,
				Tools:          c.cfg.ToolOptions(),
				AllowedSchemes: c.cfg.Server.AllowedSchemes,
				Logger:         c.Logger,
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
