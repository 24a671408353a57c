package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/panegrid/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

The server shares the configured store, so layouts written by the API are
visible to the other commands and the other way round. Stop it with Ctrl-C.`,
		Example: `  panegrid serve --addr :9090
  panegrid serve --store redis`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: [server] addr from config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	geom, err := cfg.Geometry()
	if err != nil {
		return err
	}

	s, err := c.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	printInfo("Serving on %s %s", StyleHighlight.Render(cfg.Server.Addr), StyleDim.Render("(store: "+cfg.Store.Backend+")"))

	srv := server.New(server.Config{
		Addr:     cfg.Server.Addr,
		Store:    s,
		Geometry: geom,
		Logger:   c.Logger,
	})
	return srv.ListenAndServe(ctx)
}
