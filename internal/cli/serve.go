package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scholarshare/scholarshare/internal/server"
	"github.com/scholarshare/scholarshare/pkg/session"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API server",
		Long:  "Serve starts the HTTP API backing the dashboard: session-scoped paper analysis, content generation, artifact downloads, and runtime credential overrides.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg := c.cfg()

			if host == "" {
				host = cfg.Host
			}
			if port == 0 {
				port = cfg.Port
			}

			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			cch := c.newCache(ctx)
			defer cch.Close()

			client := c.client()
			srv := server.New(server.Options{
				Settings:  c.settings,
				Sessions:  session.NewManager(0),
				Store:     st,
				Client:    client,
				Images:    c.images(),
				Renderer:  c.renderer(),
				Cache:     cch,
				OutputDir: cfg.OutputDir,
				Logger:    logger,
			})

			addr := fmt.Sprintf("%s:%d", host, port)
			printInfo("Dashboard API on http://%s", addr)
			return srv.Start(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "bind address (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default from config)")
	return cmd
}
