package cli

import (
	"github.com/spf13/cobra"

	"github.com/storycraft/storycraft/pkg/server"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the pipeline over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.teardown()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			srv := server.New(a.orch, a.store, a.metrics, a.logger)
			return srv.ListenAndServe(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr from config)")
	return cmd
}
