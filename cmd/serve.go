package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rednote-cli/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves the login and publish flows over an HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			manager, err := a.newBrowserManager()
			if err != nil {
				return err
			}

			a.logger.Info("Starting HTTP API.", zap.String("addr", a.cfg.Server.Addr))
			return server.New(a.cfg, manager, a.logger).Run(cmd.Context())
		},
	}

	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return serveCmd
}
