package main

import (
	"github.com/spf13/cobra"

	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/internal/transport/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:           "serve",
	Short:         "Serve the reply webhook over HTTP",
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, flushLog, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer flushLog()

		a, err := newAgentApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		addr := cfg.App.HTTPAddr
		if serveAddr != "" {
			addr = serveAddr
		}
		a.group.Add(httpapi.New(addr, a.agent, httpapi.NewMetrics(core.SvimName)))

		return a.group.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default SVIM_HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
