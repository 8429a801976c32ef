package main

import (
	"github.com/spf13/cobra"

	"github.com/sandevgo/svim/internal/transport/mcpserver"
	"github.com/sandevgo/svim/pkg/log"
)

var mcpCmd = &cobra.Command{
	Use:           "mcp",
	Short:         "Serve the governed booking tools over MCP stdio",
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, flushLog, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer flushLog()

		a, err := newToolsApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		a.group.Add(mcpserver.NewServer(a.tools, a.governor))
		if err := a.group.Start(ctx); err != nil {
			return err
		}

		log.FromCtx(ctx).Info().Msg("mcp server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
