package main

import (
	"github.com/spf13/cobra"

	"github.com/sandevgo/svim/internal/transport/cli"
)

var chatClientID string

var chatCmd = &cobra.Command{
	Use:           "chat",
	Short:         "Talk to the assistant interactively",
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

		rl, err := cli.NewReadLine(a.agent, cfg.App.GetRuntimePath(), chatClientID)
		if err != nil {
			return err
		}
		a.group.Add(rl)

		return a.group.Start(ctx)
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatClientID, "client-id", "", "numeric customer id")
	rootCmd.AddCommand(chatCmd)
}
