package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandevgo/svim/internal/service/agent"
	"github.com/sandevgo/svim/pkg/log"
)

var (
	replyMessage   string
	replyClientID  string
	replySessionID string
)

var replyCmd = &cobra.Command{
	Use:           "reply",
	Short:         "Answer one customer message and print the turn result as JSON",
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, flushLog, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer flushLog()

		turn := agent.Turn{
			Message:   firstSet(replyMessage, os.Getenv("MESSAGE")),
			ClientID:  firstSet(replyClientID, os.Getenv("CLIENT_ID")),
			SessionID: firstSet(replySessionID, os.Getenv("SESSION_ID")),
		}
		if turn.Message == "" {
			return fmt.Errorf("message is required (--message or MESSAGE)")
		}

		a, err := newAgentApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		result, err := a.agent.Run(ctx, turn)
		if err != nil {
			log.FromCtx(ctx).Error().Err(err).Msg("turn failed")
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	replyCmd.Flags().StringVarP(&replyMessage, "message", "m", "", "customer message")
	replyCmd.Flags().StringVar(&replyClientID, "client-id", "", "numeric customer id")
	replyCmd.Flags().StringVar(&replySessionID, "session-id", "", "conversation session id")
	rootCmd.AddCommand(replyCmd)
}
