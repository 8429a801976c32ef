package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sandevgo/svim/internal/config"
	"github.com/sandevgo/svim/internal/transport/cli"
	"github.com/sandevgo/svim/pkg/log"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "svim",
	Short: "Svim — salon scheduling assistant",
	Long:  `Svim answers salon customers, looks up services and professionals and books appointments.`,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

// bootstrap loads .env files, parses the configuration and installs the logger.
func bootstrap(ctx context.Context) (context.Context, *config.Config, func(), error) {
	loaded, envErr := config.LoadEnvFiles(config.GetRuntimePath())

	cfg, err := config.Load()
	if err != nil {
		return ctx, nil, func() {}, err
	}

	ctx, flushLog := log.NewContextWithLogger(ctx, log.Options{
		Debug: debug || cfg.App.Debug,
		JSON:  cfg.App.JSONLogs,
	})

	logger := log.FromCtx(ctx)
	if envErr != nil {
		logger.Warn().Err(envErr).Msg("failed to load .env file")
	}
	for _, path := range loaded {
		logger.Debug().Str("path", path).Msg("loaded env file")
	}

	return ctx, cfg, flushLog, nil
}

func CustomizeHelp(rootCmd *cobra.Command) {
	cobra.AddTemplateFunc("StyleTitle", func(s string) string { return cli.TitleStyle.Render(s) })
	cobra.AddTemplateFunc("StyleUsage", func(s string) string { return cli.UsageStyle.Render(s) })
	cobra.AddTemplateFunc("StyleFlag", func(s string) string { return cli.FlagStyle.Render(s) })
	cobra.AddTemplateFunc("StyleDesc", func(s string) string { return cli.DescStyle.Render(s) })

	template := `
{{StyleTitle "USAGE"}}
  {{StyleUsage .UseLine}}
{{if gt (len .Commands) 0}}{{StyleTitle "AVAILABLE COMMANDS"}}
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding}} {{StyleDesc .Short}}{{end}}
{{end}}{{end}}
{{if .HasAvailableLocalFlags}}{{StyleTitle "FLAGS"}}
{{StyleFlag (.LocalFlags.FlagUsages | trimTrailingWhitespaces)}}
{{end}}
`
	rootCmd.SetHelpTemplate(template)
}
