package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sandevgo/svim/internal/storage/sqlite"
	"github.com/sandevgo/svim/pkg/log"
)

var migrateCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Apply migrations to the local SQLite database",
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, flushLog, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer flushLog()

		path := cfg.App.GetDatabasePath()
		db, err := sqlite.NewDB(ctx, path)
		if err != nil {
			return err
		}
		defer db.Close()

		version, err := sqlite.Version(ctx, db)
		if err != nil {
			return err
		}

		log.FromCtx(ctx).Info().Str("path", path).Int64("version", version).Msg("database is up to date")
		fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d\n", path, version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
