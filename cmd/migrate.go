package main

import (
	"saveai-api/db"

	"github.com/spf13/cobra"
)

func migrateCommand() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or revert the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(db.Up), string(db.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return db.Migrate(source, db.URL(), db.Direction(args[0]))
		},
	}
	cmd.Flags().StringVar(&source, "source", db.DefaultMigrationsPath, "migration source URL")
	return cmd
}
