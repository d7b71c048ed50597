package main

import (
	"fmt"

	"github.com/dmitrijs2005/todos/internal/server"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:                "migrate",
	Short:              "Apply database migrations and exit",
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := setup(args)
		ctx := cmd.Context()

		db, rm, err := server.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		if db == nil {
			logger.Info(ctx, "memory store needs no migrations")
			return nil
		}
		defer db.Close()

		if err := rm.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("migration error: %w", err)
		}
		logger.Info(ctx, "migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
