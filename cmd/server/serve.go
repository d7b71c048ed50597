package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/todos/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:                "serve",
	Short:              "Start the HTTP API and the gRPC health endpoint",
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := setup(args)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		defer stop()

		app, err := server.NewApp(ctx, cfg, logger)
		if err != nil {
			logger.Error(ctx, "init failed", "error", err)
			return err
		}
		return app.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
