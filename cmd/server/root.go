package main

import (
	"log"
	"os"

	"github.com/dmitrijs2005/todos/internal/logging"
	"github.com/dmitrijs2005/todos/internal/server/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "todos-server",
	Short:         "Multi-tenant todo list service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// setup loads .env, builds the configuration from args and the logger.
// Flags are handled by config.LoadConfig, so subcommands disable cobra's
// own flag parsing.
func setup(args []string) (*config.Config, logging.Logger) {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using environment variables")
	}
	cfg := config.LoadConfig(args)
	return cfg, logging.New(cfg.LogFormat, os.Stdout)
}
