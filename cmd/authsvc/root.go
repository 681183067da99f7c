package main

import (
	"log/slog"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"authsvc/internal/app"
	"authsvc/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the authsvc CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "authsvc",
		Short:        "Email/password authentication service",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("path", configFile).Wrap(err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	log := app.NewLogger(cfg.Log.Level, os.Stderr)
	slog.SetDefault(log)
	return log
}
