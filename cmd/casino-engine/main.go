package main

import (
	"fmt"
	"os"

	"github.com/Digital-Creators-Team/casino-engine/config"
	"github.com/spf13/cobra"
)

var configPath string

// @title           Casino Engine API
// @version         1.0
// @description     Outcome engine for slots, coin flip, wheel and card duel, with a PvP poker relay

// @host
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	rootCmd := &cobra.Command{
		Use:   "casino-engine",
		Short: "Casino game outcome engine",
		Long: `Casino game outcome engine.

Runs the HTTP API that stakes, resolves and settles single-player rounds,
relays PvP poker sessions, and offers offline tools for operators.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "Path to the YAML config file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newReconcileCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
