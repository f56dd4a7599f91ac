package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Harmony CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harmony",
		Short: "Harmony - a musician networking backend",
		Long: `Harmony is the backend for a musician networking service:
account registration and login, musician profiles, and event listings.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}
