package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "meditrack-api",
		Short:         "MediTrack authentication API",
		Long:          "JSON REST API for MediTrack accounts: registration, login, bearer-token sessions and profiles.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	serveCmd := newServeCmd()
	rootCmd.AddCommand(serveCmd, newMigrateCmd())

	// running without a subcommand starts the server
	rootCmd.RunE = serveCmd.RunE

	return rootCmd
}
