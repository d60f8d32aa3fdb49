package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the Meridian admin CLI. Subcommands
// (tenant, alerting) are attached here.
var rootCmd = &cobra.Command{
	Use:           "meridian",
	Short:         "Meridian admin CLI",
	Long:          "Administrative utilities for the Meridian IoT platform (tenant lifecycle, alerting jobs).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
