// Package main is homebasectl, the command line client for the homebase
// feed service HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stavrou/homebase/internal/version"
)

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "homebasectl",
	Short:         "Control the homebase feed service",
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		currentCmd,
		periodsCmd,
		periodCmd,
		promoteCmd,
		resolveCmd,
		refreshCmd,
		statusCmd,
		backupCmd,
		backupsCmd,
		watchCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
