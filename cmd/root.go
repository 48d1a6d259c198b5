package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set during build using ldflags
var Version = "dev"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "lockdiff",
	Short:   "Compares Gemfile.lock snapshots between git refs",
	Long:    `lockdiff reconciles the Gemfile.lock at two points in git history and reports every gem that was added, removed, updated or left unchanged, annotated with version-change magnitude and gem health metadata.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
