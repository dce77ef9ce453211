// Package cli wires configuration, storage and the front ends into the
// taskly command.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "taskly",
		Short: "taskly - a todo list for the terminal",
		Long: `taskly keeps a personal todo list in sync with a task server.

Run without arguments to open the terminal UI. Use "taskly serve" to run the
task API that the UI talks to in remote mode.`,
		RunE:          runTUI, // Default action opens the UI
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default $XDG_CONFIG_HOME/taskly/config.yaml)")
	rootCmd.SetVersionTemplate("taskly {{.Version}}\n")
}

// Execute runs the root command
func Execute(version string) error {
	// Add subcommands here to ensure proper initialization order
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
