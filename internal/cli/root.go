// Package cli wires the cronsync commands: apply, watch, list, remove and
// history all share the same bootstrap (config file, logging service, table
// store, history store).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped by the build; "dev" otherwise.
var Version = "dev"

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "cronsync",
	Short:         "Declarative crontab reconciliation agent",
	Long:          "cronsync reconciles per-user crontabs against a declarative config file,\npreserving unmanaged entries and comments.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "/etc/cronsync/config.yaml", "path to config file (yaml or json)")
	rootCmd.AddCommand(
		applyCmd(),
		watchCmd(),
		listCmd(),
		removeCmd(),
		historyCmd(),
		versionCmd(),
	)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cronsync version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("cronsync", Version)
		},
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cronsync:", err)
		os.Exit(1)
	}
}
