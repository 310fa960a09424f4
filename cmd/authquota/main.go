// Package main is the entry point for authquota, a terminal console for the
// quota state of provider auth files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/j-veylop/authquota/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "authquota",
		Short: "Terminal console for provider auth file quota",
		Long: `authquota watches a directory of provider auth files and a directory of
captured quota payloads, normalizes every provider's quota into groups and
shows them in a terminal dashboard.

Environment Variables:
  AUTH_DIR          Auth file directory
  PAYLOAD_DIR       Quota payload directory
  DATABASE_PATH     SQLite history database path
  RULES_PATH        Grouping rules TOML file
  LOG_LEVEL         debug, info, warn or error
  LOG_FILE          Log file path
  REFRESH_INTERVAL  Rescan interval (default: 30s)
  NOTIFICATIONS     Desktop notifications on exhaustion (default: true)`,
		Version:      version.GetVersion(),
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI()
		},
	}

	root.SetVersionTemplate("{{ .Version }}\n")

	root.AddCommand(
		newTUICmd(),
		newGroupsCmd(),
		newHistoryCmd(),
		newRulesCmd(),
		newVersionCmd(),
	)

	return root
}

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal dashboard (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}
