// Package app wires the command-line interface.
package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string

	// RootCmd is the root command for pkgup
	RootCmd = &cobra.Command{
		Use:   "pkgup",
		Short: "Interactive Homebrew upgrade assistant with scheduled runs",
		Long: `pkgup finds stale Homebrew packages, lets you pick which ones to
upgrade in an interactive multi-select, and can run unattended on a
daily schedule.

The upgrade is conservative: the new version is installed and verified
before the old one is removed, so a failed install never leaves you
without a working package. Version-controlled (HEAD) installs are
flagged separately and upgraded in place.

Index refreshes ('brew update') are throttled: pkgup remembers when the
index was last fetched and skips the refresh until the configured
number of days has passed.

Quick Start:
  1. pkgup list               # see what is upgradable
  2. pkgup upgrade            # pick and upgrade interactively
  3. pkgup daemon             # optional: daily scheduled upgrades

Examples:
  # Upgrade everything without prompting
  pkgup upgrade --all

  # Include HEAD-installed packages
  pkgup upgrade --include-vc

  # Force an index refresh regardless of the throttle
  pkgup refresh

  # Show past runs
  pkgup history`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("pkgup: interactive Homebrew upgrade assistant")
			fmt.Println()
			fmt.Println("Run 'pkgup list' to see upgradable packages.")
			fmt.Println("Run 'pkgup upgrade' to upgrade interactively.")
			fmt.Println("Run 'pkgup --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: ~/.config/pkgup/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.pkgup/pkgup.db)")

	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(upgradeCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(refreshCmd)
	RootCmd.AddCommand(daemonCmd)
	RootCmd.AddCommand(historyCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}
