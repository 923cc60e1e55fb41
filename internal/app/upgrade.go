package app

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/qxxt/pkgup/internal/output"
	"github.com/qxxt/pkgup/internal/tui"
	"github.com/qxxt/pkgup/internal/upgrade"
)

var (
	upgradeAll       bool
	upgradeIncludeVC bool
	upgradeRefresh   bool

	upgradeCmd = &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade stale packages, interactively or all at once",
		Long: `Compute which installed packages have a newer version available and
upgrade the ones you select.

With a single stale package the selection is a yes/no prompt. With
several, an interactive list opens: move with arrows or j/k, toggle
with space, 'a' selects all, enter upgrades the selection, q cancels.

With --all (or upgrade.unattended in the config, or when stdout is not
a terminal) every stale package is upgraded without prompting.

Each upgrade installs the new version, verifies it is present, and only
then removes the old one. If removing the old version fails, the new
one stays installed and the failure is recorded.`,
		Example: `  # Interactive selection
  pkgup upgrade

  # Everything, no questions
  pkgup upgrade --all

  # Include HEAD-installed packages
  pkgup upgrade --include-vc

  # Refresh the index first, regardless of the throttle
  pkgup upgrade --refresh`,
		RunE: runUpgrade,
	}
)

func init() {
	upgradeCmd.Flags().BoolVarP(&upgradeAll, "all", "a", false, "upgrade every stale package without prompting")
	upgradeCmd.Flags().BoolVar(&upgradeIncludeVC, "include-vc", false, "include version-controlled (HEAD) installs")
	upgradeCmd.Flags().BoolVar(&upgradeRefresh, "refresh", false, "force an index refresh before computing candidates")
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	includeVC := upgradeIncludeVC || cfg.Upgrade.IncludeVC
	unattended := upgradeAll || cfg.Upgrade.Unattended || !isatty.IsTerminal(os.Stdout.Fd())

	sel := upgrade.SelectAll
	if !unattended {
		sel = interactiveSelector
	}

	runner := newRunner(cfg, st, sel, includeVC, upgradeRefresh)
	report, err := runner.Run("manual", false)
	if err != nil {
		return err
	}

	fmt.Print(output.RenderReport(report))
	return nil
}

// interactiveSelector picks the selection surface by candidate count: a
// yes/no prompt for one candidate, the full list for more.
func interactiveSelector(cs upgrade.CandidateSet) ([]int, bool, error) {
	if len(cs) == 1 {
		return tui.PromptSelector(os.Stdin, os.Stdout)(cs)
	}
	return tui.RunSelector(cs)
}
