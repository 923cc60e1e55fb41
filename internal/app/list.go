package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qxxt/pkgup/internal/output"
	"github.com/qxxt/pkgup/internal/source"
	"github.com/qxxt/pkgup/internal/upgrade"
)

var (
	listIncludeVC bool

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List upgradable packages without changing anything",
		Long: `Show installed packages with a newer version available. Nothing is
installed or removed and the index is not refreshed; use 'pkgup
refresh' first if the index is stale.`,
		Example: `  # Registry packages only
  pkgup list

  # Also show HEAD-installed packages
  pkgup list --include-vc`,
		RunE: runList,
	}
)

func init() {
	listCmd.Flags().BoolVar(&listIncludeVC, "include-vc", false, "include version-controlled (HEAD) installs")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	differ := upgrade.NewDiffer(source.NewBrew(cfg.Refresh.Taps))
	includeVC := listIncludeVC || cfg.Upgrade.IncludeVC
	candidates, err := differ.ComputeCandidates(includeVC)
	if err != nil {
		return err
	}

	fmt.Print(output.RenderCandidateTable(candidates))
	return nil
}
