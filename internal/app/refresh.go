package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/qxxt/pkgup/internal/output"
	"github.com/qxxt/pkgup/internal/refresh"
	"github.com/qxxt/pkgup/internal/source"
)

var (
	refreshStatus bool

	refreshCmd = &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the package index now",
		Long: `Fetch the latest package index ('brew update'), bypassing the refresh
throttle, and record the refresh time so scheduled runs know the index
is fresh.`,
		Example: `  # Refresh now
  pkgup refresh

  # Just show when the index was last refreshed
  pkgup refresh --status`,
		RunE: runRefresh,
	}
)

func init() {
	refreshCmd.Flags().BoolVar(&refreshStatus, "status", false, "show the last refresh time without refreshing")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Refresh.Taps) == 0 {
		return refresh.ErrNoSourcesConfigured
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	src := source.NewBrew(cfg.Refresh.Taps)

	if refreshStatus {
		last, err := st.LastRefresh()
		if err != nil {
			return err
		}
		if last.IsZero() {
			// No local record; the source may still know.
			if t, err := src.IndexLastModified(); err == nil {
				last = t
			}
		}
		fmt.Print(output.RenderLastRefresh(last))
		return nil
	}

	spinner := output.NewSpinner("Refreshing package index")
	spinner.Start()
	err = src.RefreshIndex()
	spinner.Stop()
	if err != nil {
		return fmt.Errorf("index refresh failed: %w", err)
	}

	if err := st.SetLastRefresh(time.Now()); err != nil {
		return fmt.Errorf("failed to persist refresh state: %w", err)
	}

	fmt.Println("Package index refreshed.")
	return nil
}
