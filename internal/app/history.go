package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qxxt/pkgup/internal/output"
)

var (
	historyLimit int

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show past upgrade runs",
		Long: `List recorded upgrade runs, newest first, with what each run did:
which packages were upgraded, which failed, or whether everything was
already up to date.`,
		Example: `  # Last 20 runs
  pkgup history

  # Last 5 runs
  pkgup history --limit 5`,
		RunE: runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", historyLimit)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(historyLimit)
	if err != nil {
		return err
	}

	fmt.Print(output.RenderRunTable(runs))
	return nil
}
