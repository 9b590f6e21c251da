package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/ledgerkit/findl/pkg/report"
	"github.com/ledgerkit/findl/pkg/runstate"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show last-update status for all configurations",
	Long: `Show when each registered configuration last completed successfully.

Configurations that have never succeeded are listed first as NEVER, then the
rest from stalest to freshest. A log directory with no history is not an
error; everything simply shows as NEVER.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configurations file", err)
	}

	entries := stateStore().Snapshot(reg.Names())
	renderStatus(os.Stdout, entries, time.Now())
	return nil
}

// renderStatus prints the status table: stalest first, NEVER entries on top.
func renderStatus(w io.Writer, entries []runstate.Entry, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "NAME\tLAST UPDATE")
	for _, e := range entries {
		if !e.Updated {
			_, _ = fmt.Fprintf(tw, "%s\tNEVER\n", e.Name)
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s (%s ago)\n",
			e.Name,
			e.LastUpdate.Local().Format(time.ANSIC),
			report.FormatAge(now.Sub(e.LastUpdate)))
	}
}
