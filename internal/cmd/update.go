package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/ledgerkit/findl/internal/observability"
	"github.com/ledgerkit/findl/pkg/report"
	"github.com/ledgerkit/findl/pkg/scheduler"
)

var updateCmd = &cobra.Command{
	Use:   "update [configuration...]",
	Short: "Run scraping configurations in parallel",
	Long: `Run the named configurations (glob patterns allowed) or every registered
configuration with --all. All requested configurations run concurrently, each
with its own log file under the log directory.

A configuration updated within the freshness window is skipped unless --force
is given. The command exits nonzero if any configuration fails; inspect that
configuration's log file to diagnose.

Example:
  findl update --all
  findl update vanguard chase
  findl update 'bank*' --force
  findl update --all --report jsonl`,
	RunE: runUpdate,
}

var (
	updateAll    bool
	updateForce  bool
	updateMaxAge time.Duration
	updateReport string
)

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().BoolVarP(&updateAll, "all", "a", false, "Update all registered configurations")
	updateCmd.Flags().BoolVarP(&updateForce, "force", "f", false, "Update even if a configuration ran recently")
	updateCmd.Flags().DurationVar(&updateMaxAge, "max-age", 0, "Freshness window for skipping recent updates (default from config, 24h)")
	updateCmd.Flags().StringVar(&updateReport, "report", "text", "Progress format: text or jsonl")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	if !updateAll && len(args) == 0 {
		return exitError(foundry.ExitInvalidArgument, "Nothing to update",
			fmt.Errorf("name one or more configurations or pass --all"))
	}
	if updateAll && len(args) > 0 {
		return exitError(foundry.ExitInvalidArgument, "Invalid update request",
			fmt.Errorf("--all cannot be combined with explicit names"))
	}

	reg, err := loadRegistry()
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configurations file", err)
	}

	var reporter report.Reporter
	switch updateReport {
	case "text":
		reporter = report.NewTextReporter(os.Stdout)
	case "jsonl":
		reporter = report.NewJSONLReporter(os.Stdout)
	default:
		return exitError(foundry.ExitInvalidArgument, "Invalid --report value",
			fmt.Errorf("unsupported report format: %s", updateReport))
	}
	defer func() { _ = reporter.Close() }()

	maxAge := updateMaxAge
	if maxAge <= 0 {
		maxAge = appConfig.Update.MaxAge
	}

	sched := scheduler.New(reg, stateStore(), reporter, observability.CLILogger)
	summary, err := sched.Run(cmd.Context(),
		scheduler.Request{Names: args, All: updateAll},
		scheduler.Options{Force: updateForce, MaxAge: maxAge})
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid update request", err)
	}

	if summary.Failed() {
		_, failed, _ := summary.Counts()
		return exitError(foundry.ExitExternalServiceUnavailable, "Update finished with failures",
			fmt.Errorf("%d of %d configurations failed", failed, len(summary.Outcomes)))
	}
	return nil
}
