package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ledgerkit/findl/internal/observability"
	"github.com/ledgerkit/findl/pkg/registry"
	"github.com/ledgerkit/findl/pkg/runstate"
	"github.com/ledgerkit/findl/pkg/scraper"
)

var runCmd = &cobra.Command{
	Use:   "run [configuration]",
	Short: "Run one configuration in the foreground",
	Long: `Run a single configuration with its log output on the console instead of
the log directory. This is the debugging entry point for developing a
configuration: pair it with --visible to watch a browser-driven scraper work.

No success marker is written unless --record is given, so a debug run does
not affect 'findl status' or the freshness window.

An inline spec can be run without registering it:
  findl run --spec '{"module":"httpfile","output_directory":"/tmp/out","params":{"urls":["https://example.com/export.csv"]}}'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

var (
	runSpecJSON string
	runVisible  bool
	runRecord   bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runSpecJSON, "spec", "s", "", "Inline JSON configuration spec instead of a registered name")
	runCmd.Flags().BoolVar(&runVisible, "visible", false, "Run with a visible browser (if applicable)")
	runCmd.Flags().BoolVar(&runRecord, "record", false, "Write a success marker on completion")
}

func runRun(cmd *cobra.Command, args []string) error {
	task, err := resolveRunTarget(args)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid run target", err)
	}

	if err := os.MkdirAll(task.OutputDir, 0755); err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to create output directory", err)
	}

	env := scraper.Env{
		OutputDir: task.OutputDir,
		Logger:    observability.CLILogger,
		Visible:   runVisible,
	}

	start := time.Now().UTC()
	if err := task.Scraper.Run(cmd.Context(), env); err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Scrape failed", err)
	}
	end := time.Now().UTC()

	if runRecord {
		store := stateStore()
		rec := &runstate.RunRecord{
			Name:        task.Name,
			RunID:       uuid.New().String(),
			StartedAt:   start,
			CompletedAt: end,
		}
		if err := store.WriteMarker(rec); err != nil {
			return exitError(foundry.ExitFileWriteError, "Failed to record success marker", err)
		}
	}

	_, _ = fmt.Fprintf(os.Stdout, "%s: SUCCESS in %d seconds\n", task.Name, int(end.Sub(start).Seconds()))
	return nil
}

func resolveRunTarget(args []string) (*registry.Task, error) {
	if runSpecJSON != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--spec cannot be combined with a configuration name")
		}
		if runRecord {
			return nil, fmt.Errorf("--record requires a registered configuration name")
		}
		var spec registry.TaskSpec
		if err := json.Unmarshal([]byte(runSpecJSON), &spec); err != nil {
			return nil, fmt.Errorf("invalid --spec JSON: %w", err)
		}
		return registry.FromSpec("adhoc", spec)
	}

	if len(args) != 1 {
		return nil, fmt.Errorf("name one configuration or pass --spec")
	}
	reg, err := loadRegistry()
	if err != nil {
		return nil, err
	}
	return reg.Get(args[0])
}
