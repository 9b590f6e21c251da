package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ledgerkit/findl/internal/config"
	"github.com/ledgerkit/findl/internal/observability"
	"github.com/ledgerkit/findl/pkg/registry"
	"github.com/ledgerkit/findl/pkg/runstate"
)

var (
	flagRegistry string
	flagLogDir   string
	flagLogLevel string
)

// appConfig is resolved once per invocation in initApp.
var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "findl",
	Short: "Retrieve personal financial data from configured institutions",
	Long: `findl runs named scraping configurations against banks, brokerages, and
billers, keeping a per-configuration log and a last-successful-update marker.

Configurations are declared in a YAML or JSON file; 'findl status' shows how
stale each one is, and 'findl update' refreshes them in parallel.`,
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRegistry, "config", "", "Path to the configurations file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "Directory holding per-configuration logs and update markers")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "CLI log level (debug|info|warn|error)")
}

func initApp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}

	// Flags win over config file and environment.
	if flagRegistry != "" {
		cfg.Registry = flagRegistry
	}
	if flagLogDir != "" {
		cfg.LogDir = flagLogDir
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}

	if err := observability.Init(cfg.Logging.Level); err != nil {
		return err
	}

	appConfig = cfg
	return nil
}

// Execute runs the CLI. An interrupt cancels the command context; in-flight
// tasks see the cancellation through their own ctx.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer observability.Sync()

	return rootCmd.ExecuteContext(ctx)
}

func loadRegistry() (*registry.Registry, error) {
	if appConfig == nil || strings.TrimSpace(appConfig.Registry) == "" {
		return nil, fmt.Errorf("configurations file is required (--config or FINDL_REGISTRY)")
	}
	return registry.Load(appConfig.Registry)
}

func stateStore() *runstate.Store {
	return runstate.NewStore(appConfig.LogDir)
}

// exitError creates an error that will cause the CLI to exit with the given code.
func exitError(code int, message string, err error) error {
	return fmt.Errorf("%s: %w (exit code %d)", message, err, code)
}
