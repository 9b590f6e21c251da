// Package observability holds the process-level logger shared by the CLI
// commands. Per-run log sinks live with the runner, not here: each task's
// output must land only in its own file.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the logger used by commands for operator-facing diagnostics.
// It writes to stderr so command output on stdout stays machine-parseable.
var CLILogger = zap.NewNop()

// Init installs the real CLI logger at the given level.
func Init(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build CLI logger: %w", err)
	}
	CLILogger = logger
	return nil
}

// Sync flushes buffered log entries. Called on process exit.
func Sync() {
	_ = CLILogger.Sync()
}
