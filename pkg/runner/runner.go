// Package runner executes a single configuration and records its outcome.
//
// Each run gets a private log file and a logger scoped to it; the logger is
// torn down when the run completes. A success marker is written only when the
// scraper returns without error, so a failed run leaves the previous marker
// untouched.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ledgerkit/findl/pkg/registry"
	"github.com/ledgerkit/findl/pkg/runstate"
	"github.com/ledgerkit/findl/pkg/scraper"
)

// Result is the outcome of one run, reported to the scheduler. Errors are
// carried here rather than propagated, so one configuration's failure can
// never take down its siblings.
type Result struct {
	Name      string
	RunID     string
	StartedAt time.Time
	EndedAt   time.Time
	LogPath   string
	Err       error
}

func (r Result) Succeeded() bool {
	return r.Err == nil
}

func (r Result) Elapsed() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Runner executes configurations against a run-state store.
type Runner struct {
	store *runstate.Store
}

func New(store *runstate.Store) *Runner {
	return &Runner{store: store}
}

// Run executes one configuration to completion and returns its Result.
// It never panics and never returns an error by any path other than
// Result.Err.
func (r *Runner) Run(ctx context.Context, task *registry.Task) Result {
	res := Result{
		Name:      task.Name,
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
		LogPath:   r.store.LogPath(task.Name),
	}

	fail := func(err error) Result {
		res.EndedAt = time.Now().UTC()
		res.Err = err
		return res
	}

	// Inability to set up the log or output locations is fatal for this
	// run only.
	if err := r.store.EnsureDir(); err != nil {
		return fail(fmt.Errorf("prepare log dir: %w", err))
	}
	logFile, err := os.Create(res.LogPath)
	if err != nil {
		return fail(fmt.Errorf("create log file: %w", err))
	}

	logger := newTaskLogger(logFile)
	teardown := func() {
		_ = logger.Sync()
		_ = logFile.Close()
	}

	if err := os.MkdirAll(task.OutputDir, 0755); err != nil {
		logger.Error("Failed to create output directory", zap.Error(err))
		teardown()
		return fail(fmt.Errorf("create output dir: %w", err))
	}

	logger.Info("Starting scrape",
		zap.String("name", task.Name),
		zap.String("run_id", res.RunID),
		zap.String("module", task.Module),
		zap.String("output_dir", task.OutputDir))

	env := scraper.Env{OutputDir: task.OutputDir, Logger: logger}
	if err := invoke(ctx, task.Scraper, env); err != nil {
		logger.Error("Scrape failed", zap.Error(err))
		teardown()
		return fail(err)
	}

	res.EndedAt = time.Now().UTC()
	rec := &runstate.RunRecord{
		Name:        task.Name,
		RunID:       res.RunID,
		StartedAt:   res.StartedAt,
		CompletedAt: res.EndedAt,
		LogPath:     res.LogPath,
	}
	if err := r.store.WriteMarker(rec); err != nil {
		logger.Error("Failed to record success marker", zap.Error(err))
		teardown()
		return fail(fmt.Errorf("write success marker: %w", err))
	}

	logger.Info("Scrape succeeded", zap.Duration("elapsed", res.Elapsed()))
	teardown()
	return res
}

// invoke runs the scraper, converting a panic into a contained error. The
// stack lands in the run's log for diagnosis.
func invoke(ctx context.Context, s scraper.Scraper, env scraper.Env) (err error) {
	defer func() {
		if v := recover(); v != nil {
			env.Logger.Error("Scraper panicked",
				zap.Any("value", v),
				zap.String("stack", string(debug.Stack())))
			err = fmt.Errorf("scraper panicked: %v", v)
		}
	}()
	return s.Run(ctx, env)
}

// newTaskLogger builds the logger that sinks to one run's log file.
func newTaskLogger(w io.Writer) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		zapcore.DebugLevel)
	return zap.New(core)
}
