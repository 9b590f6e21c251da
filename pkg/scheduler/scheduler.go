// Package scheduler orchestrates one update invocation: it resolves the
// requested configuration names against the registry, launches one runner
// per task, and aggregates per-task results.
//
// Validation happens before anything is launched: an unknown name anywhere
// in the request aborts the whole invocation with no task started. Task
// failures, by contrast, are contained to their own Result.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/ledgerkit/findl/pkg/registry"
	"github.com/ledgerkit/findl/pkg/report"
	"github.com/ledgerkit/findl/pkg/runner"
	"github.com/ledgerkit/findl/pkg/runstate"
)

// DefaultMaxAge is the freshness window: a configuration whose marker is
// younger than this is skipped unless the run is forced.
const DefaultMaxAge = 24 * time.Hour

// Request is the set of configuration names targeted by one invocation.
// Names may be doublestar patterns, expanded against the registry.
type Request struct {
	Names []string
	All   bool
}

// Options tune one invocation.
type Options struct {
	// Force runs every requested configuration regardless of marker age.
	Force bool

	// MaxAge overrides the freshness window. Zero means DefaultMaxAge.
	MaxAge time.Duration
}

// Outcome is the per-task result of one invocation.
type Outcome struct {
	runner.Result

	// Skipped is true when the task was not run because its marker was
	// fresh. A skipped task is neither a success nor a failure.
	Skipped bool

	// Age is the marker age at schedule time, set for skipped tasks.
	Age time.Duration
}

// Summary aggregates the outcomes of one invocation.
type Summary struct {
	Outcomes []Outcome
	Duration time.Duration
}

// Failed reports whether any requested task failed.
func (s *Summary) Failed() bool {
	for _, o := range s.Outcomes {
		if !o.Skipped && o.Err != nil {
			return true
		}
	}
	return false
}

// Counts returns the number of succeeded, failed, and skipped tasks.
func (s *Summary) Counts() (succeeded, failed, skipped int) {
	for _, o := range s.Outcomes {
		switch {
		case o.Skipped:
			skipped++
		case o.Err != nil:
			failed++
		default:
			succeeded++
		}
	}
	return
}

// Scheduler fans an update request out to one runner per task.
type Scheduler struct {
	registry *registry.Registry
	store    *runstate.Store
	runner   *runner.Runner
	reporter report.Reporter
	logger   *zap.Logger
}

func New(reg *registry.Registry, store *runstate.Store, rep report.Reporter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		registry: reg,
		store:    store,
		runner:   runner.New(store),
		reporter: rep,
		logger:   logger,
	}
}

// Resolve expands and validates a request against the registry, returning
// the sorted, de-duplicated configuration names to run. Any unknown name or
// pattern matching nothing is an error, and nothing runs.
func (s *Scheduler) Resolve(req Request) ([]string, error) {
	if req.All {
		return s.registry.Names(), nil
	}
	if len(req.Names) == 0 {
		return nil, fmt.Errorf("no configurations requested")
	}

	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	for _, arg := range req.Names {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			return nil, fmt.Errorf("empty configuration name in request")
		}

		if strings.ContainsAny(arg, "*?[{") {
			matched := false
			for _, name := range s.registry.Names() {
				ok, err := doublestar.Match(arg, name)
				if err != nil {
					return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
				}
				if ok {
					add(name)
					matched = true
				}
			}
			if !matched {
				return nil, fmt.Errorf("no configurations match pattern %q", arg)
			}
			continue
		}

		if !s.registry.Has(arg) {
			return nil, fmt.Errorf("unknown configuration %q (registered: %s)",
				arg, strings.Join(s.registry.Names(), ", "))
		}
		add(arg)
	}

	sort.Strings(names)
	return names, nil
}

// Run executes one invocation. A returned error is a configuration error:
// the request could not be resolved and no task was started. Per-task
// failures are reported through the Summary instead.
func (s *Scheduler) Run(ctx context.Context, req Request, opts Options) (*Summary, error) {
	names, err := s.Resolve(req)
	if err != nil {
		return nil, err
	}

	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	start := time.Now()
	outcomes := make([]Outcome, len(names))
	var toRun []int

	for i, name := range names {
		if !opts.Force {
			if t, ok := s.store.LastUpdate(name); ok {
				age := time.Since(t)
				if age < maxAge {
					outcomes[i] = Outcome{
						Result:  runner.Result{Name: name},
						Skipped: true,
						Age:     age,
					}
					s.reporter.TaskSkipped(name, age)
					continue
				}
			}
		}
		toRun = append(toRun, i)
	}

	s.logger.Info("Starting update",
		zap.Int("requested", len(names)),
		zap.Int("running", len(toRun)),
		zap.Int("skipped", len(names)-len(toRun)))

	var wg sync.WaitGroup
	for _, i := range toRun {
		task, err := s.registry.Get(names[i])
		if err != nil {
			// Unreachable after Resolve; recorded as a failure rather
			// than trusted.
			outcomes[i] = Outcome{Result: runner.Result{Name: names[i], Err: err}}
			continue
		}

		wg.Add(1)
		go func(i int, task *registry.Task) {
			defer wg.Done()
			s.reporter.TaskStarted(task.Name)
			res := s.runner.Run(ctx, task)
			s.reporter.TaskFinished(task.Name, res.Err, res.Elapsed())
			outcomes[i] = Outcome{Result: res}
		}(i, task)
	}
	wg.Wait()

	summary := &Summary{Outcomes: outcomes, Duration: time.Since(start)}
	succeeded, failed, skipped := summary.Counts()
	s.reporter.Summary(succeeded, failed, skipped)

	s.logger.Info("Update finished",
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.Int("skipped", skipped),
		zap.Duration("duration", summary.Duration))

	return summary, nil
}
