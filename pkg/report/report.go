// Package report renders per-task progress and aggregate results for an
// update run.
//
// Reporters are shared by all concurrently running tasks, so implementations
// must serialize writes: each event is emitted as a whole line with no
// interleaving.
package report

import (
	"fmt"
	"time"
)

// Reporter receives orchestration events. Implementations must be safe for
// concurrent use from multiple goroutines.
type Reporter interface {
	// TaskStarted is emitted when a task's runner begins executing.
	TaskStarted(name string)

	// TaskSkipped is emitted when a task is not run because its last
	// successful update is younger than the freshness window.
	TaskSkipped(name string, age time.Duration)

	// TaskFinished is emitted when a task's runner returns. err is nil on
	// success.
	TaskFinished(name string, err error, elapsed time.Duration)

	// Summary is emitted once, after all tasks have finished.
	Summary(succeeded, failed, skipped int)

	// Close flushes any buffered output.
	Close() error
}

// FormatAge renders a duration the way the status listing does: whole days
// above one day, whole minutes below.
func FormatAge(d time.Duration) string {
	if d >= 24*time.Hour {
		return fmt.Sprintf("%d days", int(d.Hours())/24)
	}
	return fmt.Sprintf("%d minutes", int(d.Minutes()))
}
