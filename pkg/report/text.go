package report

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// TextReporter prints human-readable one-line events. Writes are serialized
// with a mutex so concurrent tasks never interleave output.
type TextReporter struct {
	w  io.Writer
	mu sync.Mutex
}

func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{w: w}
}

func (r *TextReporter) TaskStarted(name string) {
	r.printf("%s: starting\n", name)
}

func (r *TextReporter) TaskSkipped(name string, age time.Duration) {
	r.printf("%s: SKIPPING (updated %s ago)\n", name, FormatAge(age))
}

func (r *TextReporter) TaskFinished(name string, err error, elapsed time.Duration) {
	if err != nil {
		r.printf("%s: FAILED in %d seconds\n", name, int(elapsed.Seconds()))
		return
	}
	r.printf("%s: SUCCESS in %d seconds\n", name, int(elapsed.Seconds()))
}

func (r *TextReporter) Summary(succeeded, failed, skipped int) {
	r.printf("%d succeeded, %d failed, %d skipped\n", succeeded, failed, skipped)
}

func (r *TextReporter) Close() error {
	return nil
}

func (r *TextReporter) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.w, format, args...)
}
