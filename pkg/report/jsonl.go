package report

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Record types emitted by the JSONL reporter.
const (
	TypeStart   = "start"
	TypeSkip    = "skip"
	TypeFinish  = "finish"
	TypeSummary = "summary"
)

// Record is one JSONL event line.
type Record struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"ts"`
	Name      string    `json:"name,omitempty"`
	Success   *bool     `json:"success,omitempty"`
	Error     string    `json:"error,omitempty"`
	ElapsedMS int64     `json:"elapsed_ms,omitempty"`
	AgeMS     int64     `json:"age_ms,omitempty"`
	Succeeded int       `json:"succeeded,omitempty"`
	Failed    int       `json:"failed,omitempty"`
	Skipped   int       `json:"skipped,omitempty"`
}

// JSONLReporter writes one JSON record per line for machine parsing.
//
// JSONLReporter is safe for concurrent use. Writes are serialized using a
// mutex to ensure atomic line writes (no interleaved output).
type JSONLReporter struct {
	enc *json.Encoder
	mu  sync.Mutex
	now func() time.Time
}

func NewJSONLReporter(w io.Writer) *JSONLReporter {
	return &JSONLReporter{enc: json.NewEncoder(w), now: func() time.Time { return time.Now().UTC() }}
}

func (r *JSONLReporter) TaskStarted(name string) {
	r.write(Record{Type: TypeStart, Name: name})
}

func (r *JSONLReporter) TaskSkipped(name string, age time.Duration) {
	r.write(Record{Type: TypeSkip, Name: name, AgeMS: age.Milliseconds()})
}

func (r *JSONLReporter) TaskFinished(name string, err error, elapsed time.Duration) {
	success := err == nil
	rec := Record{
		Type:      TypeFinish,
		Name:      name,
		Success:   &success,
		ElapsedMS: elapsed.Milliseconds(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	r.write(rec)
}

func (r *JSONLReporter) Summary(succeeded, failed, skipped int) {
	r.write(Record{Type: TypeSummary, Succeeded: succeeded, Failed: failed, Skipped: skipped})
}

func (r *JSONLReporter) Close() error {
	return nil
}

func (r *JSONLReporter) write(rec Record) {
	rec.Timestamp = r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(rec)
}
