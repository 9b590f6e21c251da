package runstate

import "time"

// RunRecord is the persistent record written to a configuration's
// last-update marker on successful completion of a run.
//
// NOTE: These fields are part of the stable on-disk contract. Extend
// additively only.
type RunRecord struct {
	Name        string    `json:"name"`
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	LogPath     string    `json:"log_path,omitempty"`
}

// Entry is one row of a status snapshot: a configuration name and its
// last successful update time, if any.
type Entry struct {
	Name       string
	LastUpdate time.Time
	Updated    bool
}
