package db

import (
	"github.com/banshee-data/garage.gate/internal/garage"
)

// Recorder journals controller events. It is a garage.Observer; write
// failures are logged and never reach the control loop, since the journal is
// history only and the counter must keep running without it.
type Recorder struct {
	db    *DB
	runID string
}

// NewRecorder returns an observer that writes events for runID.
func NewRecorder(db *DB, runID string) *Recorder {
	return &Recorder{db: db, runID: runID}
}

// RunID reports the run this recorder writes under.
func (r *Recorder) RunID() string { return r.runID }

// Observe implements garage.Observer.
func (r *Recorder) Observe(e garage.Event) {
	if _, err := r.db.RecordEvent(r.runID, e); err != nil {
		logf("journal write failed: %v", err)
	}
}
