package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/garage.gate/internal/garage"
)

// GateEvent is one row of the journal.
type GateEvent struct {
	ID          string           `json:"id"`
	RunID       string           `json:"run_id"`
	Kind        garage.EventKind `json:"kind"`
	FreeSpaces  int              `json:"free_spaces"`
	TotalSpaces int              `json:"total_spaces"`
	Frame       string           `json:"frame"`
	RecordedAt  time.Time        `json:"recorded_at"`
}

// Run describes one controller process lifetime.
type Run struct {
	ID           string        `json:"run_id"`
	TotalSpaces  int           `json:"total_spaces"`
	PollInterval time.Duration `json:"poll_interval"`
	GateHold     time.Duration `json:"gate_hold"`
	Display      string        `json:"display"`
	Version      string        `json:"version"`
	StartedAt    time.Time     `json:"started_at"`
}

// NewRunID returns a fresh identifier for a controller run.
func NewRunID() string {
	return uuid.NewString()
}

func toUnix(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromUnix(f float64) time.Time {
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

// RecordRun stores the settings a controller run started with.
func (db *DB) RecordRun(r Run) error {
	if r.ID == "" {
		return fmt.Errorf("run id is required")
	}
	_, err := db.Exec(`
		INSERT INTO controller_runs (run_id, total_spaces, poll_interval, gate_hold, display, version, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.TotalSpaces, r.PollInterval.String(), r.GateHold.String(), r.Display, r.Version, toUnix(r.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Runs returns recorded runs, newest first.
func (db *DB) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT run_id, total_spaces, poll_interval, gate_hold, display, version, started_at
		FROM controller_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r            Run
			poll, hold   string
			startedAtSec float64
		)
		if err := rows.Scan(&r.ID, &r.TotalSpaces, &poll, &hold, &r.Display, &r.Version, &startedAtSec); err != nil {
			return nil, err
		}
		if r.PollInterval, err = time.ParseDuration(poll); err != nil {
			return nil, fmt.Errorf("run %s: bad poll_interval %q: %w", r.ID, poll, err)
		}
		if r.GateHold, err = time.ParseDuration(hold); err != nil {
			return nil, fmt.Errorf("run %s: bad gate_hold %q: %w", r.ID, hold, err)
		}
		r.StartedAt = fromUnix(startedAtSec)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RecordEvent appends a controller event to the journal under runID and
// returns the stored row.
func (db *DB) RecordEvent(runID string, e garage.Event) (GateEvent, error) {
	ge := GateEvent{
		ID:          uuid.NewString(),
		RunID:       runID,
		Kind:        e.Kind,
		FreeSpaces:  e.FreeSpaces,
		TotalSpaces: e.TotalSpaces,
		Frame:       e.Frame,
		RecordedAt:  e.At.UTC(),
	}
	_, err := db.Exec(`
		INSERT INTO gate_events (event_id, run_id, kind, free_spaces, total_spaces, frame, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ge.ID, ge.RunID, string(ge.Kind), ge.FreeSpaces, ge.TotalSpaces, ge.Frame, toUnix(ge.RecordedAt),
	)
	if err != nil {
		return GateEvent{}, fmt.Errorf("failed to record %s event: %w", e.Kind, err)
	}
	return ge, nil
}

// RecentEvents returns up to limit events, newest first.
func (db *DB) RecentEvents(limit int) ([]GateEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	return db.queryEvents(`
		SELECT event_id, run_id, kind, free_spaces, total_spaces, frame, recorded_at
		FROM gate_events
		ORDER BY recorded_at DESC, rowid DESC
		LIMIT ?`, limit)
}

// EventsSince returns every event recorded at or after since, oldest first.
func (db *DB) EventsSince(since time.Time) ([]GateEvent, error) {
	return db.queryEvents(`
		SELECT event_id, run_id, kind, free_spaces, total_spaces, frame, recorded_at
		FROM gate_events
		WHERE recorded_at >= ?
		ORDER BY recorded_at ASC, rowid ASC`, toUnix(since))
}

// LastEventBefore returns the newest event strictly before t. ok is false
// when the journal holds nothing earlier.
func (db *DB) LastEventBefore(t time.Time) (ge GateEvent, ok bool, err error) {
	events, err := db.queryEvents(`
		SELECT event_id, run_id, kind, free_spaces, total_spaces, frame, recorded_at
		FROM gate_events
		WHERE recorded_at < ?
		ORDER BY recorded_at DESC, rowid DESC
		LIMIT 1`, toUnix(t))
	if err != nil || len(events) == 0 {
		return GateEvent{}, false, err
	}
	return events[0], true, nil
}

func (db *DB) queryEvents(query string, args ...interface{}) ([]GateEvent, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []GateEvent
	for rows.Next() {
		var (
			ge   GateEvent
			kind string
			at   float64
		)
		if err := rows.Scan(&ge.ID, &ge.RunID, &kind, &ge.FreeSpaces, &ge.TotalSpaces, &ge.Frame, &at); err != nil {
			return nil, err
		}
		ge.Kind = garage.EventKind(kind)
		ge.RecordedAt = fromUnix(at)
		events = append(events, ge)
	}
	return events, rows.Err()
}
