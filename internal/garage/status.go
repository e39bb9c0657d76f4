package garage

import (
	"sync"
	"time"
)

// Status is a point-in-time view of the controller published to readers
// outside the control loop.
type Status struct {
	FreeSpaces  int       `json:"free_spaces"`
	TotalSpaces int       `json:"total_spaces"`
	Frame       string    `json:"frame"`
	Full        bool      `json:"full"`
	OverCount   bool      `json:"over_count"`
	Entries     int       `json:"entries"`
	Exits       int       `json:"exits"`
	Rejections  int       `json:"rejections"`
	LastEvent   EventKind `json:"last_event,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StatusBoard is an Observer that keeps the latest Status for concurrent
// readers such as the HTTP API.
type StatusBoard struct {
	mu     sync.RWMutex
	status Status
}

// NewStatusBoard returns an empty board. It reports zero values until the
// controller publishes its startup event.
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{}
}

// Observe implements Observer.
func (b *StatusBoard) Observe(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch e.Kind {
	case EventStartup:
		b.status = Status{StartedAt: e.At}
	case EventEntry:
		b.status.Entries++
	case EventExit:
		b.status.Exits++
	case EventRejected:
		b.status.Rejections++
	}

	b.status.FreeSpaces = e.FreeSpaces
	b.status.TotalSpaces = e.TotalSpaces
	b.status.Frame = e.Frame
	b.status.Full = e.FreeSpaces <= 0
	b.status.OverCount = e.FreeSpaces > e.TotalSpaces
	b.status.LastEvent = e.Kind
	b.status.UpdatedAt = e.At
}

// Snapshot returns a copy of the current status.
func (b *StatusBoard) Snapshot() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}
