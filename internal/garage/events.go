package garage

import (
	"strconv"
	"time"
)

// FullFrame is shown when a car is turned away because no spaces are free.
const FullFrame = "FULL"

// SpacesFrame returns the display text for the given free-space count.
func SpacesFrame(free int) string {
	return "Spaces: " + strconv.Itoa(free)
}

// EventKind classifies a controller event.
type EventKind string

const (
	EventStartup  EventKind = "startup"
	EventEntry    EventKind = "entry"
	EventExit     EventKind = "exit"
	EventRejected EventKind = "rejected"
)

// Event is published to observers after every state change or FULL render.
type Event struct {
	Kind        EventKind
	FreeSpaces  int
	TotalSpaces int
	Frame       string
	At          time.Time
}

// Observer receives controller events. Observe is called synchronously from
// the control loop and must not block for long.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }
