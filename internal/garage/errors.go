package garage

import (
	"errors"
	"fmt"
)

var (
	// ErrPeripheral matches every fault returned by a hardware port.
	ErrPeripheral = errors.New("peripheral fault")

	// ErrNotStarted is returned by Poll when Start has not run.
	ErrNotStarted = errors.New("controller not started")
)

// PortError describes a failed call on one of the controller's ports.
type PortError struct {
	Port string // "sensor", "gate" or "display"
	Op   string // e.g. "read pin 14"
	Err  error
}

func (e *PortError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Port, e.Op, e.Err)
}

func (e *PortError) Unwrap() error { return e.Err }

// Is reports ErrPeripheral as a match so callers can test for any port fault.
func (e *PortError) Is(target error) bool { return target == ErrPeripheral }
