package garage

import (
	"fmt"
	"time"
)

// Defaults for a single-entrance garage wired to a Raspberry Pi with a
// 16-channel servo HAT.
const (
	DefaultTotalSpaces  = 100
	DefaultPollInterval = 100 * time.Millisecond
	DefaultGateHold     = time.Second

	DefaultEntranceSensor Pin     = 14
	DefaultExitSensor     Pin     = 15
	DefaultEntranceGate   Channel = 0
	DefaultExitGate       Channel = 1

	DefaultOpenAngle   = 90
	DefaultClosedAngle = 0
)

// Settings is the fixed startup configuration of a Controller. It is copied
// into the controller and never changes while the loop runs.
type Settings struct {
	TotalSpaces  int
	PollInterval time.Duration
	GateHold     time.Duration

	EntranceSensor Pin
	ExitSensor     Pin
	EntranceGate   Channel
	ExitGate       Channel

	OpenAngle   int
	ClosedAngle int
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		TotalSpaces:    DefaultTotalSpaces,
		PollInterval:   DefaultPollInterval,
		GateHold:       DefaultGateHold,
		EntranceSensor: DefaultEntranceSensor,
		ExitSensor:     DefaultExitSensor,
		EntranceGate:   DefaultEntranceGate,
		ExitGate:       DefaultExitGate,
		OpenAngle:      DefaultOpenAngle,
		ClosedAngle:    DefaultClosedAngle,
	}
}

// Validate checks that the settings describe a usable controller.
func (s Settings) Validate() error {
	if s.TotalSpaces < 0 {
		return fmt.Errorf("total spaces must be non-negative, got %d", s.TotalSpaces)
	}
	if s.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", s.PollInterval)
	}
	if s.GateHold < 0 {
		return fmt.Errorf("gate hold must be non-negative, got %v", s.GateHold)
	}
	if s.EntranceSensor == s.ExitSensor {
		return fmt.Errorf("entrance and exit sensors share pin %d", s.EntranceSensor)
	}
	if s.EntranceGate == s.ExitGate {
		return fmt.Errorf("entrance and exit gates share channel %d", s.EntranceGate)
	}
	if s.OpenAngle == s.ClosedAngle {
		return fmt.Errorf("open and closed angles are both %d", s.OpenAngle)
	}
	return nil
}
