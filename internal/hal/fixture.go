package hal

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/banshee-data/garage.gate/internal/garage"
)

// FixtureStep is one poll cycle of scripted sensor levels.
type FixtureStep struct {
	Entrance bool
	Exit     bool
}

// ParseFixtures reads one step per line in the form "<entrance>,<exit>"
// where each level is 0 or 1. Blank lines and lines starting with '#' are
// skipped.
func ParseFixtures(data []byte) ([]FixtureStep, error) {
	var steps []FixtureStep
	scan := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scan.Scan() {
		lineNo++
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 2 {
			return nil, fmt.Errorf("fixture line %d: expected 2 fields, got %d", lineNo, len(fields))
		}
		var step FixtureStep
		var err error
		if step.Entrance, err = parseLevel(fields[0]); err != nil {
			return nil, fmt.Errorf("fixture line %d: entrance: %w", lineNo, err)
		}
		if step.Exit, err = parseLevel(fields[1]); err != nil {
			return nil, fmt.Errorf("fixture line %d: exit: %w", lineNo, err)
		}
		steps = append(steps, step)
	}
	if err := scan.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}

func parseLevel(s string) (bool, error) {
	switch strings.TrimSpace(s) {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid level %q", s)
	}
}

// FixtureInput replays scripted sensor levels in place of real GPIO. Reading
// the entrance pin advances to the next step; the exit pin reports the
// current step. Once the script is exhausted both sensors read low, or the
// script restarts when Loop is set.
type FixtureInput struct {
	mu       sync.Mutex
	entrance garage.Pin
	exit     garage.Pin
	steps    []FixtureStep
	next     int
	current  FixtureStep
	Loop     bool
}

// NewFixtureInput returns an input replaying steps for the given pins.
func NewFixtureInput(entrance, exit garage.Pin, steps []FixtureStep) *FixtureInput {
	return &FixtureInput{entrance: entrance, exit: exit, steps: steps}
}

// Read implements garage.DigitalInput.
func (f *FixtureInput) Read(pin garage.Pin) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch pin {
	case f.entrance:
		f.advance()
		return f.current.Entrance, nil
	case f.exit:
		return f.current.Exit, nil
	default:
		return false, fmt.Errorf("pin %d is not scripted", pin)
	}
}

func (f *FixtureInput) advance() {
	if f.next >= len(f.steps) {
		if !f.Loop || len(f.steps) == 0 {
			f.current = FixtureStep{}
			return
		}
		f.next = 0
	}
	f.current = f.steps[f.next]
	f.next++
}

// Remaining reports how many scripted steps have not been replayed yet.
func (f *FixtureInput) Remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.steps) - f.next
}

// LogServo stands in for the servo driver when no hardware is attached.
type LogServo struct{}

// SetAngle implements garage.ServoActuator.
func (LogServo) SetAngle(ch garage.Channel, degrees int) error {
	logf("servo channel %d -> %d°", ch, degrees)
	return nil
}

// LogDisplay writes frames to the log instead of a panel.
type LogDisplay struct{}

// Render implements garage.Display.
func (LogDisplay) Render(text string) error {
	logf("display: %s", text)
	return nil
}
