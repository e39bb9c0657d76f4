package garage

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/garage.gate/internal/monitoring"
	"github.com/banshee-data/garage.gate/internal/timeutil"
)

var logf = monitoring.Component("garage")

// Controller owns the free-space counter and drives the sensor, gate and
// display ports. It is not safe for concurrent use: Start, Poll and Run must
// be called from a single goroutine. Other goroutines observe its state
// through an Observer such as StatusBoard.
type Controller struct {
	settings Settings
	input    DigitalInput
	gates    ServoActuator
	display  Display

	clock     timeutil.Clock
	observers []Observer

	freeSpaces int
	started    bool
}

// Option configures optional Controller collaborators.
type Option func(*Controller)

// WithClock replaces the real clock used for gate holds and poll sleeps.
func WithClock(c timeutil.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithObserver registers an observer for controller events. Observers are
// called in registration order.
func WithObserver(o Observer) Option {
	return func(ctl *Controller) { ctl.observers = append(ctl.observers, o) }
}

// NewController validates the settings and returns a controller bound to the
// given ports. The counter is not initialised until Start is called.
func NewController(s Settings, input DigitalInput, gates ServoActuator, display Display, opts ...Option) (*Controller, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if input == nil || gates == nil || display == nil {
		return nil, errors.New("controller requires input, gate and display ports")
	}
	c := &Controller{
		settings: s,
		input:    input,
		gates:    gates,
		display:  display,
		clock:    timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FreeSpaces returns the current counter value.
func (c *Controller) FreeSpaces() int { return c.freeSpaces }

// Settings returns the settings the controller was built with.
func (c *Controller) Settings() Settings { return c.settings }

// Start resets the counter to the garage capacity and renders the initial
// frame.
func (c *Controller) Start() error {
	c.freeSpaces = c.settings.TotalSpaces
	frame := SpacesFrame(c.freeSpaces)
	if err := c.render(frame); err != nil {
		return err
	}
	c.started = true
	c.publish(EventStartup, frame)
	logf("started with %d spaces", c.freeSpaces)
	return nil
}

// Poll runs one iteration of the control loop without the trailing sleep.
// The entrance is handled completely before the exit sensor is read. Any
// port failure aborts the iteration and is returned as a *PortError.
func (c *Controller) Poll() error {
	if !c.started {
		return ErrNotStarted
	}
	if err := c.pollEntrance(); err != nil {
		return err
	}
	return c.pollExit()
}

// Run starts the controller and polls until ctx is cancelled or a port fails.
// Cancellation is only observed between iterations, so a gate cycle that has
// begun always completes. Run returns ctx.Err() after cancellation.
func (c *Controller) Run(ctx context.Context) error {
	if !c.started {
		if err := c.Start(); err != nil {
			return err
		}
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Poll(); err != nil {
			return err
		}
		c.clock.Sleep(c.settings.PollInterval)
	}
}

func (c *Controller) pollEntrance() error {
	triggered, err := c.read(c.settings.EntranceSensor)
	if err != nil || !triggered {
		return err
	}

	if c.freeSpaces <= 0 {
		if err := c.render(FullFrame); err != nil {
			return err
		}
		c.publish(EventRejected, FullFrame)
		logf("entrance: car refused, garage full")
		return nil
	}

	if err := c.cycleGate(c.settings.EntranceGate); err != nil {
		return err
	}
	c.freeSpaces--
	frame := SpacesFrame(c.freeSpaces)
	if err := c.render(frame); err != nil {
		return err
	}
	c.publish(EventEntry, frame)
	logf("entrance: car admitted, %d spaces left", c.freeSpaces)
	return nil
}

// pollExit never checks the counter against capacity: exits are always let
// through, so a miscounted garage can report more free spaces than it has.
func (c *Controller) pollExit() error {
	triggered, err := c.read(c.settings.ExitSensor)
	if err != nil || !triggered {
		return err
	}

	if err := c.cycleGate(c.settings.ExitGate); err != nil {
		return err
	}
	c.freeSpaces++
	frame := SpacesFrame(c.freeSpaces)
	if err := c.render(frame); err != nil {
		return err
	}
	c.publish(EventExit, frame)
	if c.freeSpaces > c.settings.TotalSpaces {
		logf("exit: free spaces %d exceed capacity %d", c.freeSpaces, c.settings.TotalSpaces)
	} else {
		logf("exit: car released, %d spaces left", c.freeSpaces)
	}
	return nil
}

// cycleGate opens the gate, holds it for the configured duration and closes
// it. The hold blocks the whole controller.
func (c *Controller) cycleGate(ch Channel) error {
	if err := c.gates.SetAngle(ch, c.settings.OpenAngle); err != nil {
		return &PortError{Port: "gate", Op: fmt.Sprintf("open channel %d", ch), Err: err}
	}
	c.clock.Sleep(c.settings.GateHold)
	if err := c.gates.SetAngle(ch, c.settings.ClosedAngle); err != nil {
		return &PortError{Port: "gate", Op: fmt.Sprintf("close channel %d", ch), Err: err}
	}
	return nil
}

func (c *Controller) read(pin Pin) (bool, error) {
	v, err := c.input.Read(pin)
	if err != nil {
		return false, &PortError{Port: "sensor", Op: fmt.Sprintf("read pin %d", pin), Err: err}
	}
	return v, nil
}

func (c *Controller) render(frame string) error {
	if err := c.display.Render(frame); err != nil {
		return &PortError{Port: "display", Op: fmt.Sprintf("render %q", frame), Err: err}
	}
	return nil
}

func (c *Controller) publish(kind EventKind, frame string) {
	if len(c.observers) == 0 {
		return
	}
	e := Event{
		Kind:        kind,
		FreeSpaces:  c.freeSpaces,
		TotalSpaces: c.settings.TotalSpaces,
		Frame:       frame,
		At:          c.clock.Now(),
	}
	for _, o := range c.observers {
		o.Observe(e)
	}
}
