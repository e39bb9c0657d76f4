package hal

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/banshee-data/garage.gate/internal/garage"
)

// GPIOInput reads presence sensors wired to GPIO pins. Pins are configured
// as inputs once, when the GPIOInput is built.
type GPIOInput struct {
	pins map[garage.Pin]gpio.PinIn
}

// PinLookup resolves a pin name such as "GPIO14" to a pin.
type PinLookup func(name string) gpio.PinIO

// NewGPIOInput configures the given BCM pins as floating inputs using the
// periph pin registry. host.Init must have been called first.
func NewGPIOInput(pins ...garage.Pin) (*GPIOInput, error) {
	return newGPIOInput(gpioreg.ByName, pins...)
}

func newGPIOInput(lookup PinLookup, pins ...garage.Pin) (*GPIOInput, error) {
	in := &GPIOInput{pins: make(map[garage.Pin]gpio.PinIn, len(pins))}
	for _, pin := range pins {
		name := fmt.Sprintf("GPIO%d", pin)
		p := lookup(name)
		if p == nil {
			return nil, fmt.Errorf("gpio pin %s not found", name)
		}
		// the sensors drive the line themselves
		if err := p.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("failed to configure %s as input: %w", name, err)
		}
		in.pins[pin] = p
	}
	return in, nil
}

// Read implements garage.DigitalInput. A high level means a car is present.
func (g *GPIOInput) Read(pin garage.Pin) (bool, error) {
	p, ok := g.pins[pin]
	if !ok {
		return false, fmt.Errorf("pin %d was not configured as an input", pin)
	}
	return p.Read() == gpio.High, nil
}
