package hal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/banshee-data/garage.gate/internal/garage"
)

func testPins(pins ...*gpiotest.Pin) PinLookup {
	byName := make(map[string]*gpiotest.Pin, len(pins))
	for _, p := range pins {
		byName[p.N] = p
	}
	return func(name string) gpio.PinIO {
		if p, ok := byName[name]; ok {
			return p
		}
		return nil
	}
}

func TestGPIOInput_ReadsLevels(t *testing.T) {
	entrance := &gpiotest.Pin{N: "GPIO14", Num: 14, L: gpio.High}
	exit := &gpiotest.Pin{N: "GPIO15", Num: 15, L: gpio.Low}

	in, err := newGPIOInput(testPins(entrance, exit), 14, 15)
	require.NoError(t, err)

	v, err := in.Read(14)
	require.NoError(t, err)
	assert.True(t, v)

	v, err = in.Read(15)
	require.NoError(t, err)
	assert.False(t, v)

	entrance.L = gpio.Low
	v, err = in.Read(14)
	require.NoError(t, err)
	assert.False(t, v)
}

func TestGPIOInput_UnknownPin(t *testing.T) {
	_, err := newGPIOInput(testPins(), garage.Pin(14))
	assert.ErrorContains(t, err, "GPIO14 not found")
}

func TestGPIOInput_UnconfiguredPinIsAnError(t *testing.T) {
	in, err := newGPIOInput(testPins(&gpiotest.Pin{N: "GPIO14", Num: 14}), 14)
	require.NoError(t, err)

	_, err = in.Read(21)
	assert.Error(t, err, "reading a pin that was never configured must not look like 'no car'")
}
