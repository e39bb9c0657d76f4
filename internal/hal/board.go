package hal

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"github.com/banshee-data/garage.gate/internal/garage"
)

// BoardOptions selects the buses and devices to open.
type BoardOptions struct {
	I2CBus       string // empty selects the first bus
	Pins         []garage.Pin
	ServoAddress uint16
	Servo        ServoCalibration

	// OLED enables the SSD1306 panel on the same I2C bus.
	OLED       bool
	OLEDWidth  int
	OLEDHeight int
}

// Board holds the peripherals acquired at startup. They stay open for the
// life of the process and are released by Close.
type Board struct {
	bus  i2c.BusCloser
	oled *ssd1306.Dev
	pwm  *pca9685.Dev

	Input   *GPIOInput
	Servos  *ServoDriver
	Display *OLEDDisplay // nil unless BoardOptions.OLED
}

// OpenBoard initialises the periph host drivers, configures the sensor pins
// and opens the servo driver and optional OLED on the I2C bus.
func OpenBoard(opts BoardOptions) (b *Board, err error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise host drivers: %w", err)
	}

	in, err := NewGPIOInput(opts.Pins...)
	if err != nil {
		return nil, err
	}

	bus, err := i2creg.Open(opts.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %q: %w", opts.I2CBus, err)
	}
	b = &Board{bus: bus, Input: in}
	defer func() {
		if err != nil {
			bus.Close()
		}
	}()

	b.pwm, err = pca9685.NewI2C(bus, opts.ServoAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to open servo driver at 0x%02x: %w", opts.ServoAddress, err)
	}
	if err = b.pwm.SetPwmFreq(physic.Frequency(opts.Servo.FrequencyHz) * physic.Hertz); err != nil {
		return nil, fmt.Errorf("failed to set servo frequency: %w", err)
	}
	b.Servos, err = NewServoDriver(b.pwm, opts.Servo)
	if err != nil {
		return nil, err
	}

	if opts.OLED {
		oledOpts := ssd1306.DefaultOpts
		oledOpts.W, oledOpts.H = opts.OLEDWidth, opts.OLEDHeight
		b.oled, err = ssd1306.NewI2C(bus, &oledOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to open oled display: %w", err)
		}
		b.Display = NewOLEDDisplay(b.oled)
	}

	logf("board ready: i2c=%s pins=%v oled=%v", bus, opts.Pins, opts.OLED)
	return b, nil
}

// Close blanks the display, stops servo pulses and releases the I2C bus.
func (b *Board) Close() error {
	var errs []error
	if b.oled != nil {
		if err := b.oled.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt oled: %w", err))
		}
	}
	if b.pwm != nil {
		if err := b.pwm.SetAllPwm(0, 0); err != nil {
			errs = append(errs, fmt.Errorf("stop servos: %w", err))
		}
	}
	if err := b.bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close i2c bus: %w", err))
	}
	return errors.Join(errs...)
}
