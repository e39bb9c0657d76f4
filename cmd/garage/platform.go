package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/banshee-data/garage.gate/internal/config"
	"github.com/banshee-data/garage.gate/internal/garage"
	"github.com/banshee-data/garage.gate/internal/hal"
)

// retryBackoff spaces out re-reads of a sensor that returned an error.
const retryBackoff = 10 * time.Millisecond

// platform is the set of ports handed to the controller plus whatever must
// be released on shutdown.
type platform struct {
	input   garage.DigitalInput
	gates   garage.ServoActuator
	display garage.Display
	closers []io.Closer
}

// Close releases resources in reverse order of acquisition.
func (p *platform) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}

// displayName reports which display backend the platform ended up with.
func displayName(cfg *config.GarageConfig, dev bool) string {
	if dev {
		return config.DisplayLog
	}
	return cfg.GetDisplay()
}

// openDevPlatform replays a fixtures script and logs servo and display
// output, so the controller can run on a machine with no GPIO.
func openDevPlatform(cfg *config.GarageConfig, fixturesPath string, loop bool) (*platform, error) {
	data, err := os.ReadFile(fixturesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	steps, err := hal.ParseFixtures(data)
	if err != nil {
		return nil, err
	}

	in := hal.NewFixtureInput(garage.Pin(cfg.GetEntranceSensorPin()), garage.Pin(cfg.GetExitSensorPin()), steps)
	in.Loop = loop
	log.Printf("dev mode: replaying %d fixture steps from %s (loop=%v)", len(steps), fixturesPath, loop)

	return &platform{
		input:   withRetries(in, cfg.GetReadRetries()),
		gates:   hal.LogServo{},
		display: hal.LogDisplay{},
	}, nil
}

// hardwareBoard is the subset of hal.Board the platform needs.
type hardwareBoard struct {
	input   garage.DigitalInput
	servos  garage.ServoActuator
	display garage.Display // nil unless the OLED was opened
	closer  io.Closer
}

// displayCloser is a display that holds a device open.
type displayCloser interface {
	garage.Display
	io.Closer
}

// Hardware openers, replaced in tests.
var (
	openBoard         = openHALBoard
	openSerialDisplay = func(path string, opts hal.PortOptions) (displayCloser, error) {
		return hal.OpenSerialDisplay(path, opts)
	}
)

func openHALBoard(opts hal.BoardOptions) (*hardwareBoard, error) {
	b, err := hal.OpenBoard(opts)
	if err != nil {
		return nil, err
	}
	hb := &hardwareBoard{input: b.Input, servos: b.Servos, closer: b}
	if b.Display != nil {
		hb.display = b.Display
	}
	return hb, nil
}

func boardOptions(cfg *config.GarageConfig) hal.BoardOptions {
	return hal.BoardOptions{
		I2CBus: cfg.GetI2CBus(),
		Pins: []garage.Pin{
			garage.Pin(cfg.GetEntranceSensorPin()),
			garage.Pin(cfg.GetExitSensorPin()),
		},
		ServoAddress: cfg.GetServoAddress(),
		Servo: hal.ServoCalibration{
			FrequencyHz: cfg.GetServoFrequencyHz(),
			MinPulse:    cfg.GetServoMinPulse(),
			MaxPulse:    cfg.GetServoMaxPulse(),
		},
		OLED:       cfg.GetDisplay() == config.DisplayOLED,
		OLEDWidth:  cfg.GetDisplayWidth(),
		OLEDHeight: cfg.GetDisplayHeight(),
	}
}

// openHardwarePlatform acquires the GPIO pins, servo HAT and the configured
// display once for the life of the process. Anything already acquired is
// released again if a later device fails to open.
func openHardwarePlatform(cfg *config.GarageConfig) (*platform, error) {
	board, err := openBoard(boardOptions(cfg))
	if err != nil {
		return nil, err
	}

	plat := &platform{
		input:   withRetries(board.input, cfg.GetReadRetries()),
		gates:   board.servos,
		closers: []io.Closer{board.closer},
	}

	switch cfg.GetDisplay() {
	case config.DisplayOLED:
		if board.display == nil {
			plat.release()
			return nil, errors.New("oled display was not opened")
		}
		plat.display = board.display
	case config.DisplaySerial:
		sd, err := openSerialDisplay(cfg.GetSerialPort(), hal.PortOptions(cfg.GetSerial()))
		if err != nil {
			plat.release()
			return nil, err
		}
		plat.display = sd
		plat.closers = append(plat.closers, sd)
	default:
		plat.display = hal.LogDisplay{}
	}
	return plat, nil
}

// release closes a partially opened platform, logging rather than returning
// close errors so the open error is the one reported.
func (p *platform) release() {
	if err := p.Close(); err != nil {
		log.Printf("platform release: %v", err)
	}
}

func withRetries(in garage.DigitalInput, retries int) garage.DigitalInput {
	if retries <= 0 {
		return in
	}
	return hal.NewRetryInput(in, retries, retryBackoff)
}
