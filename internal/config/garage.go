package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/garage.gate/internal/garage"
)

// DefaultConfigPath is the path to the canonical defaults file shipped with
// the controller.
const DefaultConfigPath = "config/garage.defaults.json"

// Display backends understood by the controller binary.
const (
	DisplayOLED   = "oled"
	DisplaySerial = "serial"
	DisplayLog    = "log"
)

// SerialOptions mirrors the serial line settings used for a serial display.
type SerialOptions struct {
	BaudRate int    `json:"baud_rate,omitempty"`
	DataBits int    `json:"data_bits,omitempty"`
	StopBits int    `json:"stop_bits,omitempty"`
	Parity   string `json:"parity,omitempty"`
}

// GarageConfig is the startup configuration of the gate controller. Every
// field is optional; the Get* accessors supply defaults for fields omitted
// from the JSON file, so partial configs are safe.
type GarageConfig struct {
	// Capacity and timing
	TotalSpaces  *int    `json:"total_spaces,omitempty"`
	PollInterval *string `json:"poll_interval,omitempty"` // duration string like "100ms"
	GateHold     *string `json:"gate_hold,omitempty"`     // duration string like "1s"

	// Wiring (BCM pin numbers, servo driver channels)
	EntranceSensorPin   *int `json:"entrance_sensor_pin,omitempty"`
	ExitSensorPin       *int `json:"exit_sensor_pin,omitempty"`
	EntranceGateChannel *int `json:"entrance_gate_channel,omitempty"`
	ExitGateChannel     *int `json:"exit_gate_channel,omitempty"`
	OpenAngle           *int `json:"open_angle,omitempty"`
	ClosedAngle         *int `json:"closed_angle,omitempty"`

	// Peripherals
	Display          *string        `json:"display,omitempty"`
	DisplayWidth     *int           `json:"display_width,omitempty"`
	DisplayHeight    *int           `json:"display_height,omitempty"`
	I2CBus           *string        `json:"i2c_bus,omitempty"`
	ServoAddress     *int           `json:"servo_address,omitempty"`
	ServoFrequencyHz *int           `json:"servo_frequency_hz,omitempty"`
	ServoMinPulse    *string        `json:"servo_min_pulse,omitempty"`
	ServoMaxPulse    *string        `json:"servo_max_pulse,omitempty"`
	SerialPort       *string        `json:"serial_port,omitempty"`
	Serial           *SerialOptions `json:"serial,omitempty"`
	ReadRetries      *int           `json:"read_retries,omitempty"`
}

// EmptyGarageConfig returns a GarageConfig with all fields unset.
func EmptyGarageConfig() *GarageConfig {
	return &GarageConfig{}
}

// LoadGarageConfig loads a GarageConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadGarageConfig(path string) (*GarageConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyGarageConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and its parents up to the repository
// root. Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *GarageConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/garage/
	}
	for _, path := range candidates {
		if cfg, err := LoadGarageConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *GarageConfig) Validate() error {
	if c.TotalSpaces != nil && *c.TotalSpaces < 0 {
		return fmt.Errorf("total_spaces must be non-negative, got %d", *c.TotalSpaces)
	}

	for name, v := range map[string]*string{
		"poll_interval":   c.PollInterval,
		"gate_hold":       c.GateHold,
		"servo_min_pulse": c.ServoMinPulse,
		"servo_max_pulse": c.ServoMaxPulse,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, *v)
		}
	}
	if c.PollInterval != nil && c.GetPollInterval() <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %q", *c.PollInterval)
	}

	if c.Display != nil {
		switch strings.ToLower(*c.Display) {
		case DisplayOLED, DisplaySerial, DisplayLog:
		default:
			return fmt.Errorf("display must be one of %q, %q or %q, got %q", DisplayOLED, DisplaySerial, DisplayLog, *c.Display)
		}
	}

	for name, v := range map[string]*int{
		"entrance_gate_channel": c.EntranceGateChannel,
		"exit_gate_channel":     c.ExitGateChannel,
	} {
		if v != nil && (*v < 0 || *v > 15) {
			return fmt.Errorf("%s must be between 0 and 15, got %d", name, *v)
		}
	}

	for name, v := range map[string]*int{
		"open_angle":   c.OpenAngle,
		"closed_angle": c.ClosedAngle,
	} {
		if v != nil && (*v < 0 || *v > 180) {
			return fmt.Errorf("%s must be between 0 and 180, got %d", name, *v)
		}
	}

	if c.ReadRetries != nil && *c.ReadRetries < 0 {
		return fmt.Errorf("read_retries must be non-negative, got %d", *c.ReadRetries)
	}

	if c.GetServoMinPulse() >= c.GetServoMaxPulse() {
		return fmt.Errorf("servo_min_pulse (%v) must be below servo_max_pulse (%v)", c.GetServoMinPulse(), c.GetServoMaxPulse())
	}

	return c.Settings().Validate()
}

// Settings converts the configuration into controller settings.
func (c *GarageConfig) Settings() garage.Settings {
	return garage.Settings{
		TotalSpaces:    c.GetTotalSpaces(),
		PollInterval:   c.GetPollInterval(),
		GateHold:       c.GetGateHold(),
		EntranceSensor: garage.Pin(c.GetEntranceSensorPin()),
		ExitSensor:     garage.Pin(c.GetExitSensorPin()),
		EntranceGate:   garage.Channel(c.GetEntranceGateChannel()),
		ExitGate:       garage.Channel(c.GetExitGateChannel()),
		OpenAngle:      c.GetOpenAngle(),
		ClosedAngle:    c.GetClosedAngle(),
	}
}

func getDuration(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def // default on parse error
	}
	return d
}

func getInt(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func getString(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}
	return *v
}

// GetTotalSpaces returns the total_spaces value or the default.
func (c *GarageConfig) GetTotalSpaces() int {
	return getInt(c.TotalSpaces, garage.DefaultTotalSpaces)
}

// GetPollInterval returns the poll_interval value or the default.
func (c *GarageConfig) GetPollInterval() time.Duration {
	return getDuration(c.PollInterval, garage.DefaultPollInterval)
}

// GetGateHold returns the gate_hold value or the default.
func (c *GarageConfig) GetGateHold() time.Duration {
	return getDuration(c.GateHold, garage.DefaultGateHold)
}

// GetEntranceSensorPin returns the entrance_sensor_pin value or the default.
func (c *GarageConfig) GetEntranceSensorPin() int {
	return getInt(c.EntranceSensorPin, int(garage.DefaultEntranceSensor))
}

// GetExitSensorPin returns the exit_sensor_pin value or the default.
func (c *GarageConfig) GetExitSensorPin() int {
	return getInt(c.ExitSensorPin, int(garage.DefaultExitSensor))
}

// GetEntranceGateChannel returns the entrance_gate_channel value or the default.
func (c *GarageConfig) GetEntranceGateChannel() int {
	return getInt(c.EntranceGateChannel, int(garage.DefaultEntranceGate))
}

// GetExitGateChannel returns the exit_gate_channel value or the default.
func (c *GarageConfig) GetExitGateChannel() int {
	return getInt(c.ExitGateChannel, int(garage.DefaultExitGate))
}

// GetOpenAngle returns the open_angle value or the default.
func (c *GarageConfig) GetOpenAngle() int {
	return getInt(c.OpenAngle, garage.DefaultOpenAngle)
}

// GetClosedAngle returns the closed_angle value or the default.
func (c *GarageConfig) GetClosedAngle() int {
	return getInt(c.ClosedAngle, garage.DefaultClosedAngle)
}

// GetDisplay returns the display backend, lower-cased, or "oled".
func (c *GarageConfig) GetDisplay() string {
	return strings.ToLower(getString(c.Display, DisplayOLED))
}

// GetDisplayWidth returns the display_width value or the default (128).
func (c *GarageConfig) GetDisplayWidth() int {
	return getInt(c.DisplayWidth, 128)
}

// GetDisplayHeight returns the display_height value or the default (32).
func (c *GarageConfig) GetDisplayHeight() int {
	return getInt(c.DisplayHeight, 32)
}

// GetI2CBus returns the i2c_bus name. Empty selects the first bus found.
func (c *GarageConfig) GetI2CBus() string {
	return getString(c.I2CBus, "")
}

// GetServoAddress returns the servo driver I2C address or the default (0x40).
func (c *GarageConfig) GetServoAddress() uint16 {
	return uint16(getInt(c.ServoAddress, 0x40))
}

// GetServoFrequencyHz returns the servo PWM frequency or the default (50 Hz).
func (c *GarageConfig) GetServoFrequencyHz() int {
	return getInt(c.ServoFrequencyHz, 50)
}

// GetServoMinPulse returns the pulse width for 0 degrees or the default.
func (c *GarageConfig) GetServoMinPulse() time.Duration {
	return getDuration(c.ServoMinPulse, 750*time.Microsecond)
}

// GetServoMaxPulse returns the pulse width for 180 degrees or the default.
func (c *GarageConfig) GetServoMaxPulse() time.Duration {
	return getDuration(c.ServoMaxPulse, 2250*time.Microsecond)
}

// GetSerialPort returns the serial display device or the default.
func (c *GarageConfig) GetSerialPort() string {
	return getString(c.SerialPort, "/dev/ttyS0")
}

// GetSerial returns the serial line options, empty if unset.
func (c *GarageConfig) GetSerial() SerialOptions {
	if c.Serial == nil {
		return SerialOptions{}
	}
	return *c.Serial
}

// GetReadRetries returns how many times a failed sensor read is retried
// before it is reported as a fault. Default 0.
func (c *GarageConfig) GetReadRetries() int {
	return getInt(c.ReadRetries, 0)
}
