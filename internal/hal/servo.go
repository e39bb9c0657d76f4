package hal

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/banshee-data/garage.gate/internal/garage"
)

const (
	servoChannels   = 16
	pwmResolution   = 4096 // PCA9685 counts per period
	servoFullTravel = 180
)

// ServoCalibration maps servo angles to PWM pulse widths. The defaults match
// common hobby servos on a 16-channel servo HAT.
type ServoCalibration struct {
	FrequencyHz int
	MinPulse    time.Duration // pulse at 0 degrees
	MaxPulse    time.Duration // pulse at 180 degrees
}

// DefaultServoCalibration returns 50 Hz with 750–2250 µs pulses.
func DefaultServoCalibration() ServoCalibration {
	return ServoCalibration{
		FrequencyHz: 50,
		MinPulse:    750 * time.Microsecond,
		MaxPulse:    2250 * time.Microsecond,
	}
}

// Validate checks the calibration can be applied.
func (c ServoCalibration) Validate() error {
	if c.FrequencyHz <= 0 {
		return fmt.Errorf("servo frequency must be positive, got %d", c.FrequencyHz)
	}
	if c.MinPulse <= 0 || c.MinPulse >= c.MaxPulse {
		return fmt.Errorf("servo pulse range %v..%v is invalid", c.MinPulse, c.MaxPulse)
	}
	if period := time.Second / time.Duration(c.FrequencyHz); c.MaxPulse > period {
		return fmt.Errorf("servo max pulse %v exceeds PWM period %v", c.MaxPulse, period)
	}
	return nil
}

// counts returns the PWM off-count for the given angle.
func (c ServoCalibration) counts(degrees int) gpio.Duty {
	pulse := c.MinPulse + (c.MaxPulse-c.MinPulse)*time.Duration(degrees)/servoFullTravel
	n := (pulse.Nanoseconds()*pwmResolution*int64(c.FrequencyHz) + int64(time.Second)/2) / int64(time.Second)
	return gpio.Duty(n)
}

// pwmWriter is the part of *pca9685.Dev the servo driver needs.
type pwmWriter interface {
	SetPwm(channel int, on, off gpio.Duty) error
}

// ServoDriver positions gate servos through a PCA9685 PWM controller.
type ServoDriver struct {
	pwm pwmWriter
	cal ServoCalibration
}

// NewServoDriver wraps a PWM controller already set to cal.FrequencyHz.
func NewServoDriver(pwm pwmWriter, cal ServoCalibration) (*ServoDriver, error) {
	if err := cal.Validate(); err != nil {
		return nil, err
	}
	return &ServoDriver{pwm: pwm, cal: cal}, nil
}

// SetAngle implements garage.ServoActuator.
func (s *ServoDriver) SetAngle(ch garage.Channel, degrees int) error {
	if ch < 0 || ch >= servoChannels {
		return fmt.Errorf("servo channel %d out of range 0..%d", ch, servoChannels-1)
	}
	if degrees < 0 || degrees > servoFullTravel {
		return fmt.Errorf("servo angle %d out of range 0..%d", degrees, servoFullTravel)
	}
	if err := s.pwm.SetPwm(int(ch), 0, s.cal.counts(degrees)); err != nil {
		return fmt.Errorf("failed to set pwm on channel %d: %w", ch, err)
	}
	return nil
}
