package hal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

type pwmCall struct {
	channel int
	on, off gpio.Duty
}

type fakePWM struct {
	calls []pwmCall
	err   error
}

func (f *fakePWM) SetPwm(channel int, on, off gpio.Duty) error {
	f.calls = append(f.calls, pwmCall{channel, on, off})
	return f.err
}

func TestServoCalibration_Counts(t *testing.T) {
	cal := DefaultServoCalibration()

	tests := []struct {
		degrees int
		want    gpio.Duty
	}{
		{0, 154},   // 750us of 20ms
		{90, 307},  // 1500us
		{180, 461}, // 2250us
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cal.counts(tt.degrees), "degrees=%d", tt.degrees)
	}
}

func TestServoCalibration_Validate(t *testing.T) {
	assert.NoError(t, DefaultServoCalibration().Validate())

	bad := DefaultServoCalibration()
	bad.FrequencyHz = 0
	assert.Error(t, bad.Validate())

	bad = DefaultServoCalibration()
	bad.MinPulse, bad.MaxPulse = 2*time.Millisecond, time.Millisecond
	assert.Error(t, bad.Validate())

	bad = DefaultServoCalibration()
	bad.FrequencyHz = 1000 // 1ms period, shorter than max pulse
	assert.Error(t, bad.Validate())
}

func TestServoDriver_SetAngle(t *testing.T) {
	pwm := &fakePWM{}
	s, err := NewServoDriver(pwm, DefaultServoCalibration())
	require.NoError(t, err)

	require.NoError(t, s.SetAngle(0, 90))
	require.NoError(t, s.SetAngle(1, 0))

	assert.Equal(t, []pwmCall{{0, 0, 307}, {1, 0, 154}}, pwm.calls)
}

func TestServoDriver_RejectsOutOfRange(t *testing.T) {
	pwm := &fakePWM{}
	s, err := NewServoDriver(pwm, DefaultServoCalibration())
	require.NoError(t, err)

	assert.Error(t, s.SetAngle(16, 90))
	assert.Error(t, s.SetAngle(-1, 90))
	assert.Error(t, s.SetAngle(0, 181))
	assert.Error(t, s.SetAngle(0, -5))
	assert.Empty(t, pwm.calls)
}

func TestServoDriver_PropagatesBusError(t *testing.T) {
	busErr := errors.New("i2c: remote i/o error")
	s, err := NewServoDriver(&fakePWM{err: busErr}, DefaultServoCalibration())
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetAngle(0, 90), busErr)
}
