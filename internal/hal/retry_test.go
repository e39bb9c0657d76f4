package hal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/garage.gate/internal/garage"
	"github.com/banshee-data/garage.gate/internal/timeutil"
)

type flakyInput struct {
	failures int
	calls    int
	err      error
}

func (f *flakyInput) Read(pin garage.Pin) (bool, error) {
	f.calls++
	if f.calls <= f.failures {
		return false, f.err
	}
	return true, nil
}

func TestRetryInput_RecoversWithinBudget(t *testing.T) {
	clock := timeutil.NewMockClock(time.Time{})
	flaky := &flakyInput{failures: 2, err: errors.New("glitch")}
	r := &RetryInput{Input: flaky, Retries: 2, Backoff: 5 * time.Millisecond, Clock: clock}

	v, err := r.Read(14)
	require.NoError(t, err)
	assert.True(t, v)
	assert.Equal(t, 3, flaky.calls)
	assert.Equal(t, []time.Duration{5 * time.Millisecond, 5 * time.Millisecond}, clock.Sleeps())
}

func TestRetryInput_ExhaustedBudgetIsAFault(t *testing.T) {
	glitch := errors.New("glitch")
	flaky := &flakyInput{failures: 10, err: glitch}
	r := &RetryInput{Input: flaky, Retries: 1, Clock: timeutil.NewMockClock(time.Time{})}

	v, err := r.Read(15)
	assert.False(t, v)
	assert.ErrorIs(t, err, glitch)
	assert.ErrorContains(t, err, "after 2 attempts")
	assert.Equal(t, 2, flaky.calls)
}

func TestRetryInput_NoRetries(t *testing.T) {
	flaky := &flakyInput{failures: 1, err: errors.New("glitch")}
	r := NewRetryInput(flaky, 0, 0)

	_, err := r.Read(14)
	assert.Error(t, err)
	assert.Equal(t, 1, flaky.calls)
}
