package hal

import (
	"fmt"
	"time"

	"github.com/banshee-data/garage.gate/internal/garage"
	"github.com/banshee-data/garage.gate/internal/timeutil"
)

// RetryInput retries failed sensor reads before giving up. The controller
// itself never retries; this wrapper is where the platform decides how many
// transient faults to absorb.
type RetryInput struct {
	Input   garage.DigitalInput
	Retries int
	Backoff time.Duration
	Clock   timeutil.Clock
}

// NewRetryInput wraps in with the given retry budget.
func NewRetryInput(in garage.DigitalInput, retries int, backoff time.Duration) *RetryInput {
	return &RetryInput{Input: in, Retries: retries, Backoff: backoff, Clock: timeutil.RealClock{}}
}

// Read implements garage.DigitalInput.
func (r *RetryInput) Read(pin garage.Pin) (bool, error) {
	for attempt := 0; ; attempt++ {
		v, err := r.Input.Read(pin)
		if err == nil {
			return v, nil
		}
		if attempt >= r.Retries {
			return false, fmt.Errorf("read pin %d failed after %d attempts: %w", pin, attempt+1, err)
		}
		logf("read pin %d failed (attempt %d of %d): %v", pin, attempt+1, r.Retries+1, err)
		if r.Backoff > 0 {
			r.Clock.Sleep(r.Backoff)
		}
	}
}
