// Package clock tracks frame timing for a preview session: elapsed and
// per-frame durations, a smoothed frame rate, and the start/stop state of
// the repeating render callback.
package clock

import (
	"errors"
	"fmt"
)

// ErrInvalidWindow is returned when a smoothing window is not a positive
// integer.
var ErrInvalidWindow = errors.New("clock: smoothing window must be positive")

// MovingAverage is a fixed-capacity ring buffer of samples with a running
// sum. When full, pushing a new sample overwrites the oldest one. The
// average is always taken over the last min(count, window) samples.
//
// MovingAverage is shared by the frame clock and the GPU frame timers so
// both report smoothing with identical semantics. It is not safe for
// concurrent use.
type MovingAverage struct {
	samples []float64
	sum     float64
	next    int
	count   int
}

// NewMovingAverage creates a moving average over the given window size.
// Returns ErrInvalidWindow if window is not positive.
func NewMovingAverage(window int) (*MovingAverage, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, window)
	}
	return &MovingAverage{samples: make([]float64, window)}, nil
}

// Push adds a sample, evicting the oldest one when the window is full.
func (m *MovingAverage) Push(v float64) {
	if m.count == len(m.samples) {
		m.sum -= m.samples[m.next]
	} else {
		m.count++
	}
	m.samples[m.next] = v
	m.sum += v
	m.next = (m.next + 1) % len(m.samples)
}

// Average returns the running mean of the buffered samples, or 0 when no
// samples have been pushed.
func (m *MovingAverage) Average() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

// Count returns the number of buffered samples, at most Window().
func (m *MovingAverage) Count() int { return m.count }

// Window returns the configured window size.
func (m *MovingAverage) Window() int { return len(m.samples) }

// Reset empties the buffer without changing the window size.
func (m *MovingAverage) Reset() {
	m.sum = 0
	m.next = 0
	m.count = 0
}
