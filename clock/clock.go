package clock

import (
	"time"
)

// DefaultSmoothingWindow is the ring-buffer size used to smooth frame
// durations when no explicit window is configured.
const DefaultSmoothingWindow = 60

// Callback is invoked once per frame with the current time, the duration
// of the last frame, and the smoothed frame duration. The first
// invocation after Start reports zero for both durations.
type Callback func(now time.Time, dt, smoothed time.Duration)

// StartOption configures a Start call.
type StartOption func(*startOptions)

type startOptions struct {
	interval time.Duration
	window   int
}

// WithInterval switches the clock from display-synchronized ticking to a
// fixed period: Tick fires the callback only after d has elapsed since
// the previous firing, regardless of how often the host pumps it.
func WithInterval(d time.Duration) StartOption {
	return func(o *startOptions) { o.interval = d }
}

// WithSmoothingWindow sets the ring-buffer size for frame smoothing.
// A non-positive window makes Start return ErrInvalidWindow.
func WithSmoothingWindow(n int) StartOption {
	return func(o *startOptions) { o.window = n }
}

// handle cancels a running tick loop. Its presence on the clock defines
// the running state: the clock is stopped exactly when no handle is held.
type handle struct {
	cb       Callback
	interval time.Duration
	lastFire time.Time
}

// Clock drives the per-frame render callback and tracks frame statistics.
//
// The clock is cooperative: the host pumps Tick once per display frame
// (typically right after swapping buffers), and the clock decides whether
// the callback fires. All methods must be called from the same goroutine.
type Clock struct {
	startTime    time.Time
	stopTime     time.Time
	totalElapsed time.Duration
	perFrame     time.Duration
	smoother     *MovingAverage
	frameCount   int
	prevTick     time.Time

	running *handle

	// now is replaceable in tests.
	now func() time.Time
}

// New creates a stopped clock.
func New() *Clock {
	return &Clock{now: time.Now}
}

// SetNow replaces the clock's time source. Intended for tests; pass nil
// to restore time.Now.
func (c *Clock) SetNow(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	c.now = now
}

// Start begins (or restarts) the tick loop. Any running loop is stopped
// first. The callback is invoked synchronously once with zero durations,
// then again on every subsequent Tick. The smoothing ring buffer is
// reset; accumulated totals are not (use Reset for that).
func (c *Clock) Start(cb Callback, opts ...StartOption) error {
	o := startOptions{window: DefaultSmoothingWindow}
	for _, opt := range opts {
		opt(&o)
	}

	sm, err := NewMovingAverage(o.window)
	if err != nil {
		return err
	}

	c.Stop()

	now := c.now()
	c.startTime = now
	c.stopTime = now
	c.prevTick = now
	c.perFrame = 0
	c.smoother = sm
	c.running = &handle{cb: cb, interval: o.interval, lastFire: now}

	cb(now, 0, 0)
	return nil
}

// Tick advances the clock by one host frame. It is a no-op while the
// clock is stopped. In fixed-interval mode the callback only fires once
// the interval has elapsed; in display-synchronized mode it fires on
// every Tick.
func (c *Clock) Tick(now time.Time) {
	h := c.running
	if h == nil {
		return
	}
	if h.interval > 0 && now.Sub(h.lastFire) < h.interval {
		return
	}
	h.lastFire = now

	dt := now.Sub(c.prevTick)
	c.prevTick = now
	c.perFrame = dt
	c.smoother.Push(float64(dt) / float64(time.Millisecond))
	c.frameCount++

	h.cb(now, dt, c.smoothedPerFrame())
}

// Stop cancels the tick loop and accumulates the elapsed run time.
// While stopped, TimePerFrame and the FPS accessors read as zero.
// Stopping an already stopped clock is a no-op.
func (c *Clock) Stop() {
	if c.running == nil {
		return
	}
	c.running = nil
	c.stopTime = c.now()
	c.totalElapsed += c.stopTime.Sub(c.startTime)
}

// Reset zeroes the accumulated totals and frame count and re-bases the
// start time to now. It does not stop or start the loop.
func (c *Clock) Reset() {
	now := c.now()
	c.startTime = now
	c.stopTime = now
	c.prevTick = now
	c.totalElapsed = 0
	c.frameCount = 0
}

// Stopped reports whether no tick loop is running.
func (c *Clock) Stopped() bool { return c.running == nil }

// Elapsed returns the time since Start, frozen at the stop time while
// the clock is stopped.
func (c *Clock) Elapsed() time.Duration {
	if c.running == nil {
		return c.stopTime.Sub(c.startTime)
	}
	return c.now().Sub(c.startTime)
}

// TotalElapsed returns the run time accumulated across stop/restart
// cycles, including the current run when the clock is running.
func (c *Clock) TotalElapsed() time.Duration {
	if c.running == nil {
		return c.totalElapsed
	}
	return c.totalElapsed + c.now().Sub(c.startTime)
}

// FrameCount returns the number of callback firings since the last Reset,
// not counting the synchronous call made by Start.
func (c *Clock) FrameCount() int { return c.frameCount }

// TimePerFrame returns the duration of the last frame, or 0 while the
// clock is stopped.
func (c *Clock) TimePerFrame() time.Duration {
	if c.running == nil {
		return 0
	}
	return c.perFrame
}

// SmoothedTimePerFrame returns the ring-buffer average of recent frame
// durations, or 0 while the clock is stopped.
func (c *Clock) SmoothedTimePerFrame() time.Duration {
	if c.running == nil {
		return 0
	}
	return c.smoothedPerFrame()
}

func (c *Clock) smoothedPerFrame() time.Duration {
	if c.smoother == nil {
		return 0
	}
	return time.Duration(c.smoother.Average() * float64(time.Millisecond))
}

// FPS returns the instantaneous frame rate derived from TimePerFrame,
// or 0 while stopped or before the second frame.
func (c *Clock) FPS() float64 {
	return fps(c.TimePerFrame())
}

// SmoothedFPS returns the frame rate derived from SmoothedTimePerFrame,
// or 0 while stopped.
func (c *Clock) SmoothedFPS() float64 {
	return fps(c.SmoothedTimePerFrame())
}

func fps(perFrame time.Duration) float64 {
	if perFrame <= 0 {
		return 0
	}
	return float64(time.Second) / float64(perFrame)
}
