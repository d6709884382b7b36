package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/koturn/shaderview/clock"
	"github.com/koturn/shaderview/internal/logx"
	"github.com/koturn/shaderview/renderer"
)

// DefaultPollInterval is the probe cadence when none is configured.
const DefaultPollInterval = time.Second

// State is the loop's lifecycle state.
type State int

const (
	// StateIdle means no renderer exists yet; the first successful probe
	// selects the variant and moves the loop to StateActive, permanently.
	StateIdle State = iota
	// StateActive means a renderer exists and may be building or rendering.
	StateActive
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Events receives build outcomes, the loop's diagnostics surface. The host
// typically shows or hides the canvas and fills a diagnostics area with the
// verbatim error text.
type Events interface {
	BuildSucceeded(meta Meta, elapsed time.Duration)
	BuildFailed(meta Meta, err error)
}

type nopEvents struct{}

func (nopEvents) BuildSucceeded(Meta, time.Duration) {}
func (nopEvents) BuildFailed(Meta, error)            {}

// Option configures a Loop.
type Option func(*Loop)

// WithEvents sets the build outcome sink.
func WithEvents(ev Events) Option {
	return func(l *Loop) { l.events = ev }
}

// WithPollInterval overrides the probe cadence.
func WithPollInterval(d time.Duration) Option {
	return func(l *Loop) { l.pollInterval = d }
}

// WithSmoothingWindow sets the frame clock's smoothing window.
func WithSmoothingWindow(n int) Option {
	return func(l *Loop) { l.smoothing = n }
}

// WithBuildOptions sets the options passed to every renderer Build call,
// typically a uniform name remapping.
func WithBuildOptions(opts ...renderer.BuildOption) Option {
	return func(l *Loop) { l.buildOpts = opts }
}

// WithRendererFactory overrides how the renderer variant is constructed
// from the probed file type. The default consults the variant registry.
func WithRendererFactory(f func(fileType string) (renderer.Renderer, error)) Option {
	return func(l *Loop) { l.newRenderer = f }
}

// WithLogger sets the loop's logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Loop) { l.log = logx.Or(log) }
}

// Loop polls a Source at a fixed interval and rebuilds the renderer when
// the probed identity changed, rendering continuously in between through
// the frame clock.
//
// The loop is cooperative and single-threaded: the host pumps Poll and
// Frame from the goroutine owning the graphics context, or hands that
// goroutine to Run. Not safe for concurrent use.
type Loop struct {
	src    Source
	events Events
	log    *slog.Logger

	clk *clock.Clock

	newRenderer func(fileType string) (renderer.Renderer, error)
	buildOpts   []renderer.BuildOption

	pollInterval time.Duration
	smoothing    int
	lastPoll     time.Time
	havePolled   bool

	state State
	rend  renderer.Renderer

	// Change-detection keys from the last acted-on probe.
	lastName  string
	lastStamp string
	haveMeta  bool

	paused bool

	mouseX, mouseY float32
	width, height  int
	frameCount     int

	// now is replaceable in tests.
	now func() time.Time
}

// NewLoop creates a loop over the given source. The loop starts in
// StateIdle; the first Poll that probes successfully selects the renderer
// variant.
func NewLoop(src Source, opts ...Option) (*Loop, error) {
	l := &Loop{
		src:          src,
		events:       nopEvents{},
		log:          logx.Default(),
		clk:          clock.New(),
		newRenderer:  renderer.New,
		pollInterval: DefaultPollInterval,
		smoothing:    clock.DefaultSmoothingWindow,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.pollInterval <= 0 {
		return nil, fmt.Errorf("preview: poll interval must be positive, got %v", l.pollInterval)
	}
	if l.smoothing <= 0 {
		return nil, fmt.Errorf("%w: %d", clock.ErrInvalidWindow, l.smoothing)
	}
	return l, nil
}

// Poll runs one probe cycle if the poll interval has elapsed. When neither
// the probed name nor the mod stamp changed, nothing else happens: no
// rebuild, no extra render. A change stops the clock, rebuilds, and resumes
// rendering (or renders a single frame when the user had paused).
//
// The returned error is fatal, renderer variant construction failed; probe
// and rebuild failures are reported through the Events sink and the logger
// and retried on later polls.
func (l *Loop) Poll(ctx context.Context) error {
	now := l.now()
	if l.havePolled && now.Sub(l.lastPoll) < l.pollInterval {
		return nil
	}
	l.lastPoll = now
	l.havePolled = true

	meta, err := l.src.Probe(ctx)
	if err != nil {
		l.log.Warn("probe failed", "err", err)
		return nil
	}
	if l.haveMeta && meta.Name == l.lastName && meta.ModStamp == l.lastStamp {
		return nil
	}
	return l.rebuild(ctx, meta)
}

func (l *Loop) rebuild(ctx context.Context, meta Meta) error {
	text, err := l.src.Text(ctx)
	if err != nil {
		// Transient; the stamps stay unset so the next poll retries.
		l.log.Warn("content fetch failed", "name", meta.Name, "err", err)
		return nil
	}

	if l.state == StateIdle {
		r, err := l.newRenderer(meta.FileType)
		if err != nil {
			return fmt.Errorf("preview: create renderer for %q: %w", meta.FileType, err)
		}
		l.rend = r
		l.state = StateActive
		l.log.Info("renderer variant selected",
			"variant", renderer.VariantFor(meta.FileType), "name", meta.Name)
	}

	wasPaused := l.paused
	l.clk.Stop()

	start := l.now()
	buildErr := l.rend.Build(text, l.buildOpts...)
	elapsed := l.now().Sub(start)

	l.lastName, l.lastStamp, l.haveMeta = meta.Name, meta.ModStamp, true

	if buildErr != nil {
		l.log.Error("build failed", "name", meta.Name, "elapsed", elapsed, "err", buildErr)
		l.events.BuildFailed(meta, buildErr)
		// Clock stays stopped; the next detected change retries.
		return nil
	}

	l.log.Info("build succeeded", "name", meta.Name, "elapsed", elapsed)
	l.frameCount = 0
	l.events.BuildSucceeded(meta, elapsed)

	if wasPaused {
		// Show the new content without resuming playback.
		l.renderFrame()
		return nil
	}
	l.startClock()
	return nil
}

// startClock (re)starts the render loop. The smoothing window was
// validated in NewLoop, so Start cannot fail here.
func (l *Loop) startClock() {
	err := l.clk.Start(func(time.Time, time.Duration, time.Duration) {
		l.renderFrame()
	}, clock.WithSmoothingWindow(l.smoothing))
	if err != nil {
		l.log.Error("clock start failed", "err", err)
	}
}

// renderFrame pushes the live uniforms and draws one frame.
func (l *Loop) renderFrame() {
	if l.rend == nil || l.width <= 0 || l.height <= 0 {
		return
	}
	l.rend.SetUniforms(renderer.Uniforms{
		Time:       float32(l.clk.TotalElapsed().Seconds()),
		MouseX:     l.mouseX,
		MouseY:     l.mouseY,
		Width:      float32(l.width),
		Height:     float32(l.height),
		FrameCount: l.frameCount,
	})
	if err := l.rend.Render(l.width, l.height); err != nil {
		if !errors.Is(err, renderer.ErrNotBuilt) {
			l.log.Warn("render failed", "err", err)
		}
		return
	}
	l.frameCount++
}

// Frame advances the render loop by one host frame. Call it once per
// display refresh, typically right before swapping buffers.
func (l *Loop) Frame(now time.Time) {
	l.clk.Tick(now)
}

// RenderFrame draws a single frame with the current uniforms, outside the
// clock. Useful for refreshing the target right before a capture while
// playback is paused. No-op while idle.
func (l *Loop) RenderFrame() {
	l.renderFrame()
}

// SetMouse updates the pointer offsets, normalized to [0, 1] of the canvas
// size. Independent of the poll cycle; the values feed every render.
func (l *Loop) SetMouse(x, y float64) {
	l.mouseX = clamp01(x)
	l.mouseY = clamp01(y)
}

// Resize sets the viewport size used by subsequent renders.
func (l *Loop) Resize(width, height int) {
	l.width, l.height = width, height
}

// SetPaused stops or resumes continuous rendering. Resuming has no effect
// before the first successful build.
func (l *Loop) SetPaused(paused bool) {
	if paused == l.paused {
		return
	}
	l.paused = paused
	if paused {
		l.clk.Stop()
		return
	}
	if l.state == StateActive {
		l.startClock()
	}
}

// TogglePause flips the paused state and reports the new value.
func (l *Loop) TogglePause() bool {
	l.SetPaused(!l.paused)
	return l.paused
}

// Paused reports whether the user paused playback.
func (l *Loop) Paused() bool { return l.paused }

// State reports the lifecycle state.
func (l *Loop) State() State { return l.state }

// Renderer returns the active renderer, or nil while idle.
func (l *Loop) Renderer() renderer.Renderer { return l.rend }

// Clock returns the frame clock, for FPS display.
func (l *Loop) Clock() *clock.Clock { return l.clk }

// FrameCount returns the number of frames rendered since the last
// successful rebuild.
func (l *Loop) FrameCount() int { return l.frameCount }

// Run owns the pump: it polls and ticks on a 60 Hz cadence until the
// context is canceled or a fatal error occurs. Hosts with their own event
// loop call Poll and Frame directly instead.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := l.Poll(ctx); err != nil {
				return err
			}
			l.Frame(now)
		}
	}
}

// Close stops the clock, releases the renderer, and closes the source if
// it is closeable.
func (l *Loop) Close() error {
	l.clk.Stop()
	if l.rend != nil {
		l.rend.Release()
		l.rend = nil
	}
	if c, ok := l.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func clamp01(v float64) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return float32(v)
	}
}
