package shaderview

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"time"

	"github.com/koturn/shaderview/clock"
	"github.com/koturn/shaderview/internal/logx"
	"github.com/koturn/shaderview/preview"
	"github.com/koturn/shaderview/renderer"
)

// Session is one live preview over one content source. It owns the preview
// loop, the frame clock, and the renderer chosen for the source, and it
// applies session-wide capabilities (back buffer, frame timing) once the
// renderer exists.
//
// All mutable state lives on the Session; nothing is shared between
// sessions except the package logger. A Session is cooperative and
// single-threaded like the loop it wraps: pump Poll and Frame from the
// goroutine owning the graphics context.
type Session struct {
	loop *preview.Loop
	log  *slog.Logger

	backBuffer   bool
	frameTiming  bool
	timingWindow int

	// capsApplied flips once the renderer exists and the capability
	// options were pushed onto it.
	capsApplied bool
}

// NewSession creates a session over the given source. No GPU work happens
// until the first Poll probes the source successfully.
func NewSession(src preview.Source, opts ...SessionOption) (*Session, error) {
	o := sessionOptions{
		pollInterval: preview.DefaultPollInterval,
		smoothing:    clock.DefaultSmoothingWindow,
		log:          logx.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	loopOpts := []preview.Option{
		preview.WithPollInterval(o.pollInterval),
		preview.WithSmoothingWindow(o.smoothing),
		preview.WithLogger(o.log),
	}
	if o.haveNames {
		loopOpts = append(loopOpts, preview.WithBuildOptions(renderer.WithUniformNames(o.names)))
	}
	if o.events != nil {
		loopOpts = append(loopOpts, preview.WithEvents(o.events))
	}
	if o.factory != nil {
		loopOpts = append(loopOpts, preview.WithRendererFactory(o.factory))
	}

	loop, err := preview.NewLoop(src, loopOpts...)
	if err != nil {
		return nil, err
	}
	return &Session{
		loop:         loop,
		log:          o.log,
		backBuffer:   o.backBuffer,
		frameTiming:  o.frameTiming,
		timingWindow: o.timingWindow,
	}, nil
}

// Poll runs one probe cycle if the poll interval has elapsed. The returned
// error is fatal (renderer construction failed); everything else is
// reported through the Events sink and retried.
func (s *Session) Poll(ctx context.Context) error {
	if err := s.loop.Poll(ctx); err != nil {
		return err
	}
	s.applyCapabilities()
	return nil
}

// applyCapabilities pushes the session's capability options onto the
// renderer, once, after the loop selected it.
func (s *Session) applyCapabilities() {
	if s.capsApplied {
		return
	}
	r := s.loop.Renderer()
	if r == nil {
		return
	}
	s.capsApplied = true

	if s.backBuffer {
		if bb, ok := r.(renderer.BackBuffered); ok {
			bb.SetBackBuffer(true)
		} else {
			s.log.Warn("back buffer unsupported by renderer variant")
		}
	}
	if s.frameTiming {
		if !r.EnableFrameTiming(s.timingWindow) {
			s.log.Warn("frame timing unsupported by renderer variant")
		}
	}
}

// Frame advances the render loop by one host frame.
func (s *Session) Frame(now time.Time) {
	s.loop.Frame(now)
}

// RenderFrame draws a single frame with the current uniforms, outside the
// clock. Call it right before Capture so the read-back sees freshly drawn
// content even while playback is paused.
func (s *Session) RenderFrame() {
	s.loop.RenderFrame()
}

// Run pumps the session at a fixed cadence until the context is canceled
// or a fatal error occurs. Hosts with their own event loop call Poll and
// Frame directly instead.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := s.Poll(ctx); err != nil {
				return err
			}
			s.Frame(now)
		}
	}
}

// SetMouse updates the pointer offsets, normalized to [0, 1] of the canvas.
func (s *Session) SetMouse(x, y float64) { s.loop.SetMouse(x, y) }

// Resize sets the canvas size used by subsequent renders.
func (s *Session) Resize(width, height int) { s.loop.Resize(width, height) }

// SetPaused stops or resumes continuous rendering.
func (s *Session) SetPaused(paused bool) { s.loop.SetPaused(paused) }

// TogglePause flips the paused state and reports the new value.
func (s *Session) TogglePause() bool { return s.loop.TogglePause() }

// Paused reports whether playback is paused.
func (s *Session) Paused() bool { return s.loop.Paused() }

// Clock returns the frame clock, for FPS display.
func (s *Session) Clock() *clock.Clock { return s.loop.Clock() }

// Renderer returns the active renderer, or nil before the first successful
// probe.
func (s *Session) Renderer() renderer.Renderer { return s.loop.Renderer() }

// FrameTime returns the smoothed GPU frame time, or -1 when frame timing
// is disabled, unsupported, or not yet measured.
func (s *Session) FrameTime() time.Duration {
	r := s.loop.Renderer()
	if r == nil {
		return -1
	}
	return r.FrameTime()
}

// Capture reads back the current frame. It fails when the renderer variant
// cannot read frames or no frame was rendered yet.
func (s *Session) Capture(width, height int) (*image.RGBA, error) {
	r := s.loop.Renderer()
	if r == nil {
		return nil, fmt.Errorf("shaderview: capture: %w", renderer.ErrNotBuilt)
	}
	fr, ok := r.(renderer.FrameReader)
	if !ok {
		return nil, fmt.Errorf("shaderview: capture unsupported by renderer variant")
	}
	return fr.ReadFrame(width, height)
}

// CapturePNG reads back the current frame and encodes it as PNG.
func (s *Session) CapturePNG(w io.Writer, width, height int) error {
	img, err := s.Capture(width, height)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("shaderview: encode capture: %w", err)
	}
	return nil
}

// Close stops the clock, releases the renderer, and closes the source if
// it is closeable.
func (s *Session) Close() error {
	return s.loop.Close()
}
