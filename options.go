package shaderview

import (
	"log/slog"
	"time"

	"github.com/koturn/shaderview/internal/logx"
	"github.com/koturn/shaderview/preview"
	"github.com/koturn/shaderview/renderer"
)

// SessionOption configures a Session.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	pollInterval time.Duration
	smoothing    int
	names        renderer.UniformNames
	haveNames    bool
	backBuffer   bool
	frameTiming  bool
	timingWindow int
	events       preview.Events
	log          *slog.Logger
	factory      func(fileType string) (renderer.Renderer, error)
}

// WithPollInterval overrides the source probe cadence. The default is
// [preview.DefaultPollInterval].
func WithPollInterval(d time.Duration) SessionOption {
	return func(o *sessionOptions) { o.pollInterval = d }
}

// WithSmoothingWindow sets the frame clock's smoothing window. The default
// is [clock.DefaultSmoothingWindow].
func WithSmoothingWindow(n int) SessionOption {
	return func(o *sessionOptions) { o.smoothing = n }
}

// WithUniformNames remaps the built-in uniforms to the given shader
// identifiers. Zero-valued fields keep their defaults.
func WithUniformNames(names renderer.UniformNames) SessionOption {
	return func(o *sessionOptions) {
		o.names = names
		o.haveNames = true
	}
}

// WithBackBuffer enables the previous-frame feedback texture on renderers
// that support it. Unsupported variants ignore the option.
func WithBackBuffer(enabled bool) SessionOption {
	return func(o *sessionOptions) { o.backBuffer = enabled }
}

// WithFrameTiming enables GPU frame-time measurement with the given
// smoothing window; window <= 0 selects the default. Variants without
// timestamp support report [renderer.Renderer.FrameTime] as -1.
func WithFrameTiming(window int) SessionOption {
	return func(o *sessionOptions) {
		o.frameTiming = true
		o.timingWindow = window
	}
}

// WithEvents sets the build outcome sink.
func WithEvents(ev preview.Events) SessionOption {
	return func(o *sessionOptions) { o.events = ev }
}

// WithLogger overrides the package logger for this session.
func WithLogger(log *slog.Logger) SessionOption {
	return func(o *sessionOptions) { o.log = logx.Or(log) }
}

// WithRendererFactory overrides how the renderer variant is constructed.
// Mainly useful in tests and embedding scenarios; the default consults the
// variant registry.
func WithRendererFactory(f func(fileType string) (renderer.Renderer, error)) SessionOption {
	return func(o *sessionOptions) { o.factory = f }
}
