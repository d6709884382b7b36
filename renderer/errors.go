package renderer

import "errors"

var (
	// ErrNoGPU is returned when no suitable graphics device is available.
	// This is fatal for the session and is never retried.
	ErrNoGPU = errors.New("renderer: no suitable GPU device available")

	// ErrNotBuilt is returned by Render before any successful Build.
	ErrNotBuilt = errors.New("renderer: no program built")

	// ErrUnknownUniform is returned when a uniform override names a key
	// outside the logical uniform table.
	ErrUnknownUniform = errors.New("renderer: unknown uniform key")

	// ErrNoVariant is returned when no registered variant claims the
	// requested file type.
	ErrNoVariant = errors.New("renderer: no variant registered")

	// ErrReleased is returned when a released renderer is used.
	ErrReleased = errors.New("renderer: renderer has been released")
)

// BuildError reports a failed shader compile, link, or validation.
// Log holds the native compiler, linker, or validator diagnostic text
// verbatim, for display in a diagnostics area.
type BuildError struct {
	Stage string // "compile", "link", or "validate"
	Log   string
}

func (e *BuildError) Error() string {
	if e.Log == "" {
		return "renderer: shader " + e.Stage + " failed"
	}
	return e.Log
}
