package renderer

import "image"

// BackBuffered is implemented by variants that can feed the previous
// frame's color output back into the program as a texture. Callers probe
// for it with a type assertion; variants without the capability simply do
// not implement it.
type BackBuffered interface {
	// SetBackBuffer enables or disables previous-frame feedback for
	// subsequent Render calls.
	SetBackBuffer(enabled bool)
}

// FrameReader is implemented by variants that can read the last rendered
// frame back from the GPU, for snapshot capture.
type FrameReader interface {
	// ReadFrame returns the current frame as an RGBA image with the
	// top-left origin. It blocks until the GPU work has completed.
	// Call it after a draw and before the buffer swap; swapped-out
	// buffer contents are undefined.
	ReadFrame(width, height int) (*image.RGBA, error)
}
