// Package preview drives the live-reload cycle: poll a content source at a
// fixed interval, rebuild the renderer when the source changed, and render
// continuously in between through the frame clock.
package preview

import "context"

// Meta identifies a source snapshot. Name and ModStamp are change-detection
// keys compared only for inequality, never parsed.
type Meta struct {
	// Name is the source's identity, normally an absolute file path.
	Name string
	// FileType is a loosely typed tag selecting the renderer variant;
	// "wgsl" picks the WebGPU variant, anything else rasterizes as GLSL.
	FileType string
	// ModStamp is an opaque last-modified marker.
	ModStamp string
}

// Source is the external content endpoint polled by the loop. The file
// source implements it over the filesystem; an editor integration would
// implement it over a buffer snapshot.
type Source interface {
	// Probe returns the current identity of the content, cheaply.
	Probe(ctx context.Context) (Meta, error)
	// Text returns the full current content.
	Text(ctx context.Context) (string, error)
}
