// Package renderer defines the contract shared by the shader renderer
// variants: build a program from fragment source, push per-frame uniform
// values, draw one full-screen quad, and optionally measure GPU frame time.
//
// Two variants implement the contract. The GLSL variant (renderer/glsl)
// rasterizes with OpenGL and is constructed synchronously. The WGSL variant
// (renderer/wgsl) targets WebGPU; its construction performs adapter and
// device negotiation and fails with ErrNoGPU when the platform lacks
// support. Variants self-register by file-type tag; callers pick one through
// New and never revisit the choice.
package renderer

import "time"

// Uniforms carries the per-frame values pushed to the shader program.
// All values must be supplied on every frame; the renderer does not retain
// deltas between SetUniforms calls.
type Uniforms struct {
	// Time is the elapsed preview time in seconds.
	Time float32
	// MouseX and MouseY are the pointer offsets normalized to [0, 1]
	// of the canvas size.
	MouseX, MouseY float32
	// Width and Height are the viewport size in pixels.
	Width, Height float32
	// FrameCount counts rendered frames since the last rebuild.
	FrameCount int
}

// Renderer is the common surface of the shader renderer variants.
//
// Renderers are not safe for concurrent use. All calls must come from the
// goroutine that owns the graphics context.
type Renderer interface {
	// Build compiles and links a program from the fragment source.
	// The active program is replaced only on success; on failure Build
	// returns a *BuildError carrying the native diagnostic text verbatim,
	// HasBuilt reports false, and any previously linked program remains
	// usable for rendering the last good content.
	Build(fragmentSrc string, opts ...BuildOption) error

	// SetUniforms stores the uniform values applied by the next Render.
	SetUniforms(u Uniforms)

	// Render draws one frame of the fixed full-screen quad at the given
	// viewport size. It submits GPU work without waiting for completion.
	// Returns ErrNotBuilt when no program has ever linked successfully.
	Render(width, height int) error

	// HasBuilt reports whether the most recent Build succeeded.
	HasBuilt() bool

	// EnableFrameTiming turns on GPU timestamp measurement around each
	// Render, smoothed over the given window. It reports whether the
	// capability is available; false is not an error, callers hide the
	// related UI instead.
	EnableFrameTiming(window int) bool

	// DisableFrameTiming turns GPU timing off and releases query objects.
	DisableFrameTiming()

	// FrameTime returns the smoothed GPU time per frame, or -1 when
	// timing is disabled, unsupported, or no sample has completed yet.
	FrameTime() time.Duration

	// Release frees all GPU resources. The renderer is unusable afterwards.
	Release()
}

// BuildOption configures a single Build call.
type BuildOption func(*BuildConfig)

// BuildConfig is the resolved option set for one Build call. Variants
// obtain it through ApplyBuildOptions.
type BuildConfig struct {
	// VertexSource overrides the built-in full-screen quad vertex shader.
	// Empty selects the variant's default.
	VertexSource string
	// Names is the uniform identifier table, fully populated.
	Names UniformNames
}

// WithVertexSource supplies a custom vertex shader instead of the variant's
// built-in full-screen quad.
func WithVertexSource(src string) BuildOption {
	return func(c *BuildConfig) { c.VertexSource = src }
}

// WithUniformNames remaps the logical uniforms to the given shader
// identifiers. Empty fields keep their defaults.
func WithUniformNames(n UniformNames) BuildOption {
	return func(c *BuildConfig) { c.Names = n }
}

// ApplyBuildOptions resolves the options for one Build call, filling
// unset uniform names from the default table.
func ApplyBuildOptions(opts ...BuildOption) BuildConfig {
	c := BuildConfig{Names: DefaultUniformNames()}
	for _, opt := range opts {
		opt(&c)
	}
	c.Names = c.Names.withDefaults()
	return c
}
