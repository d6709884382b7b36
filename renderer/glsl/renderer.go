// Package glsl renders GLSL fragment shaders with OpenGL. It is the
// rasterization variant of the renderer contract: construction is
// synchronous and requires a current GL context on the calling thread.
//
// The package registers itself under the "glsl" variant tag; import it for
// its side effect and construct through the renderer registry:
//
//	import _ "github.com/koturn/shaderview/renderer/glsl"
package glsl

import (
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/koturn/shaderview/clock"
	"github.com/koturn/shaderview/internal/logx"
	"github.com/koturn/shaderview/renderer"
)

func init() {
	renderer.Register(renderer.VariantGLSL, func() (renderer.Renderer, error) {
		return New()
	})
}

var (
	initOnce sync.Once
	initErr  error
)

// initGL loads the OpenGL function pointers once per process. It requires
// a current context on the calling thread.
func initGL() error {
	initOnce.Do(func() {
		initErr = gl.Init()
	})
	return initErr
}

// Full-screen quad: 4 clip-space corner vertices, 2 triangles.
var (
	quadVertices = []float32{
		-1, -1,
		1, -1,
		1, 1,
		-1, 1,
	}
	quadIndices = []uint32{0, 1, 2, 0, 2, 3}
)

// uniformLocations caches the resolved uniform locations of the active
// program. A location of -1 means the shader does not declare that uniform.
type uniformLocations struct {
	time       int32
	mouse      int32
	resolution int32
	frameCount int32
	backBuffer int32
}

// Renderer is the GLSL rasterization variant. The zero value is not usable;
// construct with New. Not safe for concurrent use; all calls must come from
// the thread owning the GL context.
type Renderer struct {
	log *slog.Logger

	vao, vbo, ebo uint32

	program  uint32
	loc      uniformLocations
	hasBuilt bool
	released bool

	uniforms renderer.Uniforms

	// Previous-frame feedback texture, recreated when the viewport size
	// changes.
	feedback   bool
	fbTex      uint32
	fbW, fbH   int

	timer *frameTimer
}

var _ renderer.Renderer = (*Renderer)(nil)
var _ renderer.BackBuffered = (*Renderer)(nil)
var _ renderer.FrameReader = (*Renderer)(nil)

// New creates the GLSL renderer and allocates the shared quad buffers.
// A GL context must be current on the calling thread; returns ErrNoGPU
// when the GL function pointers cannot be loaded.
func New() (*Renderer, error) {
	if err := initGL(); err != nil {
		return nil, fmt.Errorf("%w: %v", renderer.ErrNoGPU, err)
	}

	r := &Renderer{log: logx.Default()}

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*4, gl.Ptr(quadVertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &r.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, r.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(quadIndices)*4, gl.Ptr(quadIndices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)

	r.log.Debug("glsl renderer created",
		"version", gl.GoStr(gl.GetString(gl.VERSION)))
	return r, nil
}

// Build compiles and links a program from the fragment source. The quad
// vertex and index buffers are reused across rebuilds; only the program is
// recreated. On failure the previous program, if any, stays active.
func (r *Renderer) Build(fragmentSrc string, opts ...renderer.BuildOption) error {
	if r.released {
		return renderer.ErrReleased
	}
	cfg := renderer.ApplyBuildOptions(opts...)

	vertexSrc := cfg.VertexSource
	if vertexSrc == "" {
		vertexSrc = defaultVertexSource(fragmentSrc)
	}

	vs, err := compileShader(gl.VERTEX_SHADER, vertexSrc)
	if err != nil {
		r.hasBuilt = false
		return err
	}
	fs, err := compileShader(gl.FRAGMENT_SHADER, fragmentSrc)
	if err != nil {
		gl.DeleteShader(vs)
		r.hasBuilt = false
		return err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		log := programInfoLog(program)
		gl.DeleteProgram(program)
		r.hasBuilt = false
		return &renderer.BuildError{Stage: "link", Log: log}
	}

	// Swap in the new program only after the link succeeded.
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
	r.program = program
	r.loc = lookupUniforms(program, cfg.Names)
	r.bindQuad(program)
	r.hasBuilt = true

	r.log.Debug("program linked",
		"time", r.loc.time, "mouse", r.loc.mouse,
		"resolution", r.loc.resolution, "framecount", r.loc.frameCount,
		"backbuffer", r.loc.backBuffer)
	return nil
}

// bindQuad wires the quad vertex buffer to the program's position
// attribute. Falls back to location 0 when the attribute name is absent
// (a custom vertex source may declare a different one).
func (r *Renderer) bindQuad(program uint32) {
	loc := gl.GetAttribLocation(program, gl.Str("a_position\x00"))
	if loc < 0 {
		loc = 0
	}
	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.EnableVertexAttribArray(uint32(loc))
	gl.VertexAttribPointer(uint32(loc), 2, gl.FLOAT, false, 2*4, gl.PtrOffset(0))
	gl.BindVertexArray(0)
}

// SetUniforms stores the values applied by the next Render.
func (r *Renderer) SetUniforms(u renderer.Uniforms) {
	r.uniforms = u
}

// HasBuilt reports whether the most recent Build succeeded.
func (r *Renderer) HasBuilt() bool { return r.hasBuilt }

// SetBackBuffer enables previous-frame feedback: after each draw the color
// output is copied into a persistent texture bound as input to the next
// frame.
func (r *Renderer) SetBackBuffer(enabled bool) {
	r.feedback = enabled
	if !enabled && r.fbTex != 0 {
		gl.DeleteTextures(1, &r.fbTex)
		r.fbTex = 0
		r.fbW, r.fbH = 0, 0
	}
}

// Render draws one frame of the quad at the given viewport size.
func (r *Renderer) Render(width, height int) error {
	if r.released {
		return renderer.ErrReleased
	}
	if r.program == 0 {
		return renderer.ErrNotBuilt
	}

	if r.timer != nil {
		r.timer.begin()
	}

	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.UseProgram(r.program)
	u := r.uniforms
	if r.loc.time >= 0 {
		gl.Uniform1f(r.loc.time, u.Time)
	}
	if r.loc.mouse >= 0 {
		gl.Uniform2f(r.loc.mouse, u.MouseX, u.MouseY)
	}
	if r.loc.resolution >= 0 {
		gl.Uniform2f(r.loc.resolution, u.Width, u.Height)
	}
	if r.loc.frameCount >= 0 {
		gl.Uniform1i(r.loc.frameCount, int32(u.FrameCount))
	}
	if r.feedback && r.loc.backBuffer >= 0 {
		r.ensureFeedback(width, height)
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, r.fbTex)
		gl.Uniform1i(r.loc.backBuffer, 0)
	}

	gl.BindVertexArray(r.vao)
	gl.DrawElements(gl.TRIANGLES, int32(len(quadIndices)), gl.UNSIGNED_INT, gl.PtrOffset(0))
	gl.BindVertexArray(0)

	if r.feedback {
		r.ensureFeedback(width, height)
		gl.BindTexture(gl.TEXTURE_2D, r.fbTex)
		gl.CopyTexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, 0, 0, int32(width), int32(height))
	}

	if r.timer != nil {
		r.timer.end()
		r.timer.poll()
	}
	return nil
}

// ensureFeedback sizes the feedback texture to the viewport, recreating its
// storage when the dimensions changed.
func (r *Renderer) ensureFeedback(width, height int) {
	if r.fbTex == 0 {
		gl.GenTextures(1, &r.fbTex)
		gl.BindTexture(gl.TEXTURE_2D, r.fbTex)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	}
	if r.fbW != width || r.fbH != height {
		gl.BindTexture(gl.TEXTURE_2D, r.fbTex)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0,
			gl.RGBA, gl.UNSIGNED_BYTE, nil)
		r.fbW, r.fbH = width, height
	}
}

// EnableFrameTiming turns on GL_TIME_ELAPSED measurement around each draw.
// Always available on the core profiles this package targets.
func (r *Renderer) EnableFrameTiming(window int) bool {
	if r.released {
		return false
	}
	if window <= 0 {
		window = clock.DefaultSmoothingWindow
	}
	t, err := newFrameTimer(window)
	if err != nil {
		return false
	}
	r.DisableFrameTiming()
	r.timer = t
	return true
}

// DisableFrameTiming stops GPU timing and releases the query objects.
func (r *Renderer) DisableFrameTiming() {
	if r.timer != nil {
		r.timer.release()
		r.timer = nil
	}
}

// FrameTime returns the smoothed GPU time per frame, or -1 when timing is
// disabled or no query has completed yet.
func (r *Renderer) FrameTime() time.Duration {
	if r.timer == nil {
		return -1
	}
	return r.timer.frameTime()
}

// ReadFrame reads the current framebuffer back as an RGBA image. Blocks
// until pending GPU work completes. Must be called after drawing and
// before the buffer swap; the back buffer is undefined after a swap.
func (r *Renderer) ReadFrame(width, height int) (*image.RGBA, error) {
	if r.released {
		return nil, renderer.ErrReleased
	}
	if r.program == 0 {
		return nil, renderer.ErrNotBuilt
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))

	// GL rows run bottom-up; flip to the image origin.
	stride := img.Stride
	tmp := make([]byte, stride)
	for y := 0; y < height/2; y++ {
		top := img.Pix[y*stride : (y+1)*stride]
		bot := img.Pix[(height-1-y)*stride : (height-y)*stride]
		copy(tmp, top)
		copy(top, bot)
		copy(bot, tmp)
	}
	return img, nil
}

// Release frees all GPU resources. The renderer is unusable afterwards.
func (r *Renderer) Release() {
	if r.released {
		return
	}
	r.DisableFrameTiming()
	if r.fbTex != 0 {
		gl.DeleteTextures(1, &r.fbTex)
		r.fbTex = 0
	}
	if r.program != 0 {
		gl.DeleteProgram(r.program)
		r.program = 0
	}
	if r.ebo != 0 {
		gl.DeleteBuffers(1, &r.ebo)
		r.ebo = 0
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
		r.vbo = 0
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
		r.vao = 0
	}
	r.hasBuilt = false
	r.released = true
}

// lookupUniforms resolves the configured uniform names against the linked
// program. Missing uniforms resolve to -1 and are skipped at render time.
func lookupUniforms(program uint32, names renderer.UniformNames) uniformLocations {
	loc := func(name string) int32 {
		return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
	}
	return uniformLocations{
		time:       loc(names.Time),
		mouse:      loc(names.Mouse),
		resolution: loc(names.Resolution),
		frameCount: loc(names.FrameCount),
		backBuffer: loc(names.BackBuffer),
	}
}

func compileShader(shaderType uint32, source string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		log := shaderInfoLog(shader)
		gl.DeleteShader(shader)
		return 0, &renderer.BuildError{Stage: "compile", Log: log}
	}
	return shader, nil
}

func shaderInfoLog(shader uint32) string {
	var logLength int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
	buf := strings.Repeat("\x00", int(logLength+1))
	gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(buf))
	return strings.TrimRight(buf, "\x00")
}

func programInfoLog(program uint32) string {
	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
	buf := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(program, logLength, nil, gl.Str(buf))
	return strings.TrimRight(buf, "\x00")
}
