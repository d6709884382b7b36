// Package wgsl renders WGSL fragment shaders with WebGPU. It is the
// compute-capable variant of the renderer contract: construction negotiates
// an adapter and device and fails with ErrNoGPU when the platform lacks
// WebGPU support.
//
// Shader sources reference the harness uniforms by name without declaring
// them; the package injects matching var<uniform> declarations at group 0,
// bindings 0 through 3, before compiling. Sources are validated with naga
// in process before they reach the device, so syntax errors come back as
// readable diagnostics instead of device losses.
//
// The package registers itself under the "wgsl" variant tag; import it for
// its side effect and construct through the renderer registry:
//
//	import _ "github.com/koturn/shaderview/renderer/wgsl"
package wgsl

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"time"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/koturn/shaderview/internal/logx"
	"github.com/koturn/shaderview/renderer"
)

func init() {
	renderer.Register(renderer.VariantWGSL, func() (renderer.Renderer, error) {
		return New()
	})
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

// Byte sizes of the four uniform buffers, indexed by binding slot.
var uniformSizes = [uniformBindingCount]uint64{
	bindingTime:       4,
	bindingMouse:      8,
	bindingResolution: 8,
	bindingFrameCount: 4,
}

// Renderer is the WGSL variant on WebGPU. The zero value is not usable;
// construct with New. Not safe for concurrent use.
type Renderer struct {
	log *slog.Logger

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Presentation target. When no surface is attached, frames render
	// into an offscreen texture instead.
	surface    *wgpu.Surface
	surfFormat wgpu.TextureFormat

	offTex     *wgpu.Texture
	offView    *wgpu.TextureView
	offW, offH int

	// Quad and uniform buffers are created once and reused across
	// rebuilds; only the shader module and pipeline are recreated.
	vertexBuf   *wgpu.Buffer
	indexBuf    *wgpu.Buffer
	uniformBufs [uniformBindingCount]*wgpu.Buffer
	bindLayout  *wgpu.BindGroupLayout
	bindGroup   *wgpu.BindGroup

	pipeline *wgpu.RenderPipeline
	hasBuilt bool
	released bool

	// Last successfully built sources. The pipeline bakes in the color
	// target format, so a surface format change rebuilds from these.
	lastFragment string
	lastVertex   string
	lastNames    renderer.UniformNames

	uniforms renderer.Uniforms

	timingWarned bool
}

var _ renderer.Renderer = (*Renderer)(nil)

// New negotiates a WebGPU adapter and device and allocates the shared quad
// and uniform buffers. Returns ErrNoGPU when negotiation fails.
func New() (*Renderer, error) {
	runtime.LockOSThread()

	r := &Renderer{log: logx.Default()}
	r.instance = wgpu.CreateInstance(nil)

	adapter, err := r.instance.RequestAdapter(&wgpu.RequestAdapterOptions{})
	if err != nil {
		r.instance.Release()
		return nil, fmt.Errorf("%w: request adapter: %v", renderer.ErrNoGPU, err)
	}
	r.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "shaderview",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		r.adapter.Release()
		r.instance.Release()
		return nil, fmt.Errorf("%w: request device: %v", renderer.ErrNoGPU, err)
	}
	r.device = device
	r.queue = device.GetQueue()
	r.surfFormat = wgpu.TextureFormatRGBA8UnormSrgb

	if err := r.createStaticResources(); err != nil {
		r.Release()
		return nil, err
	}

	r.log.Info("wgsl renderer created")
	return r, nil
}

// createStaticResources allocates the quad vertex and index buffers, the
// uniform buffers, and the bind group shared by every program.
func (r *Renderer) createStaticResources() error {
	vbuf, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "quad vertices",
		Size:  uint64(len(quadVertices) * 4),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgsl: create vertex buffer: %w", err)
	}
	r.vertexBuf = vbuf
	r.queue.WriteBuffer(vbuf, 0, float32Bytes(quadVertices))

	ibuf, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "quad indices",
		Size:  uint64(len(quadIndices) * 4),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgsl: create index buffer: %w", err)
	}
	r.indexBuf = ibuf
	r.queue.WriteBuffer(ibuf, 0, uint32Bytes(quadIndices))

	layoutEntries := make([]wgpu.BindGroupLayoutEntry, uniformBindingCount)
	groupEntries := make([]wgpu.BindGroupEntry, uniformBindingCount)
	for i := 0; i < uniformBindingCount; i++ {
		buf, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("uniform %d", i),
			Size:  uniformSizes[i],
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("wgsl: create uniform buffer %d: %w", i, err)
		}
		r.uniformBufs[i] = buf
		layoutEntries[i] = wgpu.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: uniformSizes[i],
			},
		}
		groupEntries[i] = wgpu.BindGroupEntry{
			Binding: uint32(i),
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}
	}

	layout, err := r.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "shaderview uniforms",
		Entries: layoutEntries,
	})
	if err != nil {
		return fmt.Errorf("wgsl: create bind group layout: %w", err)
	}
	r.bindLayout = layout

	group, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "shaderview uniforms",
		Layout:  layout,
		Entries: groupEntries,
	})
	if err != nil {
		return fmt.Errorf("wgsl: create bind group: %w", err)
	}
	r.bindGroup = group
	return nil
}

// Instance returns the WebGPU instance, for creating a window surface to
// attach with SetSurface.
func (r *Renderer) Instance() *wgpu.Instance { return r.instance }

// SetSurface attaches a window surface and configures it at the given size.
// Without a surface the renderer draws into an offscreen texture. When the
// surface's preferred format differs from the one an existing pipeline was
// built against, the pipeline is recreated from the retained sources.
func (r *Renderer) SetSurface(surface *wgpu.Surface, width, height int) {
	r.surface = surface
	caps := surface.GetCapabilities(r.adapter)
	prev := r.surfFormat
	r.surfFormat = caps.Formats[0]
	surface.Configure(r.adapter, r.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      r.surfFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	})

	if needsPipelineRebuild(r.hasBuilt, prev, r.surfFormat) {
		err := r.Build(r.lastFragment,
			renderer.WithVertexSource(r.lastVertex),
			renderer.WithUniformNames(r.lastNames))
		if err != nil {
			r.log.Error("pipeline rebuild for surface format failed",
				"format", r.surfFormat, "err", err)
		}
	}
}

// Resize reconfigures the attached surface. No-op without a surface; the
// offscreen texture tracks the viewport size on its own.
func (r *Renderer) Resize(width, height int) {
	if r.surface == nil {
		return
	}
	caps := r.surface.GetCapabilities(r.adapter)
	r.surface.Configure(r.adapter, r.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      r.surfFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	})
}

// Build validates the composed WGSL source with naga, compiles it into a
// shader module, and recreates the render pipeline. The quad, uniform
// buffers and bind group persist across rebuilds. On failure the previous
// pipeline, if any, stays active.
func (r *Renderer) Build(fragmentSrc string, opts ...renderer.BuildOption) error {
	if r.released {
		return renderer.ErrReleased
	}
	cfg := renderer.ApplyBuildOptions(opts...)

	src, vsEntry, fsEntry, err := composeSource(fragmentSrc, cfg.VertexSource, cfg.Names)
	if err != nil {
		r.hasBuilt = false
		return err
	}
	if err := validate(src); err != nil {
		r.hasBuilt = false
		return err
	}

	module, err := r.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "shaderview program",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: src,
		},
	})
	if err != nil {
		r.hasBuilt = false
		return &renderer.BuildError{Stage: "compile", Log: err.Error()}
	}
	defer module.Release()

	pipelineLayout, err := r.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "shaderview program",
		BindGroupLayouts: []*wgpu.BindGroupLayout{r.bindLayout},
	})
	if err != nil {
		r.hasBuilt = false
		return &renderer.BuildError{Stage: "link", Log: err.Error()}
	}
	defer pipelineLayout.Release()

	pipeline, err := r.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "shaderview program",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: vsEntry,
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 2 * 4,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{
							Format:         wgpu.VertexFormatFloat32x2,
							Offset:         0,
							ShaderLocation: 0,
						},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: fsEntry,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    r.surfFormat,
					Blend:     &wgpu.BlendStateReplace,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		r.hasBuilt = false
		return &renderer.BuildError{Stage: "link", Log: err.Error()}
	}

	// Swap in the new pipeline only after creation succeeded.
	if r.pipeline != nil {
		r.pipeline.Release()
	}
	r.pipeline = pipeline
	r.hasBuilt = true
	r.lastFragment = fragmentSrc
	r.lastVertex = cfg.VertexSource
	r.lastNames = cfg.Names

	r.log.Debug("pipeline created", "vertex", vsEntry, "fragment", fsEntry)
	return nil
}

// needsPipelineRebuild reports whether switching the color target format
// invalidates an existing pipeline. WebGPU requires the pipeline's target
// format and the render attachment format to match exactly.
func needsPipelineRebuild(built bool, old, next wgpu.TextureFormat) bool {
	return built && old != next
}

// SetUniforms stores the values applied by the next Render.
func (r *Renderer) SetUniforms(u renderer.Uniforms) {
	r.uniforms = u
}

// HasBuilt reports whether the most recent Build succeeded.
func (r *Renderer) HasBuilt() bool { return r.hasBuilt }

// Render draws one frame of the quad at the given viewport size and, when a
// surface is attached, presents it.
func (r *Renderer) Render(width, height int) error {
	if r.released {
		return renderer.ErrReleased
	}
	if r.pipeline == nil {
		return renderer.ErrNotBuilt
	}

	r.writeUniforms()

	var view *wgpu.TextureView
	var surfTex *wgpu.Texture
	if r.surface != nil {
		tex, err := r.surface.GetCurrentTexture()
		if err != nil {
			return fmt.Errorf("wgsl: acquire surface texture: %w", err)
		}
		surfTex = tex
		view, err = tex.CreateView(nil)
		if err != nil {
			tex.Release()
			return fmt.Errorf("wgsl: create surface view: %w", err)
		}
	} else {
		if err := r.ensureOffscreen(width, height); err != nil {
			return err
		}
		view = r.offView
	}

	encoder, err := r.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("wgsl: create command encoder: %w", err)
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	pass.SetPipeline(r.pipeline)
	pass.SetBindGroup(0, r.bindGroup, nil)
	pass.SetVertexBuffer(0, r.vertexBuf, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(r.indexBuf, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(len(quadIndices)), 1, 0, 0, 0)
	pass.End()

	cmd, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		return fmt.Errorf("wgsl: finish command buffer: %w", err)
	}
	r.queue.Submit(cmd)
	cmd.Release()
	encoder.Release()

	if r.surface != nil {
		r.surface.Present()
		view.Release()
		surfTex.Release()
	}
	return nil
}

// writeUniforms pushes the stored uniform values into the four buffers.
func (r *Renderer) writeUniforms() {
	u := r.uniforms
	r.queue.WriteBuffer(r.uniformBufs[bindingTime], 0, float32Bytes([]float32{u.Time}))
	r.queue.WriteBuffer(r.uniformBufs[bindingMouse], 0, float32Bytes([]float32{u.MouseX, u.MouseY}))
	r.queue.WriteBuffer(r.uniformBufs[bindingResolution], 0, float32Bytes([]float32{u.Width, u.Height}))
	r.queue.WriteBuffer(r.uniformBufs[bindingFrameCount], 0, uint32Bytes([]uint32{uint32(u.FrameCount)}))
}

// ensureOffscreen sizes the offscreen color target to the viewport,
// recreating it when the dimensions changed.
func (r *Renderer) ensureOffscreen(width, height int) error {
	if r.offTex != nil && r.offW == width && r.offH == height {
		return nil
	}
	if r.offView != nil {
		r.offView.Release()
		r.offView = nil
	}
	if r.offTex != nil {
		r.offTex.Release()
		r.offTex = nil
	}

	tex, err := r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "offscreen target",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        r.surfFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("wgsl: create offscreen texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("wgsl: create offscreen view: %w", err)
	}
	r.offTex = tex
	r.offView = view
	r.offW, r.offH = width, height
	return nil
}

// EnableFrameTiming reports false: the WebGPU binding exposes no timestamp
// query surface, so GPU-side timing is unavailable. Not an error; callers
// hide the related UI.
func (r *Renderer) EnableFrameTiming(int) bool {
	if !r.timingWarned {
		r.log.Warn("gpu frame timing not supported by the wgsl variant")
		r.timingWarned = true
	}
	return false
}

// DisableFrameTiming is a no-op; see EnableFrameTiming.
func (r *Renderer) DisableFrameTiming() {}

// FrameTime returns -1: no GPU timing is available on this variant.
func (r *Renderer) FrameTime() time.Duration { return -1 }

// Release frees all GPU resources. The renderer is unusable afterwards.
func (r *Renderer) Release() {
	if r.released {
		return
	}
	if r.pipeline != nil {
		r.pipeline.Release()
		r.pipeline = nil
	}
	if r.bindGroup != nil {
		r.bindGroup.Release()
		r.bindGroup = nil
	}
	if r.bindLayout != nil {
		r.bindLayout.Release()
		r.bindLayout = nil
	}
	for i, buf := range r.uniformBufs {
		if buf != nil {
			buf.Release()
			r.uniformBufs[i] = nil
		}
	}
	if r.indexBuf != nil {
		r.indexBuf.Release()
		r.indexBuf = nil
	}
	if r.vertexBuf != nil {
		r.vertexBuf.Release()
		r.vertexBuf = nil
	}
	if r.offView != nil {
		r.offView.Release()
		r.offView = nil
	}
	if r.offTex != nil {
		r.offTex.Release()
		r.offTex = nil
	}
	if r.device != nil {
		r.device.Release()
		r.device = nil
	}
	if r.adapter != nil {
		r.adapter.Release()
		r.adapter = nil
	}
	if r.instance != nil {
		r.instance.Release()
		r.instance = nil
	}
	r.hasBuilt = false
	r.released = true
}

func float32Bytes(vs []float32) []byte {
	buf := make([]byte, len(vs)*4)
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func uint32Bytes(vs []uint32) []byte {
	buf := make([]byte, len(vs)*4)
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}
