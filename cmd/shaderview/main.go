// Command shaderview opens a window and live-previews a GLSL or WGSL
// fragment shader file, rebuilding whenever the file changes.
//
// Usage:
//
//	shaderview [flags] shader.frag
//
// Space pauses and resumes playback, p captures the current frame to a
// PNG, and Escape quits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/koturn/shaderview"
	"github.com/koturn/shaderview/preview"
	"github.com/koturn/shaderview/renderer"
	"github.com/koturn/shaderview/renderer/wgsl"

	_ "github.com/koturn/shaderview/renderer/glsl"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	var (
		configPath = flag.String("config", "", "TOML config file")
		width      = flag.Int("width", 800, "window width")
		height     = flag.Int("height", 600, "window height")
		interval   = flag.Duration("interval", preview.DefaultPollInterval, "file poll interval")
		smoothing  = flag.Int("smoothing", 0, "FPS smoothing window (0 = default)")
		paused     = flag.Bool("paused", false, "start paused")
		capture    = flag.String("capture", "shaderview.png", "capture output path (p key)")
		verbose    = flag.Bool("verbose", false, "log to stderr")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] shader-file\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}

	if *verbose {
		shaderview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	var cfg config
	if *configPath != "" {
		var err error
		cfg, err = loadConfig(*configPath)
		if err != nil {
			log.Fatalf("shaderview: %v", err)
		}
	}
	applyFlags(&cfg, *width, *height, *interval, *smoothing, *paused, *capture)

	if err := run(flag.Arg(0), cfg); err != nil {
		log.Fatalf("shaderview: %v", err)
	}
}

// applyFlags overlays explicitly set flags onto the config. Flags left at
// their defaults fill holes the config did not set.
func applyFlags(cfg *config, width, height int, interval time.Duration, smoothing int, paused bool, capture string) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["width"] || cfg.Width <= 0 {
		cfg.Width = width
	}
	if set["height"] || cfg.Height <= 0 {
		cfg.Height = height
	}
	if set["interval"] || cfg.Interval == "" {
		cfg.Interval = interval.String()
	}
	if set["smoothing"] || cfg.Smoothing <= 0 {
		cfg.Smoothing = smoothing
	}
	if set["paused"] {
		cfg.Paused = paused
	}
	if set["capture"] || cfg.Capture == "" {
		cfg.Capture = capture
	}
}

// windowEvents surfaces build outcomes in the window title and on stderr.
type windowEvents struct {
	window *glfw.Window
	title  string
}

func (e *windowEvents) BuildSucceeded(meta preview.Meta, elapsed time.Duration) {
	e.window.SetTitle(fmt.Sprintf("%s - %s (%.1fms)", e.title, filepath.Base(meta.Name),
		float64(elapsed)/float64(time.Millisecond)))
}

func (e *windowEvents) BuildFailed(meta preview.Meta, err error) {
	e.window.SetTitle(fmt.Sprintf("%s - %s [build failed]", e.title, filepath.Base(meta.Name)))
	fmt.Fprintf(os.Stderr, "build failed: %s\n%s\n", meta.Name, err)
}

func run(path string, cfg config) error {
	isWGSL := strings.EqualFold(filepath.Ext(path), ".wgsl")

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("init glfw: %w", err)
	}
	defer glfw.Terminate()

	if isWGSL {
		// WebGPU owns the surface; no GL context on the window.
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	} else {
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 1)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	}

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, "shaderview", nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()

	if !isWGSL {
		window.MakeContextCurrent()
		glfw.SwapInterval(1)
	}

	src, err := preview.NewFileSource(path)
	if err != nil {
		return err
	}
	if err := src.Watch(); err != nil {
		shaderview.Logger().Warn("file watcher unavailable, relying on polling", "err", err)
	}

	opts := []shaderview.SessionOption{
		shaderview.WithPollInterval(mustInterval(cfg)),
		shaderview.WithEvents(&windowEvents{window: window, title: "shaderview"}),
		shaderview.WithFrameTiming(0),
	}
	if cfg.Smoothing > 0 {
		opts = append(opts, shaderview.WithSmoothingWindow(cfg.Smoothing))
	}
	if isWGSL {
		// Attach the window surface before the first build so the
		// pipeline is created against the surface's preferred format.
		opts = append(opts, shaderview.WithRendererFactory(func(string) (renderer.Renderer, error) {
			r, err := wgsl.New()
			if err != nil {
				return nil, err
			}
			w, h := window.GetFramebufferSize()
			surf := r.Instance().CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))
			r.SetSurface(surf, w, h)
			return r, nil
		}))
	}
	if len(cfg.Uniforms) > 0 {
		names, err := renderer.NamesFromMap(cfg.Uniforms)
		if err != nil {
			return err
		}
		opts = append(opts, shaderview.WithUniformNames(names))
	}

	session, err := shaderview.NewSession(src, opts...)
	if err != nil {
		return err
	}
	defer session.Close()

	fbW, fbH := window.GetFramebufferSize()
	session.Resize(fbW, fbH)
	session.SetPaused(cfg.Paused)

	window.SetFramebufferSizeCallback(func(_ *glfw.Window, w, h int) {
		session.Resize(w, h)
		if r, ok := session.Renderer().(*wgsl.Renderer); ok {
			r.Resize(w, h)
		}
	})
	window.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		w, h := window.GetSize()
		if w > 0 && h > 0 {
			session.SetMouse(x/float64(w), y/float64(h))
		}
	})
	capturePending := false
	window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			window.SetShouldClose(true)
		case glfw.KeySpace:
			session.TogglePause()
		case glfw.KeyP:
			capturePending = true
		}
	})

	ctx := context.Background()
	for !window.ShouldClose() {
		glfw.PollEvents()
		if err := session.Poll(ctx); err != nil {
			return err
		}
		session.Frame(time.Now())
		if capturePending {
			// Read back between draw and swap; the back buffer is
			// undefined after SwapBuffers.
			capturePending = false
			session.RenderFrame()
			if err := captureFrame(session, window, cfg.Capture); err != nil {
				fmt.Fprintf(os.Stderr, "capture: %v\n", err)
			} else {
				fmt.Fprintf(os.Stderr, "captured %s\n", cfg.Capture)
			}
		}
		if !isWGSL {
			window.SwapBuffers()
		}
	}
	return nil
}

func captureFrame(session *shaderview.Session, window *glfw.Window, path string) error {
	w, h := window.GetFramebufferSize()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := session.CapturePNG(f, w, h); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func mustInterval(cfg config) time.Duration {
	if d := cfg.interval(); d > 0 {
		return d
	}
	return preview.DefaultPollInterval
}
