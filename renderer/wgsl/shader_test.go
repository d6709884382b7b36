package wgsl

import (
	"errors"
	"strings"
	"testing"

	"github.com/koturn/shaderview/renderer"
)

const minimalFragment = `@fragment
fn fs_main() -> @location(0) vec4<f32> {
	return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`

func TestUniformHeader(t *testing.T) {
	h := uniformHeader(renderer.DefaultUniformNames())
	for _, decl := range []string{
		"@group(0) @binding(0) var<uniform> u_time: f32;",
		"@group(0) @binding(1) var<uniform> u_mouse: vec2<f32>;",
		"@group(0) @binding(2) var<uniform> u_resolution: vec2<f32>;",
		"@group(0) @binding(3) var<uniform> u_framecount: u32;",
	} {
		if !strings.Contains(h, decl) {
			t.Errorf("header missing %q:\n%s", decl, h)
		}
	}
}

func TestUniformHeaderRemapped(t *testing.T) {
	names := renderer.UniformNames{Time: "t", Resolution: "r"}
	cfg := renderer.ApplyBuildOptions(renderer.WithUniformNames(names))
	h := uniformHeader(cfg.Names)
	if !strings.Contains(h, "var<uniform> t: f32") {
		t.Errorf("remapped time missing:\n%s", h)
	}
	if !strings.Contains(h, "var<uniform> r: vec2<f32>") {
		t.Errorf("remapped resolution missing:\n%s", h)
	}
	if !strings.Contains(h, "var<uniform> u_mouse: vec2<f32>") {
		t.Errorf("default mouse name missing:\n%s", h)
	}
}

func TestComposeSource(t *testing.T) {
	t.Run("builtin vertex", func(t *testing.T) {
		src, vs, fs, err := composeSource(minimalFragment, "", renderer.DefaultUniformNames())
		if err != nil {
			t.Fatal(err)
		}
		if vs != "sv_vertex" {
			t.Errorf("vertex entry = %q, want sv_vertex", vs)
		}
		if fs != "fs_main" {
			t.Errorf("fragment entry = %q, want fs_main", fs)
		}
		if !strings.Contains(src, "@builtin(position)") {
			t.Error("composed source lacks the builtin vertex stage")
		}
		if !strings.Contains(src, "var<uniform> u_time") {
			t.Error("composed source lacks the uniform header")
		}
	})

	t.Run("fragment source with own vertex stage", func(t *testing.T) {
		combined := `@vertex
fn my_vs(@location(0) p: vec2<f32>) -> @builtin(position) vec4<f32> {
	return vec4<f32>(p, 0.0, 1.0);
}
` + minimalFragment
		src, vs, _, err := composeSource(combined, "", renderer.DefaultUniformNames())
		if err != nil {
			t.Fatal(err)
		}
		if vs != "my_vs" {
			t.Errorf("vertex entry = %q, want my_vs", vs)
		}
		if strings.Contains(src, "sv_vertex") {
			t.Error("builtin vertex stage injected despite user-provided one")
		}
	})

	t.Run("custom vertex source", func(t *testing.T) {
		custom := `@vertex
fn flip_vs(@location(0) p: vec2<f32>) -> @builtin(position) vec4<f32> {
	return vec4<f32>(p.x, -p.y, 0.0, 1.0);
}`
		src, vs, _, err := composeSource(minimalFragment, custom, renderer.DefaultUniformNames())
		if err != nil {
			t.Fatal(err)
		}
		if vs != "flip_vs" {
			t.Errorf("vertex entry = %q, want flip_vs", vs)
		}
		if !strings.Contains(src, "flip_vs") {
			t.Error("composed source lacks the custom vertex stage")
		}
	})

	t.Run("no fragment entry", func(t *testing.T) {
		_, _, _, err := composeSource("fn helper() -> f32 { return 1.0; }", "", renderer.DefaultUniformNames())
		var be *renderer.BuildError
		if !errors.As(err, &be) {
			t.Fatalf("error = %v, want *BuildError", err)
		}
		if be.Error() == "" {
			t.Error("BuildError message is empty")
		}
	})

	t.Run("custom vertex source without entry", func(t *testing.T) {
		_, _, _, err := composeSource(minimalFragment, "fn nope() {}", renderer.DefaultUniformNames())
		var be *renderer.BuildError
		if !errors.As(err, &be) {
			t.Fatalf("error = %v, want *BuildError", err)
		}
	})
}
