package wgsl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/koturn/shaderview/renderer"
)

// Bind group 0 slots reserved for the harness uniforms. Shader sources must
// not declare their own bindings in these slots.
const (
	bindingTime = iota
	bindingMouse
	bindingResolution
	bindingFrameCount
	uniformBindingCount
)

// builtinVertexEntry is the full-screen quad vertex stage prepended when
// neither the fragment source nor a custom vertex source declares one.
// It consumes the shared quad vertex buffer (vec2 clip-space corners).
const builtinVertexEntry = `@vertex
fn sv_vertex(@location(0) position: vec2<f32>) -> @builtin(position) vec4<f32> {
	return vec4<f32>(position, 0.0, 1.0);
}
`

var (
	fragmentEntryPattern = regexp.MustCompile(`@fragment\s+fn\s+([A-Za-z_][A-Za-z0-9_]*)`)
	vertexEntryPattern   = regexp.MustCompile(`@vertex\s+fn\s+([A-Za-z_][A-Za-z0-9_]*)`)
)

// uniformHeader generates the var<uniform> declarations injected ahead of
// the shader source, using the remapped identifier names. Shaders reference
// the uniforms by name without declaring them.
func uniformHeader(names renderer.UniformNames) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "@group(0) @binding(%d) var<uniform> %s: f32;\n", bindingTime, names.Time)
	fmt.Fprintf(&sb, "@group(0) @binding(%d) var<uniform> %s: vec2<f32>;\n", bindingMouse, names.Mouse)
	fmt.Fprintf(&sb, "@group(0) @binding(%d) var<uniform> %s: vec2<f32>;\n", bindingResolution, names.Resolution)
	fmt.Fprintf(&sb, "@group(0) @binding(%d) var<uniform> %s: u32;\n", bindingFrameCount, names.FrameCount)
	return sb.String()
}

// composeSource assembles the complete shader module text: uniform header,
// vertex stage, and the user's fragment source. Returns the composed text
// and the two entry point names.
func composeSource(fragmentSrc, vertexSrc string, names renderer.UniformNames) (src, vsEntry, fsEntry string, err error) {
	fs := fragmentEntryPattern.FindStringSubmatch(fragmentSrc)
	if fs == nil {
		return "", "", "", &renderer.BuildError{
			Stage: "validate",
			Log:   "no @fragment entry point found in shader source",
		}
	}
	fsEntry = fs[1]

	var sb strings.Builder
	sb.WriteString(uniformHeader(names))

	switch {
	case vertexSrc != "":
		vs := vertexEntryPattern.FindStringSubmatch(vertexSrc)
		if vs == nil {
			return "", "", "", &renderer.BuildError{
				Stage: "validate",
				Log:   "no @vertex entry point found in custom vertex source",
			}
		}
		vsEntry = vs[1]
		sb.WriteString(vertexSrc)
		if !strings.HasSuffix(vertexSrc, "\n") {
			sb.WriteString("\n")
		}
	case vertexEntryPattern.MatchString(fragmentSrc):
		// The fragment source carries its own vertex stage.
		vsEntry = vertexEntryPattern.FindStringSubmatch(fragmentSrc)[1]
	default:
		vsEntry = "sv_vertex"
		sb.WriteString(builtinVertexEntry)
	}

	sb.WriteString(fragmentSrc)
	return sb.String(), vsEntry, fsEntry, nil
}
