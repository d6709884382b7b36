package renderer

import "fmt"

// UniformNames maps the logical uniforms to shader-side identifiers.
// BackBuffer names the previous-frame texture sampler and applies to the
// GLSL variant only. Shorthand shader dialects remap these, for example
// {Time: "t", Resolution: "r"}.
type UniformNames struct {
	Time       string
	Mouse      string
	Resolution string
	FrameCount string
	BackBuffer string
}

// DefaultUniformNames returns the built-in uniform identifier table.
func DefaultUniformNames() UniformNames {
	return UniformNames{
		Time:       "u_time",
		Mouse:      "u_mouse",
		Resolution: "u_resolution",
		FrameCount: "u_framecount",
		BackBuffer: "u_backbuffer",
	}
}

// withDefaults fills empty fields from the default table.
func (n UniformNames) withDefaults() UniformNames {
	d := DefaultUniformNames()
	if n.Time == "" {
		n.Time = d.Time
	}
	if n.Mouse == "" {
		n.Mouse = d.Mouse
	}
	if n.Resolution == "" {
		n.Resolution = d.Resolution
	}
	if n.FrameCount == "" {
		n.FrameCount = d.FrameCount
	}
	if n.BackBuffer == "" {
		n.BackBuffer = d.BackBuffer
	}
	return n
}

// NamesFromMap builds a UniformNames table from string keys, as read from a
// config file. Recognized keys are "time", "mouse", "resolution",
// "frameCount" and "backBuffer"; any other key is an error. Missing keys
// keep their defaults.
func NamesFromMap(m map[string]string) (UniformNames, error) {
	n := DefaultUniformNames()
	for k, v := range m {
		switch k {
		case "time":
			n.Time = v
		case "mouse":
			n.Mouse = v
		case "resolution":
			n.Resolution = v
		case "frameCount":
			n.FrameCount = v
		case "backBuffer":
			n.BackBuffer = v
		default:
			return UniformNames{}, fmt.Errorf("%w: %q", ErrUnknownUniform, k)
		}
	}
	return n, nil
}
