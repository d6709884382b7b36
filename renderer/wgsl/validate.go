package wgsl

import (
	"github.com/gogpu/naga"

	"github.com/koturn/shaderview/renderer"
)

// validate parses and lowers the composed WGSL source before it is handed
// to the device. The device compiler reports errors too, but naga runs in
// process and yields diagnostics without a GPU round trip, so broken
// shaders fail fast with a readable message.
func validate(src string) error {
	ast, err := naga.Parse(src)
	if err != nil {
		return &renderer.BuildError{Stage: "validate", Log: err.Error()}
	}
	if _, err := naga.Lower(ast); err != nil {
		return &renderer.BuildError{Stage: "validate", Log: err.Error()}
	}
	return nil
}
