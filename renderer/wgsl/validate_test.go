package wgsl

import (
	"errors"
	"testing"

	"github.com/koturn/shaderview/renderer"
)

func TestValidateMinimalShader(t *testing.T) {
	src, _, _, err := composeSource(minimalFragment, "", renderer.DefaultUniformNames())
	if err != nil {
		t.Fatal(err)
	}
	if err := validate(src); err != nil {
		t.Fatalf("validate(minimal shader) = %v, want nil", err)
	}
}

func TestValidateBrokenShader(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax error", "@fragment fn fs_main( -> { this is not wgsl"},
		{"unbalanced braces", "@fragment\nfn fs_main() -> @location(0) vec4<f32> {\n\treturn vec4<f32>(1.0);\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(tt.src)
			var be *renderer.BuildError
			if !errors.As(err, &be) {
				t.Fatalf("validate error = %v, want *BuildError", err)
			}
			if be.Stage != "validate" {
				t.Errorf("Stage = %q, want validate", be.Stage)
			}
			if be.Error() == "" {
				t.Error("diagnostic message is empty")
			}
		})
	}
}
