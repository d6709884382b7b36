package wgsl

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestNeedsPipelineRebuild(t *testing.T) {
	tests := []struct {
		name      string
		built     bool
		old, next wgpu.TextureFormat
		want      bool
	}{
		{
			"format change with built pipeline",
			true, wgpu.TextureFormatRGBA8UnormSrgb, wgpu.TextureFormatBGRA8UnormSrgb,
			true,
		},
		{
			"same format",
			true, wgpu.TextureFormatBGRA8UnormSrgb, wgpu.TextureFormatBGRA8UnormSrgb,
			false,
		},
		{
			"no pipeline yet",
			false, wgpu.TextureFormatRGBA8UnormSrgb, wgpu.TextureFormatBGRA8UnormSrgb,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsPipelineRebuild(tt.built, tt.old, tt.next); got != tt.want {
				t.Errorf("needsPipelineRebuild(%v, %v, %v) = %v, want %v",
					tt.built, tt.old, tt.next, got, tt.want)
			}
		})
	}
}
