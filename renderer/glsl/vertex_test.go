package glsl

import (
	"strings"
	"testing"
)

func TestIsES3(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"es 300", "#version 300 es\nvoid main() {}", true},
		{"es 310", "#version 310 es\nvoid main() {}", true},
		{"no pragma", "void main() {}", false},
		{"desktop 330", "#version 330 core\nvoid main() {}", false},
		{"es without suffix", "#version 300\nvoid main() {}", false},
		{"leading blank lines", "\n\n#version 300 es\nvoid main() {}", true},
		{"leading line comment", "// feedback shader\n#version 300 es\n", true},
		{"leading block comment", "/* multi\n   line */\n#version 300 es\n", true},
		{"block comment same line", "/* x */ #version 300 es\n", true},
		{"pragma after code", "precision mediump float;\n#version 300 es\n", false},
		{"tab separated", "#version\t300\tes\n", true},
		{"empty source", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isES3(tt.src); got != tt.want {
				t.Errorf("isES3(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestDefaultVertexSource(t *testing.T) {
	if src := defaultVertexSource("#version 300 es\nvoid main() {}"); !strings.HasPrefix(src, "#version 300 es") {
		t.Errorf("ES 3.00 fragment got vertex source %q", src)
	}
	if src := defaultVertexSource("void main() {}"); !strings.Contains(src, "attribute vec4 a_position") {
		t.Errorf("legacy fragment got vertex source %q", src)
	}
}
