package glsl

import (
	"regexp"
	"strings"
)

// Built-in vertex shaders for the fixed full-screen quad. Which one applies
// depends on the fragment source: GLSL ES 3.00 fragments need an ES 3.00
// vertex stage with in/out qualifiers, everything else gets the legacy
// attribute form.
const (
	vertexSourceES3 = `#version 300 es
in vec4 a_position;
void main() {
	gl_Position = a_position;
}
`
	vertexSourceLegacy = `attribute vec4 a_position;
void main() {
	gl_Position = a_position;
}
`
)

var esVersionPattern = regexp.MustCompile(`^#version[ \t]+(3\d\d)[ \t]+es\b`)

// isES3 reports whether the first meaningful line of the fragment source is
// a `#version 3xx es` pragma. Blank lines and comments before the pragma
// are skipped, matching what GLSL compilers accept.
func isES3(fragmentSrc string) bool {
	inBlockComment := false
	for _, line := range strings.Split(fragmentSrc, "\n") {
		line = strings.TrimSpace(line)
		if inBlockComment {
			end := strings.Index(line, "*/")
			if end < 0 {
				continue
			}
			line = strings.TrimSpace(line[end+2:])
		}
		for strings.HasPrefix(line, "/*") {
			end := strings.Index(line, "*/")
			if end < 0 {
				inBlockComment = true
				line = ""
				break
			}
			line = strings.TrimSpace(line[end+2:])
		}
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		return esVersionPattern.MatchString(line)
	}
	return false
}

// defaultVertexSource picks the built-in quad vertex shader matching the
// fragment source's language version.
func defaultVertexSource(fragmentSrc string) string {
	if isES3(fragmentSrc) {
		return vertexSourceES3
	}
	return vertexSourceLegacy
}
