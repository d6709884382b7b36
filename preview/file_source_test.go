package preview

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeShader(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileTypeOf(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"shader.frag", "glsl"},
		{"shader.glsl", "glsl"},
		{"shader.wgsl", "wgsl"},
		{"SHADER.WGSL", "wgsl"},
		{"shader.Wgsl", "wgsl"},
		{"noext", "glsl"},
		{"dir.wgsl/shader.frag", "glsl"},
	}

	for _, tt := range tests {
		if got := fileTypeOf(tt.path); got != tt.want {
			t.Errorf("fileTypeOf(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestNormalizeNewlines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"unix", "a\nb\n", "a\nb\n"},
		{"windows", "a\r\nb\r\n", "a\nb\n"},
		{"classic mac", "a\rb\r", "a\nb\n"},
		{"mixed", "a\r\nb\rc\n", "a\nb\nc\n"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeNewlines(tt.in); got != tt.want {
				t.Errorf("normalizeNewlines(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFileSourceProbe(t *testing.T) {
	dir := t.TempDir()
	path := writeShader(t, dir, "wave.wgsl", "@fragment fn fs_main() {}")

	src, err := NewFileSource(path)
	if err != nil {
		t.Fatal(err)
	}
	meta, err := src.Probe(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if meta.Name != src.Path() {
		t.Errorf("Name = %q, want %q", meta.Name, src.Path())
	}
	if meta.FileType != "wgsl" {
		t.Errorf("FileType = %q, want wgsl", meta.FileType)
	}
	if meta.ModStamp == "" {
		t.Error("ModStamp is empty")
	}
}

func TestFileSourceProbeDetectsChange(t *testing.T) {
	dir := t.TempDir()
	path := writeShader(t, dir, "wave.frag", "void main() {}")

	src, err := NewFileSource(path)
	if err != nil {
		t.Fatal(err)
	}
	before, err := src.Probe(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// Force a distinct mtime rather than relying on filesystem resolution.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	after, err := src.Probe(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if after.ModStamp == before.ModStamp {
		t.Errorf("ModStamp unchanged after rewrite: %q", after.ModStamp)
	}
	if after.Name != before.Name {
		t.Errorf("Name changed: %q -> %q", before.Name, after.Name)
	}
}

func TestFileSourceText(t *testing.T) {
	dir := t.TempDir()
	path := writeShader(t, dir, "wave.frag", "void main() {\r\n}\r\n")

	src, err := NewFileSource(path)
	if err != nil {
		t.Fatal(err)
	}
	text, err := src.Text(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if want := "void main() {\n}\n"; text != want {
		t.Errorf("Text = %q, want %q", text, want)
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	src, err := NewFileSource(filepath.Join(t.TempDir(), "gone.frag"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.Probe(context.Background()); err == nil {
		t.Error("Probe on missing file: error = nil, want error")
	}
	if _, err := src.Text(context.Background()); err == nil {
		t.Error("Text on missing file: error = nil, want error")
	}
}

func TestFileSourceCanceledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeShader(t, dir, "wave.frag", "void main() {}")

	src, err := NewFileSource(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Probe(ctx); err == nil {
		t.Error("Probe with canceled context: error = nil, want error")
	}
	if _, err := src.Text(ctx); err == nil {
		t.Error("Text with canceled context: error = nil, want error")
	}
}

func TestFileSourceWatchCachesProbe(t *testing.T) {
	dir := t.TempDir()
	path := writeShader(t, dir, "wave.frag", "void main() {}")

	src, err := NewFileSource(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := src.Watch(); err != nil {
		t.Skipf("watcher unavailable: %v", err)
	}
	defer src.Close()

	first, err := src.Probe(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// No writes happened, so the second probe serves the cached meta.
	second, err := src.Probe(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Errorf("cached probe = %+v, want %+v", second, first)
	}
	if err := src.Close(); err != nil {
		t.Fatal(err)
	}
	// Close is idempotent.
	if err := src.Close(); err != nil {
		t.Fatal(err)
	}
}
