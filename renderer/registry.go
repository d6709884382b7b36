package renderer

import (
	"fmt"
	"sync"
)

// Variant names used as registry keys.
const (
	VariantGLSL = "glsl"
	VariantWGSL = "wgsl"
)

// Factory creates a renderer variant. WebGPU construction negotiates a
// device and may return ErrNoGPU.
type Factory func() (Renderer, error)

// registry holds registered variants.
var (
	registryMu sync.RWMutex
	variants   = make(map[string]Factory)
)

// Register registers a variant factory under the given name.
// This is typically called from init() functions in variant packages.
// Registering an existing name replaces the factory.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	variants[name] = factory
}

// Unregister removes a variant from the registry. Useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(variants, name)
}

// Available returns the registered variant names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	return names
}

// IsRegistered reports whether a variant with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := variants[name]
	return ok
}

// VariantFor maps a source file-type tag to a variant name. The "wgsl" tag
// selects the WGSL variant; every other tag, including the empty one, is
// rasterized as GLSL.
func VariantFor(fileType string) string {
	if fileType == VariantWGSL {
		return VariantWGSL
	}
	return VariantGLSL
}

// New constructs the variant claiming the given file-type tag.
// Returns ErrNoVariant when the variant package was not linked in, or the
// factory's own error (for example ErrNoGPU) when construction fails.
func New(fileType string) (Renderer, error) {
	name := VariantFor(fileType)

	registryMu.RLock()
	factory, ok := variants[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoVariant, name)
	}
	return factory()
}
