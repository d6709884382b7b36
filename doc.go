// Package shaderview renders a live preview of fragment-shader source
// files while they are being edited.
//
// A preview session polls a content source (normally a shader file on
// disk) at a fixed interval. When the source changes, the active renderer
// rebuilds its program from the new text and the preview updates without
// restarting. Two renderer variants sit behind one contract:
//
//   - renderer/glsl: OpenGL rasterization renderer for GLSL sources
//   - renderer/wgsl: WebGPU renderer for WGSL sources
//
// The variant is chosen once, from the file type of the first successful
// probe, and is never revisited for the lifetime of the session.
//
// Basic usage:
//
//	src, err := preview.NewFileSource("plasma.frag")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	session, err := shaderview.NewSession(src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	// Host loop: pump events, then
//	session.Poll(ctx)          // once per poll interval
//	session.Frame(time.Now())  // once per display frame
//
// By default shaderview produces no log output; call [SetLogger] to
// enable it.
package shaderview
