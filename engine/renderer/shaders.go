package renderer

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/spaghettifunk/lumen/engine/assets/loaders"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

//go:embed shaders/*.vert shaders/*.frag
var builtinShaders embed.FS

const (
	ShaderShadow      = "shadow"
	ShaderGBuffer     = "gbuffer"
	ShaderLighting    = "lighting"
	ShaderEnvironment = "environment"
)

/** @brief The programs of every pass. */
type Shaders struct {
	Shadow      metadata.ShaderHandle
	GBuffer     metadata.ShaderHandle
	Lighting    metadata.ShaderHandle
	Environment metadata.ShaderHandle
}

// BuiltinShaders exposes the embedded GLSL sources.
func BuiltinShaders() fs.FS {
	sub, err := fs.Sub(builtinShaders, "shaders")
	if err != nil {
		panic(err)
	}
	return sub
}

// CompileShader reads a program from fsys and builds it. Compile and link
// failures are logged by the backend and give an invalid handle.
func CompileShader(backend Backend, fsys fs.FS, name string) (metadata.ShaderHandle, error) {
	src, err := loaders.ReadShaderSourcesFS(fsys, ".", name)
	if err != nil {
		err = fmt.Errorf("failed to read shader '%s': %w", name, err)
		core.LogError(err.Error())
		return metadata.ShaderHandle{}, err
	}
	h := backend.CreateShader(metadata.ShaderDesc{
		Name:           src.Name,
		VertexSource:   src.Vertex,
		FragmentSource: src.Fragment,
		GeometrySource: src.Geometry,
	})
	if !h.Valid {
		core.LogWarn("shader '%s' is not usable, its pass will draw nothing", name)
	}
	return h, nil
}

func compileShaders(backend Backend, fsys fs.FS) (Shaders, error) {
	var s Shaders
	targets := []struct {
		name   string
		handle *metadata.ShaderHandle
	}{
		{ShaderShadow, &s.Shadow},
		{ShaderGBuffer, &s.GBuffer},
		{ShaderLighting, &s.Lighting},
		{ShaderEnvironment, &s.Environment},
	}
	for _, t := range targets {
		h, err := CompileShader(backend, fsys, t.name)
		if err != nil {
			s.destroy(backend)
			return Shaders{}, err
		}
		*t.handle = h
	}
	return s, nil
}

func (s *Shaders) destroy(backend Backend) {
	for _, h := range []*metadata.ShaderHandle{&s.Shadow, &s.GBuffer, &s.Lighting, &s.Environment} {
		if h.ID != 0 {
			backend.DestroyShader(h)
		}
	}
}

// uploadUniforms sends uniforms to h and warns when some were not found.
func uploadUniforms(backend Backend, h metadata.ShaderHandle, uniforms ...metadata.UniformDesc) {
	if !h.Valid {
		return
	}
	if !backend.UploadUniform(h, uniforms) {
		core.LogWarn("shader '%s' is missing some of its uniforms", h.Name)
	}
}

func (s *Shaders) slot(name string) *metadata.ShaderHandle {
	switch name {
	case ShaderShadow:
		return &s.Shadow
	case ShaderGBuffer:
		return &s.GBuffer
	case ShaderLighting:
		return &s.Lighting
	case ShaderEnvironment:
		return &s.Environment
	}
	return nil
}

// ReloadShader rebuilds the pass program named src.Name. A program that fails
// to build leaves the previous one in place.
func (r *Renderer) ReloadShader(src *loaders.ShaderSources) bool {
	slot := r.ctx.Shaders.slot(src.Name)
	if slot == nil {
		core.LogDebug("'%s' is not a pass program, ignoring", src.Name)
		return false
	}
	h := r.ctx.Backend.CreateShader(metadata.ShaderDesc{
		Name:           src.Name,
		VertexSource:   src.Vertex,
		FragmentSource: src.Fragment,
		GeometrySource: src.Geometry,
	})
	if !h.Valid {
		if h.ID != 0 {
			r.ctx.Backend.DestroyShader(&h)
		}
		core.LogWarn("keeping the previous '%s' program", src.Name)
		return false
	}
	if slot.ID != 0 {
		r.ctx.Backend.DestroyShader(slot)
	}
	*slot = h
	core.LogInfo("reloaded shader '%s'", src.Name)
	return true
}
