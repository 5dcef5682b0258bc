package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/**
 * @brief Represents a single shader stage.
 */
type shaderStage struct {
	kind   uint32
	name   string
	source string
}

// CreateShader compiles and links the stages of desc. On failure the program
// object is kept and the handle is returned invalid.
func (r *OpenGLRenderer) CreateShader(desc metadata.ShaderDesc) metadata.ShaderHandle {
	stages := []shaderStage{
		{gl.VERTEX_SHADER, "vertex", desc.VertexSource},
		{gl.FRAGMENT_SHADER, "fragment", desc.FragmentSource},
	}
	if desc.GeometrySource != "" {
		stages = append(stages, shaderStage{gl.GEOMETRY_SHADER, "geometry", desc.GeometrySource})
	}

	h := metadata.ShaderHandle{ID: gl.CreateProgram(), Name: desc.Name, Valid: true}
	modules := make([]uint32, 0, len(stages))
	for _, stage := range stages {
		module, err := compileStage(stage)
		if err != nil {
			core.LogError("shader '%s': %s", desc.Name, err)
			h.Valid = false
			continue
		}
		gl.AttachShader(h.ID, module)
		modules = append(modules, module)
	}

	if h.Valid {
		gl.LinkProgram(h.ID)
		var status int32
		gl.GetProgramiv(h.ID, gl.LINK_STATUS, &status)
		if status == gl.FALSE {
			core.LogError("failed to link shader '%s': %s", desc.Name, programLog(h.ID))
			h.Valid = false
		}
	}

	for _, module := range modules {
		gl.DetachShader(h.ID, module)
		gl.DeleteShader(module)
	}
	return h
}

func compileStage(stage shaderStage) (uint32, error) {
	if strings.TrimSpace(stage.source) == "" {
		return 0, fmt.Errorf("empty %s stage", stage.name)
	}
	module := gl.CreateShader(stage.kind)
	csources, free := gl.Strs(stage.source + "\x00")
	gl.ShaderSource(module, 1, csources, nil)
	free()
	gl.CompileShader(module)

	var status int32
	gl.GetShaderiv(module, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(module, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(module, logLength, nil, gl.Str(log))
		gl.DeleteShader(module)
		return 0, fmt.Errorf("failed to compile %s stage: %s", stage.name, strings.TrimRight(log, "\x00"))
	}
	return module, nil
}

func programLog(program uint32) string {
	var logLength int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
	log := strings.Repeat("\x00", int(logLength+1))
	gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (r *OpenGLRenderer) DestroyShader(h *metadata.ShaderHandle) {
	if h.ID != 0 {
		gl.DeleteProgram(h.ID)
	}
	*h = metadata.ShaderHandle{}
}

func (r *OpenGLRenderer) UseShader(h metadata.ShaderHandle) {
	gl.UseProgram(h.ID)
}

// UploadUniform writes every uniform it can find and reports whether all of
// them were found. Unknown names are skipped.
func (r *OpenGLRenderer) UploadUniform(h metadata.ShaderHandle, uniforms []metadata.UniformDesc) bool {
	if !h.Valid {
		return false
	}
	found := true
	for _, u := range uniforms {
		if u.Type == metadata.UniformBlock {
			index := gl.GetUniformBlockIndex(h.ID, gl.Str(u.Name+"\x00"))
			if index == gl.INVALID_INDEX {
				found = false
				continue
			}
			binding, ok := u.Value.(uint32)
			if !ok {
				core.LogError("uniform block '%s' of shader '%s' holds %T", u.Name, h.Name, u.Value)
				found = false
				continue
			}
			gl.UniformBlockBinding(h.ID, index, binding)
			continue
		}

		loc := gl.GetUniformLocation(h.ID, gl.Str(u.Name+"\x00"))
		if loc < 0 {
			found = false
			continue
		}
		if !setUniform(h.ID, loc, u) {
			core.LogError("uniform '%s' of shader '%s' holds %T", u.Name, h.Name, u.Value)
			found = false
		}
	}
	return found
}

func setUniform(program uint32, loc int32, u metadata.UniformDesc) bool {
	switch u.Type {
	case metadata.UniformFloat:
		v, ok := u.Value.(float32)
		if ok {
			gl.ProgramUniform1f(program, loc, v)
		}
		return ok
	case metadata.UniformInt, metadata.UniformSampler2D:
		v, ok := u.Value.(int32)
		if ok {
			gl.ProgramUniform1i(program, loc, v)
		}
		return ok
	case metadata.UniformBool:
		v, ok := u.Value.(bool)
		if ok {
			var i int32
			if v {
				i = 1
			}
			gl.ProgramUniform1i(program, loc, i)
		}
		return ok
	case metadata.UniformVec2:
		v, ok := u.Value.(mgl32.Vec2)
		if ok {
			gl.ProgramUniform2fv(program, loc, 1, &v[0])
		}
		return ok
	case metadata.UniformVec3:
		v, ok := u.Value.(mgl32.Vec3)
		if ok {
			gl.ProgramUniform3fv(program, loc, 1, &v[0])
		}
		return ok
	case metadata.UniformVec4:
		v, ok := u.Value.(mgl32.Vec4)
		if ok {
			gl.ProgramUniform4fv(program, loc, 1, &v[0])
		}
		return ok
	case metadata.UniformMat3:
		v, ok := u.Value.(mgl32.Mat3)
		if ok {
			gl.ProgramUniformMatrix3fv(program, loc, 1, false, &v[0])
		}
		return ok
	case metadata.UniformMat4:
		v, ok := u.Value.(mgl32.Mat4)
		if ok {
			gl.ProgramUniformMatrix4fv(program, loc, 1, false, &v[0])
		}
		return ok
	}
	return false
}
