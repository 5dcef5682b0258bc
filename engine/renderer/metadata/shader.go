package metadata

import "github.com/go-gl/mathgl/mgl32"

/**
 * @brief Sources of a shader program. The geometry stage is optional.
 */
type ShaderDesc struct {
	Name           string
	VertexSource   string
	FragmentSource string
	GeometrySource string
}

/**
 * @brief A linked shader program. Programs that failed to compile or link are
 * returned with Valid set to false and are not deleted until DestroyShader.
 */
type ShaderHandle struct {
	ID    uint32
	Name  string
	Valid bool
}

type UniformType int

const (
	UniformFloat UniformType = iota
	UniformInt
	UniformVec2
	UniformVec3
	UniformVec4
	UniformMat3
	UniformMat4
	UniformBool
	/** @brief Binds a named uniform block to a buffer binding point. */
	UniformBlock
	/** @brief Points a sampler at a texture unit. */
	UniformSampler2D
)

/**
 * @brief One uniform upload. Value holds the Go type matching Type:
 * float32, int32, mgl32.Vec2/Vec3/Vec4/Mat3/Mat4, bool, uint32 (block binding)
 * or int32 (texture unit).
 */
type UniformDesc struct {
	Name  string
	Type  UniformType
	Value interface{}
}

func Float(name string, v float32) UniformDesc {
	return UniformDesc{Name: name, Type: UniformFloat, Value: v}
}

func Int(name string, v int32) UniformDesc {
	return UniformDesc{Name: name, Type: UniformInt, Value: v}
}

func Vec2(name string, v mgl32.Vec2) UniformDesc {
	return UniformDesc{Name: name, Type: UniformVec2, Value: v}
}

func Vec3(name string, v mgl32.Vec3) UniformDesc {
	return UniformDesc{Name: name, Type: UniformVec3, Value: v}
}

func Vec4(name string, v mgl32.Vec4) UniformDesc {
	return UniformDesc{Name: name, Type: UniformVec4, Value: v}
}

func Mat3(name string, v mgl32.Mat3) UniformDesc {
	return UniformDesc{Name: name, Type: UniformMat3, Value: v}
}

func Mat4(name string, v mgl32.Mat4) UniformDesc {
	return UniformDesc{Name: name, Type: UniformMat4, Value: v}
}

func Bool(name string, v bool) UniformDesc {
	return UniformDesc{Name: name, Type: UniformBool, Value: v}
}

func Block(name string, binding uint32) UniformDesc {
	return UniformDesc{Name: name, Type: UniformBlock, Value: binding}
}

func Sampler2D(name string, unit int32) UniformDesc {
	return UniformDesc{Name: name, Type: UniformSampler2D, Value: unit}
}
