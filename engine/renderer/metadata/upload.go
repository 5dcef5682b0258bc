package metadata

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Shader storage binding points.
const (
	SSBOMaterials         uint32 = 1
	SSBOTransforms        uint32 = 2
	SSBOCommandData       uint32 = 3
	SSBODirectionalLights uint32 = 4
	SSBOSpotLights        uint32 = 5
	SSBOPointLights       uint32 = 6
	SSBOSubMeshDraws      uint32 = 10
)

// Uniform block binding points.
const (
	UBOCamera    uint32 = 0
	UBOLightMeta uint32 = 2
)

/**
 * @brief Layout of one indirect indexed draw, as consumed by MultiDrawElementsIndirect.
 */
type DrawElementsIndirectCommand struct {
	Count         uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
	BaseInstance  uint32
}

/**
 * @brief Maps a draw command to its run of SubMeshDraw records.
 */
type CommandData struct {
	Offset       uint32
	SubMeshCount uint32
}

/**
 * @brief Per-submesh record. FirstVertex is relative to the command's base vertex.
 */
type SubMeshDraw struct {
	MaterialSlot uint32
	FirstVertex  uint32
	VertexCount  uint32
	_            uint32
}

/**
 * @brief Material record as laid out in the materials storage buffer (std430).
 * Maps holds the bindless handles in TextureMapType order. UVScale is
 * (u scale, v scale, normal strength, normal y flip).
 */
type MaterialUpload struct {
	Maps    [5]uint64
	_       uint64
	Color   mgl32.Vec4
	UVScale mgl32.Vec4
}

type DirectionalLightUpload struct {
	Direction mgl32.Vec4
	Color     mgl32.Vec4
}

/**
 * @brief Position.W holds cos(inner angle), Color.W holds cos(outer angle).
 */
type SpotLightUpload struct {
	Position  mgl32.Vec4
	Color     mgl32.Vec4
	Direction mgl32.Vec4
}

type PointLightUpload struct {
	Position mgl32.Vec4
	Color    mgl32.Vec4
}

type LightMeta struct {
	ViewPos         mgl32.Vec4
	NDirectionLight int32
	NSpotLight      int32
	NPointLight     int32
	_               int32
}

type CameraUpload struct {
	View           mgl32.Mat4
	Projection     mgl32.Mat4
	ViewProjection mgl32.Mat4
	LightSpace     mgl32.Mat4
}

// AsBytes reinterprets a slice of plain data as its raw bytes without copying.
func AsBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}

// SizeOf returns the byte size of one T.
func SizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}
