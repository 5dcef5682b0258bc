package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/spaghettifunk/lumen/engine/math"
	"golang.org/x/exp/slices"
)

type IDComponent struct {
	ID uuid.UUID
}

type TagComponent struct {
	Tag string
}

/** @brief Position, euler rotation in degrees and scale of an entity. */
type TransformComponent struct {
	math.Transform
}

func NewTransformComponent() *TransformComponent {
	return &TransformComponent{Transform: *math.TransformCreate()}
}

/**
 * @brief Binds a mesh resource to an entity. MaterialIDMap maps a material to
 * the submesh indices it shades. A submesh index appears in at most one list.
 */
type MeshFilterComponent struct {
	MeshID        uuid.UUID
	MaterialIDMap map[uuid.UUID][]int
	Names         []string
}

func NewMeshFilterComponent(meshID uuid.UUID) *MeshFilterComponent {
	return &MeshFilterComponent{
		MeshID:        meshID,
		MaterialIDMap: make(map[uuid.UUID][]int),
	}
}

// MaterialFor returns the material shading the given submesh.
func (m *MeshFilterComponent) MaterialFor(subMesh int) (uuid.UUID, bool) {
	for id, indices := range m.MaterialIDMap {
		if slices.Contains(indices, subMesh) {
			return id, true
		}
	}
	return uuid.Nil, false
}

// SubMeshCount returns the number of submesh indices across every material list.
func (m *MeshFilterComponent) SubMeshCount() int {
	n := 0
	for _, indices := range m.MaterialIDMap {
		n += len(indices)
	}
	return n
}

func (m *MeshFilterComponent) assign(subMesh int, material uuid.UUID) {
	m.MaterialIDMap[material] = append(m.MaterialIDMap[material], subMesh)
}

func (m *MeshFilterComponent) unassign(subMesh int, material uuid.UUID) {
	indices := m.MaterialIDMap[material]
	if i := slices.Index(indices, subMesh); i >= 0 {
		indices = slices.Delete(indices, i, i+1)
	}
	if len(indices) == 0 {
		delete(m.MaterialIDMap, material)
		return
	}
	m.MaterialIDMap[material] = indices
}

type CameraComponent struct {
	Camera  *Camera
	Primary bool
}

type LightType int

const (
	LightTypeDirectional LightType = iota
	LightTypePoint
	LightTypeSpot
)

func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "Directional"
	case LightTypePoint:
		return "Point"
	case LightTypeSpot:
		return "Spot"
	}
	return "Unknown"
}

/**
 * @brief A light source. For directional lights Position holds the direction.
 * Inner and outer radius are spot cone angles in degrees.
 */
type LightComponent struct {
	Type          LightType
	Color         mgl32.Vec4
	Position      mgl32.Vec3
	InnerRadius   float32
	OuterRadius   float32
	SpotDirection mgl32.Vec3
}

func NewLightComponent() *LightComponent {
	return &LightComponent{
		Type:          LightTypePoint,
		Color:         mgl32.Vec4{1, 1, 1, 1},
		InnerRadius:   5,
		OuterRadius:   30,
		SpotDirection: mgl32.Vec3{0, -1, 0},
	}
}
