package resources

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/core"
)

/**
 * @brief Represents a single vertex in 3D space. Laid out as 14 tightly
 * packed float32 so a slice of them can be copied straight into a vertex buffer.
 */
type Vertice struct {
	/** @brief The position of the vertex */
	Position mgl32.Vec3
	/** @brief The normal of the vertex. */
	Normal mgl32.Vec3
	/** @brief The texture coordinate of the vertex. */
	UV mgl32.Vec2
	/** @brief The tangent of the vertex. */
	Tangent mgl32.Vec3
	/** @brief The bitangent of the vertex. */
	Bitangent mgl32.Vec3
}

/** @brief Size in bytes of a Vertice. */
const VerticeSize = 56

/**
 * @brief A contiguous range of a mesh's vertices and indices drawn with one material.
 */
type SubMesh struct {
	VertexOffset uint32
	VertexCount  uint32
	IndexOffset  uint32
	IndexCount   uint32
	/** @brief Position of the submesh inside its mesh. */
	Index int
	Name  string
}

type Mesh struct {
	Base

	Vertices  []Vertice
	Indices   []uint32
	SubMeshes []SubMesh
}

func (m *Mesh) Type() ResourceType { return ResourceTypeMesh }

// Load reads a binary .mesh file. Generated meshes are built with GenerateCube
// and GeneratePlane instead.
func (m *Mesh) Load(path string) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".mesh" {
		return fmt.Errorf("%w: mesh extension %q", core.ErrUnsupportedFormat, ext)
	}
	data, err := ReadMeshFile(path)
	if err != nil {
		return err
	}
	m.Vertices = data.Vertices
	m.Indices = data.Indices
	m.SubMeshes = data.SubMeshes
	if m.name == "" && data.Name != "" {
		m.name = data.Name
	}
	return nil
}

func (m *Mesh) Save(path string) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".mesh" {
		core.LogWarn("meshes can only be saved as .mesh files, got '%s'", path)
		return fmt.Errorf("%w: mesh extension %q", core.ErrUnsupportedFormat, ext)
	}
	return WriteMeshFile(path, m)
}

func (m *Mesh) duplicate() (Resource, error) {
	dup := &Mesh{
		Vertices:  append([]Vertice(nil), m.Vertices...),
		Indices:   append([]uint32(nil), m.Indices...),
		SubMeshes: append([]SubMesh(nil), m.SubMeshes...),
	}
	return dup, nil
}

func (m *Mesh) release() {}

// SubMesh returns the submesh at index i. An out of range index is a
// programming error and panics.
func (m *Mesh) SubMesh(i int) *SubMesh {
	if i < 0 || i >= len(m.SubMeshes) {
		panic(fmt.Errorf("%w: index %d, mesh '%s' has %d", core.ErrInvalidSubMesh, i, m.name, len(m.SubMeshes)))
	}
	return &m.SubMeshes[i]
}

// Validate checks every submesh range against the vertex and index arrays and
// every index against its submesh vertex range.
func (m *Mesh) Validate() error {
	for i, sm := range m.SubMeshes {
		if uint64(sm.VertexOffset)+uint64(sm.VertexCount) > uint64(len(m.Vertices)) {
			return fmt.Errorf("%w: submesh %d vertex range [%d,%d) exceeds %d vertices",
				core.ErrInvalidSubMesh, i, sm.VertexOffset, sm.VertexOffset+sm.VertexCount, len(m.Vertices))
		}
		if uint64(sm.IndexOffset)+uint64(sm.IndexCount) > uint64(len(m.Indices)) {
			return fmt.Errorf("%w: submesh %d index range [%d,%d) exceeds %d indices",
				core.ErrInvalidSubMesh, i, sm.IndexOffset, sm.IndexOffset+sm.IndexCount, len(m.Indices))
		}
		for _, idx := range m.Indices[sm.IndexOffset : sm.IndexOffset+sm.IndexCount] {
			if idx < sm.VertexOffset || idx >= sm.VertexOffset+sm.VertexCount {
				return fmt.Errorf("%w: submesh %d references vertex %d outside [%d,%d)",
					core.ErrInvalidSubMesh, i, idx, sm.VertexOffset, sm.VertexOffset+sm.VertexCount)
			}
		}
	}
	return nil
}

/**
 * @brief Calculates tangents and bitangents for every triangle from its UV
 * derivatives. Per-vertex values are accumulated then normalized.
 */
func (m *Mesh) GenerateTangents() {
	tangents := make([]mgl32.Vec3, len(m.Vertices))
	bitangents := make([]mgl32.Vec3, len(m.Vertices))

	for i := 0; i+2 < len(m.Indices); i += 3 {
		i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if int(i0) >= len(m.Vertices) || int(i1) >= len(m.Vertices) || int(i2) >= len(m.Vertices) {
			continue
		}
		v0, v1, v2 := m.Vertices[i0], m.Vertices[i1], m.Vertices[i2]

		edge1 := v1.Position.Sub(v0.Position)
		edge2 := v2.Position.Sub(v0.Position)
		deltaU1 := v1.UV.X() - v0.UV.X()
		deltaV1 := v1.UV.Y() - v0.UV.Y()
		deltaU2 := v2.UV.X() - v0.UV.X()
		deltaV2 := v2.UV.Y() - v0.UV.Y()

		dividend := deltaU1*deltaV2 - deltaU2*deltaV1
		if dividend == 0 {
			continue
		}
		fc := 1.0 / dividend

		tangent := edge1.Mul(deltaV2).Sub(edge2.Mul(deltaV1)).Mul(fc)
		bitangent := edge2.Mul(deltaU1).Sub(edge1.Mul(deltaU2)).Mul(fc)

		for _, idx := range []uint32{i0, i1, i2} {
			tangents[idx] = tangents[idx].Add(tangent)
			bitangents[idx] = bitangents[idx].Add(bitangent)
		}
	}

	for i := range m.Vertices {
		if tangents[i].Len() > 0 {
			m.Vertices[i].Tangent = tangents[i].Normalize()
		}
		if bitangents[i].Len() > 0 {
			m.Vertices[i].Bitangent = bitangents[i].Normalize()
		}
	}
}
