package resources

import (
	"github.com/go-gl/mathgl/mgl32"
)

type faceDesc struct {
	normal  mgl32.Vec3
	corners [4]mgl32.Vec3
}

var quadUVs = [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

// Counter clockwise, 2 units wide, centered on the origin.
var cubeFaces = [6]faceDesc{
	// Front (facing -Z)
	{mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1}}},
	// Back (facing +Z)
	{mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{1, -1, 1}, {-1, -1, 1}, {-1, 1, 1}, {1, 1, 1}}},
	// Left (facing -X)
	{mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{-1, -1, 1}, {-1, -1, -1}, {-1, 1, -1}, {-1, 1, 1}}},
	// Right (facing +X)
	{mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{1, -1, -1}, {1, -1, 1}, {1, 1, 1}, {1, 1, -1}}},
	// Top (facing +Y)
	{mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{-1, 1, -1}, {1, 1, -1}, {1, 1, 1}, {-1, 1, 1}}},
	// Bottom (facing -Y)
	{mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{-1, -1, 1}, {1, -1, 1}, {1, -1, -1}, {-1, -1, -1}}},
}

// The plane sits at y = -1 so it lines up with the bottom of the cube, facing up.
var planeFace = faceDesc{
	mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{-1, -1, 1}, {1, -1, 1}, {1, -1, -1}, {-1, -1, -1}},
}

/**
 * @brief Fills m with a cube of 24 vertices (4 per face) and 36 indices in a
 * single submesh named after the mesh.
 */
func GenerateCube(m *Mesh) {
	generateFaces(m, cubeFaces[:])
}

/**
 * @brief Fills m with a single quad of 4 vertices and 6 indices.
 */
func GeneratePlane(m *Mesh) {
	generateFaces(m, []faceDesc{planeFace})
}

func generateFaces(m *Mesh, faces []faceDesc) {
	m.Vertices = make([]Vertice, 0, len(faces)*4)
	m.Indices = make([]uint32, 0, len(faces)*6)

	for i, face := range faces {
		for c := 0; c < 4; c++ {
			m.Vertices = append(m.Vertices, Vertice{
				Position: face.corners[c],
				Normal:   face.normal,
				UV:       quadUVs[c],
			})
		}
		vOffset := uint32(i * 4)
		m.Indices = append(m.Indices,
			vOffset+0, vOffset+1, vOffset+2,
			vOffset+2, vOffset+3, vOffset+0,
		)
	}

	m.SubMeshes = []SubMesh{{
		VertexOffset: 0,
		VertexCount:  uint32(len(m.Vertices)),
		IndexOffset:  0,
		IndexCount:   uint32(len(m.Indices)),
		Index:        0,
		Name:         m.name,
	}}
	m.GenerateTangents()
}
