package renderer

import "fmt"

/**
 * @brief Counters of the last frame. Geometry counters are rebuilt on every
 * re-batch, texture bytes on every material upload. Times are in milliseconds.
 */
type RendererStatistics struct {
	DrawCalls         uint32
	RenderedVertices  uint32
	RenderedIndices   uint32
	TotalTextureBytes uint64

	SceneUploadTime    float64
	MaterialUploadTime float64
	LightUploadTime    float64

	ShadowPassTime      float64
	GeometryPassTime    float64
	LightingPassTime    float64
	EnvironmentPassTime float64

	/** @brief Fence polls spent in the last wait. */
	FencePolls int
}

func (s *RendererStatistics) resetGeometry() {
	s.DrawCalls = 0
	s.RenderedVertices = 0
	s.RenderedIndices = 0
}

func (s RendererStatistics) String() string {
	return fmt.Sprintf("draws=%d vertices=%d indices=%d textures=%dB scene=%.2fms materials=%.2fms lights=%.2fms",
		s.DrawCalls, s.RenderedVertices, s.RenderedIndices, s.TotalTextureBytes,
		s.SceneUploadTime, s.MaterialUploadTime, s.LightUploadTime)
}
