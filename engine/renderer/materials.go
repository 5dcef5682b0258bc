package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/resources"
	"golang.org/x/exp/maps"
)

/**
 * @brief Packs every referenced material into the materials storage buffer
 * and remembers which slot each material landed in. Rebuilt in full on every
 * upload, so slots may move between uploads.
 */
type MaterialUploader struct {
	backend Backend
	buffer  *metadata.Buffer

	uploads []metadata.MaterialUpload
	slots   map[uuid.UUID]uint32
	count   uint32
}

func NewMaterialUploader(backend Backend, buffer *metadata.Buffer, capacity uint32) *MaterialUploader {
	return &MaterialUploader{
		backend: backend,
		buffer:  buffer,
		uploads: make([]metadata.MaterialUpload, capacity),
		slots:   make(map[uuid.UUID]uint32),
	}
}

// Upload walks the cache materials in insertion order, skipping unreferenced
// ones, and sends the packed array in one partial update.
func (mu *MaterialUploader) Upload(cache *resources.Cache, stats *RendererStatistics) error {
	clear(mu.slots)
	mu.count = 0
	// Texture bytes restart here rather than in the batcher; every material
	// upload is followed by a re-batch in the same frame.
	stats.TotalTextureBytes = 0

	defaults := cache.Defaults()
	for _, m := range resources.GetByType[resources.Material](cache) {
		if m.RefCount() == 0 {
			continue
		}
		if _, mapped := mu.slots[m.ID()]; mapped {
			continue
		}
		if mu.count >= uint32(len(mu.uploads)) {
			return fmt.Errorf("%w: more than %d materials in use", core.ErrCapacityExceeded, len(mu.uploads))
		}

		upload := metadata.MaterialUpload{
			Color:   m.Color,
			UVScale: materialUVScale(m),
		}
		for slot := resources.TextureMapType(0); slot < resources.TextureMapCount; slot++ {
			tex := resolveTexture(cache, m.Map(slot), defaults.Textures[slot])
			if tex == nil {
				continue
			}
			upload.Maps[slot] = tex.Handle.Bindless
			stats.TotalTextureBytes += tex.ByteSize()
		}

		mu.uploads[mu.count] = upload
		mu.slots[m.ID()] = mu.count
		mu.count++
	}

	if mu.count > 0 {
		mu.backend.UploadBufferData(mu.buffer, 0, metadata.AsBytes(mu.uploads[:mu.count]))
	}
	return nil
}

func materialUVScale(m *resources.Material) mgl32.Vec4 {
	flip := float32(1)
	if m.FlipY {
		flip = -1
	}
	return mgl32.Vec4{m.UVScale.X(), m.UVScale.Y(), m.NormalStrength, flip}
}

// resolveTexture falls back to the matching default texture when id does not
// name a live image texture.
func resolveTexture(cache *resources.Cache, id, fallback uuid.UUID) *resources.ImageTexture {
	if tex, ok := resources.GetByUUID[resources.ImageTexture](cache, id); ok && tex.Handle.Valid {
		return tex
	}
	if tex, ok := resources.GetByUUID[resources.ImageTexture](cache, fallback); ok {
		return tex
	}
	return nil
}

// Slot returns the slot of a material in the last upload.
func (mu *MaterialUploader) Slot(id uuid.UUID) (uint32, bool) {
	slot, ok := mu.slots[id]
	return slot, ok
}

// Slots returns a copy of the id to slot map of the last upload.
func (mu *MaterialUploader) Slots() map[uuid.UUID]uint32 {
	return maps.Clone(mu.slots)
}

func (mu *MaterialUploader) Count() uint32 {
	return mu.count
}

// Uploads returns the records sent by the last upload.
func (mu *MaterialUploader) Uploads() []metadata.MaterialUpload {
	return mu.uploads[:mu.count]
}
