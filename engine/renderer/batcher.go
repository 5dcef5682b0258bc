package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/resources"
	"github.com/spaghettifunk/lumen/engine/scene"
)

/**
 * @brief One mesh drawn for one entity. Becomes a single indirect command.
 */
type batch struct {
	mesh   *resources.Mesh
	filter *scene.MeshFilterComponent
	model  mgl32.Mat4
}

/**
 * @brief Merges every mesh instance of a scene into the persistent scene
 * buffers: one vertex range, one re-based index range, one indirect command
 * per mesh and entity, and a SubMeshDraw run per command.
 */
type Batcher struct {
	ctx *RendererContext

	vertices     []resources.Vertice
	indices      []uint32
	commands     []metadata.DrawElementsIndirectCommand
	commandData  []metadata.CommandData
	subMeshDraws []metadata.SubMeshDraw
	transforms   []mgl32.Mat4
}

func NewBatcher(ctx *RendererContext) *Batcher {
	return &Batcher{ctx: ctx}
}

// Commands is the number of indirect commands written by the last batch.
func (b *Batcher) Commands() int32 {
	return int32(len(b.commands))
}

// Batch rebuilds the scene buffers. Nothing is written when a mesh has a
// broken submesh layout or the scene does not fit the configured capacities.
func (b *Batcher) Batch(s *scene.Scene, materials *MaterialUploader) error {
	b.reset()
	b.ctx.Stats.resetGeometry()

	batches := collectBatches(s)
	if err := validateMeshes(batches); err != nil {
		core.LogError(err.Error())
		return err
	}
	if err := b.checkCapacity(batches); err != nil {
		core.LogError(err.Error())
		return err
	}

	defaultSlot, _ := materials.Slot(s.Cache().Defaults().Material)
	for _, bt := range batches {
		b.appendBatch(bt, materials, defaultSlot)
	}

	b.flush()
	return nil
}

func (b *Batcher) reset() {
	b.vertices = b.vertices[:0]
	b.indices = b.indices[:0]
	b.commands = b.commands[:0]
	b.commandData = b.commandData[:0]
	b.subMeshDraws = b.subMeshDraws[:0]
	b.transforms = b.transforms[:0]
}

// collectBatches walks meshes in cache order, then the active entities
// referencing each of them in creation order.
func collectBatches(s *scene.Scene) []batch {
	reg := s.Registry()
	entities := reg.View(scene.TypeOf[scene.MeshFilterComponent](), scene.TypeOf[scene.TransformComponent]())

	var batches []batch
	for _, mesh := range resources.GetByType[resources.Mesh](s.Cache()) {
		for _, e := range entities {
			if !reg.IsActive(e) {
				continue
			}
			filter, _ := scene.Get[scene.MeshFilterComponent](reg, e)
			if filter.MeshID != mesh.ID() {
				continue
			}
			transform, _ := scene.Get[scene.TransformComponent](reg, e)
			batches = append(batches, batch{mesh: mesh, filter: filter, model: transform.Model()})
		}
	}
	return batches
}

// validateMeshes checks each distinct mesh once. Re-basing an index that
// leaves its submesh's vertex range would make it address another submesh.
func validateMeshes(batches []batch) error {
	checked := make(map[uuid.UUID]bool)
	for _, bt := range batches {
		if checked[bt.mesh.ID()] {
			continue
		}
		checked[bt.mesh.ID()] = true
		if err := bt.mesh.Validate(); err != nil {
			return fmt.Errorf("mesh '%s': %w", bt.mesh.Name(), err)
		}
	}
	return nil
}

func (b *Batcher) checkCapacity(batches []batch) error {
	var vertices, indices, subMeshes uint64
	for _, bt := range batches {
		for _, sm := range bt.mesh.SubMeshes {
			vertices += uint64(sm.VertexCount)
			indices += uint64(sm.IndexCount)
		}
		subMeshes += uint64(len(bt.mesh.SubMeshes))
	}

	c := b.ctx.Capacity
	checks := []struct {
		what       string
		used, have uint64
	}{
		{"vertices", vertices, uint64(c.MaxVertices)},
		{"indices", indices, uint64(c.MaxIndices)},
		{"draw commands", uint64(len(batches)), uint64(c.MaxDrawCommands)},
		{"submeshes", subMeshes, uint64(c.MaxSubMeshes)},
	}
	for _, chk := range checks {
		if chk.used > chk.have {
			return fmt.Errorf("%w: scene needs %d %s, capacity is %d", core.ErrCapacityExceeded, chk.used, chk.what, chk.have)
		}
	}
	return nil
}

func (b *Batcher) appendBatch(bt batch, materials *MaterialUploader, defaultSlot uint32) {
	baseVertex := uint32(len(b.vertices))
	firstIndex := uint32(len(b.indices))
	offset := uint32(len(b.subMeshDraws))

	for i, sm := range bt.mesh.SubMeshes {
		running := uint32(len(b.vertices)) - baseVertex
		b.vertices = append(b.vertices, bt.mesh.Vertices[sm.VertexOffset:sm.VertexOffset+sm.VertexCount]...)
		for _, idx := range bt.mesh.Indices[sm.IndexOffset : sm.IndexOffset+sm.IndexCount] {
			b.indices = append(b.indices, idx-sm.VertexOffset+running)
		}
		b.subMeshDraws = append(b.subMeshDraws, metadata.SubMeshDraw{
			MaterialSlot: materialSlot(bt.filter, i, materials, defaultSlot),
			FirstVertex:  running,
			VertexCount:  sm.VertexCount,
		})
	}

	slot := uint32(len(b.commands))
	count := uint32(len(b.indices)) - firstIndex
	b.commands = append(b.commands, metadata.DrawElementsIndirectCommand{
		Count:         count,
		InstanceCount: 1,
		FirstIndex:    firstIndex,
		BaseVertex:    int32(baseVertex),
		BaseInstance:  slot,
	})
	b.commandData = append(b.commandData, metadata.CommandData{
		Offset:       offset,
		SubMeshCount: uint32(len(bt.mesh.SubMeshes)),
	})
	b.transforms = append(b.transforms, bt.model)

	stats := &b.ctx.Stats
	stats.DrawCalls++
	stats.RenderedVertices += uint32(len(b.vertices)) - baseVertex
	stats.RenderedIndices += count
}

func materialSlot(filter *scene.MeshFilterComponent, subMesh int, materials *MaterialUploader, defaultSlot uint32) uint32 {
	id, ok := filter.MaterialFor(subMesh)
	if !ok || id == uuid.Nil {
		return defaultSlot
	}
	if slot, ok := materials.Slot(id); ok {
		return slot
	}
	return defaultSlot
}

// flush copies the CPU arrays into the persistent scene buffers.
func (b *Batcher) flush() {
	ctx := b.ctx
	writePersistent(ctx, ctx.Vertices, metadata.AsBytes(b.vertices))
	writePersistent(ctx, ctx.Indices, metadata.AsBytes(b.indices))
	writePersistent(ctx, ctx.Commands, metadata.AsBytes(b.commands))
	writePersistent(ctx, ctx.CommandData, metadata.AsBytes(b.commandData))
	writePersistent(ctx, ctx.SubMeshDraws, metadata.AsBytes(b.subMeshDraws))
	writePersistent(ctx, ctx.Transforms, metadata.AsBytes(b.transforms))
}

// writePersistent writes data at the start of buf through the sync guard.
// Buffers the driver could not map fall back to a regular upload.
func writePersistent(ctx *RendererContext, buf *metadata.Buffer, data []byte) {
	if len(data) == 0 {
		return
	}
	ctx.Sync.BeginWrite(buf.Name)
	if buf.Persistent() {
		copy(buf.Mapped, data)
		return
	}
	ctx.Backend.UploadBufferData(buf, 0, data)
}
