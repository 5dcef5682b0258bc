package opengl

import (
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

const persistentFlags = gl.MAP_WRITE_BIT | gl.MAP_PERSISTENT_BIT | gl.MAP_COHERENT_BIT

// CreateBuffer allocates a buffer. Persistent buffers use immutable storage
// and stay mapped; when mapping fails they come back as regular buffers.
func (r *OpenGLRenderer) CreateBuffer(desc metadata.BufferDesc) *metadata.Buffer {
	b := &metadata.Buffer{Name: desc.Name, Target: desc.Target, Size: desc.Size}
	gl.CreateBuffers(1, &b.ID)

	if !desc.Persistent {
		gl.NamedBufferData(b.ID, desc.Size, nil, gl.DYNAMIC_DRAW)
		return b
	}

	gl.NamedBufferStorage(b.ID, desc.Size, nil, persistentFlags)
	ptr := gl.MapNamedBufferRange(b.ID, 0, desc.Size, persistentFlags)
	if ptr == nil {
		core.LogError("failed to map buffer '%s' (%d bytes) persistently", desc.Name, desc.Size)
		return b
	}
	b.Mapped = unsafe.Slice((*byte)(ptr), desc.Size)
	return b
}

// UploadBufferData writes data at offset. Writes into persistent buffers go
// straight to the mapping.
func (r *OpenGLRenderer) UploadBufferData(b *metadata.Buffer, offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	if offset < 0 || offset+len(data) > b.Size {
		core.LogError("upload of %d bytes at %d overflows buffer '%s' of %d bytes", len(data), offset, b.Name, b.Size)
		return
	}
	if b.Persistent() {
		copy(b.Mapped[offset:], data)
		return
	}
	gl.NamedBufferSubData(b.ID, offset, len(data), gl.Ptr(data))
}

func (r *OpenGLRenderer) BindBufferBase(b *metadata.Buffer, binding uint32) {
	switch b.Target {
	case metadata.BufferShaderStorage:
		gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, binding, b.ID)
	case metadata.BufferUniform:
		gl.BindBufferBase(gl.UNIFORM_BUFFER, binding, b.ID)
	default:
		core.LogWarn("buffer '%s' has no indexed binding target", b.Name)
	}
}

func (r *OpenGLRenderer) DestroyBuffer(b *metadata.Buffer) {
	if b.ID == 0 {
		return
	}
	if b.Persistent() {
		gl.UnmapNamedBuffer(b.ID)
		b.Mapped = nil
	}
	if r.indirect == b.ID {
		r.indirect = 0
	}
	gl.DeleteBuffers(1, &b.ID)
	b.ID = 0
}

// CreateVertexArray binds the vertex and index buffers of desc and describes
// every float attribute on binding 0.
func (r *OpenGLRenderer) CreateVertexArray(desc metadata.VertexArrayDesc) *metadata.VertexArray {
	va := &metadata.VertexArray{}
	gl.CreateVertexArrays(1, &va.ID)
	gl.VertexArrayVertexBuffer(va.ID, 0, desc.Vertices.ID, 0, desc.Stride)
	if desc.Indices != nil {
		gl.VertexArrayElementBuffer(va.ID, desc.Indices.ID)
	}
	for _, a := range desc.Attributes {
		gl.EnableVertexArrayAttrib(va.ID, a.Location)
		gl.VertexArrayAttribFormat(va.ID, a.Location, a.Components, gl.FLOAT, false, uint32(a.Offset))
		gl.VertexArrayAttribBinding(va.ID, a.Location, 0)
	}
	return va
}

func (r *OpenGLRenderer) DestroyVertexArray(va *metadata.VertexArray) {
	if va.ID != 0 {
		gl.DeleteVertexArrays(1, &va.ID)
	}
	va.ID = 0
}
