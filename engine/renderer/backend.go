package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/**
 * @brief The GPU resource layer. Every driver object the pipeline uses is
 * created, bound and destroyed through it. Driver failures are logged by the
 * implementation and surface as invalid handles.
 */
type Backend interface {
	Initialize(appName string) error
	Shutdown() error

	// Textures are bindless resident for their whole lifetime.
	CreateTexture(desc metadata.TextureDesc) metadata.TextureHandle
	DestroyTexture(h *metadata.TextureHandle)
	CreateCubeMap(faces [6]metadata.TextureDesc) metadata.TextureHandle
	DestroyCubeMap(h *metadata.TextureHandle)

	CreateFramebuffer(desc metadata.FramebufferDesc) *metadata.Framebuffer
	ResizeFramebuffer(fb *metadata.Framebuffer, width, height uint32)
	DestroyFramebuffer(fb *metadata.Framebuffer)
	// BindFramebuffer binds fb for drawing. A nil fb binds the default framebuffer.
	BindFramebuffer(fb *metadata.Framebuffer)

	CreateShader(desc metadata.ShaderDesc) metadata.ShaderHandle
	DestroyShader(h *metadata.ShaderHandle)
	UseShader(h metadata.ShaderHandle)
	// UploadUniform returns false if any uniform or block was not found.
	UploadUniform(h metadata.ShaderHandle, uniforms []metadata.UniformDesc) bool

	CreateBuffer(desc metadata.BufferDesc) *metadata.Buffer
	// UploadBufferData replaces len(data) bytes at offset.
	UploadBufferData(b *metadata.Buffer, offset int, data []byte)
	BindBufferBase(b *metadata.Buffer, binding uint32)
	DestroyBuffer(b *metadata.Buffer)

	CreateVertexArray(desc metadata.VertexArrayDesc) *metadata.VertexArray
	DestroyVertexArray(va *metadata.VertexArray)

	FenceSync() metadata.Fence
	// ClientWaitSync waits up to timeoutNs, flushing pending commands first.
	ClientWaitSync(f metadata.Fence, timeoutNs uint64) metadata.SyncStatus
	DeleteSync(f metadata.Fence)

	SetViewport(x, y int32, width, height uint32)
	Clear(color mgl32.Vec4, flags metadata.ClearFlags)
	SetCullFace(face metadata.CullFace)
	SetDepthMask(write bool)
	BindTextureUnit(unit uint32, h metadata.TextureHandle)
	BindCubeMapUnit(unit uint32, h metadata.TextureHandle)

	// MultiDrawElementsIndirect issues the first drawCount commands of the
	// indirect buffer against va.
	MultiDrawElementsIndirect(va *metadata.VertexArray, commands *metadata.Buffer, drawCount int32)
	DrawElements(va *metadata.VertexArray, count int32)
}
