// Package headless is an in-memory GPU layer. It records every call, keeps
// texture and buffer contents on the CPU and simulates fences, so the pipeline
// can run without a window or driver.
package headless

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

/** @brief A recorded backend call. */
type Call struct {
	Name string
	Args []interface{}
}

/** @brief A texture held by the headless backend. */
type Texture struct {
	Desc     metadata.TextureDesc
	Faces    [6]metadata.TextureDesc
	CubeMap  bool
	Resident bool
}

/** @brief State captured when an indirect multi-draw was issued. */
type Draw struct {
	Framebuffer uint32
	Shader      uint32
	Cull        metadata.CullFace
	Commands    []metadata.DrawElementsIndirectCommand
	// for DrawElements, Commands is empty and Count is set
	Count int32
}

type fence struct {
	polls int
}

type Backend struct {
	// SignalAfterPolls is how many ClientWaitSync calls report a timeout
	// before a fence signals.
	SignalAfterPolls int
	// FailWait makes ClientWaitSync report SyncWaitFailed.
	FailWait bool

	Calls []Call
	Draws []Draw

	textures     map[uint32]*Texture
	buffers      map[uint32]*metadata.Buffer
	bufferData   map[uint32][]byte
	framebuffers map[uint32]*metadata.Framebuffer
	shaders      map[uint32]metadata.ShaderDesc
	vertexArrays map[uint32]metadata.VertexArrayDesc
	fences       map[uintptr]*fence

	nextID    uint32
	nextFence uintptr

	boundFramebuffer uint32
	currentShader    uint32
	cull             metadata.CullFace
	depthMask        bool
	viewport         [4]int64
	units            map[uint32]metadata.TextureHandle
}

func New() *Backend {
	return &Backend{
		textures:     make(map[uint32]*Texture),
		buffers:      make(map[uint32]*metadata.Buffer),
		bufferData:   make(map[uint32][]byte),
		framebuffers: make(map[uint32]*metadata.Framebuffer),
		shaders:      make(map[uint32]metadata.ShaderDesc),
		vertexArrays: make(map[uint32]metadata.VertexArrayDesc),
		fences:       make(map[uintptr]*fence),
		units:        make(map[uint32]metadata.TextureHandle),
		depthMask:    true,
	}
}

func (b *Backend) record(name string, args ...interface{}) {
	b.Calls = append(b.Calls, Call{Name: name, Args: args})
}

func (b *Backend) id() uint32 {
	b.nextID++
	return b.nextID
}

func (b *Backend) Initialize(appName string) error {
	b.record("Initialize", appName)
	core.LogInfo("headless backend initialized for %s", appName)
	return nil
}

func (b *Backend) Shutdown() error {
	b.record("Shutdown")
	b.fences = make(map[uintptr]*fence)
	return nil
}

func (b *Backend) CreateTexture(desc metadata.TextureDesc) metadata.TextureHandle {
	b.record("CreateTexture", desc.Width, desc.Height, desc.Channels, desc.BitsPerChannel)
	if _, ok := metadata.TextureFormatFor(desc); !ok {
		core.LogError("unsupported texture format: %d channels at %d bits", desc.Channels, desc.BitsPerChannel)
		return metadata.TextureHandle{}
	}
	id := b.id()
	desc.Pixels = append([]byte(nil), desc.Pixels...)
	b.textures[id] = &Texture{Desc: desc, Resident: true}
	return metadata.TextureHandle{ID: id, Bindless: bindless(id), Valid: true}
}

func (b *Backend) DestroyTexture(h *metadata.TextureHandle) {
	b.record("DestroyTexture", h.ID)
	if t, ok := b.textures[h.ID]; ok {
		t.Resident = false
		delete(b.textures, h.ID)
	}
	*h = metadata.TextureHandle{}
}

func (b *Backend) CreateCubeMap(faces [6]metadata.TextureDesc) metadata.TextureHandle {
	b.record("CreateCubeMap", faces[0].Width, faces[0].Height)
	for _, f := range faces {
		if _, ok := metadata.TextureFormatFor(f); !ok {
			core.LogError("unsupported cube map face format: %d channels at %d bits", f.Channels, f.BitsPerChannel)
			return metadata.TextureHandle{}
		}
	}
	id := b.id()
	b.textures[id] = &Texture{Faces: faces, CubeMap: true, Resident: true}
	return metadata.TextureHandle{ID: id, Bindless: bindless(id), Valid: true}
}

func (b *Backend) DestroyCubeMap(h *metadata.TextureHandle) {
	b.record("DestroyCubeMap", h.ID)
	delete(b.textures, h.ID)
	*h = metadata.TextureHandle{}
}

func (b *Backend) CreateFramebuffer(desc metadata.FramebufferDesc) *metadata.Framebuffer {
	b.record("CreateFramebuffer", desc.Width, desc.Height, len(desc.Attachments))
	desc.Attachments = append([]metadata.TextureDesc(nil), desc.Attachments...)
	fb := &metadata.Framebuffer{ID: b.id(), Desc: desc, Complete: true}
	b.createAttachments(fb)
	b.framebuffers[fb.ID] = fb
	return fb
}

func (b *Backend) createAttachments(fb *metadata.Framebuffer) {
	fb.Attachments = make([]metadata.TextureHandle, len(fb.Desc.Attachments))
	for i := range fb.Desc.Attachments {
		fb.Desc.Attachments[i].Width = fb.Desc.Width
		fb.Desc.Attachments[i].Height = fb.Desc.Height
		fb.Attachments[i] = b.CreateTexture(fb.Desc.Attachments[i])
		if !fb.Attachments[i].Valid {
			fb.Complete = false
		}
	}
	if len(fb.Attachments) == 0 {
		fb.Complete = false
	}
	if !fb.Complete {
		core.LogError("framebuffer %d is incomplete", fb.ID)
	}
}

func (b *Backend) ResizeFramebuffer(fb *metadata.Framebuffer, width, height uint32) {
	b.record("ResizeFramebuffer", fb.ID, width, height)
	for i := range fb.Attachments {
		b.DestroyTexture(&fb.Attachments[i])
	}
	fb.Desc.Width, fb.Desc.Height = width, height
	fb.Complete = true
	b.createAttachments(fb)
}

func (b *Backend) DestroyFramebuffer(fb *metadata.Framebuffer) {
	b.record("DestroyFramebuffer", fb.ID)
	for i := range fb.Attachments {
		b.DestroyTexture(&fb.Attachments[i])
	}
	delete(b.framebuffers, fb.ID)
	fb.ID = 0
	fb.Complete = false
}

func (b *Backend) BindFramebuffer(fb *metadata.Framebuffer) {
	if fb == nil {
		b.boundFramebuffer = 0
	} else {
		b.boundFramebuffer = fb.ID
	}
	b.record("BindFramebuffer", b.boundFramebuffer)
}

// CreateShader fails when a required stage is empty or any stage has no main.
func (b *Backend) CreateShader(desc metadata.ShaderDesc) metadata.ShaderHandle {
	b.record("CreateShader", desc.Name)
	h := metadata.ShaderHandle{ID: b.id(), Name: desc.Name, Valid: true}
	b.shaders[h.ID] = desc

	stages := map[string]string{"vertex": desc.VertexSource, "fragment": desc.FragmentSource}
	if desc.GeometrySource != "" {
		stages["geometry"] = desc.GeometrySource
	}
	for stage, src := range stages {
		if !strings.Contains(src, "void main") {
			core.LogError("failed to compile %s stage of shader '%s'", stage, desc.Name)
			h.Valid = false
		}
	}
	return h
}

func (b *Backend) DestroyShader(h *metadata.ShaderHandle) {
	b.record("DestroyShader", h.ID)
	delete(b.shaders, h.ID)
	*h = metadata.ShaderHandle{}
}

func (b *Backend) UseShader(h metadata.ShaderHandle) {
	b.currentShader = h.ID
	b.record("UseShader", h.ID)
}

// UploadUniform reports a uniform as missing when its name appears in no stage.
func (b *Backend) UploadUniform(h metadata.ShaderHandle, uniforms []metadata.UniformDesc) bool {
	desc, ok := b.shaders[h.ID]
	if !ok || !h.Valid {
		return false
	}
	all := desc.VertexSource + desc.FragmentSource + desc.GeometrySource
	found := true
	for _, u := range uniforms {
		b.record("UploadUniform", h.ID, u.Name, u.Value)
		if !strings.Contains(all, u.Name) {
			found = false
		}
	}
	return found
}

func (b *Backend) CreateBuffer(desc metadata.BufferDesc) *metadata.Buffer {
	b.record("CreateBuffer", desc.Name, desc.Size, desc.Persistent)
	buf := &metadata.Buffer{ID: b.id(), Name: desc.Name, Target: desc.Target, Size: desc.Size}
	data := make([]byte, desc.Size)
	if desc.Persistent {
		buf.Mapped = data
	}
	b.buffers[buf.ID] = buf
	b.bufferData[buf.ID] = data
	return buf
}

func (b *Backend) UploadBufferData(buf *metadata.Buffer, offset int, data []byte) {
	b.record("UploadBufferData", buf.Name, offset, len(data))
	store, ok := b.bufferData[buf.ID]
	if !ok {
		core.LogError("upload into unknown buffer '%s'", buf.Name)
		return
	}
	if offset < 0 || offset+len(data) > len(store) {
		core.LogError("upload of %d bytes at %d overflows buffer '%s' of %d bytes", len(data), offset, buf.Name, len(store))
		return
	}
	copy(store[offset:], data)
}

func (b *Backend) BindBufferBase(buf *metadata.Buffer, binding uint32) {
	b.record("BindBufferBase", buf.Name, binding)
}

func (b *Backend) DestroyBuffer(buf *metadata.Buffer) {
	b.record("DestroyBuffer", buf.Name)
	delete(b.buffers, buf.ID)
	delete(b.bufferData, buf.ID)
	buf.Mapped = nil
	buf.ID = 0
}

func (b *Backend) CreateVertexArray(desc metadata.VertexArrayDesc) *metadata.VertexArray {
	b.record("CreateVertexArray", len(desc.Attributes))
	va := &metadata.VertexArray{ID: b.id()}
	b.vertexArrays[va.ID] = desc
	return va
}

func (b *Backend) DestroyVertexArray(va *metadata.VertexArray) {
	b.record("DestroyVertexArray", va.ID)
	delete(b.vertexArrays, va.ID)
	va.ID = 0
}

func (b *Backend) FenceSync() metadata.Fence {
	b.nextFence++
	b.fences[b.nextFence] = &fence{}
	b.record("FenceSync", b.nextFence)
	return metadata.Fence{Handle: b.nextFence}
}

func (b *Backend) ClientWaitSync(f metadata.Fence, timeoutNs uint64) metadata.SyncStatus {
	b.record("ClientWaitSync", f.Handle, timeoutNs)
	fc, ok := b.fences[f.Handle]
	if !ok || b.FailWait {
		return metadata.SyncWaitFailed
	}
	fc.polls++
	if fc.polls <= b.SignalAfterPolls {
		return metadata.SyncTimeoutExpired
	}
	if fc.polls == 1 {
		return metadata.SyncAlreadySignaled
	}
	return metadata.SyncConditionSatisfied
}

func (b *Backend) DeleteSync(f metadata.Fence) {
	b.record("DeleteSync", f.Handle)
	delete(b.fences, f.Handle)
}

func (b *Backend) SetViewport(x, y int32, width, height uint32) {
	b.viewport = [4]int64{int64(x), int64(y), int64(width), int64(height)}
	b.record("SetViewport", x, y, width, height)
}

func (b *Backend) Clear(color mgl32.Vec4, flags metadata.ClearFlags) {
	b.record("Clear", color, flags)
}

func (b *Backend) SetCullFace(face metadata.CullFace) {
	b.cull = face
	b.record("SetCullFace", face)
}

func (b *Backend) SetDepthMask(write bool) {
	b.depthMask = write
	b.record("SetDepthMask", write)
}

func (b *Backend) BindTextureUnit(unit uint32, h metadata.TextureHandle) {
	b.units[unit] = h
	b.record("BindTextureUnit", unit, h.ID)
}

func (b *Backend) BindCubeMapUnit(unit uint32, h metadata.TextureHandle) {
	b.units[unit] = h
	b.record("BindCubeMapUnit", unit, h.ID)
}

func (b *Backend) MultiDrawElementsIndirect(va *metadata.VertexArray, commands *metadata.Buffer, drawCount int32) {
	b.record("MultiDrawElementsIndirect", va.ID, drawCount)
	cmds := make([]metadata.DrawElementsIndirectCommand, drawCount)
	copy(metadata.AsBytes(cmds), b.bufferData[commands.ID])
	b.Draws = append(b.Draws, Draw{
		Framebuffer: b.boundFramebuffer,
		Shader:      b.currentShader,
		Cull:        b.cull,
		Commands:    cmds,
	})
}

func (b *Backend) Present(src *metadata.Framebuffer, width, height uint32) {
	b.record("Present", src.ID, width, height)
}

func (b *Backend) DrawElements(va *metadata.VertexArray, count int32) {
	b.record("DrawElements", va.ID, count)
	b.Draws = append(b.Draws, Draw{
		Framebuffer: b.boundFramebuffer,
		Shader:      b.currentShader,
		Cull:        b.cull,
		Count:       count,
	})
}

// Texture returns the stored texture, if it is alive.
func (b *Backend) Texture(id uint32) (*Texture, bool) {
	t, ok := b.textures[id]
	return t, ok
}

// TextureCount is the number of live textures and cube maps.
func (b *Backend) TextureCount() int {
	return len(b.textures)
}

// BufferData returns the CPU copy of a buffer's content.
func (b *Backend) BufferData(buf *metadata.Buffer) []byte {
	return b.bufferData[buf.ID]
}

func (b *Backend) Framebuffer(id uint32) (*metadata.Framebuffer, bool) {
	fb, ok := b.framebuffers[id]
	return fb, ok
}

// LiveFences is the number of fences created and not yet deleted.
func (b *Backend) LiveFences() int {
	return len(b.fences)
}

// CallNames lists recorded call names in order, optionally filtered by prefix.
func (b *Backend) CallNames(prefix string) []string {
	names := []string{}
	for _, c := range b.Calls {
		if strings.HasPrefix(c.Name, prefix) {
			names = append(names, c.Name)
		}
	}
	return names
}

// Reset drops recorded calls and draws, keeping every live object.
func (b *Backend) Reset() {
	b.Calls = nil
	b.Draws = nil
}

func (b *Backend) String() string {
	return fmt.Sprintf("headless backend: %d textures, %d buffers, %d framebuffers, %d fences",
		len(b.textures), len(b.buffers), len(b.framebuffers), len(b.fences))
}

func bindless(id uint32) uint64 {
	return 0x1000_0000_0000 | uint64(id)
}
